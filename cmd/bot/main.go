package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type gameBot struct {
	bot       *tgbotapi.BotAPI
	webAppURL string
}

func newGameBot(cfg *Config) (*gameBot, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize bot: %w", err)
	}
	bot.Debug = cfg.Debug

	return &gameBot{
		bot:       bot,
		webAppURL: cfg.WebAppURL,
	}, nil
}

func (g *gameBot) handleStart(msg *tgbotapi.Message) error {
	text := "Welcome to NM Clicker! Tap the logo, level up, invite friends."
	if strings.HasPrefix(msg.CommandArguments(), "ref_") {
		text = "Welcome to NM Clicker! Open the game to collect your +3 level referral bonus."
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if g.webAppURL != "" {
		reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonURL("Play", g.webAppURL),
			),
		)
	}

	_, err := g.bot.Send(reply)
	return err
}

func (g *gameBot) handleInvite(msg *tgbotapi.Message) error {
	inviteURL := fmt.Sprintf("https://t.me/%s?start=ref_%d", g.bot.Self.UserName, msg.From.ID)
	text := fmt.Sprintf("Your invite link (+3 levels for you and your friend):\n%s", inviteURL)

	_, err := g.bot.Send(tgbotapi.NewMessage(msg.Chat.ID, text))
	return err
}

func (g *gameBot) run(ctx context.Context) {
	zapLogger := logger.Logger()
	zapLogger.Info("Bot started", zap.String("username", g.bot.Self.UserName))

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	updates := g.bot.GetUpdatesChan(updateConfig)

	for {
		select {
		case update := <-updates:
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			var err error
			switch update.Message.Command() {
			case "start":
				err = g.handleStart(update.Message)
			case "invite":
				err = g.handleInvite(update.Message)
			}
			if err != nil {
				zapLogger.Error("Failed to handle command",
					zap.String("command", update.Message.Command()),
					zap.Error(err))
			}

		case <-ctx.Done():
			g.bot.StopReceivingUpdates()
			return
		}
	}
}

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := newGameBot(cfg)
	if err != nil {
		logger.Logger().Fatal("Failed to create bot", zap.Error(err))
	}

	bot.run(ctx)
}
