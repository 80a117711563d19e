package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"NM_clicker_miniapp/internal/client"
	"NM_clicker_miniapp/internal/engine"
	"NM_clicker_miniapp/pkg/logger"

	"github.com/gdamore/tcell/v2"
)

const frameInterval = 50 * time.Millisecond

type app struct {
	screen tcell.Screen
	eng    *engine.Engine

	width, height int
	showBoard     bool

	// redraw carries engine change notifications into the event loop.
	redraw chan struct{}
}

func newApp(cfg *Config) (*app, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	a := &app{
		screen: screen,
		width:  0,
		height: 0,
		redraw: make(chan struct{}, 1),
	}
	a.width, a.height = screen.Size()

	apiClient := client.New(cfg.APIBaseURL, 0)
	a.eng = engine.New(apiClient, engine.Options{
		Store:          engine.NewFileSessionStore(cfg.SessionFile),
		BotUsername:    cfg.BotUsername,
		TestTelegramID: cfg.TestTelegramID,
		StartParam:     cfg.StartParam,
		OnChange: func() {
			select {
			case a.redraw <- struct{}{}:
			default:
			}
		},
	})

	return a, nil
}

func (a *app) handleKey(ev *tcell.EventKey) bool {
	if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
		return false
	}

	ctx := context.Background()

	switch ev.Key() {
	case tcell.KeyEnter:
		a.eng.Tap()
		return true
	case tcell.KeyRune:
	default:
		return true
	}

	switch ev.Rune() {
	case ' ':
		a.eng.Tap()
	case 'b':
		go a.eng.ClaimDailyBonus(ctx)
	case 'l':
		go a.eng.EnterLottery(ctx)
	case 'r':
		a.showBoard = !a.showBoard
		if a.showBoard {
			go a.eng.RefreshLeaderboard(ctx)
		}
	case 's':
		a.eng.OpenShareLink()
	case 'q':
		return false
	}

	return true
}

func (a *app) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		if x+i >= a.width {
			break
		}
		a.screen.SetContent(x+i, y, r, nil, style)
	}
}

func (a *app) drawProgressBar(x, y, width int, current, total int64) {
	if width < 2 || total < 1 {
		return
	}
	filled := int(current * int64(width) / total)
	if filled > width {
		filled = width
	}
	for i := 0; i < width; i++ {
		r := '░'
		if i < filled {
			r = '█'
		}
		a.screen.SetContent(x+i, y, r, nil, tcell.StyleDefault.Foreground(tcell.ColorGreen))
	}
}

func (a *app) draw() {
	a.screen.Clear()

	snap := a.eng.Snapshot()

	title := tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)
	plain := tcell.StyleDefault

	a.drawText(1, 0, "NM CLICKER", title)
	a.drawText(1, 1, fmt.Sprintf("phase: %s", snap.Phase), dim)

	if snap.State != nil {
		a.drawText(1, 3, fmt.Sprintf("%s  —  %s points", snap.State.DisplayName, engine.FormatPoints(snap.State.Points)), plain.Bold(true))
		a.drawText(1, 4, fmt.Sprintf("level %d  (x%d per tap)", snap.State.Level, snap.State.Multiplier), plain)

		current, total := a.eng.Progress()
		a.drawProgressBar(1, 5, 40, current, total)
		a.drawText(43, 5, fmt.Sprintf("%s / %s", engine.FormatPoints(current), engine.FormatPoints(total)), dim)

		extras := ""
		if snap.State.DailyBonusAvailable {
			extras += "[bonus ready] "
		}
		if snap.State.LotteryJoined {
			extras += "[in lottery] "
		}
		if snap.State.NightModeUnlocked {
			extras += "[night mode] "
		}
		a.drawText(1, 6, extras, tcell.StyleDefault.Foreground(tcell.ColorTeal))
	}

	if pending := a.eng.PendingTaps(); pending > 0 {
		a.drawText(1, 7, fmt.Sprintf("sending %d taps...", pending), dim)
	}

	a.drawText(1, a.height-3, snap.Status, tcell.StyleDefault.Foreground(tcell.ColorAqua))
	a.drawText(1, a.height-1, "space=tap  b=bonus  l=lottery  r=leaderboard  s=share  q=quit", dim)

	if a.showBoard {
		a.drawLeaderboard(snap)
	}

	a.screen.Show()
}

func (a *app) drawLeaderboard(snap engine.Snapshot) {
	x := a.width - 36
	if x < 45 {
		return
	}

	header := tcell.StyleDefault.Foreground(tcell.ColorYellow)
	a.drawText(x, 1, "TOP PLAYERS", header)

	if len(snap.Leaderboard) == 0 {
		a.drawText(x, 2, "(empty)", tcell.StyleDefault.Foreground(tcell.ColorGray))
		return
	}

	for i, item := range snap.Leaderboard {
		y := 2 + i
		if y >= a.height-4 {
			break
		}
		name := item.DisplayName
		if len(name) > 18 {
			name = name[:18]
		}
		line := fmt.Sprintf("%2d. %-18s %s", item.Rank, name, engine.FormatPoints(item.Points))
		a.drawText(x, y, line, tcell.StyleDefault)
	}
}

func (a *app) run() {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			events <- a.screen.PollEvent()
		}
	}()

	go a.eng.Bootstrap(context.Background())

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	a.draw()
	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if !a.handleKey(ev) {
					return
				}
			case *tcell.EventResize:
				a.width, a.height = a.screen.Size()
				a.screen.Sync()
			}
			a.draw()

		case <-a.redraw:
			a.draw()

		case <-ticker.C:
			a.draw()
		}
	}
}

func (a *app) cleanup() {
	a.eng.Close()
	a.screen.Fini()
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

	a, err := newApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	defer a.cleanup()

	a.run()
}
