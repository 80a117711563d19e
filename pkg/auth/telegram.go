package auth

import (
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	initdata "github.com/telegram-mini-apps/init-data-golang"
)

const initDataMaxAge = 24 * time.Hour

type TelegramAuth struct {
	botToken  string
	debugMode bool
}

func NewTelegramAuth(botToken string, debugMode bool) *TelegramAuth {
	return &TelegramAuth{
		botToken:  botToken,
		debugMode: debugMode,
	}
}

func (t *TelegramAuth) GetBotToken() string {
	return t.botToken
}

type TelegramUserData struct {
	ID         int64
	Username   string
	FirstName  string
	LastName   string
	StartParam string
	AuthDate   time.Time
}

// VerifyInitData checks the signed Mini App payload and extracts the user
// fields the clicker needs. Signature validation is skipped in debug mode.
func (t *TelegramAuth) VerifyInitData(initData string) (*TelegramUserData, error) {
	if !t.debugMode {
		if err := initdata.Validate(initData, t.botToken, initDataMaxAge); err != nil {
			return nil, err
		}
	}

	return ExtractTelegramData(initData)
}

func ExtractTelegramData(initData string) (*TelegramUserData, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, err
	}

	authDateUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, err
	}

	var userData struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	if err := json.Unmarshal([]byte(values.Get("user")), &userData); err != nil {
		return nil, err
	}

	return &TelegramUserData{
		ID:         userData.ID,
		Username:   userData.Username,
		FirstName:  userData.FirstName,
		LastName:   userData.LastName,
		StartParam: values.Get("start_param"),
		AuthDate:   time.Unix(authDateUnix, 0),
	}, nil
}
