package engine

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// HostBridge is the capability surface of the chat-app WebView host.
// Every method must be safe to call when no host is present; the engine
// behaves identically either way.
type HostBridge interface {
	// Ready and Expand are fire-and-forget lifecycle hints.
	Ready()
	Expand()
	// InitData returns the signed launch payload, empty when absent.
	InitData() string
	// StartParam returns the unsafe launch-parameter referral hint.
	StartParam() string
	// OpenLink asks the host to open a share link.
	OpenLink(url string) error
}

var ErrNoHostBridge = errors.New("no host bridge available")

// NopBridge is the default when the client runs outside a host app.
type NopBridge struct{}

func (NopBridge) Ready()                {}
func (NopBridge) Expand()               {}
func (NopBridge) InitData() string      { return "" }
func (NopBridge) StartParam() string    { return "" }
func (NopBridge) OpenLink(string) error { return ErrNoHostBridge }

const shareText = "NM Clicker: join the game and grab +3 levels"

// BuildShareURL builds the referral share intent. Without a bot username
// and a numeric id there is nothing to link to, so only the text is shared.
func BuildShareURL(botUsername string, telegramUserID *int64) string {
	botUsername = strings.TrimPrefix(strings.TrimSpace(botUsername), "@")

	text := url.QueryEscape(shareText)
	if botUsername == "" || telegramUserID == nil {
		return "https://t.me/share/url?text=" + text
	}

	inviteURL := fmt.Sprintf("https://t.me/%s?start=%s%d", botUsername, referralPrefix, *telegramUserID)
	return "https://t.me/share/url?url=" + url.QueryEscape(inviteURL) + "&text=" + text
}
