package engine

import (
	"regexp"
	"strconv"
)

// FallbackTelegramID is the shared demo identity used when neither a
// signed host payload nor a valid test id is available.
const FallbackTelegramID = int64(100001)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Identity is the single assertion presented to the auth endpoint.
// Exactly one of InitData / DevTelegramUserID is set.
type Identity struct {
	InitData          string
	DevTelegramUserID int64
}

// ResolveIdentity picks the strongest available identity source: the
// host-app signed payload, then an all-digits test id, then the fixed
// fallback. It never fails; a malformed test id just falls through.
func ResolveIdentity(initData, testTelegramID string, fallback int64) Identity {
	if initData != "" {
		return Identity{InitData: initData}
	}

	if digitsOnly.MatchString(testTelegramID) {
		if id, err := strconv.ParseInt(testTelegramID, 10, 64); err == nil && id > 0 {
			return Identity{DevTelegramUserID: id}
		}
	}

	return Identity{DevTelegramUserID: fallback}
}
