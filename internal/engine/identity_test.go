package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveIdentity(t *testing.T) {
	tests := []struct {
		name     string
		initData string
		testID   string
		expected Identity
	}{
		{
			name:     "signed payload wins over test id",
			initData: "query_id=abc&user=%7B%7D",
			testID:   "555",
			expected: Identity{InitData: "query_id=abc&user=%7B%7D"},
		},
		{
			name:     "numeric test id",
			testID:   "424242",
			expected: Identity{DevTelegramUserID: 424242},
		},
		{
			name:     "non-numeric test id falls back",
			testID:   "42abc",
			expected: Identity{DevTelegramUserID: FallbackTelegramID},
		},
		{
			name:     "negative-looking test id falls back",
			testID:   "-42",
			expected: Identity{DevTelegramUserID: FallbackTelegramID},
		},
		{
			name:     "nothing available falls back",
			expected: Identity{DevTelegramUserID: FallbackTelegramID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIdentity(tt.initData, tt.testID, FallbackTelegramID)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseReferrer(t *testing.T) {
	tests := []struct {
		name       string
		startParam string
		expectedID int64
		expectedOK bool
	}{
		{name: "valid code", startParam: "ref_12345", expectedID: 12345, expectedOK: true},
		{name: "surrounding spaces", startParam: "  ref_777  ", expectedID: 777, expectedOK: true},
		{name: "no prefix", startParam: "promo2024"},
		{name: "non-numeric suffix", startParam: "ref_abc"},
		{name: "empty suffix", startParam: "ref_"},
		{name: "zero id", startParam: "ref_0"},
		{name: "empty param"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ParseReferrer(tt.startParam)
			assert.Equal(t, tt.expectedOK, ok)
			assert.Equal(t, tt.expectedID, id)
		})
	}
}

func TestFormatPoints(t *testing.T) {
	tests := []struct {
		value    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1 000"},
		{123456, "123 456"},
		{1234567, "1 234 567"},
		{-5, "0"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FormatPoints(tt.value))
	}
}

func TestBuildShareURL(t *testing.T) {
	id := int64(9001)

	t.Run("full invite link", func(t *testing.T) {
		url := BuildShareURL("@nm_clicker_bot", &id)
		assert.Contains(t, url, "https://t.me/share/url?url=")
		assert.Contains(t, url, "nm_clicker_bot")
		assert.Contains(t, url, "ref_9001")
	})

	t.Run("no bot username", func(t *testing.T) {
		url := BuildShareURL("", &id)
		assert.Contains(t, url, "https://t.me/share/url?text=")
		assert.NotContains(t, url, "ref_")
	})

	t.Run("no telegram id", func(t *testing.T) {
		url := BuildShareURL("nm_clicker_bot", nil)
		assert.Contains(t, url, "https://t.me/share/url?text=")
		assert.NotContains(t, url, "ref_")
	})
}
