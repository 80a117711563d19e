package auth

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	sa := NewSessionAuth("secret", "nm-clicker", time.Hour)

	token, err := sa.IssueToken("tg:100001")
	require.NoError(t, err)

	claims, err := sa.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "tg:100001", claims.UID)
	assert.Equal(t, "nm-clicker", claims.Issuer)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	sa := NewSessionAuth("secret", "nm-clicker", -time.Minute)

	token, err := sa.IssueToken("tg:100001")
	require.NoError(t, err)

	_, err = sa.VerifyToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuing := NewSessionAuth("secret-a", "nm-clicker", time.Hour)
	verifying := NewSessionAuth("secret-b", "nm-clicker", time.Hour)

	token, err := issuing.IssueToken("tg:100001")
	require.NoError(t, err)

	_, err = verifying.VerifyToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	sa := NewSessionAuth("secret", "nm-clicker", time.Hour)

	_, err := sa.VerifyToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTelegramData(t *testing.T) {
	values := url.Values{}
	values.Set("auth_date", "1718000000")
	values.Set("start_param", "ref_555")
	values.Set("user", `{"id":9001,"username":"nm_player","first_name":"Nikita","last_name":"M"}`)

	data, err := ExtractTelegramData(values.Encode())
	require.NoError(t, err)
	assert.Equal(t, int64(9001), data.ID)
	assert.Equal(t, "nm_player", data.Username)
	assert.Equal(t, "Nikita", data.FirstName)
	assert.Equal(t, "M", data.LastName)
	assert.Equal(t, "ref_555", data.StartParam)
	assert.Equal(t, time.Unix(1718000000, 0), data.AuthDate)
}

func TestExtractTelegramDataRejectsBadPayload(t *testing.T) {
	_, err := ExtractTelegramData("auth_date=notanumber")
	assert.Error(t, err)

	_, err = ExtractTelegramData("auth_date=1718000000&user=notjson")
	assert.Error(t, err)
}
