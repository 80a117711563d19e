package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"NM_clicker_miniapp/internal/repository"
	"NM_clicker_miniapp/internal/service"
	"NM_clicker_miniapp/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(opts Options) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cs := service.NewClickerService(repository.NewMemoryRepository(), service.DefaultRules())
	ta := auth.NewTelegramAuth("test-token", true)
	sa := auth.NewSessionAuth("test-secret", "nm-clicker", time.Hour)

	router := gin.New()
	NewClickerRoutes(router.Group("/api"), cs, ta, sa, NewHub(), opts)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func authenticate(t *testing.T, router *gin.Engine, telegramID int64) AuthTelegramResponse {
	t.Helper()

	var resp AuthTelegramResponse
	w := doJSON(t, router, http.MethodPost, "/api/clicker/auth/telegram", "",
		gin.H{"dev_telegram_user_id": telegramID}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, resp.AccessToken)
	return resp
}

func TestAuthTelegramDevFallback(t *testing.T) {
	router := newTestRouter(Options{})

	resp := authenticate(t, router, 100001)
	assert.Equal(t, "tg:100001", resp.UID)
	require.NotNil(t, resp.State)
	assert.Equal(t, int64(0), resp.State.Points)
	assert.Equal(t, 1, resp.State.Level)
}

func TestAuthTelegramProductionRejectsDevFallback(t *testing.T) {
	router := newTestRouter(Options{Production: true})

	w := doJSON(t, router, http.MethodPost, "/api/clicker/auth/telegram", "",
		gin.H{"dev_telegram_user_id": 100001}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStateRequiresSession(t *testing.T) {
	router := newTestRouter(Options{})

	w := doJSON(t, router, http.MethodGet, "/api/clicker/state", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/clicker/state", "not-a-jwt", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTapFlow(t *testing.T) {
	router := newTestRouter(Options{})
	session := authenticate(t, router, 42)

	// A batch over the per-second budget is partially rejected.
	var resp TapResponse
	w := doJSON(t, router, http.MethodPost, "/api/clicker/tap", session.AccessToken,
		gin.H{"taps": 15}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.OK)
	assert.Equal(t, 10, resp.AcceptedTaps)
	assert.Equal(t, 5, resp.RejectedTaps)
	assert.Equal(t, int64(10), resp.State.Points)
}

func TestTapRejectsInvalidCount(t *testing.T) {
	router := newTestRouter(Options{})
	session := authenticate(t, router, 42)

	w := doJSON(t, router, http.MethodPost, "/api/clicker/tap", session.AccessToken,
		gin.H{"taps": 0}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReferralFlow(t *testing.T) {
	router := newTestRouter(Options{})
	session := authenticate(t, router, 42)

	var resp ActionResponse
	w := doJSON(t, router, http.MethodPost, "/api/clicker/referral/apply", session.AccessToken,
		gin.H{"referrer_telegram_id": 7}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.OK)
	assert.Equal(t, 4, resp.State.Level)

	// Second application is refused with the state untouched.
	w = doJSON(t, router, http.MethodPost, "/api/clicker/referral/apply", session.AccessToken,
		gin.H{"referrer_telegram_id": 8}, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, resp.OK)
	assert.Equal(t, "Referral already applied.", resp.Message)
}

func TestLeaderboardEndpoint(t *testing.T) {
	router := newTestRouter(Options{})

	s1 := authenticate(t, router, 1)
	s2 := authenticate(t, router, 2)

	var tap TapResponse
	doJSON(t, router, http.MethodPost, "/api/clicker/tap", s1.AccessToken, gin.H{"taps": 3}, &tap)
	doJSON(t, router, http.MethodPost, "/api/clicker/tap", s2.AccessToken, gin.H{"taps": 8}, &tap)

	var resp LeaderboardResponse
	w := doJSON(t, router, http.MethodGet, "/api/clicker/leaderboard?limit=10", "", nil, &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "tg:2", resp.Items[0].UID)
	assert.Equal(t, 1, resp.Items[0].Rank)

	w = doJSON(t, router, http.MethodGet, "/api/clicker/leaderboard?limit=junk", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLotteryToken(t *testing.T) {
	router := newTestRouter(Options{AdminToken: "sesame"})
	session := authenticate(t, router, 42)

	doJSON(t, router, http.MethodPost, "/api/clicker/lottery/enter", session.AccessToken, nil, nil)

	w := doJSON(t, router, http.MethodGet, "/api/clicker/admin/lottery", "", nil, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/clicker/admin/lottery?token=sesame", "", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "tg:42")
}
