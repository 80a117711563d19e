// Package client is the typed HTTP client for the clicker API. It only
// shapes requests and decodes responses; retries, batching and state
// ownership live in the engine.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"NM_clicker_miniapp/internal/model"

	"github.com/goccy/go-json"
)

const defaultTimeout = 10 * time.Second

type AuthRequest struct {
	InitData          string `json:"init_data,omitempty"`
	DevTelegramUserID *int64 `json:"dev_telegram_user_id,omitempty"`
}

type AuthResponse struct {
	AccessToken string              `json:"access_token"`
	UID         string              `json:"uid"`
	StartParam  string              `json:"start_param"`
	State       *model.ClickerState `json:"state"`
}

type TapResponse struct {
	OK           bool                `json:"ok"`
	AcceptedTaps int                 `json:"accepted_taps"`
	RejectedTaps int                 `json:"rejected_taps"`
	AddedPoints  int64               `json:"added_points"`
	Throttled    bool                `json:"throttled"`
	Message      string              `json:"message"`
	State        *model.ClickerState `json:"state"`
}

type DailyBonusResponse struct {
	OK          bool                `json:"ok"`
	AddedPoints int64               `json:"added_points"`
	Message     string              `json:"message"`
	State       *model.ClickerState `json:"state"`
}

type ActionResponse struct {
	OK      bool                `json:"ok"`
	Message string              `json:"message"`
	State   *model.ClickerState `json:"state"`
}

type leaderboardResponse struct {
	Items []model.LeaderboardItem `json:"items"`
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) Authenticate(ctx context.Context, req AuthRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/clicker/auth/telegram", "", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApplyReferral(ctx context.Context, token string, referrerTelegramID int64) (*ActionResponse, error) {
	body := map[string]int64{"referrer_telegram_id": referrerTelegramID}
	var out ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/clicker/referral/apply", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendTaps(ctx context.Context, token string, taps int) (*TapResponse, error) {
	body := map[string]int{"taps": taps}
	var out TapResponse
	if err := c.do(ctx, http.MethodPost, "/api/clicker/tap", token, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClaimDailyBonus(ctx context.Context, token string) (*DailyBonusResponse, error) {
	var out DailyBonusResponse
	if err := c.do(ctx, http.MethodPost, "/api/clicker/daily-bonus", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EnterLottery(ctx context.Context, token string) (*ActionResponse, error) {
	var out ActionResponse
	if err := c.do(ctx, http.MethodPost, "/api/clicker/lottery/enter", token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardItem, error) {
	path := "/api/clicker/leaderboard?" + url.Values{"limit": []string{strconv.Itoa(limit)}}.Encode()
	var out leaderboardResponse
	if err := c.do(ctx, http.MethodGet, path, "", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
