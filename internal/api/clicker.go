package api

import (
	"net/http"
	"strconv"

	"NM_clicker_miniapp/internal/model"
	"NM_clicker_miniapp/internal/service"
	"NM_clicker_miniapp/pkg/auth"
	"NM_clicker_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

const defaultLeaderboardLimit = 50

type Options struct {
	// Production refuses dev_telegram_user_id fallbacks at /auth/telegram.
	Production bool
	// AdminToken guards the lottery admin listing; empty disables it
	// outside production.
	AdminToken string
}

type clickerRoutes struct {
	cs   service.ClickerServiceI
	ta   *auth.TelegramAuth
	sa   *auth.SessionAuth
	hub  *Hub
	opts Options
}

func NewClickerRoutes(handler *gin.RouterGroup, cs service.ClickerServiceI, ta *auth.TelegramAuth, sa *auth.SessionAuth, hub *Hub, opts Options) {
	r := &clickerRoutes{cs: cs, ta: ta, sa: sa, hub: hub, opts: opts}

	h := handler.Group("/clicker")
	{
		h.POST("/auth/telegram", r.AuthTelegram)
		h.GET("/leaderboard", r.Leaderboard)
		h.GET("/admin/lottery", r.AdminLottery)
		h.GET("/ws/leaderboard", hub.handleLeaderboardFeed)

		authorized := h.Group("")
		authorized.Use(sa.SessionMiddleware())
		{
			authorized.GET("/state", r.State)
			authorized.POST("/tap", r.Tap)
			authorized.POST("/daily-bonus", r.DailyBonus)
			authorized.POST("/referral/apply", r.ApplyReferral)
			authorized.POST("/lottery/enter", r.EnterLottery)
		}
	}
}

type AuthTelegramRequest struct {
	InitData          string `json:"init_data"`
	DevTelegramUserID *int64 `json:"dev_telegram_user_id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
}

type AuthTelegramResponse struct {
	AccessToken string              `json:"access_token"`
	UID         string              `json:"uid"`
	StartParam  string              `json:"start_param,omitempty"`
	State       *model.ClickerState `json:"state"`
}

func (r *clickerRoutes) AuthTelegram(c *gin.Context) {
	log := logger.Logger()

	var req AuthTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var (
		state      *model.ClickerState
		startParam string
		err        error
	)

	if req.InitData != "" {
		tgUser, verifyErr := r.ta.VerifyInitData(req.InitData)
		if verifyErr != nil {
			log.Info("invalid telegram init data", zap.Error(verifyErr))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid telegram auth data"})
			return
		}

		startParam = tgUser.StartParam
		state, err = r.cs.UpsertUser(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName, tgUser.LastName)
	} else {
		if r.opts.Production {
			c.JSON(http.StatusBadRequest, gin.H{"error": "init_data is required in production"})
			return
		}
		if req.DevTelegramUserID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "provide init_data or dev_telegram_user_id"})
			return
		}

		state, err = r.cs.UpsertUser(c.Request.Context(), *req.DevTelegramUserID, req.Username, req.FirstName, req.LastName)
	}

	if err != nil {
		log.Error("failed to upsert clicker user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	token, err := r.sa.IssueToken(state.UID)
	if err != nil {
		log.Error("failed to issue session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to authenticate"})
		return
	}

	c.JSON(http.StatusOK, AuthTelegramResponse{
		AccessToken: token,
		UID:         state.UID,
		StartParam:  startParam,
		State:       state,
	})
}

func (r *clickerRoutes) State(c *gin.Context) {
	log := logger.Logger()

	state, err := r.cs.GetState(c.Request.Context(), c.GetString("uid"))
	if err != nil {
		log.Error("failed to get clicker state", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"state": state})
}

type TapRequest struct {
	Taps int `json:"taps" binding:"required,gt=0"`
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

func (r *clickerRoutes) Tap(c *gin.Context) {
	log := logger.Logger()

	var req TapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.cs.Tap(c.Request.Context(), c.GetString("uid"), req.Taps)
	if err != nil {
		log.Error("failed to apply taps", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply taps"})
		return
	}

	if result.AddedPoints > 0 {
		r.hub.Broadcast("leaderboard_updated", nil)
	}

	c.JSON(http.StatusOK, TapResponse{
		OK:           result.OK,
		AcceptedTaps: result.AcceptedTaps,
		RejectedTaps: result.RejectedTaps,
		AddedPoints:  result.AddedPoints,
		Throttled:    result.Throttled,
		Message:      result.Message,
		State:        result.State,
	})
}

type DailyBonusResponse struct {
	OK          bool                `json:"ok"`
	AddedPoints int64               `json:"added_points"`
	Message     string              `json:"message"`
	State       *model.ClickerState `json:"state"`
}

func (r *clickerRoutes) DailyBonus(c *gin.Context) {
	log := logger.Logger()

	result, err := r.cs.ClaimDailyBonus(c.Request.Context(), c.GetString("uid"))
	if err != nil {
		log.Error("failed to claim daily bonus", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim daily bonus"})
		return
	}

	if result.OK {
		r.hub.Broadcast("leaderboard_updated", nil)
	}

	c.JSON(http.StatusOK, DailyBonusResponse{
		OK:          result.OK,
		AddedPoints: result.AddedPoints,
		Message:     result.Message,
		State:       result.State,
	})
}

type ApplyReferralRequest struct {
	ReferrerTelegramID int64 `json:"referrer_telegram_id" binding:"required,gt=0"`
}

type ActionResponse struct {
	OK      bool                `json:"ok"`
	Message string              `json:"message"`
	State   *model.ClickerState `json:"state"`
}

func (r *clickerRoutes) ApplyReferral(c *gin.Context) {
	log := logger.Logger()

	var req ApplyReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := r.cs.ApplyReferral(c.Request.Context(), c.GetString("uid"), req.ReferrerTelegramID)
	if err != nil {
		log.Error("failed to apply referral", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply referral"})
		return
	}

	if result.OK {
		r.hub.Broadcast("leaderboard_updated", nil)
	}

	c.JSON(http.StatusOK, ActionResponse{
		OK:      result.OK,
		Message: result.Message,
		State:   result.State,
	})
}

func (r *clickerRoutes) EnterLottery(c *gin.Context) {
	log := logger.Logger()

	result, err := r.cs.EnterLottery(c.Request.Context(), c.GetString("uid"))
	if err != nil {
		log.Error("failed to enter lottery", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enter lottery"})
		return
	}

	c.JSON(http.StatusOK, ActionResponse{
		OK:      result.OK,
		Message: result.Message,
		State:   result.State,
	})
}

type LeaderboardResponse struct {
	Items []model.LeaderboardItem `json:"items"`
}

func (r *clickerRoutes) Leaderboard(c *gin.Context) {
	log := logger.Logger()

	limit := defaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	items, err := r.cs.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		log.Error("failed to get leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	if items == nil {
		items = []model.LeaderboardItem{}
	}

	c.JSON(http.StatusOK, LeaderboardResponse{Items: items})
}

func (r *clickerRoutes) AdminLottery(c *gin.Context) {
	log := logger.Logger()

	switch {
	case r.opts.AdminToken != "":
		if c.Query("token") != r.opts.AdminToken {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid admin token"})
			return
		}
	case r.opts.Production:
		c.JSON(http.StatusForbidden, gin.H{"error": "admin endpoint disabled"})
		return
	}

	entries, err := r.cs.ListLotteryEntries(c.Request.Context())
	if err != nil {
		log.Error("failed to list lottery entries", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lottery entries"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
