package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"prediction/internal/config"
	"prediction/internal/repository"
	"prediction/internal/service"
)

type RoundHandler struct {
	Rounds     *service.RoundService
	Settlement *service.SettlementService
	Config     config.EngineConfig
}

func (h *RoundHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/rounds", RequireAdmin(h.Config.AdminToken), h.openMarket)
	r.GET("/api/v1/rounds", h.listRounds)
	r.GET("/api/v1/rounds/:round_id", h.getRound)
	r.POST("/api/v1/rounds/:round_id/settle", h.settleRound)
}

type openMarketRequest struct {
	RoundID   string    `json:"round_id" binding:"required"`
	Asset     string    `json:"asset" binding:"required"`
	CloseTime time.Time `json:"close_time" binding:"required"`
}

func (h *RoundHandler) openMarket(c *gin.Context) {
	var req openMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	round, err := h.Rounds.OpenMarket(c.Request.Context(), req.RoundID, req.Asset, req.CloseTime)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, round, nil)
}

func (h *RoundHandler) getRound(c *gin.Context) {
	round, err := h.Rounds.GetRound(c.Request.Context(), c.Param("round_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, round, nil)
}

func (h *RoundHandler) listRounds(c *gin.Context) {
	params := repository.ListRoundsParams{
		Limit:   parseInt(c.Query("limit"), 50),
		Offset:  parseInt(c.Query("offset"), 0),
		OrderBy: c.DefaultQuery("order_by", "close_time"),
	}
	if asset := c.Query("asset"); asset != "" {
		params.Asset = &asset
	}
	if raw := c.Query("settled"); raw != "" {
		settled := raw == "true"
		params.Settled = &settled
	}
	if c.Query("order") == "asc" {
		asc := true
		params.Asc = &asc
	}
	items, total, err := h.Rounds.ListRounds(c.Request.Context(), params)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, items, map[string]any{
		"total":  total,
		"limit":  params.Limit,
		"offset": params.Offset,
	})
}

func (h *RoundHandler) settleRound(c *gin.Context) {
	round, err := h.Settlement.SettleRound(c.Request.Context(), c.Param("round_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, round, nil)
}

func parseInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
