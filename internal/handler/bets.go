package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prediction/internal/service"
)

type BetHandler struct {
	Bets *service.BetService
}

func (h *BetHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/rounds/:round_id/predictions", RequirePlayer(), h.placePrediction)
	r.GET("/api/v1/rounds/:round_id/predictions", h.listBets)
	r.GET("/api/v1/rounds/:round_id/predictions/:player", h.getBet)
}

type placePredictionRequest struct {
	Direction string          `json:"direction" binding:"required"`
	Wager     decimal.Decimal `json:"wager" binding:"required"`
}

func (h *BetHandler) placePrediction(c *gin.Context) {
	var req placePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	bet, err := h.Bets.PlacePrediction(c.Request.Context(), currentPlayer(c), c.Param("round_id"), req.Direction, req.Wager)
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bet, nil)
}

func (h *BetHandler) getBet(c *gin.Context) {
	bet, err := h.Bets.GetBet(c.Request.Context(), c.Param("round_id"), c.Param("player"))
	if err != nil {
		Fail(c, err)
		return
	}
	// Absence is not an error for bet lookups; data is null.
	Ok(c, bet, nil)
}

func (h *BetHandler) listBets(c *gin.Context) {
	bets, err := h.Bets.ListBets(c.Request.Context(), c.Param("round_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bets, map[string]any{"total": len(bets)})
}
