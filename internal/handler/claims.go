package handler

import (
	"github.com/gin-gonic/gin"

	"prediction/internal/service"
)

type ClaimHandler struct {
	Claims *service.ClaimService
}

func (h *ClaimHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/rounds/:round_id/claim", RequirePlayer(), h.claim)
}

func (h *ClaimHandler) claim(c *gin.Context) {
	bet, err := h.Claims.Claim(c.Request.Context(), currentPlayer(c), c.Param("round_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	Ok(c, bet, nil)
}
