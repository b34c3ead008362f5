package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"prediction/internal/service"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail maps engine error kinds onto HTTP statuses.
func Fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, service.ErrRoundNotFound),
		errors.Is(err, service.ErrBetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateRound),
		errors.Is(err, service.ErrDuplicateBet),
		errors.Is(err, service.ErrRoundAlreadySettled),
		errors.Is(err, service.ErrAlreadyClaimed),
		errors.Is(err, service.ErrRoundClosed):
		status = http.StatusConflict
	case errors.Is(err, service.ErrInvalidCloseTime),
		errors.Is(err, service.ErrDirectionInvalid),
		errors.Is(err, service.ErrWagerOutOfBounds):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSettleBeforeClose),
		errors.Is(err, service.ErrRoundNotSettled),
		errors.Is(err, service.ErrNoPayout),
		errors.Is(err, service.ErrOverflow),
		errors.Is(err, service.ErrOraclePriceInvalid):
		status = http.StatusUnprocessableEntity
	}
	Error(c, status, err.Error(), map[string]any{"kind": service.ErrorKind(err)})
}
