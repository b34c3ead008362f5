package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const playerKey = "player"

// RequireAdmin gates admin-only routes on a static bearer token fixed at
// boot. An empty configured token disables the gate (dev mode).
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := bearerToken(c)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			Error(c, http.StatusUnauthorized, "admin token required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePlayer resolves the acting player from the X-Player header set by
// the session layer in front of the engine. Wallet/session management is
// not this service's concern; it only needs a stable account id.
func RequirePlayer() gin.HandlerFunc {
	return func(c *gin.Context) {
		player := strings.TrimSpace(c.GetHeader("X-Player"))
		if player == "" {
			Error(c, http.StatusUnauthorized, "player identity required", nil)
			c.Abort()
			return
		}
		c.Set(playerKey, player)
		c.Next()
	}
}

func currentPlayer(c *gin.Context) string {
	return c.GetString(playerKey)
}

func bearerToken(c *gin.Context) string {
	raw := strings.TrimSpace(c.GetHeader("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
