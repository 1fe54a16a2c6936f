package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stocktake-io/stocktake/internal/config"
	"github.com/stocktake-io/stocktake/internal/modules/serializer"
)

// BearerAuth returns a middleware that authenticates requests against the
// single static API token from config.
func BearerAuth(cfg *config.Config) gin.HandlerFunc {
	token := cfg.Root.ApiBearerToken
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(raw), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
			return
		}
		c.Next()
	}
}
