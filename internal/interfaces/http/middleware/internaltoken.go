package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orris-inc/sessiongate/internal/shared/constants"
	"github.com/orris-inc/sessiongate/internal/shared/logger"
	"github.com/orris-inc/sessiongate/internal/shared/utils"
)

// InternalToken guards the /internal API with a shared secret. An empty
// secret disables the API.
func InternalToken(expected string, log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			utils.ErrorResponse(c, http.StatusForbidden, "internal API is disabled")
			c.Abort()
			return
		}

		token := c.GetHeader(constants.HeaderInternalToken)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing internal token")
			c.Abort()
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			log.Warnw("invalid internal token", "ip", c.ClientIP(), "path", c.Request.URL.Path)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid internal token")
			c.Abort()
			return
		}

		c.Next()
	}
}
