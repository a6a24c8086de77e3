package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/whitespace-backend/internal/http/response"
	"github.com/yungbote/whitespace-backend/internal/platform/ctxutil"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

// headerUserID carries the caller subject set by the authenticating gateway.
const headerUserID = "X-User-ID"

type IdentityMiddleware struct {
	log *logger.Logger
}

func NewIdentityMiddleware(log *logger.Logger) *IdentityMiddleware {
	return &IdentityMiddleware{log: log.With("Middleware", "IdentityMiddleware")}
}

// RequireUser rejects requests without a caller identity and stores it on
// the request context.
func (m *IdentityMiddleware) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(headerUserID))
		if userID == "" {
			m.log.Debug("request without caller identity", "path", c.Request.URL.Path)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errMissingUser)
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

var errMissingUser = errors.New("user id not found in request")
