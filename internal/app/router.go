package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/whitespace-backend/internal/config"
	httpapi "github.com/yungbote/whitespace-backend/internal/http"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg *config.Config, h Handlers, metrics *observability.Metrics) httpapi.RouterConfig {
	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	rc := httpapi.RouterConfig{
		Log:               log,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		Metrics:           metrics,
		Identity:          h.Identity,
		WhitespaceHandler: h.Whitespace,
		HealthHandler:     h.Health,
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	return rc
}
