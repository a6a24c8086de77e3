package app

import (
	httpH "github.com/yungbote/whitespace-backend/internal/http/handlers"
	httpMW "github.com/yungbote/whitespace-backend/internal/http/middleware"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

type Handlers struct {
	Whitespace *httpH.WhitespaceHandler
	Health     *httpH.HealthHandler
	Identity   *httpMW.IdentityMiddleware
}

func wireHandlers(log *logger.Logger, s Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Whitespace: httpH.NewWhitespaceHandlerWithDeps(httpH.WhitespaceHandlerDeps{Log: log, Service: s.Whitespace}),
		Health:     httpH.NewHealthHandler(metrics),
		Identity:   httpMW.NewIdentityMiddleware(log),
	}
}
