package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/whitespace-backend/internal/http/handlers"
	httpMW "github.com/yungbote/whitespace-backend/internal/http/middleware"
	"github.com/yungbote/whitespace-backend/internal/observability"
	"github.com/yungbote/whitespace-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	Identity          *httpMW.IdentityMiddleware
	WhitespaceHandler *httpH.WhitespaceHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics, "/healthcheck", "/metrics"))
	r.Use(httpMW.RequestLogger(cfg.Log, "/healthcheck", "/metrics"))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		if cfg.Metrics != nil {
			r.GET("/metrics", cfg.HealthHandler.Metrics)
		}
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.Identity != nil {
			protected.Use(cfg.Identity.RequireUser())
		}

		// Whitespace
		if cfg.WhitespaceHandler != nil {
			protected.POST("/whitespace/graph", cfg.WhitespaceHandler.Graph)
			protected.GET("/whitespace/assignees", cfg.WhitespaceHandler.SearchAssignees)
		}
	}
	return r
}
