package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/pagegen-backend/internal/observability"
	"github.com/yungbote/pagegen-backend/internal/pagegen/config"
	mw "github.com/yungbote/pagegen-backend/internal/pagegen/httpapi/middleware"
	"github.com/yungbote/pagegen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Config            *config.Config
	Log               *logger.Logger
	GenerationHandler *GenerationHandler
	Metrics           *observability.Metrics
}

func NewRouter(rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if rc.Config.Telemetry.Enabled {
		r.Use(otelgin.Middleware(rc.Config.Telemetry.ServiceName))
	}
	r.Use(mw.AttachTraceContext())
	r.Use(mw.RequestLogger(rc.Log))
	r.Use(mw.CORS(rc.Config.HTTP.AllowOrigins))
	r.Use(mw.Metrics(rc.Metrics))

	h := rc.GenerationHandler
	r.GET("/healthcheck", h.HealthCheck)
	r.GET("/readyz", h.Ready)
	if rc.Metrics != nil {
		r.GET("/metrics", gin.WrapF(rc.Metrics.WriteHTTP))
	}

	gen := r.Group("/", mw.BodyLimit(rc.Config.HTTP.MaxRequestBytes))
	{
		gen.POST("/generate-landing-page", h.GenerateLanding)
		gen.POST("/generate-bio-elements", h.GenerateBio)
	}
	r.GET("/generation-runs", h.ListRuns)

	return r
}

func NewServer(rc RouterConfig) *http.Server {
	cfg := rc.Config
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           NewRouter(rc),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
		WriteTimeout:      0,
	}
}
