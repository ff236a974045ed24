package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/strategen/strategen/internal/activity"
	"github.com/strategen/strategen/internal/admission"
	admissiondomain "github.com/strategen/strategen/internal/admission/domain"
	"github.com/strategen/strategen/internal/burst"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/cache"
	"github.com/strategen/strategen/internal/config"
	"github.com/strategen/strategen/internal/generation"
	"github.com/strategen/strategen/internal/history"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	"github.com/strategen/strategen/internal/observability"
	obsmiddleware "github.com/strategen/strategen/internal/observability/logger"
	obsmetrics "github.com/strategen/strategen/internal/observability/metrics"
	obstracing "github.com/strategen/strategen/internal/observability/tracing"
	"github.com/strategen/strategen/internal/quota"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"github.com/strategen/strategen/internal/tier"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	tier.Module,
	cache.Module,
	generation.Module,
	quota.Module,
	burst.Module,
	history.Module,
	activity.Module,
	admission.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	admissionSvc admissiondomain.Service
	quotaSvc     quotadomain.Service
	burstSvc     burstdomain.Service
	historySvc   historydomain.Service
	activityHub  *activity.Hub
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	AdmissionSvc admissiondomain.Service
	QuotaSvc     quotadomain.Service
	BurstSvc     burstdomain.Service
	HistorySvc   historydomain.Service
	ActivityHub  *activity.Hub `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		admissionSvc: p.AdmissionSvc,
		quotaSvc:     p.QuotaSvc,
		burstSvc:     p.BurstSvc,
		historySvc:   p.HistorySvc,
		activityHub:  p.ActivityHub,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.IdentityRequired())

	api.POST("/strategy", s.GenerateStrategy)

	api.GET("/history", s.ListHistory)
	api.GET("/history/:id", s.GetHistoryByID)
	api.DELETE("/history/:id", s.DeleteHistory)

	api.GET("/usage", s.GetUsage)
	api.GET("/activity", s.StreamActivity)
}
