package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linecontrol/boxline/internal/batch"
	batchdomain "github.com/linecontrol/boxline/internal/batch/domain"
	"github.com/linecontrol/boxline/internal/box"
	"github.com/linecontrol/boxline/internal/config"
	"github.com/linecontrol/boxline/internal/label"
	"github.com/linecontrol/boxline/internal/observability"
	obsmiddleware "github.com/linecontrol/boxline/internal/observability/logger"
	obsmetrics "github.com/linecontrol/boxline/internal/observability/metrics"
	obstracing "github.com/linecontrol/boxline/internal/observability/tracing"
	"github.com/linecontrol/boxline/internal/providers/telegram"
	"github.com/linecontrol/boxline/internal/reference"
	"github.com/linecontrol/boxline/internal/report"
	"github.com/linecontrol/boxline/internal/scan"
	scandomain "github.com/linecontrol/boxline/internal/scan/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	box.Module,
	batch.Module,
	label.Module,
	scan.Module,
	reference.Module,
	telegram.Module,
	report.Module,
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
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
	engine    *gin.Engine
	cfg       config.Config
	batchSvc  batchdomain.Service
	scanSvc   scandomain.Service
	reportSvc *report.Service
	refStore  *reference.Store
}

type ServerParams struct {
	fx.In

	Gin       *gin.Engine
	Cfg       config.Config
	BatchSvc  batchdomain.Service
	ScanSvc   scandomain.Service
	ReportSvc *report.Service
	RefStore  *reference.Store
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:    p.Gin,
		cfg:       p.Cfg,
		batchSvc:  p.BatchSvc,
		scanSvc:   p.ScanSvc,
		reportSvc: p.ReportSvc,
		refStore:  p.RefStore,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.cfg.AppVersion})
	})

	api.POST("/auth/login", s.Login)

	api.POST("/print", s.PrintBatch)
	api.POST("/scan", s.Scan)
	api.POST("/finish", s.FinishBatch)
	api.POST("/finish_inventory", s.FinishInventory)

	api.GET("/users", s.ListUsers)
	api.GET("/machines", s.ListMachines)
	api.GET("/products", s.ListProducts)
	api.POST("/reference/reload", s.ReloadReference)
}
