package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/chargeview/internal/config"
	"github.com/smallbiznis/chargeview/internal/ingest"
	reportdomain "github.com/smallbiznis/chargeview/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r
}

type Server struct {
	engine   *gin.Engine
	cfg      config.Config
	log      *zap.Logger
	reports  reportdomain.Service
	runner   *ingest.Runner
	registry *prometheus.Registry
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Cfg      config.Config
	Log      *zap.Logger
	Reports  reportdomain.Service
	Runner   *ingest.Runner
	Registry *prometheus.Registry
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Gin,
		cfg:      p.Cfg,
		log:      p.Log.Named("http.server"),
		reports:  p.Reports,
		runner:   p.Runner,
		registry: p.Registry,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))

	hpc := s.engine.Group("/hpcsummary")
	{
		hpc.GET("/simple/:year/:month", s.windowReport(s.reportHpcSimple))
		hpc.GET("/rollup/:year/:month", s.windowReport(s.reportHpcRollup))
		hpc.GET("/detailed/:year/:month", s.windowReport(s.reportHpcDetailed))
		hpc.GET("/chart", s.chartReport(s.reportHpcChart))
	}

	allocation := s.engine.Group("/allocationsummary")
	{
		allocation.GET("/simple/:year/:month", s.windowReport(s.reportAllocationSimple))
		allocation.GET("/chart", s.chartReport(s.reportAllocationChart))
	}

	hpcStorage := s.engine.Group("/hpcstorage")
	{
		hpcStorage.GET("/simple/:year/:month", s.windowReport(s.reportHpcStorageSimple))
		hpcStorage.GET("/chart", s.chartReport(s.reportHpcStorageChart))
	}

	nectar := s.engine.Group("/nectar")
	{
		nectar.GET("/simple/:year/:month", s.windowReport(s.reportNectarSimple))
		nectar.GET("/chart", s.chartReport(s.reportNectarChart))
	}

	tango := s.engine.Group("/tango")
	{
		tango.GET("/simple/:year/:month", s.windowReport(s.reportTangoSimple))
		tango.GET("/chart", s.chartReport(s.reportTangoChart))
	}

	s.engine.GET("/process", s.handleProcess)
}

func run(lc fx.Lifecycle, s *Server) {
	srv := &http.Server{
		Addr:    s.cfg.HTTPAddr,
		Handler: s.engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.log.Info("listening", zap.String("addr", srv.Addr))
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
