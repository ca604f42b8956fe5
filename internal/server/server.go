package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicekit/internal/config"
	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/smallbiznis/invoicekit/pkg/telemetry"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

type EngineParams struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Metrics  *telemetry.Metrics       `optional:"true"`
	Gatherer prometheus.Gatherer      `optional:"true"`
	Tracer   *sdktrace.TracerProvider `optional:"true"`
}

// NewEngine builds the gin engine with the request middleware chain and the
// operational endpoints.
func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestContext())
	r.Use(Tracing(p.Tracer))
	r.Use(RequestLogger(p.Log, MiddlewareConfig{
		Debug:           !p.Cfg.IsProduction(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(RequestMetrics(p.Metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if p.Cfg.MetricsEnabled {
		// runtime and gorm pool metrics live on the default registry
		gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
		if p.Gatherer != nil {
			gatherers = append(prometheus.Gatherers{p.Gatherer}, gatherers...)
		}
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})))
	}

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server failed", zap.Error(err))
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
	engine *gin.Engine
	log    *zap.Logger

	invoices *documentHandler
	bills    *documentHandler
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Log              *zap.Logger
	Invoices         domain.Service          `name:"invoice"`
	Bills            domain.Service          `name:"bill"`
	InvoiceRendering domain.RenderingService `name:"invoice_rendering"`
	BillRendering    domain.RenderingService `name:"bill_rendering"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:   p.Gin,
		log:      p.Log.Named("http"),
		invoices: &documentHandler{docs: p.Invoices, rendering: p.InvoiceRendering},
		bills:    &documentHandler{docs: p.Bills, rendering: p.BillRendering},
	}

	s.registerAPIRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	// -------- Invoices --------
	s.invoices.register(api.Group("/invoices"))

	// -------- Bills --------
	s.bills.register(api.Group("/bills"))
}
