package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/examportal/docs"
	"github.com/fatflowers/examportal/internal/app/api/handlers"
	mw "github.com/fatflowers/examportal/internal/app/api/middleware"
	"github.com/fatflowers/examportal/internal/app/service/ledger"
	"github.com/fatflowers/examportal/internal/app/service/payment"
	"github.com/fatflowers/examportal/internal/app/service/reconciler"
	cfgpkg "github.com/fatflowers/examportal/pkg/config"
	"github.com/fatflowers/examportal/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.Env == cfgpkg.EnvProd {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Request logger & access log are attached per group in registerRoutes.
	r.Use(mw.TraceMiddleware())
	return r
}

func newPrometheus(log *zap.SugaredLogger) *metrics.Prometheus {
	return metrics.NewPrometheus(metrics.NewPrometheusOptions{
		Subsystem: "http",
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			if fp := c.FullPath(); fp != "" {
				return fp
			}
			return "unmatched"
		},
		Logger: log,
	})
}

type routeDeps struct {
	fx.In

	Log        *zap.SugaredLogger
	Cfg        *cfgpkg.Config
	Prom       *metrics.Prometheus
	Payments   payment.Manager
	Ledger     ledger.Ledger
	Reconciler reconciler.Reconciler
}

func registerRoutes(r *gin.Engine, d routeDeps) {
	d.Prom.Use(r)

	logged := []gin.HandlerFunc{mw.RequestLoggerMiddleware(d.Log), mw.AccessLogMiddleware(d.Log)}
	auth := mw.Auth(d.Cfg.Auth.JWTSecret, d.Log)

	pub := r.Group("/", logged...)
	handlers.RegisterHealthRoutes(pub)
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api", logged...)
	handlers.RegisterPaymentRoutes(api.Group("/payment"), d.Payments, d.Ledger, auth, d.Log)
	handlers.RegisterUserRoutes(api.Group("/", auth), d.Reconciler, d.Log)
	handlers.RegisterAdminRoutes(api.Group("/admin", auth, mw.AdminOnly()), d.Reconciler, d.Ledger, d.Log)
}

func serve(lc fx.Lifecycle, log *zap.SugaredLogger, name string, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting "+name+" server", "addr", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("%s server error: %v", name, err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping " + name + " server")
			return srv.Shutdown(ctx)
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serve(lc, log, "HTTP", &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second})
}

// runMetricsServer keeps /metrics off the public listener.
func runMetricsServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, p *metrics.Prometheus) {
	if cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(p.MetricsPath, p.Handler())
	serve(lc, log, "metrics", &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second})
}

var Module = fx.Options(
	fx.Provide(newEngine, newPrometheus),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
	fx.Invoke(runMetricsServer),
)
