package http

import (
	"context"
	"net/http"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/config"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/dispatcher"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/http/middleware"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/idempotency"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/metrics"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/util"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the collaborators behind the routes.
type Deps struct {
	Cedentes  repository.CedentesRepository
	Reprocess Reprocessor
	Protocols repository.ProtocolsReader
	Redis     *redis.Client
	RateRPS   int
	Log       *zap.Logger
}

type Server struct {
	e   *echo.Echo
	log *zap.Logger
}

// NewServer wires repositories, the dispatch client and the reprocess engine.
// chDB may be nil when protocols are read from MySQL.
func NewServer(cfg config.Config, mysqlDB, chDB *sqlx.DB, rds *redis.Client, lg *zap.Logger) *Server {
	if lg == nil {
		lg = zap.NewNop()
	}

	// repos (MySQL)
	cedentesRepo := repository.NewCedentesRepository(mysqlDB)
	servicosRepo := repository.NewServicosRepository(mysqlDB)
	protocolsRepo := repository.NewProtocolsRepository(mysqlDB)

	// read side: MySQL or the ClickHouse replica
	var reader repository.ProtocolsReader = protocolsRepo
	if cfg.Protocols.ReadSource == "clickhouse" && chDB != nil {
		reader = repository.NewCHProtocolsRepository(chDB)
	}

	svc := NewReprocessService(cfg, servicosRepo, protocolsRepo, rds, lg)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	e := newRouter(Deps{
		Cedentes:  cedentesRepo,
		Reprocess: svc,
		Protocols: reader,
		Redis:     rds,
		RateRPS:   cfg.RateLimit.RPS,
		Log:       lg,
	})
	return &Server{e: e, log: lg}
}

// NewReprocessService builds the engine shared by the HTTP server and the kafka worker.
func NewReprocessService(
	cfg config.Config,
	servicos repository.ServicosRepository,
	protocols reprocess.ProtocolWriter,
	rds *redis.Client,
	lg *zap.Logger,
) *reprocess.Service {
	pc := cfg.Provider
	provider := dispatcher.NewHTTPProvider(pc.Name, pc.BaseURL, pc.Timeout, pc.Headers)
	breaker := dispatcher.NewBreaker(dispatcher.BreakerConfig{
		Timeout:                  pc.Breaker.Timeout,
		ResetTimeout:             pc.Breaker.ResetTimeout,
		ErrorThresholdPercentage: pc.Breaker.ErrorThresholdPercentage,
		VolumeThreshold:          pc.Breaker.VolumeThreshold,
		RollingWindow:            pc.Breaker.RollingWindow,
	})
	client := dispatcher.NewClient(provider, breaker, lg.Named("dispatcher"))
	gate := idempotency.NewGate(idempotency.NewRedisStore(rds), cfg.Idempotency.TTL, lg.Named("idempotency"))

	return reprocess.New(servicos, protocols, client, gate,
		reprocess.WithConcurrency(cfg.Dispatch.Concurrency),
		reprocess.WithLogger(lg.Named("reprocess")),
	)
}

func newRouter(d Deps) *echo.Echo {
	lg := d.Log
	if lg == nil {
		lg = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetLevel(log.WARN)
	e.Use(
		echoMid.Recover(),
		echoMid.RequestIDWithConfig(echoMid.RequestIDConfig{Generator: util.New}),
		requestLogger(lg),
	)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.CedenteAuthMiddleware(d.Cedentes, lg)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            d.RateRPS,
		KeyPrefix:      "rl:cedente:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	api := e.Group("", authMW, rlMW)
	api.POST("/reenviar", reprocessHandler(d.Reprocess, lg))
	api.GET("/protocolo", listProtocolsHandler(d.Protocols, lg))
	api.GET("/protocolo/:id", getProtocolHandler(d.Protocols, lg))

	return e
}

func requestLogger(lg *zap.Logger) echo.MiddlewareFunc {
	return echoMid.RequestLoggerWithConfig(echoMid.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echoMid.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				lg.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			lg.Info("request", fields...)
			return nil
		},
	})
}

func (s *Server) Start(addr string) error {
	s.log.Info("http: listening", zap.String("addr", addr))
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
