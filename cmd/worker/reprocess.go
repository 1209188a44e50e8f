package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/config"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/db"
	httpSrv "github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/http"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/kafka"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/logger"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/metrics"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCount int

var reprocessCmd = &cobra.Command{
	Use:   "reprocess",
	Short: "Consume reprocess requests from kafka and dispatch them",
	RunE:  runReprocess,
}

func init() {
	reprocessCmd.Flags().IntVar(&workerCount, "workers", 8, "number of concurrent processors")
}

func runReprocess(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	defer func() { _ = logger.Log.Sync() }()
	log := logger.Named("worker")

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) stores
	dbx, err := db.NewMySQLConnection(cfg.MySQL.DSN, db.MySQLOpts{
		MaxOpenConns:    cfg.MySQL.MaxOpenConns,
		MaxIdleConns:    cfg.MySQL.MaxIdleConns,
		ConnMaxLifetime: cfg.MySQL.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.MySQL.ConnMaxIdleTime,
		PingTimeout:     cfg.MySQL.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	rds, err := db.NewRedisClient(db.RedisOpts{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: cfg.Redis.DialTimeout,
	})
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer func() { _ = rds.Close() }()

	// 3) engine (same wiring as the HTTP server)
	cedentesRepo := repository.NewCedentesRepository(dbx)
	engine := httpSrv.NewReprocessService(cfg,
		repository.NewServicosRepository(dbx),
		repository.NewProtocolsRepository(dbx),
		rds,
		logger.Log,
	)

	// 4) kafka consumer
	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          cfg.Kafka.Topic,
		GroupID:        cfg.Kafka.GroupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewReprocessKafka(consumer, cedentesRepo, engine, log)
	if workerCount > 0 {
		w.Workers = workerCount
	}

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("reprocess worker started",
		zap.String("topic", cfg.Kafka.Topic),
		zap.String("group", cfg.Kafka.GroupID),
		zap.Int("workers", w.Workers),
	)
	return w.Run(ctx)
}
