package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/kafka"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/service/reprocess"
	"go.uber.org/zap"
)

// MessageSource is the subset of *kafka.Consumer the worker needs.
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// Reprocessor runs one reprocess request.
type Reprocessor interface {
	Reprocess(ctx context.Context, cedente model.Cedente, cmd reprocess.Command) (reprocess.Outcome, error)
}

// ReprocessKafka:
// - fetches reprocess envelopes from Kafka,
// - resolves the cedente and runs the same pipeline as POST /reenviar,
// - commits every message once handled (failures are logged, not redelivered).
type ReprocessKafka struct {
	// Dependencies
	Source   MessageSource
	Cedentes repository.CedentesRepository
	Engine   Reprocessor
	Log      *zap.Logger

	// Behavior
	Workers    int           // number of goroutines processing messages
	FetchDelay time.Duration // pause after a fetch error
}

// NewReprocessKafka builds a worker with sane defaults.
func NewReprocessKafka(src MessageSource, cedentes repository.CedentesRepository, engine Reprocessor, log *zap.Logger) *ReprocessKafka {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReprocessKafka{
		Source:     src,
		Cedentes:   cedentes,
		Engine:     engine,
		Log:        log,
		Workers:    8,
		FetchDelay: 200 * time.Millisecond,
	}
}

// Run starts the worker and blocks until ctx is cancelled and in-flight messages finish.
func (w *ReprocessKafka) Run(ctx context.Context) error {
	if w.Source == nil || w.Cedentes == nil || w.Engine == nil {
		return errors.New("reprocess-kafka: missing dependency")
	}
	if w.Workers <= 0 {
		w.Workers = 8
	}

	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			m, err := w.Source.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.Log.Warn("kafka fetch failed", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.FetchDelay):
				}
				continue
			}
			select {
			case msgCh <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < w.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range msgCh {
				w.processOne(ctx, m)
			}
		}()
	}
	wg.Wait()
	return nil
}

func (w *ReprocessKafka) processOne(ctx context.Context, m kafka.Message) {
	// commit even if ctx was cancelled mid-flight; the dispatch already happened
	defer func() {
		if err := w.Source.Commit(context.WithoutCancel(ctx), m); err != nil {
			w.Log.Error("kafka commit failed", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}()

	log := w.Log.With(zap.Int("partition", m.Partition), zap.Int64("offset", m.Offset))

	var env model.ReprocessEnvelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.CedenteID <= 0 {
		log.Warn("dropping malformed reprocess envelope", zap.ByteString("value", m.Value), zap.Error(err))
		return
	}
	log = log.With(zap.Int64("cedente_id", env.CedenteID))

	ced, err := w.Cedentes.GetByID(ctx, env.CedenteID)
	if err != nil {
		log.Error("cedente lookup failed", zap.Error(err))
		return
	}
	if ced == nil || ced.Status != model.StatusAtivo {
		log.Warn("dropping envelope for unknown or inactive cedente")
		return
	}

	cmd, err := reprocess.Request{Product: env.Product, IDs: env.IDs, Kind: env.Kind, Type: env.Type}.Parse()
	if err != nil {
		log.Warn("dropping invalid reprocess envelope", zap.Error(err))
		return
	}

	out, err := w.Engine.Reprocess(ctx, *ced, cmd)
	if err != nil {
		log.Error("reprocess failed", zap.String("product", cmd.Product.String()), zap.Error(err))
		return
	}
	log.Info("reprocess completed",
		zap.String("product", cmd.Product.String()),
		zap.Int("instruments", len(cmd.IDs)),
		zap.Bool("cached", out.Cached),
	)
}
