package reprocess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/dispatcher"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/idempotency"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/metrics"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/model"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/presenter"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	SuccessMessage     = "notifications reprocessed successfully"
	timestampLayout    = "2006-01-02T15:04:05.000Z07:00"
	defaultConcurrency = 4
)

// Sender delivers one envelope and returns the provider protocol.
type Sender interface {
	Send(ctx context.Context, env presenter.Envelope) (string, error)
}

// ProtocolWriter persists dispatch records.
type ProtocolWriter interface {
	Create(ctx context.Context, rec *model.WebhookReprocessado) error
}

// Response is the success body returned (and cached) for a reprocess request.
type Response struct {
	Message    string   `json:"message"`
	Protocolos []string `json:"protocolos"`
	Total      int      `json:"total"`
	Timestamp  string   `json:"timestamp"`
	Product    string   `json:"product"`
}

// Outcome carries the serialized response; Cached is true on an idempotency hit.
type Outcome struct {
	Body   []byte
	Cached bool
}

type recordData struct {
	presenter.Envelope
	Protocolo string `json:"protocolo"`
}

// Service runs the reprocess pipeline:
// idempotency gate -> validate -> resolve -> group -> present -> dispatch -> persist.
type Service struct {
	validator   *Validator
	gate        *idempotency.Gate
	sender      Sender
	protocols   ProtocolWriter
	log         *zap.Logger
	concurrency int
	now         func() time.Time
}

type Option func(*Service)

// WithConcurrency bounds how many groups of one request are dispatched at once.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs the reprocess service.
func New(
	servicos repository.ServicosRepository,
	protocols ProtocolWriter,
	sender Sender,
	gate *idempotency.Gate,
	opts ...Option,
) *Service {
	s := &Service{
		validator:   NewValidator(servicos),
		gate:        gate,
		sender:      sender,
		protocols:   protocols,
		log:         zap.NewNop(),
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Reprocess returns the response body for cmd on behalf of cedente, replaying the
// cached body when an identical request already succeeded.
func (s *Service) Reprocess(ctx context.Context, cedente model.Cedente, cmd Command) (Outcome, error) {
	key := idempotency.Key(cedente.ID, cmd.Product, cmd.IDs, cmd.Kind, cmd.Type)

	body, hit, err := s.gate.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		resp, err := s.run(ctx, cedente, cmd)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resp)
	})
	if err != nil {
		metrics.ReprocessTotal.WithLabelValues(cmd.Product.String(), resultLabel(err)).Inc()
		return Outcome{}, err
	}

	result := "ok"
	if hit {
		result = "cached"
		s.log.Info("reprocess served from cache", zap.Int64("cedente_id", cedente.ID), zap.String("key", key))
	}
	metrics.ReprocessTotal.WithLabelValues(cmd.Product.String(), result).Inc()
	return Outcome{Body: body, Cached: hit}, nil
}

type batch struct {
	envelope presenter.Envelope
	group    Group
}

func (s *Service) run(ctx context.Context, cedente model.Cedente, cmd Command) (*Response, error) {
	situations, ok := model.Situations(cmd.Product, cmd.Type)
	if !ok {
		return nil, fmt.Errorf("no situation mapping for %s/%s", cmd.Product, cmd.Type)
	}

	servicos, err := s.validator.Validate(ctx, cedente.ID, cmd)
	if err != nil {
		return nil, err
	}

	resolutions, err := Resolve(servicos)
	if err != nil {
		return nil, err
	}

	batches := s.present(cedente, cmd, situations, GroupByDestination(resolutions))
	if len(batches) == 0 {
		s.log.Warn("no dispatchable group", zap.Int64("cedente_id", cedente.ID), zap.Int64s("ids", cmd.IDs))
		return nil, dispatcher.ErrUnavailable
	}

	protocolos, total, err := s.dispatch(ctx, cedente, cmd, batches)
	if err != nil {
		return nil, err
	}

	return &Response{
		Message:    SuccessMessage,
		Protocolos: protocolos,
		Total:      total,
		Timestamp:  s.now().UTC().Format(timestampLayout),
		Product:    cmd.Product.String(),
	}, nil
}

// present builds one envelope per group; groups that fail are skipped.
func (s *Service) present(cedente model.Cedente, cmd Command, situations []string, groups []Group) []batch {
	p, err := presenter.For(cmd.Product)
	if err != nil {
		s.log.Warn("no presenter for product", zap.String("product", cmd.Product.String()))
		return nil
	}

	now := s.now()
	out := make([]batch, 0, len(groups))
	for _, g := range groups {
		notifications, err := p.Present(presenter.Input{
			BatchID:     uuid.New(),
			CedenteID:   cedente.ID,
			CedenteCNPJ: cedente.CNPJ,
			Kind:        cmd.Kind,
			Type:        cmd.Type,
			Situations:  situations,
			Config:      g.Config,
			Servicos:    g.Servicos(),
			Now:         now,
		})
		if err != nil {
			metrics.SkippedGroupsTotal.WithLabelValues(cmd.Product.String()).Inc()
			s.log.Warn("skipping dispatch group",
				zap.Int64("cedente_id", cedente.ID),
				zap.String("url", g.Config.URL),
				zap.Int("instruments", len(g.Resolutions)),
				zap.Error(err),
			)
			continue
		}
		out = append(out, batch{envelope: presenter.Envelope{Notifications: notifications}, group: g})
	}
	return out
}

// dispatch sends every batch and records each one right after its provider call succeeds.
// After the first failure, batches that have not started yet are not sent.
func (s *Service) dispatch(ctx context.Context, cedente model.Cedente, cmd Command, batches []batch) ([]string, int, error) {
	protocolos := make([]string, len(batches))
	counts := make([]int, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			protocolo, err := s.sender.Send(ctx, b.envelope)
			if err != nil {
				return err
			}

			data, err := json.Marshal(recordData{Envelope: b.envelope, Protocolo: protocolo})
			if err != nil {
				return fmt.Errorf("marshal record data: %w", err)
			}
			ids := make(model.StringArray, 0, len(b.group.Resolutions))
			for _, r := range b.group.Resolutions {
				ids = append(ids, fmt.Sprint(r.Servico.ID))
			}
			rec := &model.WebhookReprocessado{
				Data:      data,
				CedenteID: cedente.ID,
				Kind:      cmd.Kind,
				Type:      cmd.Type.String(),
				ServicoID: ids,
				Product:   cmd.Product,
				Protocolo: protocolo,
			}
			// the batch already reached the provider; a caller disconnect must not lose its record
			if err := s.protocols.Create(context.WithoutCancel(ctx), rec); err != nil {
				s.log.Error("persist dispatch record failed",
					zap.Int64("cedente_id", cedente.ID),
					zap.String("protocolo", protocolo),
					zap.Error(err),
				)
				return fmt.Errorf("create protocol record: %w", err)
			}

			protocolos[i] = protocolo
			counts[i] = len(ids)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	return protocolos, total, nil
}

func resultLabel(err error) string {
	var fe *FieldError
	switch {
	case errors.As(err, &fe) && fe.Code == CodeUnprocessable:
		return "unprocessable"
	case errors.As(err, &fe):
		return "invalid"
	case errors.Is(err, dispatcher.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
