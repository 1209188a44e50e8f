package dispatcher

import (
	"context"
	"errors"

	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/metrics"
	"github.com/RenatoGarciaLopes/disparador-de-webhook-tecnospeed-sub000/internal/presenter"
	"go.uber.org/zap"
)

// ErrUnavailable is the only error Send returns. Its message is safe to show to callers.
var ErrUnavailable = errors.New("unable to generate the notification, try again later")

// Client sends envelopes to a single provider through a circuit breaker.
type Client struct {
	provider Provider
	breaker  *Breaker
	log      *zap.Logger
}

func NewClient(p Provider, br *Breaker, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if br == nil {
		br = NewBreaker(BreakerConfig{})
	}

	name := p.Name()
	br.onStateChange = func(from, to state) {
		log.Warn("provider breaker state changed",
			zap.String("provider", name),
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
		metrics.BreakerState.WithLabelValues(name).Set(float64(to))
	}
	metrics.BreakerState.WithLabelValues(name).Set(float64(closed))

	return &Client{provider: p, breaker: br, log: log}
}

// Send returns the provider protocol for env. Any failure, including an open
// breaker or an empty protocol, is logged and reported as ErrUnavailable.
// The call is detached from ctx cancellation; only the breaker timeout bounds it.
func (c *Client) Send(ctx context.Context, env presenter.Envelope) (string, error) {
	if err := env.Validate(); err != nil {
		c.fail("invalid_envelope", err)
		return "", ErrUnavailable
	}

	var protocolo string
	err := c.breaker.Execute(context.WithoutCancel(ctx), func(ctx context.Context) error {
		p, err := c.provider.Send(ctx, env)
		if err != nil {
			return err
		}
		protocolo = p
		return nil
	})
	if err != nil {
		outcome := "provider_error"
		if errors.Is(err, ErrBreakerOpen) {
			outcome = "breaker_open"
		} else if errors.Is(err, ErrBreakerTimeout) {
			outcome = "timeout"
		}
		c.fail(outcome, err)
		return "", ErrUnavailable
	}

	metrics.DispatchTotal.WithLabelValues("sent").Inc()
	c.log.Info("notification batch dispatched",
		zap.String("provider", c.provider.Name()),
		zap.String("protocolo", protocolo),
		zap.Int("notifications", len(env.Notifications)),
	)
	return protocolo, nil
}

func (c *Client) fail(outcome string, err error) {
	metrics.DispatchTotal.WithLabelValues(outcome).Inc()
	c.log.Error("notification dispatch failed",
		zap.String("provider", c.provider.Name()),
		zap.String("outcome", outcome),
		zap.String("breaker", c.breaker.State()),
		zap.Error(err),
	)
}
