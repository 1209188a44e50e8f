package dispatcher

import (
	"context"
	"errors"
	"sync"
	"time"
)

type state int

const (
	closed state = iota
	open
	halfOpen
)

func (s state) String() string {
	switch s {
	case closed:
		return "closed"
	case open:
		return "open"
	case halfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var (
	ErrBreakerOpen    = errors.New("circuit breaker is open")
	ErrBreakerTimeout = errors.New("circuit breaker timeout")
)

type BreakerConfig struct {
	// Timeout bounds a single call; exceeding it counts as a failure.
	Timeout time.Duration
	// ResetTimeout is how long the breaker stays open before letting one probe through.
	ResetTimeout time.Duration
	// ErrorThresholdPercentage (1-100) of failed calls in the window that opens the breaker.
	ErrorThresholdPercentage int
	// VolumeThreshold is the minimum number of calls in the window before it is evaluated.
	VolumeThreshold int
	// RollingWindow is the statistics window while closed.
	RollingWindow time.Duration
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = 30 * time.Second
	}
	if c.ErrorThresholdPercentage <= 0 || c.ErrorThresholdPercentage > 100 {
		c.ErrorThresholdPercentage = 50
	}
	if c.VolumeThreshold <= 0 {
		c.VolumeThreshold = 5
	}
	if c.RollingWindow <= 0 {
		c.RollingWindow = 10 * time.Second
	}
	return c
}

// Breaker is a per-process circuit breaker driven by the failure rate of a
// rolling window. Open -> half-open after ResetTimeout with a single probe.
type Breaker struct {
	mu            sync.Mutex
	cfg           BreakerConfig
	st            state
	windowStart   time.Time
	requests      int
	failures      int
	nextTryAt     time.Time
	probeInFlight bool
	// generation changes on every state transition; results of calls admitted
	// under an older generation are ignored.
	generation uint64

	now           func() time.Time
	onStateChange func(from, to state)
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	return &Breaker{cfg: cfg.withDefaults(), now: time.Now}
}

// State returns the current state name.
func (b *Breaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st.String()
}

// Execute runs fn under the breaker. fn receives a context bounded by cfg.Timeout.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	gen, ok := b.TryAcquire()
	if !ok {
		return ErrBreakerOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		b.OnSuccess(gen)
		return nil
	}
	b.OnFailure(gen)
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return errors.Join(ErrBreakerTimeout, err)
	}
	return err
}

// TryAcquire admits a call and returns the generation it must report back with.
func (b *Breaker) TryAcquire() (uint64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	switch b.st {
	case closed:
		b.rollWindow(now)
		return b.generation, true
	case open:
		if now.After(b.nextTryAt) && !b.probeInFlight {
			b.setState(halfOpen)
			b.probeInFlight = true
			return b.generation, true
		}
		return 0, false
	case halfOpen:
		if !b.probeInFlight {
			b.probeInFlight = true
			return b.generation, true
		}
		return 0, false
	default:
		return b.generation, true
	}
}

func (b *Breaker) OnSuccess(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return
	}
	if b.st == halfOpen {
		b.probeInFlight = false
		b.setState(closed)
		b.resetWindow(b.now())
		return
	}
	b.requests++
}

func (b *Breaker) OnFailure(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if gen != b.generation {
		return
	}
	now := b.now()
	if b.st == halfOpen {
		b.probeInFlight = false
		b.trip(now)
		return
	}
	if b.st == open {
		return
	}

	b.requests++
	b.failures++
	if b.requests >= b.cfg.VolumeThreshold &&
		b.failures*100 >= b.cfg.ErrorThresholdPercentage*b.requests {
		b.trip(now)
	}
}

func (b *Breaker) trip(now time.Time) {
	b.setState(open)
	b.nextTryAt = now.Add(b.cfg.ResetTimeout)
	b.resetWindow(now)
}

func (b *Breaker) rollWindow(now time.Time) {
	if b.windowStart.IsZero() || now.Sub(b.windowStart) >= b.cfg.RollingWindow {
		b.resetWindow(now)
	}
}

func (b *Breaker) resetWindow(now time.Time) {
	b.windowStart = now
	b.requests = 0
	b.failures = 0
}

func (b *Breaker) setState(to state) {
	from := b.st
	b.st = to
	if from == to {
		return
	}
	b.generation++
	if b.onStateChange != nil {
		b.onStateChange(from, to)
	}
}
