package variational

import (
	"math/rand/v2"
	"time"
)

const (
	defaultBackoffBase      = 200 * time.Millisecond
	defaultBackoffFactor    = 1.2
	defaultBackoffRandomize = 0.2
)

// BackoffConfig seeds the delay sequence used between rate-limited retries.
type BackoffConfig struct {
	Base      time.Duration
	Factor    float64
	Randomize float64
}

// DefaultBackoff is used unless WithBackoff overrides it.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Base:      defaultBackoffBase,
		Factor:    defaultBackoffFactor,
		Randomize: defaultBackoffRandomize,
	}
}

func (c BackoffConfig) normalised() BackoffConfig {
	def := DefaultBackoff()
	if c.Base <= 0 {
		c.Base = def.Base
	}
	if c.Factor <= 1 {
		c.Factor = def.Factor
	}
	if c.Randomize < 0 || c.Randomize >= 1 {
		c.Randomize = def.Randomize
	}
	return c
}

// Backoff yields exponentially growing, jittered delays. It is not safe for
// concurrent use; each logical request owns its own instance.
type Backoff struct {
	factor    float64
	randomize float64
	next      float64 // nanoseconds
	rand      func() float64
}

// NewBackoff returns a sequence whose first delay is centred on cfg.Base.
func NewBackoff(cfg BackoffConfig) *Backoff {
	return newBackoff(cfg, rand.Float64)
}

func newBackoff(cfg BackoffConfig, source func() float64) *Backoff {
	cfg = cfg.normalised()
	if source == nil {
		source = rand.Float64
	}
	return &Backoff{
		factor:    cfg.Factor,
		randomize: cfg.Randomize,
		next:      float64(cfg.Base),
		rand:      source,
	}
}

// NextDelay returns the current delay scaled by a jitter drawn from
// [1-randomize, 1+randomize) and grows the base by the factor.
func (b *Backoff) NextDelay() time.Duration {
	jitter := 1 - b.randomize + b.rand()*b.randomize*2
	delay := b.next * jitter
	b.next *= b.factor
	return time.Duration(delay)
}
