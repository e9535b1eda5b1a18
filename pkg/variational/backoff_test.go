package variational

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffDelaysStayWithinJitterBounds(t *testing.T) {
	cfg := BackoffConfig{Base: 200 * time.Millisecond, Factor: 1.2, Randomize: 0.2}
	b := NewBackoff(cfg)
	for k := 0; k < 25; k++ {
		centre := float64(cfg.Base) * math.Pow(cfg.Factor, float64(k))
		lo := time.Duration(centre * (1 - cfg.Randomize))
		hi := time.Duration(centre * (1 + cfg.Randomize))
		delay := b.NextDelay()
		assert.GreaterOrEqualf(t, delay, lo-1, "delay %d below bound", k)
		assert.LessOrEqualf(t, delay, hi+1, "delay %d above bound", k)
	}
}

func TestBackoffJitterExtremes(t *testing.T) {
	cfg := BackoffConfig{Base: time.Second, Factor: 2, Randomize: 0.5}

	low := newBackoff(cfg, func() float64 { return 0 })
	assert.Equal(t, 500*time.Millisecond, low.NextDelay())
	assert.Equal(t, time.Second, low.NextDelay())
	assert.Equal(t, 2*time.Second, low.NextDelay())

	centred := newBackoff(cfg, func() float64 { return 0.5 })
	assert.Equal(t, time.Second, centred.NextDelay())
	assert.Equal(t, 2*time.Second, centred.NextDelay())
}

func TestBackoffWithoutJitterIsStrictlyIncreasing(t *testing.T) {
	b := newBackoff(BackoffConfig{Base: 10 * time.Millisecond, Factor: 1.5, Randomize: 0}, func() float64 { return 0.9 })
	prev := time.Duration(0)
	for i := 0; i < 10; i++ {
		d := b.NextDelay()
		require.Greater(t, d, prev)
		prev = d
	}
}

func TestBackoffConfigNormalised(t *testing.T) {
	cfg := BackoffConfig{Factor: 0.5, Randomize: 1.5}.normalised()
	assert.Equal(t, DefaultBackoff(), cfg)
}
