package collector

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes the delay before retrying after consecutive failures:
//
//	min(Max, Initial * Multiplier^(n-1) * (1 + Jitter*r)),  r in [0, 1)
//
// Jitter must not exceed Multiplier-1, which keeps the sequence non-decreasing
// until it plateaus at Max.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64

	// Rand returns values in [0, 1). Nil uses math/rand/v2.
	Rand func() float64
}

// DefaultBackoff starts at 10s and caps at 10m.
func DefaultBackoff() Backoff {
	return Backoff{Initial: 10 * time.Second, Max: 10 * time.Minute, Multiplier: 2, Jitter: 0.2}
}

func (b Backoff) isZero() bool {
	return b.Initial == 0 && b.Max == 0 && b.Multiplier == 0 && b.Jitter == 0
}

var errInvalidBackoff = errors.New("invalid backoff")

func (b Backoff) Validate() error {
	switch {
	case b.Initial <= 0:
		return fmt.Errorf("%w: initial must be > 0", errInvalidBackoff)
	case b.Max < b.Initial:
		return fmt.Errorf("%w: max %v is below initial %v", errInvalidBackoff, b.Max, b.Initial)
	case b.Multiplier < 1:
		return fmt.Errorf("%w: multiplier must be >= 1", errInvalidBackoff)
	case b.Jitter < 0 || b.Jitter > b.Multiplier-1:
		return fmt.Errorf("%w: jitter must be within [0, multiplier-1]", errInvalidBackoff)
	}
	return nil
}

// Delay returns the wait after the n-th consecutive failure (n >= 1).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	r := b.random()
	d := float64(b.Initial) * math.Pow(b.Multiplier, float64(n-1)) * (1 + b.Jitter*r)
	if d >= float64(b.Max) || math.IsInf(d, 1) || math.IsNaN(d) {
		return b.Max
	}
	return time.Duration(d)
}

func (b Backoff) random() float64 {
	if b.Rand != nil {
		return b.Rand()
	}
	return rand.Float64()
}
