package exchange

import (
	"math"
	"math/rand"
	"time"
)

// RandomSource supplies jitter randomness; injectable so tests can pin it.
type RandomSource interface {
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

type mathRandSource struct{}

func (mathRandSource) Float64() float64 { return rand.Float64() }

// DefaultRandomSource is the production RandomSource, backed by math/rand.
var DefaultRandomSource RandomSource = mathRandSource{}

// BackoffCalculator computes MRP retransmission delays per spec 4.12.2.1:
//
//	backoff = margin*baseInterval * BACKOFF_BASE^max(0, attempt-BACKOFF_THRESHOLD) * (1 + jitter*random)
//
// Linear for the first few attempts (quick recovery from a transient drop),
// exponential once the threshold is crossed (convergence under congestion).
type BackoffCalculator struct {
	random RandomSource
}

// NewBackoffCalculator builds a calculator. A nil random falls back to
// DefaultRandomSource.
func NewBackoffCalculator(random RandomSource) *BackoffCalculator {
	if random == nil {
		random = DefaultRandomSource
	}
	return &BackoffCalculator{random: random}
}

// marginedExponential computes margin*baseInterval*BACKOFF_BASE^exponent,
// the jitter-free core shared by Calculate/CalculateMin/CalculateMax.
func marginedExponential(baseInterval time.Duration, attemptNumber int) float64 {
	exponent := attemptNumber - MRPBackoffThreshold
	if exponent < 0 {
		exponent = 0
	}
	return float64(baseInterval) * MRPBackoffMargin * math.Pow(MRPBackoffBase, float64(exponent))
}

// Calculate returns the jittered backoff for attemptNumber previous attempts
// against baseInterval (the session's idle or active MRP interval).
func (b *BackoffCalculator) Calculate(baseInterval time.Duration, attemptNumber int) time.Duration {
	jitter := 1.0 + b.random.Float64()*MRPBackoffJitter
	return time.Duration(marginedExponential(baseInterval, attemptNumber) * jitter)
}

// CalculateMin returns the zero-jitter lower bound of Calculate's output.
func (b *BackoffCalculator) CalculateMin(baseInterval time.Duration, attemptNumber int) time.Duration {
	return time.Duration(marginedExponential(baseInterval, attemptNumber))
}

// CalculateMax returns the full-jitter upper bound of Calculate's output.
func (b *BackoffCalculator) CalculateMax(baseInterval time.Duration, attemptNumber int) time.Duration {
	return time.Duration(marginedExponential(baseInterval, attemptNumber) * (1.0 + MRPBackoffJitter))
}
