// Package dp releases the two aggregates the query server answers privately:
// bounded sums and counts.
//
// Aggregation and noise come from Google's differential privacy library.
// Every release assumes one customer contributes one row to one partition.
// Sums clamp each contribution to [lower, upper], so a single row moves the
// total by at most max(|lower|, |upper|); counts have sensitivity 1.
package dp

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/differential-privacy/go/v3/dpagg"
	"github.com/google/differential-privacy/go/v3/noise"
)

var (
	ErrInvalidEpsilon = errors.New("dp: epsilon must be finite and greater than zero")
	ErrInvalidBounds  = errors.New("dp: bounds must be finite with lower not above upper")
)

// Mechanism adds Laplace noise. It holds no per-release state and is safe
// for concurrent use.
type Mechanism struct {
	noise noise.Noise
}

func NewMechanism() *Mechanism {
	return &Mechanism{noise: noise.Laplace()}
}

// BoundedSum releases sum(clamp(v, lower, upper)) plus Laplace noise.
func (m *Mechanism) BoundedSum(values []float64, epsilon, lower, upper float64) (float64, error) {
	if err := validateEpsilon(epsilon); err != nil {
		return 0, err
	}
	if !finite(lower) || !finite(upper) || lower > upper {
		return 0, fmt.Errorf("%w: [%v, %v]", ErrInvalidBounds, lower, upper)
	}

	// Every value clamps to zero and nothing about a row can leak.
	if lower == 0 && upper == 0 {
		return 0, nil
	}

	bs, err := dpagg.NewBoundedSumFloat64(&dpagg.BoundedSumFloat64Options{
		Epsilon:                  epsilon,
		MaxPartitionsContributed: 1,
		Lower:                    lower,
		Upper:                    upper,
		Noise:                    m.noise,
	})
	if err != nil {
		return 0, fmt.Errorf("dp: bounded sum: %w", err)
	}

	for _, v := range values {
		if err := bs.Add(v); err != nil {
			return 0, fmt.Errorf("dp: bounded sum: %w", err)
		}
	}

	noisy, err := bs.Result()
	if err != nil {
		return 0, fmt.Errorf("dp: bounded sum: %w", err)
	}
	return noisy, nil
}

// Count releases n plus Laplace noise. The result may be negative for small n.
func (m *Mechanism) Count(n int64, epsilon float64) (int64, error) {
	if err := validateEpsilon(epsilon); err != nil {
		return 0, err
	}

	c, err := dpagg.NewCount(&dpagg.CountOptions{
		Epsilon:                  epsilon,
		MaxPartitionsContributed: 1,
		Noise:                    m.noise,
	})
	if err != nil {
		return 0, fmt.Errorf("dp: count: %w", err)
	}

	if err := c.IncrementBy(n); err != nil {
		return 0, fmt.Errorf("dp: count: %w", err)
	}

	noisy, err := c.Result()
	if err != nil {
		return 0, fmt.Errorf("dp: count: %w", err)
	}
	return noisy, nil
}

func validateEpsilon(epsilon float64) error {
	if !finite(epsilon) || epsilon <= 0 {
		return fmt.Errorf("%w: got %v", ErrInvalidEpsilon, epsilon)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
