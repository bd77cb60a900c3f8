package service

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"

	"github.com/aussiebroadwan/dpquery/internal/query/domain"
	"github.com/pelletier/go-toml/v2"
)

// FallbackEpsilon applies to any query type the policy does not name.
const FallbackEpsilon = 1.0

var ErrInvalidPolicy = errors.New("service: invalid privacy policy")

// Policy maps query types to the epsilon spent when answering them with
// differential privacy. Callers never choose epsilon; the server does.
type Policy struct {
	DefaultEpsilon float64            `toml:"default_epsilon" json:"default_epsilon"`
	Epsilon        map[string]float64 `toml:"epsilon" json:"epsilon"`
}

// DefaultPolicy is the built-in budget used when no policy file is configured.
func DefaultPolicy() Policy {
	return Policy{
		DefaultEpsilon: FallbackEpsilon,
		Epsilon: map[string]float64{
			string(domain.QueryRevenueByRegion):    4.0,
			string(domain.QueryCountByCategory):    2.5,
			string(domain.QueryCountByFingerprint): 0.2,
			string(domain.QueryTotalRevenue):       0.5,
		},
	}
}

// LoadPolicy reads a TOML policy file and layers it over DefaultPolicy.
//
//	default_epsilon = 1.0
//
//	[epsilon]
//	revenue_by_region = 2.0
func LoadPolicy(path string) (Policy, error) {
	f, err := os.Open(path)
	if err != nil {
		return Policy{}, fmt.Errorf("open policy: %w", err)
	}
	defer f.Close()

	var file struct {
		DefaultEpsilon *float64           `toml:"default_epsilon"`
		Epsilon        map[string]float64 `toml:"epsilon"`
	}
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return Policy{}, fmt.Errorf("%w: %s: %w", ErrInvalidPolicy, path, err)
	}

	p := DefaultPolicy()
	if file.DefaultEpsilon != nil {
		p.DefaultEpsilon = *file.DefaultEpsilon
	}
	maps.Copy(p.Epsilon, file.Epsilon)

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Validate rejects epsilons that are not finite and positive.
func (p Policy) Validate() error {
	if !validEpsilon(p.DefaultEpsilon) {
		return fmt.Errorf("%w: default_epsilon %v", ErrInvalidPolicy, p.DefaultEpsilon)
	}
	for qt, eps := range p.Epsilon {
		if !validEpsilon(eps) {
			return fmt.Errorf("%w: epsilon for %q is %v", ErrInvalidPolicy, qt, eps)
		}
	}
	return nil
}

// EpsilonFor returns the configured epsilon for qt, or DefaultEpsilon.
func (p Policy) EpsilonFor(qt domain.QueryType) float64 {
	if eps, ok := p.Epsilon[string(qt)]; ok {
		return eps
	}
	return p.Default()
}

// Default is DefaultEpsilon, or FallbackEpsilon when unset.
func (p Policy) Default() float64 {
	if p.DefaultEpsilon > 0 {
		return p.DefaultEpsilon
	}
	return FallbackEpsilon
}

func validEpsilon(eps float64) bool {
	return !math.IsNaN(eps) && !math.IsInf(eps, 0) && eps > 0
}
