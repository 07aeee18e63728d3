package inference

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"jurimetria/domain/core"
)

// DefaultAlpha is the significance level used when callers pass 0
const DefaultAlpha = 0.05

// Proportion is a binomial proportion with its Wilson score interval
type Proportion struct {
	Metric    string  `json:"metric"`
	Successes int     `json:"successes"`
	Trials    int     `json:"trials"`
	Estimate  float64 `json:"estimate"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Alpha     float64 `json:"alpha"`
}

// WilsonInterval computes the Wilson score interval for k successes out of n
// trials at significance alpha. This is the score-test inversion, not the Wald
// approximation: the interval stays inside [0,1] and remains stable for k=0
// and k=n. n=0 is signaled as core.ErrInsufficientData, never silently zeroed.
func WilsonInterval(metric string, k, n int, alpha float64) (Proportion, error) {
	if alpha == 0 {
		alpha = DefaultAlpha
	}
	if alpha <= 0 || alpha >= 1 {
		return Proportion{}, core.NewValidationError("alpha", fmt.Sprintf("must be in (0,1), got %g", alpha))
	}
	if n == 0 {
		return Proportion{}, fmt.Errorf("%w: %s has no observations", core.ErrInsufficientData, metric)
	}
	if k < 0 || k > n {
		return Proportion{}, core.NewValidationError("successes", fmt.Sprintf("k=%d outside [0,%d]", k, n))
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(1 - alpha/2)
	nf := float64(n)
	p := float64(k) / nf
	z2 := z * z

	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom

	return Proportion{
		Metric:    metric,
		Successes: k,
		Trials:    n,
		Estimate:  p,
		Lower:     math.Max(0, center-half),
		Upper:     math.Min(1, center+half),
		Alpha:     alpha,
	}, nil
}
