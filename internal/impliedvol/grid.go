package impliedvol

import (
	"fmt"
	"math"

	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

// BruteForce scans sigma = cfg.Lower + i*cfg.Step for every i keeping
// sigma <= cfg.Upper and returns the first candidate minimising
// |price - market|, together with that error in Result.Residual.
//
// The scan always completes, so Status is Converged; a large Residual means
// the true root lies outside the grid. Accuracy is bounded by half a step.
func BruteForce(spot, strike, rate, tau, market float64, isCall bool, cfg GridConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkMarket(market); err != nil {
		return Result{}, err
	}

	n := cfg.size()
	best := Result{Status: Converged, Iterations: n, Residual: math.Inf(1)}

	for i := 0; i < n; i++ {
		sigma := cfg.Lower + float64(i)*cfg.Step

		price, err := pricing.Price(isCall, spot, strike, rate, sigma, tau)
		if err != nil {
			return Result{}, fmt.Errorf("grid point sigma=%g: %w", sigma, err)
		}

		if e := math.Abs(price - market); e < best.Residual {
			best.Sigma = sigma
			best.Residual = e
		}
	}

	logger.Debugf("grid best sigma=%.6f err=%.3e over %d points", best.Sigma, best.Residual, n)
	return best, nil
}
