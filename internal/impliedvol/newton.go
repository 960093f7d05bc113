// Package impliedvol recovers the Black-Scholes volatility that reproduces an
// observed option price. Three independent strategies are provided:
//
//   - Newton: Newton-Raphson on price(sigma) - market using vega as the slope
//   - BruteForce: exhaustive scan of a fixed sigma grid
//   - Bisection: interval halving over a caller-supplied bracket
//
// All solvers are free functions with no shared state; they take every
// input explicitly and may be called concurrently. Running out of
// iterations is not an error: the last estimate is returned with
// Status Exhausted.
package impliedvol

import (
	"fmt"
	"math"

	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

// Newton solves for implied volatility with Newton-Raphson iteration.
//
// Starting from cfg.Guess, each iteration prices the option, stops if
// |price - market| < cfg.Tol, and otherwise steps
//
//	sigma -= (price - market) / max(vega, cfg.VegaFloor)
//
// The floor keeps the step finite when vega collapses (short expiries,
// deep in or out of the money, sigma drifting towards zero).
//
// After cfg.MaxIter iterations the last sigma is returned; its Status is
// Exhausted unless that final step happened to land within tolerance.
// An iterate that leaves sigma > 0 ends the search with a wrapped
// *pricing.DomainError.
func Newton(spot, strike, rate, tau, market float64, isCall bool, cfg NewtonConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkMarket(market); err != nil {
		return Result{}, err
	}

	sigma := cfg.Guess

	for i := 1; i <= cfg.MaxIter; i++ {
		price, err := pricing.Price(isCall, spot, strike, rate, sigma, tau)
		if err != nil {
			return Result{Sigma: sigma, Iterations: i}, fmt.Errorf("newton iteration %d: %w", i, err)
		}

		diff := price - market
		if math.Abs(diff) < cfg.Tol {
			logger.Debugf("newton converged sigma=%.10f iter=%d diff=%.3e", sigma, i, diff)
			return Result{Sigma: sigma, Status: Converged, Iterations: i, Residual: math.Abs(diff)}, nil
		}

		vega, err := pricing.Vega(spot, strike, rate, sigma, tau)
		if err != nil {
			return Result{Sigma: sigma, Iterations: i}, fmt.Errorf("newton iteration %d: %w", i, err)
		}

		sigma -= diff / math.Max(vega, cfg.VegaFloor)
		if logger.Enabled(logger.Trace) {
			logger.Tracef("newton iter=%d diff=%.6e vega=%.6f sigma=%.10f", i, diff, vega, sigma)
		}
	}

	// the final step was never priced
	price, err := pricing.Price(isCall, spot, strike, rate, sigma, tau)
	if err != nil {
		return Result{Sigma: sigma, Iterations: cfg.MaxIter}, fmt.Errorf("newton final iterate: %w", err)
	}

	res := Result{
		Sigma:      sigma,
		Status:     Exhausted,
		Iterations: cfg.MaxIter,
		Residual:   math.Abs(price - market),
	}
	if res.Residual < cfg.Tol {
		res.Status = Converged
	}
	logger.Debugf("newton stopped sigma=%.10f status=%s after %d iterations", sigma, res.Status, cfg.MaxIter)
	return res, nil
}
