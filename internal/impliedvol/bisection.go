package impliedvol

import (
	"fmt"
	"math"

	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

// Bisection halves the bracket [cfg.Left, cfg.Right] until the price at
// its midpoint is within cfg.Tol of market or cfg.MaxIter midpoints have
// been tried.
//
// The half that keeps a sign change of price - market is retained: when
// the midpoint error has the same sign as the error at Left, Left moves
// to the midpoint, otherwise Right does. Left may be 0, in which case the
// zero-volatility limit of the price signs that edge.
//
// A bracket without a root is only detected when cfg.CheckBracket is set;
// otherwise the search runs and returns a sigma with no pricing guarantee.
func Bisection(spot, strike, rate, tau, market float64, isCall bool, cfg BisectionConfig) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if err := checkMarket(market); err != nil {
		return Result{}, err
	}

	diffAt := func(sigma float64) (float64, error) {
		var (
			price float64
			err   error
		)
		if sigma == 0 {
			price, err = pricing.ZeroVolPrice(isCall, spot, strike, rate, tau)
		} else {
			price, err = pricing.Price(isCall, spot, strike, rate, sigma, tau)
		}
		return price - market, err
	}

	left, right := cfg.Left, cfg.Right
	diffLeft, err := diffAt(left)
	if err != nil {
		return Result{}, fmt.Errorf("bisection left edge: %w", err)
	}

	if cfg.CheckBracket {
		diffRight, err := diffAt(right)
		if err != nil {
			return Result{}, fmt.Errorf("bisection right edge: %w", err)
		}
		if diffLeft*diffRight > 0 {
			return Result{}, &InvalidBracketError{
				Left: left, Right: right, DiffLeft: diffLeft, DiffRight: diffRight,
			}
		}
	}

	var mid, diff float64
	for i := 1; i <= cfg.MaxIter; i++ {
		mid = (left + right) / 2
		diff, err = diffAt(mid)
		if err != nil {
			return Result{Sigma: mid, Iterations: i}, fmt.Errorf("bisection iteration %d: %w", i, err)
		}

		if math.Abs(diff) < cfg.Tol {
			logger.Debugf("bisection converged sigma=%.10f iter=%d diff=%.3e", mid, i, diff)
			return Result{Sigma: mid, Status: Converged, Iterations: i, Residual: math.Abs(diff)}, nil
		}

		if (diff > 0) == (diffLeft > 0) {
			left, diffLeft = mid, diff
		} else {
			right = mid
		}
		if logger.Enabled(logger.Trace) {
			logger.Tracef("bisection iter=%d mid=%.10f diff=%.6e bracket=[%.10f, %.10f]", i, mid, diff, left, right)
		}
	}

	logger.Debugf("bisection exhausted sigma=%.10f after %d iterations", mid, cfg.MaxIter)
	return Result{Sigma: mid, Status: Exhausted, Iterations: cfg.MaxIter, Residual: math.Abs(diff)}, nil
}
