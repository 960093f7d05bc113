package impliedvol

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/iv-solver/internal/pricing"
)

const (
	oneYear = pricing.SecondsPerYear
	oneWeek = 604800
)

func TestNewtonLiteralScenarios(t *testing.T) {
	cfg := DefaultNewtonConfig()

	call, err := Newton(100, 115, 0.05, oneYear, 18, true, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.5428424065162359, call.Sigma, 1e-6)
	assert.True(t, call.Converged())
	assert.Less(t, call.Residual, cfg.Tol)

	put, err := Newton(100, 115, 0.05, oneYear, 18, false, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.3068596305125857, put.Sigma, 1e-6)
	assert.True(t, put.Converged())
}

func TestNewtonRecoversWeeklyVolatility(t *testing.T) {
	market, err := pricing.CallPrice(1, 1.1, 0, 0.5, oneWeek)
	require.NoError(t, err)

	res, err := Newton(1, 1.1, 0, oneWeek, market, true, DefaultNewtonConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, res.Sigma, 1e-6)
	assert.Equal(t, Converged, res.Status)
	assert.LessOrEqual(t, res.Iterations, 5)
}

func TestNewtonRoundTrip(t *testing.T) {
	cases := []struct {
		name                           string
		spot, strike, rate, sigma, tau float64
	}{
		{"atm one year", 100, 100, 0.05, 0.2, oneYear},
		{"otm half year", 100, 120, 0.01, 0.35, oneYear / 2},
		{"itm quarter zero rate", 50, 45, 0, 0.8, oneYear / 4},
		{"negative rate", 20, 21, -0.01, 0.45, 2 * oneYear},
	}

	cfg := DefaultNewtonConfig()
	cfg.MaxIter = 50

	for _, tc := range cases {
		for _, isCall := range []bool{true, false} {
			market, err := pricing.Price(isCall, tc.spot, tc.strike, tc.rate, tc.sigma, tc.tau)
			require.NoError(t, err)

			cfg.Guess = tc.sigma * 1.3
			res, err := Newton(tc.spot, tc.strike, tc.rate, tc.tau, market, isCall, cfg)
			require.NoError(t, err, tc.name)
			assert.True(t, res.Converged(), tc.name)
			assert.InDelta(t, tc.sigma, res.Sigma, 1e-5, "%s call=%v", tc.name, isCall)
		}
	}
}

func TestNewtonExhaustedIsNotAnError(t *testing.T) {
	cfg := DefaultNewtonConfig()
	cfg.MaxIter = 2

	res, err := Newton(100, 115, 0.05, oneYear, 18, true, cfg)
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.Status)
	assert.False(t, res.Converged())
	assert.Equal(t, 2, res.Iterations)
	assert.InDelta(t, 0.5428251710228158, res.Sigma, 1e-9)
	assert.Greater(t, res.Residual, cfg.Tol)
}

func TestNewtonVegaFloorBoundsStep(t *testing.T) {
	// one day to expiry, strike twice the spot: vega at the guess is ~0
	cfg := DefaultNewtonConfig()
	cfg.Guess = 0.2
	cfg.MaxIter = 1

	res, err := Newton(100, 200, 0, 86400, 0.5, true, cfg)
	require.NoError(t, err)
	assert.False(t, math.IsInf(res.Sigma, 0) || math.IsNaN(res.Sigma))
	assert.InDelta(t, 0.2+0.5/cfg.VegaFloor, res.Sigma, 1e-9)
}

func TestNewtonIterateLeavingDomain(t *testing.T) {
	// market far below price(guess): the first step overshoots below zero
	res, err := Newton(100, 100, 0, oneYear, 1, true, DefaultNewtonConfig())
	require.Error(t, err)
	assert.ErrorIs(t, err, pricing.ErrDomain)
	assert.Less(t, res.Sigma, 0.0)
}

func TestBruteForceLiteralScenario(t *testing.T) {
	call, err := BruteForce(100, 115, 0.05, oneYear, 18, true, DefaultGridConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.5431, call.Sigma, 1e-12)
	assert.InDelta(t, 0.0102, call.Residual, 1e-3)
	assert.Equal(t, 4000, call.Iterations)

	put, err := BruteForce(100, 115, 0.05, oneYear, 18, false, DefaultGridConfig())
	require.NoError(t, err)
	assert.InDelta(t, 0.3071, put.Sigma, 1e-12)
}

func TestBruteForceDeterministic(t *testing.T) {
	first, err := BruteForce(100, 90, 0.02, oneYear/3, 14.2, true, DefaultGridConfig())
	require.NoError(t, err)
	second, err := BruteForce(100, 90, 0.02, oneYear/3, 14.2, true, DefaultGridConfig())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBruteForceRootOutsideGrid(t *testing.T) {
	// a price no sigma in [1e-4, 0.5] can reach: best is the upper edge
	cfg := GridConfig{Lower: 1e-4, Upper: 0.5, Step: 1e-3}
	res, err := BruteForce(100, 100, 0.05, oneYear, 60, true, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 0.4991, res.Sigma, 1e-12)
	assert.Greater(t, res.Residual, 30.0)
}

func TestBisectionDefaultBudget(t *testing.T) {
	res, err := Bisection(100, 115, 0.05, oneYear, 18, true, DefaultBisectionConfig())
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.Status)
	assert.Equal(t, 0.3125, res.Sigma)
}

func TestBisectionConverges(t *testing.T) {
	cfg := DefaultBisectionConfig()
	cfg.MaxIter = 60

	call, err := Bisection(100, 115, 0.05, oneYear, 18, true, cfg)
	require.NoError(t, err)
	assert.True(t, call.Converged())
	assert.InDelta(t, 0.5428424065162359, call.Sigma, 1e-6)

	put, err := Bisection(100, 115, 0.05, oneYear, 18, false, cfg)
	require.NoError(t, err)
	assert.True(t, put.Converged())
	assert.InDelta(t, 0.3068596305125857, put.Sigma, 1e-6)
}

func TestBisectionErrorBoundShrinks(t *testing.T) {
	const root = 0.5428424065162359
	cfg := DefaultBisectionConfig()

	prevBound := math.Inf(1)
	for k := 1; k <= 20; k++ {
		cfg.MaxIter = k
		res, err := Bisection(100, 115, 0.05, oneYear, 18, true, cfg)
		require.NoError(t, err)

		bound := (cfg.Right - cfg.Left) / math.Pow(2, float64(k))
		assert.LessOrEqual(t, bound, prevBound)
		assert.LessOrEqual(t, math.Abs(res.Sigma-root), bound+1e-6, "k=%d", k)
		prevBound = bound
	}
}

func TestBisectionBadBracket(t *testing.T) {
	cfg := DefaultBisectionConfig()
	cfg.Left, cfg.Right = 0.6, 1.0

	res, err := Bisection(100, 115, 0.05, oneYear, 18, true, cfg)
	require.NoError(t, err)
	assert.Equal(t, Exhausted, res.Status)
	assert.InDelta(t, 0.9875, res.Sigma, 1e-12)
	assert.Greater(t, res.Residual, 1.0)

	cfg.CheckBracket = true
	_, err = Bisection(100, 115, 0.05, oneYear, 18, true, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidBracket)

	var be *InvalidBracketError
	require.True(t, errors.As(err, &be))
	assert.Greater(t, be.DiffLeft, 0.0)
	assert.Greater(t, be.DiffRight, 0.0)
}

func TestBisectionCheckedBracketAcceptsRoot(t *testing.T) {
	cfg := DefaultBisectionConfig()
	cfg.CheckBracket = true
	cfg.MaxIter = 60

	res, err := Bisection(100, 115, 0.05, oneYear, 18, true, cfg)
	require.NoError(t, err)
	assert.True(t, res.Converged())
}

func TestInvalidInputs(t *testing.T) {
	_, err := Newton(100, 115, 0.05, 0, 18, true, DefaultNewtonConfig())
	assert.ErrorIs(t, err, pricing.ErrDomain)

	_, err = BruteForce(100, 115, 0.05, oneYear, 0, true, DefaultGridConfig())
	assert.ErrorIs(t, err, pricing.ErrDomain)

	_, err = Bisection(100, 115, 0.05, oneYear, math.NaN(), true, DefaultBisectionConfig())
	assert.ErrorIs(t, err, pricing.ErrDomain)
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	bad := DefaultConfig()
	bad.Newton.MaxIter = 0
	bad.Grid.Step = 0
	bad.Bisection.Left, bad.Bisection.Right = 2, 1
	err := bad.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "max_iter")
	assert.Contains(t, err.Error(), "step")
	assert.Contains(t, err.Error(), "right")

	_, err = Newton(100, 115, 0.05, oneYear, 18, true, NewtonConfig{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestGridConfigRejectsOversizedGrids(t *testing.T) {
	cases := []struct {
		name string
		cfg  GridConfig
	}{
		{"overflowing count", GridConfig{Lower: 1e-4, Upper: 1e300, Step: 1e-300}},
		{"too many points", GridConfig{Lower: 1e-4, Upper: 4, Step: 1e-12}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), "points")

			res, err := BruteForce(100, 115, 0.05, oneYear, 18, true, tc.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Zero(t, res)
		})
	}

	require.NoError(t, GridConfig{Lower: 0.01, Upper: 1, Step: 1e-6}.Validate())
}

func TestSolveDispatch(t *testing.T) {
	in := Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: oneYear, Market: 18, IsCall: true}
	cfg := DefaultConfig()
	cfg.Bisection.MaxIter = 60

	for _, m := range Methods() {
		res, err := Solve(m, in, cfg)
		require.NoError(t, err, m)
		assert.InDelta(t, 0.5428424065162359, res.Sigma, 1e-3, m)
	}

	_, err := Solve(Method("secant"), in, cfg)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestParseMethod(t *testing.T) {
	cases := map[string]Method{
		"newton":      MethodNewton,
		"Newton ":     MethodNewton,
		"grid":        MethodBruteForce,
		"brute-force": MethodBruteForce,
		"BISECT":      MethodBisection,
	}
	for name, want := range cases {
		got, err := ParseMethod(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got)
	}

	_, err := ParseMethod("halley")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Result{Sigma: 0.25, Status: Exhausted, Iterations: 5, Residual: 0.1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"sigma":0.25,"status":"exhausted","iterations":5,"residual":0.1}`, string(b))
}
