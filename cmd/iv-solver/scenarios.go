package main

import (
	"context"
	"time"

	"github.com/contactkeval/iv-solver/internal/config"
	"github.com/contactkeval/iv-solver/internal/data"
	"github.com/contactkeval/iv-solver/internal/impliedvol"
	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/metrics"
	"github.com/contactkeval/iv-solver/internal/pricing"
	"github.com/contactkeval/iv-solver/internal/report"
)

const oneWeek = 7 * 24 * 3600.0

// scenario is one observed price to invert, solved with every method.
type scenario struct {
	name   string
	inputs impliedvol.Inputs
}

// literalScenarios are the fixed demonstration cases: a one-year call and
// put quoted at 18, and a one-week call priced at 50% volatility.
func literalScenarios() ([]scenario, error) {
	weekly, err := pricing.CallPrice(1, 1.1, 0, 0.5, oneWeek)
	if err != nil {
		return nil, err
	}
	return []scenario{
		{"1y call 115", impliedvol.Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: pricing.SecondsPerYear, Market: 18, IsCall: true}},
		{"1y put 115", impliedvol.Inputs{Spot: 100, Strike: 115, Rate: 0.05, Tau: pricing.SecondsPerYear, Market: 18, IsCall: false}},
		{"1w call 1.1 at 50%", impliedvol.Inputs{Spot: 1, Strike: 1.1, Rate: 0, Tau: oneWeek, Market: weekly, IsCall: true}},
	}, nil
}

// quoteSource builds the market quote chain: Massive first when an API key
// is configured, the model at the reference volatility always last.
func quoteSource(mc config.MarketConfig) data.QuoteSource {
	model := data.NewModelQuoteSource(mc.ReferenceVol)
	if mc.APIKey == "" {
		logger.Infof("no Massive API key, quotes come from the model at sigma=%g", mc.ReferenceVol)
		return model
	}
	return data.NewMassiveQuoteSource(mc.APIKey, mc.BaseURL, time.Duration(mc.TimeoutSeconds)*time.Second, model)
}

// quoteScenario prices the configured contract at the next monthly expiry.
func quoteScenario(ctx context.Context, mc config.MarketConfig, src data.QuoteSource, now time.Time) (scenario, error) {
	expiry, err := data.NextMonthlyExpiry(now)
	if err != nil {
		return scenario{}, err
	}
	c := data.Contract{
		Underlying: mc.Underlying,
		Strike:     mc.Strike,
		Expiry:     expiry,
		IsCall:     mc.IsCall,
		Spot:       mc.Spot,
		Rate:       mc.Rate,
		AsOf:       now,
	}
	price, err := data.FetchOptionPrice(ctx, src, c)
	if err != nil {
		return scenario{}, err
	}
	return scenario{
		name:   c.Symbol(),
		inputs: impliedvol.Inputs{Spot: c.Spot, Strike: c.Strike, Rate: c.Rate, Tau: c.Tau(), Market: price, IsCall: c.IsCall},
	}, nil
}

// solveAll runs every method on every scenario and records the outcomes.
func solveAll(scenarios []scenario, cfg impliedvol.Config, m *metrics.SolverMetrics) []report.Row {
	rows := make([]report.Row, 0, len(scenarios)*len(impliedvol.Methods()))
	for _, sc := range scenarios {
		for _, method := range impliedvol.Methods() {
			start := time.Now()
			res, err := impliedvol.Solve(method, sc.inputs, cfg)
			if err != nil {
				m.ObserveError(string(method))
				logger.Errorf("%s with %s: %v", sc.name, method, err)
			} else {
				m.ObserveSolve(string(method), res.Status.String(), res.Iterations, time.Since(start))
				logger.WithFields(map[string]any{
					"scenario":   sc.name,
					"method":     method,
					"sigma":      res.Sigma,
					"status":     res.Status,
					"iterations": res.Iterations,
				}).Debug("solved")
			}
			rows = append(rows, report.Row{Scenario: sc.name, Method: method, Inputs: sc.inputs, Result: res, Err: err})
		}
	}
	return rows
}
