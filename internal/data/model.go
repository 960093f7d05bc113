package data

import (
	"context"

	"github.com/contactkeval/iv-solver/internal/logger"
	"github.com/contactkeval/iv-solver/internal/pricing"
)

// modelQuoteSource prices contracts with Black-Scholes at a fixed reference
// volatility. It works offline, and solving its quotes must give back
// the reference volatility.
type modelQuoteSource struct {
	referenceVol float64
}

func NewModelQuoteSource(referenceVol float64) QuoteSource {
	return &modelQuoteSource{referenceVol: referenceVol}
}

// Secondary is always nil: the model can price any valid contract.
func (m *modelQuoteSource) Secondary() QuoteSource {
	return nil
}

func (m *modelQuoteSource) OptionPrice(ctx context.Context, c Contract) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	price, err := pricing.Price(c.IsCall, c.Spot, c.Strike, c.Rate, m.referenceVol, c.Tau())
	if err != nil {
		return 0, err
	}
	logger.Tracef("model quote %s sigma=%.4f price=%.6f", c.Symbol(), m.referenceVol, price)
	return price, nil
}
