// Package data supplies observed option prices for the implied-volatility
// solvers, either from Massive's market data API or from the pricing model.
package data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/contactkeval/iv-solver/internal/pricing"
)

// ErrNoQuote is returned when a source has no usable price for a contract.
var ErrNoQuote = errors.New("data: no usable option quote")

// QuoteSource supplies the observed market price of an option contract.
type QuoteSource interface {
	// Secondary returns the fallback source, or nil.
	Secondary() QuoteSource
	OptionPrice(ctx context.Context, c Contract) (float64, error)
}

// Contract identifies a European option together with the market state
// needed to price it.
type Contract struct {
	Underlying string
	Strike     float64
	Expiry     time.Time
	IsCall     bool

	Spot float64   // underlying price at AsOf
	Rate float64   // continuously compounded risk-free rate
	AsOf time.Time // valuation time
}

// Tau returns the time to expiry in seconds, the unit the pricing engine takes.
func (c Contract) Tau() float64 {
	return pricing.TauFromDuration(c.Expiry.Sub(c.AsOf))
}

// Symbol returns the OCC ticker of the contract.
func (c Contract) Symbol() string {
	optType := "put"
	if c.IsCall {
		optType = "call"
	}
	return OptionSymbolFromParts(c.Underlying, c.Expiry, optType, c.Strike)
}

// OptionSymbolFromParts formats an OCC option ticker:
// O:<root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if t := strings.ToLower(optionType); t == "put" || t == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%08d", strings.ToUpper(underlying), expDt, optType, strikeInt)
}

// FetchOptionPrice asks src for a price and walks the Secondary chain on failure.
func FetchOptionPrice(ctx context.Context, src QuoteSource, c Contract) (float64, error) {
	var errs []error
	for s := src; s != nil; s = s.Secondary() {
		price, err := s.OptionPrice(ctx, c)
		if err == nil {
			return price, nil
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return 0, fmt.Errorf("%w: no quote source configured", ErrNoQuote)
	}
	return 0, errors.Join(errs...)
}
