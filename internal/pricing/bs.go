// Package pricing implements the Black-Scholes model for European options:
// the d1/d2 probability factors, call and put prices, and vega.
//
// Every function is a pure function of its inputs. Time to expiry (tau) is
// always given in seconds and annualised with TauToYears.
//
// Inputs for which the formula is undefined (sigma <= 0, tau <= 0,
// non-positive spot or strike, NaN) are rejected with a *DomainError
// instead of letting NaN or Inf leak into the result.
package pricing

import (
	"math"
)

// validate rejects inputs the closed-form price is not defined for.
func validate(spot, strike, rate, sigma, tau float64) error {
	switch {
	case !(spot > 0) || math.IsInf(spot, 0):
		return &DomainError{Param: "spot", Value: spot}
	case !(strike > 0) || math.IsInf(strike, 0):
		return &DomainError{Param: "strike", Value: strike}
	case math.IsNaN(rate) || math.IsInf(rate, 0):
		return &DomainError{Param: "rate", Value: rate}
	case !(sigma > 0) || math.IsInf(sigma, 0):
		return &DomainError{Param: "sigma", Value: sigma}
	case !(tau > 0) || math.IsInf(tau, 0):
		return &DomainError{Param: "tau", Value: tau}
	}
	return nil
}

// ProbFactors calculates the d1 and d2 terms of the Black-Scholes formula.
//
// Parameters:
//   - spot: current price of the underlying
//   - strike: strike price of the option
//   - rate: continuously compounded risk-free rate
//   - sigma: annualised volatility
//   - tau: time to expiry in seconds
//
// Returns:
//
//	d1 = [ln(S/K) + (r + sigma^2/2)*T] / (sigma*sqrt(T)) and d2 = d1 - sigma*sqrt(T),
//	with T = tau in years, or a *DomainError when the inputs are invalid.
func ProbFactors(spot, strike, rate, sigma, tau float64) (d1, d2 float64, err error) {
	if err := validate(spot, strike, rate, sigma, tau); err != nil {
		return 0, 0, err
	}

	T := TauToYears(tau)
	volSqrtT := sigma * math.Sqrt(T)
	// a tau too small to annualise leaves no diffusion term to divide by
	if !(volSqrtT > 0) {
		return 0, 0, &DomainError{Param: "tau", Value: tau}
	}

	d1 = (math.Log(spot/strike) + (rate+0.5*sigma*sigma)*T) / volSqrtT
	if math.IsNaN(d1) || math.IsInf(d1, 0) {
		return 0, 0, &DomainError{Param: "tau", Value: tau}
	}
	d2 = d1 - volSqrtT
	return d1, d2, nil
}

// Vega calculates the sensitivity of the option price to volatility, dPrice/dSigma.
// It is the same for calls and puts.
//
// The value is per unit of volatility (not per 1%), which is what the
// Newton-Raphson update in impliedvol expects.
func Vega(spot, strike, rate, sigma, tau float64) (float64, error) {
	d1, _, err := ProbFactors(spot, strike, rate, sigma, tau)
	if err != nil {
		return 0, err
	}
	return spot * NormPDF(d1) * math.Sqrt(TauToYears(tau)), nil
}

// CallPrice calculates the price of a European call: S*N(d1) - K*exp(-rT)*N(d2).
func CallPrice(spot, strike, rate, sigma, tau float64) (float64, error) {
	d1, d2, err := ProbFactors(spot, strike, rate, sigma, tau)
	if err != nil {
		return 0, err
	}
	discount := math.Exp(-rate * TauToYears(tau))
	return spot*NormCDF(d1) - strike*discount*NormCDF(d2), nil
}

// PutPrice calculates the price of a European put: K*exp(-rT)*N(-d2) - S*N(-d1).
func PutPrice(spot, strike, rate, sigma, tau float64) (float64, error) {
	d1, d2, err := ProbFactors(spot, strike, rate, sigma, tau)
	if err != nil {
		return 0, err
	}
	discount := math.Exp(-rate * TauToYears(tau))
	return strike*discount*NormCDF(-d2) - spot*NormCDF(-d1), nil
}

// Price dispatches to CallPrice or PutPrice.
func Price(isCall bool, spot, strike, rate, sigma, tau float64) (float64, error) {
	if isCall {
		return CallPrice(spot, strike, rate, sigma, tau)
	}
	return PutPrice(spot, strike, rate, sigma, tau)
}

// ZeroVolPrice returns the limit of the option price as sigma goes to zero
// from above: the discounted intrinsic value max(S - K*exp(-rT), 0) for a
// call and max(K*exp(-rT) - S, 0) for a put.
//
// Since price is non-decreasing in sigma this is the lowest price the model
// can produce for the contract.
func ZeroVolPrice(isCall bool, spot, strike, rate, tau float64) (float64, error) {
	// sigma=1 only satisfies validate; it takes no part in the result.
	if err := validate(spot, strike, rate, 1, tau); err != nil {
		return 0, err
	}

	discountedStrike := strike * math.Exp(-rate*TauToYears(tau))
	if isCall {
		return math.Max(spot-discountedStrike, 0), nil
	}
	return math.Max(discountedStrike-spot, 0), nil
}
