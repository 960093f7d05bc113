package pricing

import "gonum.org/v1/gonum/stat/distuv"

// NormPDF returns the standard normal probability density at x.
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}

// NormCDF returns the probability that a standard normal random variable
// is less than or equal to x.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}
