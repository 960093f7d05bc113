package impliedvol

import (
	"errors"
	"fmt"
	"strings"
)

// Method selects a root-finding strategy.
type Method string

const (
	MethodNewton     Method = "newton"
	MethodBruteForce Method = "bruteforce"
	MethodBisection  Method = "bisection"
)

// ErrUnknownMethod is returned for a method name ParseMethod does not know.
var ErrUnknownMethod = errors.New("impliedvol: unknown method")

// Methods lists every strategy in a stable order.
func Methods() []Method {
	return []Method{MethodNewton, MethodBruteForce, MethodBisection}
}

// ParseMethod maps a user-facing name onto a Method. Matching ignores case;
// "grid", "brute" and "bisect" are accepted as aliases.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "newton", "newton-raphson":
		return MethodNewton, nil
	case "bruteforce", "brute-force", "brute", "grid":
		return MethodBruteForce, nil
	case "bisection", "bisect":
		return MethodBisection, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Inputs are the market and contract parameters of one solve.
type Inputs struct {
	Spot   float64 `json:"spot"`
	Strike float64 `json:"strike"`
	Rate   float64 `json:"rate"`
	Tau    float64 `json:"tau"` // seconds to expiry
	Market float64 `json:"market"`
	IsCall bool    `json:"is_call"`
}

// Solve runs the selected strategy with its settings from cfg.
func Solve(m Method, in Inputs, cfg Config) (Result, error) {
	switch m {
	case MethodNewton:
		return Newton(in.Spot, in.Strike, in.Rate, in.Tau, in.Market, in.IsCall, cfg.Newton)
	case MethodBruteForce:
		return BruteForce(in.Spot, in.Strike, in.Rate, in.Tau, in.Market, in.IsCall, cfg.Grid)
	case MethodBisection:
		return Bisection(in.Spot, in.Strike, in.Rate, in.Tau, in.Market, in.IsCall, cfg.Bisection)
	}
	return Result{}, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
}
