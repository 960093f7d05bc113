package impliedvol

import (
	"errors"
	"fmt"
	"math"

	"github.com/contactkeval/iv-solver/internal/pricing"
)

// Status tells a converged estimate apart from one returned because the
// iteration budget ran out.
type Status int

const (
	Converged Status = iota
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of one implied-volatility solve.
type Result struct {
	Sigma      float64 `json:"sigma"`
	Status     Status  `json:"status"`
	Iterations int     `json:"iterations"` // pricing evaluations spent on the search
	Residual   float64 `json:"residual"`   // |price(Sigma) - market|
}

// Converged reports whether the tolerance was met.
func (r Result) Converged() bool {
	return r.Status == Converged
}

// ErrInvalidBracket is matched by every *InvalidBracketError.
var ErrInvalidBracket = errors.New("impliedvol: bracket does not contain a root")

// InvalidBracketError reports a bisection bracket over which price - market
// does not change sign.
type InvalidBracketError struct {
	Left, Right         float64
	DiffLeft, DiffRight float64
}

func (e *InvalidBracketError) Error() string {
	return fmt.Sprintf("impliedvol: no sign change over [%g, %g] (diff %g, %g)",
		e.Left, e.Right, e.DiffLeft, e.DiffRight)
}

func (e *InvalidBracketError) Is(target error) bool {
	return target == ErrInvalidBracket
}

// checkMarket rejects observed prices no volatility can reproduce.
func checkMarket(market float64) error {
	if !(market > 0) || math.IsInf(market, 0) {
		return &pricing.DomainError{Param: "market", Value: market}
	}
	return nil
}
