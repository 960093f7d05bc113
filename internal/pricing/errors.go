package pricing

import (
	"errors"
	"fmt"
)

// ErrDomain is matched by every *DomainError.
var ErrDomain = errors.New("pricing: input outside model domain")

// DomainError reports an input for which the Black-Scholes formula is undefined.
type DomainError struct {
	Param string
	Value float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("pricing: %s=%g outside model domain", e.Param, e.Value)
}

// Is makes errors.Is(err, ErrDomain) hold for any *DomainError.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}
