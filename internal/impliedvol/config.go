package impliedvol

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned when a solver configuration cannot be used.
var ErrInvalidConfig = errors.New("impliedvol: invalid solver config")

// NewtonConfig controls the Newton-Raphson solver.
type NewtonConfig struct {
	Guess     float64 `yaml:"guess" json:"guess"`           // starting volatility
	Tol       float64 `yaml:"tol" json:"tol"`               // stop once |price - market| < Tol
	MaxIter   int     `yaml:"max_iter" json:"max_iter"`     // iteration cap
	VegaFloor float64 `yaml:"vega_floor" json:"vega_floor"` // lower bound applied to vega before dividing
}

// GridConfig controls the brute-force grid solver.
type GridConfig struct {
	Lower float64 `yaml:"lower" json:"lower"`
	Upper float64 `yaml:"upper" json:"upper"`
	Step  float64 `yaml:"step" json:"step"`
}

// BisectionConfig controls the bisection solver.
type BisectionConfig struct {
	Left    float64 `yaml:"left" json:"left"`
	Right   float64 `yaml:"right" json:"right"`
	Tol     float64 `yaml:"tol" json:"tol"`
	MaxIter int     `yaml:"max_iter" json:"max_iter"`

	// CheckBracket makes Bisection fail with *InvalidBracketError when
	// price - market has the same sign at both ends of [Left, Right].
	CheckBracket bool `yaml:"check_bracket" json:"check_bracket"`
}

// Config groups the per-method settings used by Solve.
type Config struct {
	Newton    NewtonConfig    `yaml:"newton" json:"newton"`
	Grid      GridConfig      `yaml:"grid" json:"grid"`
	Bisection BisectionConfig `yaml:"bisection" json:"bisection"`
}

func DefaultNewtonConfig() NewtonConfig {
	return NewtonConfig{Guess: 1.0, Tol: 1e-6, MaxIter: 5, VegaFloor: 0.01}
}

func DefaultGridConfig() GridConfig {
	return GridConfig{Lower: 1e-4, Upper: 4.0, Step: 1e-3}
}

func DefaultBisectionConfig() BisectionConfig {
	return BisectionConfig{Left: 0, Right: 10, Tol: 1e-6, MaxIter: 5}
}

func DefaultConfig() Config {
	return Config{
		Newton:    DefaultNewtonConfig(),
		Grid:      DefaultGridConfig(),
		Bisection: DefaultBisectionConfig(),
	}
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 0)
}

func (c NewtonConfig) Validate() error {
	switch {
	case !positive(c.Guess):
		return fmt.Errorf("%w: newton guess %g must be > 0", ErrInvalidConfig, c.Guess)
	case !positive(c.Tol):
		return fmt.Errorf("%w: newton tol %g must be > 0", ErrInvalidConfig, c.Tol)
	case c.MaxIter < 1:
		return fmt.Errorf("%w: newton max_iter %d must be >= 1", ErrInvalidConfig, c.MaxIter)
	case !positive(c.VegaFloor):
		return fmt.Errorf("%w: newton vega_floor %g must be > 0", ErrInvalidConfig, c.VegaFloor)
	}
	return nil
}

// MaxGridPoints caps the number of candidates a GridConfig may describe.
const MaxGridPoints = 1e7

func (c GridConfig) Validate() error {
	switch {
	case !positive(c.Lower):
		return fmt.Errorf("%w: grid lower %g must be > 0", ErrInvalidConfig, c.Lower)
	case !positive(c.Step):
		return fmt.Errorf("%w: grid step %g must be > 0", ErrInvalidConfig, c.Step)
	case !(c.Upper >= c.Lower) || math.IsInf(c.Upper, 0):
		return fmt.Errorf("%w: grid upper %g must be >= lower %g", ErrInvalidConfig, c.Upper, c.Lower)
	case !((c.Upper-c.Lower)/c.Step < MaxGridPoints):
		return fmt.Errorf("%w: grid step %g gives more than %g points over [%g, %g]",
			ErrInvalidConfig, c.Step, float64(MaxGridPoints), c.Lower, c.Upper)
	}
	return nil
}

// size returns the number of candidates on the grid.
func (c GridConfig) size() int {
	// the epsilon keeps Upper on the grid when (Upper-Lower)/Step is integral
	return int(math.Floor((c.Upper-c.Lower)/c.Step+1e-9)) + 1
}

func (c BisectionConfig) Validate() error {
	switch {
	case !(c.Left >= 0) || math.IsInf(c.Left, 0):
		return fmt.Errorf("%w: bisection left %g must be >= 0", ErrInvalidConfig, c.Left)
	case !(c.Right > c.Left) || math.IsInf(c.Right, 0):
		return fmt.Errorf("%w: bisection right %g must be > left %g", ErrInvalidConfig, c.Right, c.Left)
	case !positive(c.Tol):
		return fmt.Errorf("%w: bisection tol %g must be > 0", ErrInvalidConfig, c.Tol)
	case c.MaxIter < 1:
		return fmt.Errorf("%w: bisection max_iter %d must be >= 1", ErrInvalidConfig, c.MaxIter)
	}
	return nil
}

// Validate checks every per-method config.
func (c Config) Validate() error {
	return errors.Join(c.Newton.Validate(), c.Grid.Validate(), c.Bisection.Validate())
}
