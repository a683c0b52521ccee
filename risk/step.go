package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// maxUnits keeps unit counts inside the range float64 represents exactly.
const maxUnits = 1 << 53

// StepMath quantizes values to integer multiples of an exchange step.
//
// The step is held as an integer count of its smallest decimal unit
// (0.05 -> 5 units of 0.01) so that flooring and converting back never
// accumulate binary rounding error. This is the only place the rounding
// policy lives; sizing and multi-TP allocation both go through it.
type StepMath struct {
	Step     float64
	Decimals int32
	Factor   float64
	StepInt  int64
}

// NewStepMath prepares quantization for step, which must be finite and > 0.
func NewStepMath(step float64) (StepMath, error) {
	if !isPositive(step) {
		return StepMath{}, &SizingError{Code: CodeInvalidStep, Msg: "USDT step must be > 0"}
	}

	decimals := stepDecimals(step)
	factor := math.Pow(10, float64(decimals))
	stepInt := int64(math.Round(step * factor))
	if stepInt <= 0 {
		return StepMath{}, &SizingError{Code: CodeInvalidStep, Msg: "USDT step must be > 0"}
	}

	return StepMath{
		Step:     step,
		Decimals: decimals,
		Factor:   factor,
		StepInt:  stepInt,
	}, nil
}

// stepDecimals counts the fractional digits in the shortest decimal
// form of step: 1 -> 0, 0.001 -> 3, 1e-7 -> 7, 2.5e-5 -> 6.
func stepDecimals(step float64) int32 {
	exp := decimal.NewFromFloat(step).Exponent()
	if exp >= 0 {
		return 0
	}
	return -exp
}

// FloorUnits returns how many whole steps fit in v. Non-finite and
// non-positive values yield 0.
func (m StepMath) FloorUnits(v float64) int64 {
	if !isFinite(v) || v <= 0 {
		return 0
	}
	scaled := math.Floor(v*m.Factor + Epsilon)
	units := math.Floor(scaled / float64(m.StepInt))
	if units > maxUnits {
		units = maxUnits
	}
	return int64(units)
}

// FromUnits converts a step count back to a value rounded to the step's
// decimal places.
func (m StepMath) FromUnits(units int64) float64 {
	v, _ := decimal.NewFromInt(units).
		Mul(decimal.NewFromInt(m.StepInt)).
		Shift(-m.Decimals).
		Float64()
	return v
}

// Floor is FromUnits(FloorUnits(v)).
func (m StepMath) Floor(v float64) float64 {
	return m.FromUnits(m.FloorUnits(v))
}

// RoundDownToStep floors value to the nearest multiple of step. A
// non-finite value returns NaN; an invalid step returns an error.
func RoundDownToStep(value, step float64) (float64, error) {
	if !isFinite(value) {
		return math.NaN(), nil
	}
	m, err := NewStepMath(step)
	if err != nil {
		return 0, err
	}
	return m.Floor(value), nil
}
