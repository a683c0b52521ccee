package risk

import "strings"

type Violation struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Validation is the outcome of Check. Input is only meaningful when
// Valid is true.
type Validation struct {
	Valid      bool
	Violations []Violation
	Input      ValidatedInput
}

func (v *Validation) add(code, msg string) {
	v.Violations = append(v.Violations, Violation{Code: code, Msg: msg})
	v.Valid = false
}

// FirstError returns the first violation message, or "" when valid.
func (v Validation) FirstError() string {
	if len(v.Violations) == 0 {
		return ""
	}
	return v.Violations[0].Msg
}

// Errors returns every violation message in the order found.
func (v Validation) Errors() []string {
	out := make([]string, 0, len(v.Violations))
	for _, x := range v.Violations {
		out = append(out, x.Msg)
	}
	return out
}

// Err returns a *ValidationError, or nil when the input is valid.
func (v Validation) Err() error {
	if v.Valid {
		return nil
	}
	return &ValidationError{Violations: append([]Violation(nil), v.Violations...)}
}

// Check coerces and validates raw input. All scalar checks run and
// report; direction and per-leg side checks run only once the scalars
// are clean.
func Check(raw RawInput) Validation {
	v := Validation{Valid: true}
	n := ValidatedInput{}

	n.Symbol = strings.TrimSpace(raw.Symbol)
	if n.Symbol == "" {
		n.Symbol = DefaultSymbol
	}

	n.Entry1Price = toNumber(raw.Entry1Price)
	entry2 := toNumber(raw.Entry2Price)
	n.StopPrice = toNumber(raw.StopPrice)
	n.RiskAmountUsdt = toNumber(raw.RiskAmountUsdt)
	n.Leverage = toNumber(raw.Leverage)
	n.FeeRate = toNumber(raw.FeeRate)
	n.UsdtStep = toNumber(raw.UsdtStep)
	n.MinOrderUsdt = toNumber(raw.MinOrderUsdt)

	if !isPositive(n.Entry1Price) {
		v.add("ENTRY1_PRICE", "Entry1 price must be > 0")
	}

	// A blank second entry means single leg; anything else typed into it
	// has to be a usable price.
	n.HasEntry2 = isPositive(entry2)
	if !isBlank(raw.Entry2Price) && !n.HasEntry2 {
		v.add("ENTRY2_PRICE", "Entry2 price must be > 0")
	}

	if n.HasEntry2 {
		n.Entry2Price = entry2
		n.Entry1RatioPct = toNumber(raw.Entry1Ratio)
		if !isFinite(n.Entry1RatioPct) {
			v.add("ENTRY1_RATIO_MISSING", "Entry1 ratio is required")
		} else if n.Entry1RatioPct < 0 || n.Entry1RatioPct > 100 {
			v.add("ENTRY1_RATIO_RANGE", "Entry1 ratio must be between 0 and 100")
		}
	} else {
		n.Entry2Price = 0
		n.Entry1RatioPct = 100
	}
	n.Entry2RatioPct = 100 - n.Entry1RatioPct
	n.Weight1 = n.Entry1RatioPct / 100
	n.Weight2 = n.Entry2RatioPct / 100

	if !isPositive(n.StopPrice) {
		v.add("STOP_PRICE", "Stop price must be > 0")
	}
	if !isPositive(n.RiskAmountUsdt) {
		v.add("RISK_AMOUNT", "Risk amount must be > 0")
	}
	if n.Leverage != FixedLeverage {
		v.add("LEVERAGE", "Leverage must be fixed at 150x")
	}
	if !isFinite(n.FeeRate) || n.FeeRate < 0 {
		v.add("FEE_RATE", "Fee rate must be >= 0")
	}
	if !isPositive(n.UsdtStep) {
		v.add("USDT_STEP", "USDT step must be > 0")
	}
	if !isPositive(n.MinOrderUsdt) {
		v.add("MIN_ORDER", "Minimum order USDT must be > 0")
	}

	if !v.Valid {
		return v
	}

	n.AvgEntryByRatio = n.Entry1Price
	if n.HasEntry2 {
		n.AvgEntryByRatio = n.Entry1Price*n.Weight1 + n.Entry2Price*n.Weight2
	}

	switch {
	case n.StopPrice < n.AvgEntryByRatio:
		n.Direction = Long
		if !(n.Entry1Price > n.StopPrice) {
			v.add("ENTRY1_SIDE", "Entry1 must be above stop for LONG")
		}
		if n.HasEntry2 && !(n.Entry2Price > n.StopPrice) {
			v.add("ENTRY2_SIDE", "Entry2 must be above stop for LONG")
		}
	case n.StopPrice > n.AvgEntryByRatio:
		n.Direction = Short
		if !(n.Entry1Price < n.StopPrice) {
			v.add("ENTRY1_SIDE", "Entry1 must be below stop for SHORT")
		}
		if n.HasEntry2 && !(n.Entry2Price < n.StopPrice) {
			v.add("ENTRY2_SIDE", "Entry2 must be below stop for SHORT")
		}
	default:
		v.add("ENTRY_EQUALS_STOP", "Average entry price cannot equal stop price")
	}

	if v.Valid {
		v.Input = n
	}
	return v
}

// Validate is Check for callers that only want a value or an error.
func Validate(raw RawInput) (ValidatedInput, error) {
	v := Check(raw)
	if err := v.Err(); err != nil {
		return ValidatedInput{}, err
	}
	return v.Input, nil
}
