package risk

import (
	"errors"
	"strings"
)

// ValidationError reports every constraint the raw input violated, in the
// order the checks ran. Error() returns only the first message.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "invalid input"
	}
	return e.Violations[0].Msg
}

// Messages returns all violation messages.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, v.Msg)
	}
	return out
}

// Detail joins every message on its own line, for callers that show
// all of them at once.
func (e *ValidationError) Detail() string {
	return strings.Join(e.Messages(), "\n")
}

// SizingError means the inputs were valid but no order can satisfy them.
type SizingError struct {
	Code string
	Msg  string
}

func (e *SizingError) Error() string { return e.Msg }

// TpError rejects a take-profit plan. Level is the 1-based TP
// row the error refers to, or 0 when it concerns the whole request.
type TpError struct {
	Code  string
	Msg   string
	Level int
}

func (e *TpError) Error() string { return e.Msg }

const (
	CodeUnitRisk      = "UNIT_RISK_INVALID"
	CodeRiskTooSmall  = "RISK_TOO_SMALL"
	CodeBelowMinOrder = "BELOW_MIN_ORDER"
	CodeInvalidStep   = "INVALID_STEP"

	CodeNoPosition    = "NO_POSITION"
	CodeTpPrice       = "TP_PRICE"
	CodeTpSide        = "TP_SIDE"
	CodeTpRatio       = "TP_RATIO"
	CodeTpRatioSum    = "TP_RATIO_SUM"
	CodeTpNoLevels    = "TP_NO_LEVELS"
	CodeTpBadNotional = "TP_BAD_NOTIONAL"
)

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsSizing(err error) bool {
	var e *SizingError
	return errors.As(err, &e)
}

func IsTp(err error) bool {
	var e *TpError
	return errors.As(err, &e)
}

// Kind names the error family for transport layers: "validation",
// "sizing", "take_profit" or "" for anything else.
func Kind(err error) string {
	switch {
	case IsValidation(err):
		return "validation"
	case IsSizing(err):
		return "sizing"
	case IsTp(err):
		return "take_profit"
	}
	return ""
}
