package journal

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// formText decodes a JSON string or number into its text form. Numbers
// keep their literal spelling so a stored form replays exactly.
type formText string

func (t *formText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = formText(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.Errorf("want a number or a string, got %s", b)
	}
	*t = formText(n.String())
	return nil
}

// UnmarshalJSON accepts every field as either a JSON number or a string.
func (f *FormData) UnmarshalJSON(b []byte) error {
	var w struct {
		Symbol         formText       `json:"symbol"`
		Entry1Price    formText       `json:"entry1Price"`
		Entry2Price    formText       `json:"entry2Price"`
		Entry1Ratio    formText       `json:"entry1Ratio"`
		StopPrice      formText       `json:"stopPrice"`
		RiskAmountUsdt formText       `json:"riskAmountUsdt"`
		FeeRatePct     formText       `json:"feeRatePct"`
		UsdtStep       formText       `json:"usdtStep"`
		MinOrderUsdt   formText       `json:"minOrderUsdt"`
		TpMode         formText       `json:"tpMode"`
		SingleTpPrice  formText       `json:"singleTpPrice"`
		TpLevels       [3]TpLevelForm `json:"tpLevels"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	*f = FormData{
		Symbol:         string(w.Symbol),
		Entry1Price:    string(w.Entry1Price),
		Entry2Price:    string(w.Entry2Price),
		Entry1Ratio:    string(w.Entry1Ratio),
		StopPrice:      string(w.StopPrice),
		RiskAmountUsdt: string(w.RiskAmountUsdt),
		FeeRatePct:     string(w.FeeRatePct),
		UsdtStep:       string(w.UsdtStep),
		MinOrderUsdt:   string(w.MinOrderUsdt),
		TpMode:         string(w.TpMode),
		SingleTpPrice:  string(w.SingleTpPrice),
		TpLevels:       w.TpLevels,
	}
	return nil
}

func (l *TpLevelForm) UnmarshalJSON(b []byte) error {
	var w struct {
		Price      formText `json:"price"`
		CloseRatio formText `json:"closeRatio"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*l = TpLevelForm{Price: string(w.Price), CloseRatio: string(w.CloseRatio)}
	return nil
}
