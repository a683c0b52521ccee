package risk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput() RawInput {
	return RawInput{
		Symbol:         "BTCUSDT",
		Entry1Price:    100,
		Entry2Price:    "",
		Entry1Ratio:    100,
		StopPrice:      95,
		RiskAmountUsdt: 50,
		Leverage:       FixedLeverage,
		FeeRate:        0,
		UsdtStep:       1,
		MinOrderUsdt:   5,
	}
}

func TestCheck_SingleLegLong(t *testing.T) {
	t.Parallel()

	v := Check(baseInput())
	require.True(t, v.Valid, v.Errors())

	n := v.Input
	assert.Equal(t, Long, n.Direction)
	assert.False(t, n.HasEntry2)
	assert.Equal(t, 100.0, n.Entry1RatioPct)
	assert.Equal(t, 0.0, n.Entry2RatioPct)
	assert.Equal(t, 0.0, n.Entry2Price)
	assert.Equal(t, 100.0, n.AvgEntryByRatio)
	assert.Empty(t, v.FirstError())
	assert.NoError(t, v.Err())
}

func TestCheck_StringFieldsAreCoerced(t *testing.T) {
	t.Parallel()

	raw := RawInput{
		Symbol:         "  ",
		Entry1Price:    " 100 ",
		Entry2Price:    "102",
		Entry1Ratio:    "60",
		StopPrice:      "95",
		RiskAmountUsdt: json.Number("50"),
		Leverage:       "150",
		FeeRate:        "0.0004",
		UsdtStep:       "1",
		MinOrderUsdt:   "5",
	}

	n, err := Validate(raw)
	require.NoError(t, err)

	assert.Equal(t, DefaultSymbol, n.Symbol)
	assert.True(t, n.HasEntry2)
	assert.Equal(t, 102.0, n.Entry2Price)
	assert.Equal(t, 60.0, n.Entry1RatioPct)
	assert.InDelta(t, 40.0, n.Entry2RatioPct, 1e-12)
	assert.InDelta(t, 100*0.6+102*0.4, n.AvgEntryByRatio, 1e-9)
	assert.Equal(t, 0.0004, n.FeeRate)
	assert.Equal(t, Long, n.Direction)
}

func TestCheck_ShortDirection(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.StopPrice = 105

	n, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, Short, n.Direction)
}

func TestCheck_Entry2ZeroVsOmitted(t *testing.T) {
	t.Parallel()

	zero := baseInput()
	zero.Entry2Price = 0
	_, err := Validate(zero)
	require.Error(t, err)
	assert.Equal(t, "Entry2 price must be > 0", err.Error())

	omitted := baseInput()
	omitted.Entry2Price = nil
	n, err := Validate(omitted)
	require.NoError(t, err)
	assert.False(t, n.HasEntry2)

	blank := baseInput()
	blank.Entry2Price = "   "
	n, err = Validate(blank)
	require.NoError(t, err)
	assert.False(t, n.HasEntry2)

	garbage := baseInput()
	garbage.Entry2Price = "abc"
	_, err = Validate(garbage)
	assert.EqualError(t, err, "Entry2 price must be > 0")
}

func TestCheck_SingleLegIgnoresRatio(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.Entry1Ratio = "not a number"

	n, err := Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, 100.0, n.Entry1RatioPct)
}

func TestCheck_Violations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RawInput)
		code   string
		msg    string
	}{
		{"entry1_blank", func(r *RawInput) { r.Entry1Price = "" }, "ENTRY1_PRICE", "Entry1 price must be > 0"},
		{"entry1_negative", func(r *RawInput) { r.Entry1Price = -1 }, "ENTRY1_PRICE", "Entry1 price must be > 0"},
		{"ratio_missing", func(r *RawInput) { r.Entry2Price = 102; r.Entry1Ratio = "" }, "ENTRY1_RATIO_MISSING", "Entry1 ratio is required"},
		{"ratio_range", func(r *RawInput) { r.Entry2Price = 102; r.Entry1Ratio = 120 }, "ENTRY1_RATIO_RANGE", "Entry1 ratio must be between 0 and 100"},
		{"stop_zero", func(r *RawInput) { r.StopPrice = 0 }, "STOP_PRICE", "Stop price must be > 0"},
		{"risk_blank", func(r *RawInput) { r.RiskAmountUsdt = " " }, "RISK_AMOUNT", "Risk amount must be > 0"},
		{"leverage_other", func(r *RawInput) { r.Leverage = 100 }, "LEVERAGE", "Leverage must be fixed at 150x"},
		{"leverage_missing", func(r *RawInput) { r.Leverage = nil }, "LEVERAGE", "Leverage must be fixed at 150x"},
		{"fee_negative", func(r *RawInput) { r.FeeRate = -0.001 }, "FEE_RATE", "Fee rate must be >= 0"},
		{"fee_blank", func(r *RawInput) { r.FeeRate = "" }, "FEE_RATE", "Fee rate must be >= 0"},
		{"step_zero", func(r *RawInput) { r.UsdtStep = 0 }, "USDT_STEP", "USDT step must be > 0"},
		{"min_order_inf", func(r *RawInput) { r.MinOrderUsdt = "Inf" }, "MIN_ORDER", "Minimum order USDT must be > 0"},
		{"entry_equals_stop", func(r *RawInput) { r.StopPrice = 100 }, "ENTRY_EQUALS_STOP", "Average entry price cannot equal stop price"},
		{
			"entry2_wrong_side_long",
			func(r *RawInput) { r.Entry2Price = 98; r.Entry1Ratio = 50; r.StopPrice = 98.5 },
			"ENTRY2_SIDE", "Entry2 must be above stop for LONG",
		},
		{
			"entry1_wrong_side_short",
			func(r *RawInput) { r.Entry1Price = 100; r.Entry2Price = 90; r.Entry1Ratio = 20; r.StopPrice = 95 },
			"ENTRY1_SIDE", "Entry1 must be below stop for SHORT",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := baseInput()
			tt.mutate(&raw)

			v := Check(raw)
			require.False(t, v.Valid)
			assert.Equal(t, tt.code, v.Violations[0].Code)
			assert.Equal(t, tt.msg, v.FirstError())

			err := v.Err()
			require.Error(t, err)
			assert.True(t, IsValidation(err))
			assert.Equal(t, "validation", Kind(err))
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestCheck_CollectsAllScalarErrorsInOrder(t *testing.T) {
	t.Parallel()

	raw := RawInput{
		Entry1Price:    "",
		Entry2Price:    "-3",
		StopPrice:      "",
		RiskAmountUsdt: 0,
		Leverage:       125,
		FeeRate:        -1,
		UsdtStep:       "",
		MinOrderUsdt:   0,
	}

	v := Check(raw)
	require.False(t, v.Valid)
	assert.Equal(t, []string{
		"Entry1 price must be > 0",
		"Entry2 price must be > 0",
		"Stop price must be > 0",
		"Risk amount must be > 0",
		"Leverage must be fixed at 150x",
		"Fee rate must be >= 0",
		"USDT step must be > 0",
		"Minimum order USDT must be > 0",
	}, v.Errors())

	var verr *ValidationError
	require.ErrorAs(t, v.Err(), &verr)
	assert.Len(t, verr.Messages(), 8)
	assert.Equal(t, "Entry1 price must be > 0", verr.Error())
	assert.Contains(t, verr.Detail(), "USDT step must be > 0")
}

func TestCheck_DirectionalChecksWaitForScalars(t *testing.T) {
	t.Parallel()

	// The second leg sits on the wrong side of the stop, but the bad fee
	// rate means the side checks never run.
	raw := baseInput()
	raw.Entry2Price = 98
	raw.Entry1Ratio = 50
	raw.StopPrice = 98.5
	raw.FeeRate = -1

	v := Check(raw)
	assert.Equal(t, []string{"Fee rate must be >= 0"}, v.Errors())
}

func TestCheck_SecondLegWrongSide(t *testing.T) {
	t.Parallel()

	// Weighted average 104 is above the stop, so LONG; entry2 at 90 is
	// below the stop.
	raw := baseInput()
	raw.Entry1Price = 110
	raw.Entry2Price = 90
	raw.Entry1Ratio = 70
	raw.StopPrice = 95

	v := Check(raw)
	require.False(t, v.Valid)
	assert.Equal(t, []string{"Entry2 must be above stop for LONG"}, v.Errors())
}
