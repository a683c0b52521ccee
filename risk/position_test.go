package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPosition(t *testing.T, raw RawInput) Position {
	t.Helper()
	p, err := CalculatePosition(raw)
	require.NoError(t, err)
	return p
}

func TestSize_SingleEntry(t *testing.T) {
	t.Parallel()

	p := mustPosition(t, baseInput())

	assert.Equal(t, Long, p.Direction)
	assert.InDelta(t, 1000.0, p.OrderNotionalUsdt, 1e-8)
	assert.InDelta(t, 1000.0, p.Leg1NotionalUsdt, 1e-8)
	assert.InDelta(t, 0.0, p.Leg2NotionalUsdt, 1e-8)
	assert.InDelta(t, 10.0, p.QtyTotal, 1e-8)
	assert.InDelta(t, 0.0, p.FeeTotalStopUsdt, 1e-8)
	assert.InDelta(t, 50.0, p.ActualLoss, 1e-8)
	assert.InDelta(t, 1000.0/150, p.InitialMargin, 1e-8)
	assert.InDelta(t, 100.0, p.AvgEntryExecuted, 1e-8)
	assert.InDelta(t, 100.0, p.RiskUtilizationPct, 1e-6)
	assert.InDelta(t, 0.0, p.UnusedRisk, 1e-8)
	assert.Equal(t, FixedLeverage, p.Leverage)
	assert.NotEmpty(t, p.Warnings)
}

func TestSize_DoubleEntrySplitsByRatio(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.Entry2Price = 102
	raw.Entry1Ratio = 60

	p := mustPosition(t, raw)

	assert.InDelta(t, 870.0, p.OrderNotionalUsdt, 1e-8)
	assert.InDelta(t, 522.0, p.Leg1NotionalUsdt, 1e-8)
	assert.InDelta(t, 348.0, p.Leg2NotionalUsdt, 1e-8)
	assert.InDelta(t, 5.22, p.Qty1, 1e-8)
	assert.InDelta(t, 348.0/102, p.Qty2, 1e-8)
	assert.LessOrEqual(t, p.ActualLoss, 50.0)
	assert.Greater(t, p.ActualLoss, 49.9)
	assert.InDelta(t, 40.0, p.Entry2RatioPct, 1e-12)
	assert.InDelta(t, p.OrderNotionalUsdt/p.QtyTotal, p.AvgEntryExecuted, 1e-9)
	assert.InDelta(t, 522.0/150, p.Leg1MarginUsdt(), 1e-9)
	assert.InDelta(t, 348.0/150, p.Leg2MarginUsdt(), 1e-9)
}

func TestSize_LegsSumToOrderNotional(t *testing.T) {
	t.Parallel()

	ratios := []float64{0, 1, 13.7, 33.3, 50, 66.6, 99, 100}
	steps := []float64{1, 0.1, 0.01, 5}
	for _, ratio := range ratios {
		for _, step := range steps {
			raw := baseInput()
			raw.Entry2Price = 101.37
			raw.Entry1Ratio = ratio
			raw.UsdtStep = step
			raw.RiskAmountUsdt = 73.21
			raw.FeeRate = 0.0006

			p := mustPosition(t, raw)

			sm, err := NewStepMath(step)
			require.NoError(t, err)
			total := sm.FloorUnits(p.OrderNotionalUsdt)
			leg1 := sm.FloorUnits(p.Leg1NotionalUsdt)
			leg2 := sm.FloorUnits(p.Leg2NotionalUsdt)
			assert.Equal(t, total, leg1+leg2, "ratio=%v step=%v", ratio, step)
			assert.InDelta(t, p.OrderNotionalUsdt, p.Leg1NotionalUsdt+p.Leg2NotionalUsdt, 1e-9)
			assert.LessOrEqual(t, p.ActualLoss, raw.RiskAmountUsdt.(float64)+1e-9)
		}
	}
}

func TestSize_ZeroFeeNotionalIsFlooredRawNotional(t *testing.T) {
	t.Parallel()

	for _, stop := range []float64{90, 93.3, 97.77, 99.5} {
		raw := baseInput()
		raw.StopPrice = stop
		raw.RiskAmountUsdt = 37.5

		p := mustPosition(t, raw)

		unit := (100 - stop) / 100
		want, err := RoundDownToStep(37.5/unit, 1)
		require.NoError(t, err)
		assert.Equal(t, want, p.OrderNotionalUsdt, "stop=%v", stop)
		assert.LessOrEqual(t, p.ActualLoss, 37.5+1e-9)
	}
}

func TestSize_FeeReducesNotional(t *testing.T) {
	t.Parallel()

	prev := mustPosition(t, baseInput()).OrderNotionalUsdt
	for _, fee := range []float64{0.0001, 0.0005, 0.001, 0.002, 0.01} {
		raw := baseInput()
		raw.FeeRate = fee
		p := mustPosition(t, raw)
		assert.LessOrEqual(t, p.OrderNotionalUsdt, prev, "fee=%v", fee)
		prev = p.OrderNotionalUsdt
	}

	noFee := mustPosition(t, baseInput())
	raw := baseInput()
	raw.FeeRate = 0.0005
	withFee := mustPosition(t, raw)
	assert.Less(t, withFee.OrderNotionalUsdt, noFee.OrderNotionalUsdt)
}

func TestSize_StopFeesAddUp(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.FeeRate = 0.001
	p := mustPosition(t, raw)

	assert.Greater(t, p.FeeTotalStopUsdt, 0.0)
	assert.InDelta(t, p.FeeOpenUsdt+p.FeeCloseStopUsdt, p.FeeTotalStopUsdt, 1e-12)
	assert.InDelta(t, p.QtyTotal*p.StopPrice*p.FeeRate, p.FeeCloseStopUsdt, 1e-12)
	assert.InDelta(t, p.Qty1*unitRisk(100, 95, 0.001), p.ActualLoss, 1e-9)
}

func TestSize_Short(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.StopPrice = 104

	p := mustPosition(t, raw)
	assert.Equal(t, Short, p.Direction)
	assert.InDelta(t, 1250.0, p.OrderNotionalUsdt, 1e-8)
	assert.InDelta(t, 50.0, p.ActualLoss, 1e-8)
}

func TestSize_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*RawInput)
		code   string
	}{
		{"below_min_order", func(r *RawInput) { r.RiskAmountUsdt = 0.2; r.MinOrderUsdt = 5 }, CodeBelowMinOrder},
		{"rounds_to_zero", func(r *RawInput) { r.RiskAmountUsdt = 0.01 }, CodeRiskTooSmall},
		{"step_too_coarse", func(r *RawInput) { r.UsdtStep = 5000 }, CodeRiskTooSmall},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			raw := baseInput()
			tt.mutate(&raw)

			_, err := CalculatePosition(raw)
			require.Error(t, err)

			var serr *SizingError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.code, serr.Code)
			assert.Equal(t, "sizing", Kind(err))
		})
	}
}

func TestSize_BelowMinOrderMessage(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.RiskAmountUsdt = 0.2

	_, err := CalculatePosition(raw)
	assert.ErrorContains(t, err, "below the minimum order size")
}

func TestSize_DegenerateUnitRisk(t *testing.T) {
	t.Parallel()

	n := ValidatedInput{
		Symbol:          "BTCUSDT",
		Entry1Price:     100,
		Entry1RatioPct:  100,
		Weight1:         1,
		StopPrice:       100,
		RiskAmountUsdt:  50,
		Leverage:        FixedLeverage,
		UsdtStep:        1,
		MinOrderUsdt:    5,
		AvgEntryByRatio: 100,
		Direction:       Long,
	}

	_, err := Size(n)
	var serr *SizingError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, CodeUnitRisk, serr.Code)
}

func TestCalculatePosition_ValidationFirst(t *testing.T) {
	t.Parallel()

	raw := baseInput()
	raw.Leverage = 20

	_, err := CalculatePosition(raw)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.False(t, IsSizing(err))
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2.0, RR(100, 50))
	assert.Equal(t, 0.0, RR(100, 0))
	assert.Equal(t, 0.0, RR(100, -1))
}
