package risk

import "math"

// unitRisk is the loss per unit of underlying if a fill at entry is
// stopped out at stop, paying the fee on both the open and the close.
func unitRisk(entry, stop, feeRate float64) float64 {
	return math.Abs(entry-stop) + (entry*feeRate + stop*feeRate)
}

// Size solves for the largest step-aligned order notional whose loss at
// the stop, fees included, stays within the risk budget.
func Size(n ValidatedInput) (Position, error) {
	stopExec := n.StopPrice

	unitRisk1 := unitRisk(n.Entry1Price, stopExec, n.FeeRate)
	unitRisk2 := 0.0
	if n.HasEntry2 {
		unitRisk2 = unitRisk(n.Entry2Price, stopExec, n.FeeRate)
	}

	// Risk carried by one USDT of notional, weighted by each leg's share.
	riskPerUsdt := n.Weight1 * (unitRisk1 / n.Entry1Price)
	if n.HasEntry2 {
		riskPerUsdt += n.Weight2 * (unitRisk2 / n.Entry2Price)
	}
	if !(riskPerUsdt > 0) {
		return Position{}, &SizingError{Code: CodeUnitRisk, Msg: "unit risk is invalid, cannot compute order notional"}
	}

	sm, err := NewStepMath(n.UsdtStep)
	if err != nil {
		return Position{}, err
	}

	notionalRaw := n.RiskAmountUsdt / riskPerUsdt
	// Flooring keeps the realized loss at or under the budget.
	totalUnits := sm.FloorUnits(notionalRaw)
	if totalUnits <= 0 {
		return Position{}, &SizingError{Code: CodeRiskTooSmall, Msg: "risk amount too small to place an order under current conditions"}
	}

	leg1Units, leg2Units := totalUnits, int64(0)
	if n.HasEntry2 {
		leg1Units = int64(math.Floor(float64(totalUnits)*n.Weight1 + Epsilon))
		leg2Units = totalUnits - leg1Units
	}

	notional := sm.FromUnits(totalUnits)
	leg1Notional := sm.FromUnits(leg1Units)
	leg2Notional := sm.FromUnits(leg2Units)

	if notional+Epsilon < n.MinOrderUsdt {
		return Position{}, &SizingError{Code: CodeBelowMinOrder, Msg: "order notional is below the minimum order size; increase the risk amount or widen the stop"}
	}

	qty1 := leg1Notional / n.Entry1Price
	qty2 := 0.0
	if n.HasEntry2 {
		qty2 = leg2Notional / n.Entry2Price
	}
	qtyTotal := qty1 + qty2

	avgExecuted := n.AvgEntryByRatio
	if qtyTotal > 0 {
		avgExecuted = notional / qtyTotal
	}

	feeOpen := qty1*n.Entry1Price*n.FeeRate + qty2*n.Entry2Price*n.FeeRate
	feeCloseStop := qtyTotal * stopExec * n.FeeRate

	actualLoss := qty1*unitRisk1 + qty2*unitRisk2
	utilization := 0.0
	if n.RiskAmountUsdt > 0 {
		utilization = actualLoss / n.RiskAmountUsdt * 100
	}

	p := Position{
		Symbol:    n.Symbol,
		Direction: n.Direction,
		Leverage:  FixedLeverage,

		HasEntry2:      n.HasEntry2,
		Entry1Price:    n.Entry1Price,
		Entry2Price:    n.Entry2Price,
		Entry1RatioPct: n.Entry1RatioPct,
		Entry2RatioPct: n.Entry2RatioPct,
		Weight1:        n.Weight1,
		Weight2:        n.Weight2,

		AvgEntryByRatio:  n.AvgEntryByRatio,
		AvgEntryExecuted: avgExecuted,
		StopPrice:        n.StopPrice,
		StopExecPrice:    stopExec,

		FeeRate:      n.FeeRate,
		UsdtStep:     n.UsdtStep,
		MinOrderUsdt: n.MinOrderUsdt,

		OrderNotionalRaw:  notionalRaw,
		OrderNotionalUsdt: notional,
		Leg1NotionalUsdt:  leg1Notional,
		Leg2NotionalUsdt:  leg2Notional,
		Qty1:              qty1,
		Qty2:              qty2,
		QtyTotal:          qtyTotal,

		UnitRisk1:   unitRisk1,
		UnitRisk2:   unitRisk2,
		RiskPerUsdt: riskPerUsdt,

		RiskAmountUsdt:     n.RiskAmountUsdt,
		FeeOpenUsdt:        feeOpen,
		FeeCloseStopUsdt:   feeCloseStop,
		FeeTotalStopUsdt:   feeOpen + feeCloseStop,
		ActualLoss:         actualLoss,
		UnusedRisk:         n.RiskAmountUsdt - actualLoss,
		RiskUtilizationPct: utilization,

		Notional:      notional,
		InitialMargin: notional / FixedLeverage,
		Warnings:      []string{leverageWarning},
	}
	if !p.HasEntry2 {
		p.Entry2RatioPct = 0
		p.Weight2 = 0
	}
	return p, nil
}

// CalculatePosition validates raw input and sizes it.
func CalculatePosition(raw RawInput) (Position, error) {
	n, err := Validate(raw)
	if err != nil {
		return Position{}, err
	}
	return Size(n)
}
