package risk

// Position is a sized order. It is produced once by Size and only read
// afterwards; take-profit evaluators receive it by pointer and never
// modify it.
type Position struct {
	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`
	Leverage  float64   `json:"leverage"`

	HasEntry2      bool    `json:"hasEntry2"`
	Entry1Price    float64 `json:"entry1Price"`
	Entry2Price    float64 `json:"entry2Price"`
	Entry1RatioPct float64 `json:"entry1RatioPct"`
	Entry2RatioPct float64 `json:"entry2RatioPct"`
	Weight1        float64 `json:"weight1"`
	Weight2        float64 `json:"weight2"`

	AvgEntryByRatio  float64 `json:"avgEntryByRatio"`
	AvgEntryExecuted float64 `json:"avgEntryExecuted"`
	StopPrice        float64 `json:"stopPrice"`
	StopExecPrice    float64 `json:"stopExecPrice"`

	FeeRate      float64 `json:"feeRate"`
	UsdtStep     float64 `json:"usdtStep"`
	MinOrderUsdt float64 `json:"minOrderUsdt"`

	OrderNotionalRaw  float64 `json:"orderNotionalRaw"`
	OrderNotionalUsdt float64 `json:"orderNotionalUsdt"`
	Leg1NotionalUsdt  float64 `json:"leg1NotionalUsdt"`
	Leg2NotionalUsdt  float64 `json:"leg2NotionalUsdt"`
	Qty1              float64 `json:"qty1"`
	Qty2              float64 `json:"qty2"`
	QtyTotal          float64 `json:"qtyTotal"`

	// Loss per unit of underlying at the stop, round-trip fee included.
	UnitRisk1   float64 `json:"unitRisk1"`
	UnitRisk2   float64 `json:"unitRisk2"`
	RiskPerUsdt float64 `json:"riskPerUsdt"`

	RiskAmountUsdt     float64 `json:"riskAmountUsdt"`
	FeeOpenUsdt        float64 `json:"feeOpenUsdt"`
	FeeCloseStopUsdt   float64 `json:"feeCloseStopUsdt"`
	FeeTotalStopUsdt   float64 `json:"feeTotalStopUsdt"`
	ActualLoss         float64 `json:"actualLoss"`
	UnusedRisk         float64 `json:"unusedRisk"`
	RiskUtilizationPct float64 `json:"riskUtilizationPct"`

	Notional      float64  `json:"notional"`
	InitialMargin float64  `json:"initialMargin"`
	Warnings      []string `json:"warnings,omitempty"`
}

func (p *Position) Leg1MarginUsdt() float64 {
	return p.Leg1NotionalUsdt / p.Leverage
}

func (p *Position) Leg2MarginUsdt() float64 {
	return p.Leg2NotionalUsdt / p.Leverage
}

// directionalGross is the per-unit price gain from entry to exit.
func directionalGross(dir Direction, entry, exit float64) float64 {
	if dir == Short {
		return entry - exit
	}
	return exit - entry
}

// RR returns pnl measured against base, or 0 when base is not positive.
func RR(pnl, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return pnl / base
}
