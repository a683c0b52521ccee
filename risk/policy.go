package risk

const (
	// FixedLeverage is the only leverage the calculator accepts.
	FixedLeverage = 150.0

	// Epsilon is added before every floor so values like 0.1*3 land on
	// the step they represent.
	Epsilon = 1e-10

	// RatioTolerance bounds how far multi-TP close ratios may drift from 100.
	RatioTolerance = 1e-6

	MaxTpLevels   = 3
	DefaultSymbol = "BTCUSDT"

	leverageWarning = "Results assume a theoretical fixed 150x leverage; confirm the exchange's actual leverage cap for this symbol."
)

type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// RawInput is the calculator form as the caller has it. Every numeric
// field may hold a number, a numeric string, a json.Number or nil.
type RawInput struct {
	Symbol         string `json:"symbol"`
	Entry1Price    any    `json:"entry1Price"`
	Entry2Price    any    `json:"entry2Price"`
	Entry1Ratio    any    `json:"entry1Ratio"`
	StopPrice      any    `json:"stopPrice"`
	RiskAmountUsdt any    `json:"riskAmountUsdt"`
	Leverage       any    `json:"leverage"`
	FeeRate        any    `json:"feeRate"` // fraction per fill, 0.0004 == 0.04%
	UsdtStep       any    `json:"usdtStep"`
	MinOrderUsdt   any    `json:"minOrderUsdt"`
}

// ValidatedInput is RawInput after coercion and every consistency check.
type ValidatedInput struct {
	Symbol string `json:"symbol"`

	Entry1Price    float64 `json:"entry1Price"`
	Entry2Price    float64 `json:"entry2Price"` // 0 when HasEntry2 is false
	HasEntry2      bool    `json:"hasEntry2"`
	Entry1RatioPct float64 `json:"entry1RatioPct"`
	Entry2RatioPct float64 `json:"entry2RatioPct"`
	Weight1        float64 `json:"weight1"`
	Weight2        float64 `json:"weight2"`

	StopPrice      float64 `json:"stopPrice"`
	RiskAmountUsdt float64 `json:"riskAmountUsdt"`
	Leverage       float64 `json:"leverage"`
	FeeRate        float64 `json:"feeRate"`
	UsdtStep       float64 `json:"usdtStep"`
	MinOrderUsdt   float64 `json:"minOrderUsdt"`

	AvgEntryByRatio float64   `json:"avgEntryByRatio"`
	Direction       Direction `json:"direction"`
}

// RawTpLevel is one row of the multi take-profit form.
type RawTpLevel struct {
	Price      any `json:"price"`
	CloseRatio any `json:"closeRatio"` // percent of the position
}
