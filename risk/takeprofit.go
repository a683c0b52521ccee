package risk

import (
	"fmt"
	"math"
)

type SingleTpResult struct {
	TpPrice        float64 `json:"tpPrice"`
	TpExecPrice    float64 `json:"tpExecPrice"`
	UnitNetPnl     float64 `json:"unitNetPnl"`
	FeeTotalTpUsdt float64 `json:"feeTotalTpUsdt"`
	PnlTotal       float64 `json:"pnlTotal"`
	RrTarget       float64 `json:"rrTarget"`
	RrActual       float64 `json:"rrActual"`
}

type TpLevelResult struct {
	Index             int     `json:"index"`
	TpPrice           float64 `json:"tpPrice"`
	CloseRatio        float64 `json:"closeRatio"`
	CloseNotionalUsdt float64 `json:"closeNotionalUsdt"`
	Qty               float64 `json:"qty"`
	TpExecPrice       float64 `json:"tpExecPrice"`
	FeeTpUsdt         float64 `json:"feeTpUsdt"`
	UnitNetPnl        float64 `json:"unitNetPnl"`
	Pnl               float64 `json:"pnl"`
	RrTarget          float64 `json:"rrTarget"`
	RrActual          float64 `json:"rrActual"`
}

type MultiTpResult struct {
	Levels         []TpLevelResult `json:"levels"`
	TotalFeeTpUsdt float64         `json:"totalFeeTpUsdt"`
	TotalPnl       float64         `json:"totalPnl"`
	TotalRrTarget  float64         `json:"totalRrTarget"`
	TotalRrActual  float64         `json:"totalRrActual"`
}

// tpLevel is a parsed multi-TP row. Index is the 1-based row it came
// from, so messages still point at the right row after blanks are dropped.
type tpLevel struct {
	Index      int
	Price      float64
	CloseRatio float64
	HasPrice   bool
	HasRatio   bool
}

func checkTpSide(dir Direction, tpPrice, avgEntry float64, level int) error {
	if dir == Long && tpPrice <= avgEntry {
		return &TpError{Code: CodeTpSide, Msg: "LONG take-profit price must be above the average entry", Level: level}
	}
	if dir == Short && tpPrice >= avgEntry {
		return &TpError{Code: CodeTpSide, Msg: "SHORT take-profit price must be below the average entry", Level: level}
	}
	return nil
}

// exitEconomics returns the per-unit net PnL and per-unit fee of closing
// at exit. The fee is charged on both the executed average entry and
// the exit price.
func exitEconomics(p *Position, exit float64) (unitNet, unitFee float64) {
	gross := directionalGross(p.Direction, p.AvgEntryExecuted, exit)
	unitFee = p.AvgEntryExecuted*p.FeeRate + exit*p.FeeRate
	return gross - unitFee, unitFee
}

// EvaluateSingle closes the whole position at tpPrice.
func EvaluateSingle(p *Position, tpPrice any) (SingleTpResult, error) {
	if p == nil {
		return SingleTpResult{}, &TpError{Code: CodeNoPosition, Msg: "single TP requires a position"}
	}

	price := toNumber(tpPrice)
	if !isPositive(price) {
		return SingleTpResult{}, &TpError{Code: CodeTpPrice, Msg: "TP price must be > 0"}
	}
	if err := checkTpSide(p.Direction, price, p.AvgEntryExecuted, 0); err != nil {
		return SingleTpResult{}, err
	}

	unitNet, unitFee := exitEconomics(p, price)
	pnl := p.QtyTotal * unitNet

	return SingleTpResult{
		TpPrice:        price,
		TpExecPrice:    price,
		UnitNetPnl:     unitNet,
		FeeTotalTpUsdt: p.QtyTotal * unitFee,
		PnlTotal:       pnl,
		RrTarget:       pnl / p.RiskAmountUsdt,
		RrActual:       RR(pnl, p.ActualLoss),
	}, nil
}

// parseTpLevels reads at most MaxTpLevels rows and drops the ones left
// completely blank.
func parseTpLevels(raw []RawTpLevel) []tpLevel {
	var out []tpLevel
	for i := 0; i < len(raw) && i < MaxTpLevels; i++ {
		price := toNumber(raw[i].Price)
		ratio := toNumber(raw[i].CloseRatio)
		hasPrice, hasRatio := isFinite(price), isFinite(ratio)
		if !hasPrice && !hasRatio {
			continue
		}
		out = append(out, tpLevel{
			Index:      i + 1,
			Price:      price,
			CloseRatio: ratio,
			HasPrice:   hasPrice,
			HasRatio:   hasRatio,
		})
	}
	return out
}

func validateTpLevels(raw []RawTpLevel, dir Direction, avgEntry float64) ([]tpLevel, error) {
	levels := parseTpLevels(raw)
	if len(levels) == 0 {
		return nil, &TpError{Code: CodeTpNoLevels, Msg: "multi-TP requires at least 1 level"}
	}

	sum := 0.0
	for _, l := range levels {
		if !l.HasPrice || !isPositive(l.Price) {
			return nil, &TpError{Code: CodeTpPrice, Msg: fmt.Sprintf("TP%d price must be > 0", l.Index), Level: l.Index}
		}
		if !l.HasRatio || !(l.CloseRatio > 0) {
			return nil, &TpError{Code: CodeTpRatio, Msg: fmt.Sprintf("TP%d close ratio must be > 0", l.Index), Level: l.Index}
		}
		if err := checkTpSide(dir, l.Price, avgEntry, l.Index); err != nil {
			return nil, err
		}
		sum += l.CloseRatio
	}

	if math.Abs(sum-100) > RatioTolerance {
		return nil, &TpError{Code: CodeTpRatioSum, Msg: "multi-TP close ratios must sum to 100%"}
	}
	return levels, nil
}

// EvaluateMulti splits the position's notional across up to three
// take-profit levels.
//
// Levels are allocated in the order given, not by price: every level but
// the last gets floor(total * ratio/100) steps and the last takes the
// remainder, so allocations always add up to the order notional.
func EvaluateMulti(p *Position, raw []RawTpLevel) (MultiTpResult, error) {
	if p == nil {
		return MultiTpResult{}, &TpError{Code: CodeNoPosition, Msg: "multi TP requires a position"}
	}

	levels, err := validateTpLevels(raw, p.Direction, p.AvgEntryExecuted)
	if err != nil {
		return MultiTpResult{}, err
	}

	sm, err := NewStepMath(p.UsdtStep)
	if err != nil {
		return MultiTpResult{}, &TpError{Code: CodeTpBadNotional, Msg: "USDT step is invalid, cannot compute multi-TP"}
	}
	totalUnits := sm.FloorUnits(p.OrderNotionalUsdt)
	if totalUnits <= 0 {
		return MultiTpResult{}, &TpError{Code: CodeTpBadNotional, Msg: "order notional is invalid, cannot compute multi-TP"}
	}

	res := MultiTpResult{Levels: make([]TpLevelResult, 0, len(levels))}
	var used int64

	for i, l := range levels {
		var units int64
		if i == len(levels)-1 {
			units = totalUnits - used
		} else {
			units = int64(math.Floor(float64(totalUnits)*(l.CloseRatio/100) + Epsilon))
			used += units
		}

		closeNotional := sm.FromUnits(units)
		qty := closeNotional / p.AvgEntryExecuted
		unitNet, unitFee := exitEconomics(p, l.Price)
		fee := qty * unitFee
		pnl := qty * unitNet

		res.TotalFeeTpUsdt += fee
		res.TotalPnl += pnl

		res.Levels = append(res.Levels, TpLevelResult{
			Index:             l.Index,
			TpPrice:           l.Price,
			CloseRatio:        l.CloseRatio,
			CloseNotionalUsdt: closeNotional,
			Qty:               qty,
			TpExecPrice:       l.Price,
			FeeTpUsdt:         fee,
			UnitNetPnl:        unitNet,
			Pnl:               pnl,
			RrTarget:          pnl / p.RiskAmountUsdt,
			RrActual:          RR(pnl, p.ActualLoss),
		})
	}

	res.TotalRrTarget = res.TotalPnl / p.RiskAmountUsdt
	res.TotalRrActual = RR(res.TotalPnl, p.ActualLoss)
	return res, nil
}
