package render

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/rustyeddy/riskcalc/journal"
	"github.com/rustyeddy/riskcalc/risk"
)

// Number formats v with at most digits decimals and no trailing zeros.
// Non-finite values render as "-".
func Number(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	s := strconv.FormatFloat(v, 'f', digits, 64)
	if digits > 0 {
		for s[len(s)-1] == '0' {
			s = s[:len(s)-1]
		}
		if s[len(s)-1] == '.' {
			s = s[:len(s)-1]
		}
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func keyValueColumns(t table.Writer) {
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 22, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, Align: text.AlignRight},
	})
}

// Position prints the sizing result.
func Position(w io.Writer, p *risk.Position) {
	t := newTable(w, fmt.Sprintf("POSITION %s %s", p.Symbol, p.Direction))

	t.AppendRows([]table.Row{
		{"Order notional (USDT)", Number(p.OrderNotionalUsdt, 4)},
		{"Leg 1 notional (USDT)", Number(p.Leg1NotionalUsdt, 4)},
		{"Leg 1 margin (USDT)", Number(p.Leg1MarginUsdt(), 4)},
	})
	if p.HasEntry2 {
		t.AppendRows([]table.Row{
			{"Leg 2 notional (USDT)", Number(p.Leg2NotionalUsdt, 4)},
			{"Leg 2 margin (USDT)", Number(p.Leg2MarginUsdt(), 4)},
		})
	}
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Avg entry (executed)", Number(p.AvgEntryExecuted, 4)},
		{"Stop price", Number(p.StopPrice, 4)},
		{"Quantity", Number(p.QtyTotal, 8)},
		{"Leverage", Number(p.Leverage, 0) + "x"},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Stop fees, open+close", Number(p.FeeTotalStopUsdt, 4)},
		{"Actual loss (USDT)", Number(p.ActualLoss, 4)},
		{"Risk used", Number(p.RiskUtilizationPct, 2) + "%"},
	})
	keyValueColumns(t)
	t.Render()

	for _, warn := range p.Warnings {
		fmt.Fprintf(w, "! %s\n", warn)
	}
}

// Single prints a single take-profit evaluation.
func Single(w io.Writer, r *risk.SingleTpResult) {
	t := newTable(w, "TAKE PROFIT (SINGLE)")
	t.AppendRows([]table.Row{
		{"TP price", Number(r.TpPrice, 4)},
		{"TP fees, open+close", Number(r.FeeTotalTpUsdt, 4)},
		{"PnL (USDT)", Number(r.PnlTotal, 4)},
		{"RR (target risk)", Number(r.RrTarget, 4) + "R"},
		{"RR (actual loss)", Number(r.RrActual, 4) + "R"},
	})
	keyValueColumns(t)
	t.Render()
}

// Multi prints a multi-level take-profit evaluation.
func Multi(w io.Writer, r *risk.MultiTpResult) {
	t := newTable(w, "TAKE PROFIT (MULTI)")
	t.AppendHeader(table.Row{"Level", "Price", "Close %", "Notional", "Fee (USDT)", "PnL (USDT)", "RR"})
	for _, l := range r.Levels {
		t.AppendRow(table.Row{
			fmt.Sprintf("TP%d", l.Index),
			Number(l.TpPrice, 4),
			Number(l.CloseRatio, 2) + "%",
			Number(l.CloseNotionalUsdt, 4),
			Number(l.FeeTpUsdt, 4),
			Number(l.Pnl, 4),
			Number(l.RrTarget, 4) + "R",
		})
	}
	t.AppendFooter(table.Row{"Total", "", "", "", Number(r.TotalFeeTpUsdt, 4), Number(r.TotalPnl, 4), Number(r.TotalRrTarget, 4) + "R"})
	t.Render()
}

// History lists entries with the 1-based numbers the CLI accepts.
func History(w io.Writer, entries []journal.Entry) {
	HistoryFrom(w, entries, 1)
}

// HistoryFrom lists entries numbering the first one as first.
func HistoryFrom(w io.Writer, entries []journal.Entry, first int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No history yet.")
		return
	}

	t := newTable(w, "HISTORY")
	t.AppendHeader(table.Row{"#", "Time", "Symbol", "Direction", "Leg 1 margin", "Leg 2 margin", "TP", "RR"})
	for i, e := range entries {
		s := e.Summary
		t.AppendRow(table.Row{
			first + i,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			s.Symbol,
			s.Direction,
			Number(s.Leg1MarginUsdt, 4),
			Number(s.Leg2MarginUsdt, 4),
			s.TpMode,
			Number(s.RrTarget, 4) + "R",
		})
	}
	t.Render()
}

// Form prints a stored calculator form.
func Form(w io.Writer, f journal.FormData) {
	t := newTable(w, "FORM")
	t.AppendRows([]table.Row{
		{"Symbol", f.Symbol},
		{"Entry 1 price", f.Entry1Price},
		{"Entry 2 price", f.Entry2Price},
		{"Entry 1 ratio %", f.Entry1Ratio},
		{"Stop price", f.StopPrice},
		{"Risk amount (USDT)", f.RiskAmountUsdt},
		{"Fee rate %", f.FeeRatePct},
		{"USDT step", f.UsdtStep},
		{"Min order (USDT)", f.MinOrderUsdt},
		{"TP mode", f.TpMode},
	})
	if f.TpMode == "multi" {
		for i, l := range f.TpLevels {
			if l.Price == "" && l.CloseRatio == "" {
				continue
			}
			t.AppendRow(table.Row{fmt.Sprintf("TP%d", i+1), l.Price + " @ " + l.CloseRatio + "%"})
		}
	} else {
		t.AppendRow(table.Row{"TP price", f.SingleTpPrice})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 16, Align: text.AlignLeft},
	})
	t.Render()
}
