package journal

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

var exportHeader = []string{
	"id", "timestamp", "symbol", "direction", "order_notional_usdt",
	"leg1_margin_usdt", "leg2_margin_usdt", "risk_amount_usdt",
	"actual_loss", "tp_mode", "tp_pnl", "rr_target",
}

func exportRow(e Entry) []string {
	s := e.Summary
	return []string{
		e.ID,
		e.Timestamp.UTC().Format(time.RFC3339),
		s.Symbol,
		s.Direction,
		formatFloat(s.OrderNotionalUsdt),
		formatFloat(s.Leg1MarginUsdt),
		formatFloat(s.Leg2MarginUsdt),
		formatFloat(s.RiskAmountUsdt),
		formatFloat(s.ActualLoss),
		s.TpMode,
		formatFloat(s.TpPnl),
		formatFloat(s.RrTarget),
	}
}

// WriteCSV writes one row per entry after a header row.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	for _, e := range entries {
		if err := cw.Write(exportRow(e)); err != nil {
			return errors.Wrapf(err, "write csv row %s", e.ID)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flush csv")
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
