package journal

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

// WriteXLSX saves entries as a single-sheet workbook at path. Numeric
// columns are written as numbers.
func WriteXLSX(path string, entries []Entry) error {
	fx := excelize.NewFile()
	defer fx.Close()

	if err := fx.SetSheetName(fx.GetSheetName(0), historySheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}

	headStyle, err := fx.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return errors.Wrap(err, "create header style")
	}

	for i, h := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := fx.SetCellValue(historySheet, cell, h); err != nil {
			return errors.Wrap(err, "write header")
		}
		_ = fx.SetCellStyle(historySheet, cell, cell, headStyle)
	}

	for r, e := range entries {
		s := e.Summary
		values := []interface{}{
			e.ID,
			e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			s.Symbol,
			s.Direction,
			s.OrderNotionalUsdt,
			s.Leg1MarginUsdt,
			s.Leg2MarginUsdt,
			s.RiskAmountUsdt,
			s.ActualLoss,
			s.TpMode,
			s.TpPnl,
			s.RrTarget,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := fx.SetSheetRow(historySheet, cell, &values); err != nil {
			return errors.Wrapf(err, "write row %d", r+2)
		}
	}

	return errors.Wrap(fx.SaveAs(path), "save workbook")
}
