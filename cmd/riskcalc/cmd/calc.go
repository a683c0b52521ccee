package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/riskcalc/internal/calculator"
	"github.com/rustyeddy/riskcalc/internal/render"
	"github.com/rustyeddy/riskcalc/risk"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Size a position from a risk budget",
	Long: `Size a 150x USDT perpetual position so the loss at the stop, fees
included, stays within the risk amount. Add --tp for a single take-profit
or up to three --tp-level PRICE:RATIO flags for a ladder.

Examples:
  riskcalc calc --entry1 100 --stop 95 --risk 50 --tp 110
  riskcalc calc --entry1 100 --entry2 102 --entry1-ratio 60 --stop 95 \
    --risk 50 --tp-level 105:50 --tp-level 110:30 --tp-level 120:20`,
	Args: cobra.NoArgs,
	RunE: runCalc,
}

var (
	calcForm     calculator.FormData
	calcTpLevels []string
	calcJSON     bool
)

func init() {
	rootCmd.AddCommand(calcCmd)

	f := calcCmd.Flags()
	f.StringVar(&calcForm.Symbol, "symbol", "", "contract symbol (default from config)")
	f.StringVar(&calcForm.Entry1Price, "entry1", "", "first entry price")
	f.StringVar(&calcForm.Entry2Price, "entry2", "", "optional second entry price")
	f.StringVar(&calcForm.Entry1Ratio, "entry1-ratio", "", "percent of notional on entry 1 when entry 2 is set")
	f.StringVar(&calcForm.StopPrice, "stop", "", "stop-loss price")
	f.StringVar(&calcForm.RiskAmountUsdt, "risk", "", "maximum loss at the stop in USDT (default from config)")
	f.StringVar(&calcForm.FeeRatePct, "fee-pct", "", "fee per side in percent, e.g. 0.04 (default from config)")
	f.StringVar(&calcForm.UsdtStep, "step", "", "order step in USDT (default from symbol preset)")
	f.StringVar(&calcForm.MinOrderUsdt, "min-order", "", "minimum order in USDT (default from symbol preset)")
	f.StringVar(&calcForm.SingleTpPrice, "tp", "", "single take-profit price")
	f.StringArrayVar(&calcTpLevels, "tp-level", nil, "take-profit level PRICE:RATIO, repeat up to 3 times")
	f.BoolVar(&calcJSON, "json", false, "print the result as JSON")
}

// parseTpLevels reads PRICE:RATIO pairs into the form's fixed rows.
func parseTpLevels(specs []string) ([3]calculator.TpLevelForm, error) {
	var out [3]calculator.TpLevelForm
	if len(specs) > len(out) {
		return out, fmt.Errorf("at most %d --tp-level flags are allowed", len(out))
	}
	for i, s := range specs {
		price, ratio, ok := strings.Cut(s, ":")
		if !ok {
			return out, fmt.Errorf("--tp-level %q: want PRICE:RATIO", s)
		}
		out[i] = calculator.TpLevelForm{Price: strings.TrimSpace(price), CloseRatio: strings.TrimSpace(ratio)}
	}
	return out, nil
}

func runCalc(cmd *cobra.Command, args []string) error {
	form := calcForm
	if len(calcTpLevels) > 0 {
		levels, err := parseTpLevels(calcTpLevels)
		if err != nil {
			return err
		}
		form.TpLevels = levels
		form.TpMode = calculator.ModeMulti
	} else {
		form.TpMode = calculator.ModeSingle
	}

	svc, err := openService(nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	form = svc.WithDefaults(form)
	res, err := svc.Calculate(cmd.Context(), form)
	if err != nil {
		return describeCalcError(err)
	}
	return printResult(cmd.OutOrStdout(), res, calcJSON)
}

// describeCalcError lists every validation message instead of only the
// first.
func describeCalcError(err error) error {
	var verr *risk.ValidationError
	if errors.As(err, &verr) && len(verr.Violations) > 1 {
		return fmt.Errorf("invalid input:\n%s", verr.Detail())
	}
	return err
}

func printResult(w io.Writer, res calculator.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	render.Position(w, &res.Position)
	switch {
	case res.Single != nil:
		render.Single(w, res.Single)
	case res.Multi != nil:
		render.Multi(w, res.Multi)
	}
	return nil
}
