package calculator

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rustyeddy/riskcalc/config"
	"github.com/rustyeddy/riskcalc/journal"
	"github.com/rustyeddy/riskcalc/risk"
)

const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// ErrUnknownMode is returned for a take-profit mode other than single or
// multi.
var ErrUnknownMode = errors.New("take-profit mode must be single or multi")

type (
	FormData    = journal.FormData
	TpLevelForm = journal.TpLevelForm
	Summary     = journal.Summary
)

// Result is a completed calculation.
type Result struct {
	Position risk.Position        `json:"position"`
	Mode     string               `json:"mode"`
	Single   *risk.SingleTpResult `json:"single,omitempty"`
	Multi    *risk.MultiTpResult  `json:"multi,omitempty"`
	Entry    journal.Entry        `json:"entry"`
}

type Service struct {
	cfg     *config.Config
	store   journal.Store
	log     *zap.Logger
	metrics *Metrics
}

// NewService wires the calculator to its history store. reg may be nil,
// in which case metrics are collected but not exported.
func NewService(cfg *config.Config, store journal.Store, log *zap.Logger, reg prometheus.Registerer) (*Service, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if store == nil {
		store = journal.NewMemoryStore()
	}
	if log == nil {
		log = zap.NewNop()
	}
	m, err := NewMetrics(reg)
	if err != nil {
		return nil, errors.Wrap(err, "register metrics")
	}
	return &Service{cfg: cfg, store: store, log: log, metrics: m}, nil
}

func (s *Service) Config() *config.Config { return s.cfg }

// Normalize resolves the symbol and fills a blank step or minimum order
// from the symbol's preset. The normalized form is what history stores.
func (s *Service) Normalize(f FormData) FormData {
	f.Symbol = strings.ToUpper(strings.TrimSpace(f.Symbol))
	if f.Symbol == "" {
		f.Symbol = strings.ToUpper(s.cfg.Defaults.Symbol)
	}

	limits := s.cfg.Limits(f.Symbol)
	if strings.TrimSpace(f.UsdtStep) == "" {
		f.UsdtStep = formatFloat(limits.UsdtStep)
	}
	if strings.TrimSpace(f.MinOrderUsdt) == "" {
		f.MinOrderUsdt = formatFloat(limits.MinOrderUsdt)
	}

	f.TpMode = strings.ToLower(strings.TrimSpace(f.TpMode))
	if f.TpMode == "" {
		f.TpMode = ModeSingle
	}
	return f
}

// Defaults returns a blank form pre-filled from configuration.
func (s *Service) Defaults() FormData {
	return s.WithDefaults(FormData{})
}

// WithDefaults fills the blank fields a user would otherwise have to
// retype when a stored form is loaded back.
func (s *Service) WithDefaults(f FormData) FormData {
	d := s.cfg.Defaults
	if strings.TrimSpace(f.Entry1Ratio) == "" {
		f.Entry1Ratio = formatFloat(d.Entry1Ratio)
	}
	if strings.TrimSpace(f.RiskAmountUsdt) == "" {
		f.RiskAmountUsdt = formatFloat(d.RiskAmountUsdt)
	}
	if strings.TrimSpace(f.FeeRatePct) == "" {
		f.FeeRatePct = formatFloat(d.FeeRatePct)
	}
	return s.Normalize(f)
}

// BuildInput maps a form onto engine input. Leverage is always the fixed
// 150x and the fee arrives as a percentage.
func BuildInput(f FormData, limits config.SymbolLimits) risk.RawInput {
	in := risk.RawInput{
		Symbol:         f.Symbol,
		Entry1Price:    f.Entry1Price,
		Entry2Price:    f.Entry2Price,
		Entry1Ratio:    f.Entry1Ratio,
		StopPrice:      f.StopPrice,
		RiskAmountUsdt: f.RiskAmountUsdt,
		Leverage:       risk.FixedLeverage,
		FeeRate:        feeRate(f.FeeRatePct),
		UsdtStep:       f.UsdtStep,
		MinOrderUsdt:   f.MinOrderUsdt,
	}
	if strings.TrimSpace(f.UsdtStep) == "" {
		in.UsdtStep = limits.UsdtStep
	}
	if strings.TrimSpace(f.MinOrderUsdt) == "" {
		in.MinOrderUsdt = limits.MinOrderUsdt
	}
	return in
}

// feeRate converts a percentage string to a rate. A blank fee is zero;
// malformed text yields NaN so validation rejects it.
func feeRate(pct string) float64 {
	pct = strings.TrimSpace(pct)
	if pct == "" {
		return 0
	}
	v, err := strconv.ParseFloat(pct, 64)
	if err != nil {
		return math.NaN()
	}
	return v / 100
}

func tpLevels(f FormData) []risk.RawTpLevel {
	out := make([]risk.RawTpLevel, 0, len(f.TpLevels))
	for _, l := range f.TpLevels {
		out = append(out, risk.RawTpLevel{Price: l.Price, CloseRatio: l.CloseRatio})
	}
	return out
}

// Calculate sizes the position described by f, evaluates its take-profit
// plan and records the calculation in history. Engine errors are
// returned unchanged. A failed history write is logged and does not
// fail the calculation.
func (s *Service) Calculate(ctx context.Context, f FormData) (Result, error) {
	f = s.Normalize(f)
	mode := f.TpMode

	if mode != ModeSingle && mode != ModeMulti {
		s.metrics.RecordFailure("form", mode)
		return Result{}, errors.Wrapf(ErrUnknownMode, "got %q", mode)
	}

	in := BuildInput(f, s.cfg.Limits(f.Symbol))
	pos, err := risk.CalculatePosition(in)
	if err != nil {
		s.fail(err, f, mode)
		return Result{}, err
	}

	res := Result{Position: pos, Mode: mode}
	switch mode {
	case ModeSingle:
		tp, err := risk.EvaluateSingle(&pos, f.SingleTpPrice)
		if err != nil {
			s.fail(err, f, mode)
			return Result{}, err
		}
		res.Single = &tp
	case ModeMulti:
		tp, err := risk.EvaluateMulti(&pos, tpLevels(f))
		if err != nil {
			s.fail(err, f, mode)
			return Result{}, err
		}
		res.Multi = &tp
	}

	res.Entry = journal.NewEntry(f, Summarize(res))
	if err := s.store.Push(ctx, res.Entry); err != nil {
		s.log.Error("failed to record history entry", zap.String("id", res.Entry.ID), zap.Error(err))
	}

	s.metrics.RecordSuccess(s.symbolLabel(pos.Symbol), mode, pos.OrderNotionalUsdt)
	s.log.Info("position sized",
		zap.String("symbol", pos.Symbol),
		zap.String("direction", string(pos.Direction)),
		zap.Float64("notional", pos.OrderNotionalUsdt),
		zap.Float64("actual_loss", pos.ActualLoss),
		zap.String("tp_mode", mode),
	)
	return res, nil
}

func (s *Service) fail(err error, f FormData, mode string) {
	kind := risk.Kind(err)
	s.metrics.RecordFailure(kind, mode)
	s.log.Debug("calculation rejected",
		zap.String("symbol", f.Symbol),
		zap.String("kind", kind),
		zap.Error(err),
	)
}

// symbolLabel keeps metric cardinality to the configured presets.
func (s *Service) symbolLabel(symbol string) string {
	if _, ok := s.cfg.Symbols[symbol]; ok {
		return symbol
	}
	return otherSymbol
}

// Summarize condenses a result into its history summary.
func Summarize(r Result) Summary {
	p := r.Position
	sum := Summary{
		Symbol:            p.Symbol,
		Direction:         string(p.Direction),
		OrderNotionalUsdt: p.OrderNotionalUsdt,
		Leg1MarginUsdt:    p.Leg1MarginUsdt(),
		Leg2MarginUsdt:    p.Leg2MarginUsdt(),
		RiskAmountUsdt:    p.RiskAmountUsdt,
		ActualLoss:        p.ActualLoss,
		TpMode:            r.Mode,
	}
	switch {
	case r.Single != nil:
		sum.TpPnl = r.Single.PnlTotal
		sum.RrTarget = r.Single.RrTarget
	case r.Multi != nil:
		sum.TpPnl = r.Multi.TotalPnl
		sum.RrTarget = r.Multi.TotalRrTarget
	}
	return sum
}

func (s *Service) History(ctx context.Context) ([]journal.Entry, error) {
	return s.store.List(ctx)
}

// Entry returns the history entry at a 0-based index, newest first.
func (s *Service) Entry(ctx context.Context, index int) (journal.Entry, error) {
	return s.store.Get(ctx, index)
}

// Refill returns the form stored at index with blank fields defaulted,
// ready to be edited or recalculated.
func (s *Service) Refill(ctx context.Context, index int) (FormData, error) {
	e, err := s.store.Get(ctx, index)
	if err != nil {
		return FormData{}, err
	}
	return s.WithDefaults(e.FormData), nil
}

func (s *Service) ClearHistory(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *Service) Close() error {
	return s.store.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
