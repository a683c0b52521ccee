package calculator

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts calculations by outcome and records the size of the
// orders they produce.
type Metrics struct {
	calculations *prometheus.CounterVec
	notional     *prometheus.HistogramVec
}

// NewMetrics registers the calculator collectors on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "riskcalc_calculations_total",
				Help: "Total number of calculations by outcome and take-profit mode",
			},
			[]string{"outcome", "mode"},
		),
		notional: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "riskcalc_order_notional_usdt",
				Help:    "Distribution of sized order notionals in USDT",
				Buckets: prometheus.ExponentialBuckets(10, 2, 14),
			},
			[]string{"symbol"},
		),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.calculations, m.notional} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Label values standing in for input that is not a known symbol or mode.
const (
	otherSymbol = "other"
	unknownMode = "unknown"
)

func modeLabel(mode string) string {
	switch mode {
	case ModeSingle, ModeMulti:
		return mode
	}
	return unknownMode
}

// RecordSuccess counts a completed calculation. symbol must already be
// one of the configured symbols or "other".
func (m *Metrics) RecordSuccess(symbol, mode string, notional float64) {
	m.calculations.WithLabelValues("ok", modeLabel(mode)).Inc()
	m.notional.WithLabelValues(symbol).Observe(notional)
}

// RecordFailure counts a rejected calculation. kind is the error family,
// e.g. "validation" or "sizing".
func (m *Metrics) RecordFailure(kind, mode string) {
	if kind == "" {
		kind = "error"
	}
	m.calculations.WithLabelValues(kind, modeLabel(mode)).Inc()
}
