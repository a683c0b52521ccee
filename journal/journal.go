package journal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rustyeddy/riskcalc/config"
	"github.com/rustyeddy/riskcalc/pkg/id"
)

// Limit is the number of calculations a store keeps. Older entries are
// dropped on push.
const Limit = 20

// ErrNotFound is returned by Get for an index outside the stored history.
var ErrNotFound = errors.New("history entry not found")

// FormData is the calculator form exactly as it was submitted. Every
// field is kept as text so an entry can be replayed verbatim.
type FormData struct {
	Symbol         string         `json:"symbol"`
	Entry1Price    string         `json:"entry1Price"`
	Entry2Price    string         `json:"entry2Price"`
	Entry1Ratio    string         `json:"entry1Ratio"`
	StopPrice      string         `json:"stopPrice"`
	RiskAmountUsdt string         `json:"riskAmountUsdt"`
	FeeRatePct     string         `json:"feeRatePct"`
	UsdtStep       string         `json:"usdtStep"`
	MinOrderUsdt   string         `json:"minOrderUsdt"`
	TpMode         string         `json:"tpMode"`
	SingleTpPrice  string         `json:"singleTpPrice"`
	TpLevels       [3]TpLevelForm `json:"tpLevels"`
}

type TpLevelForm struct {
	Price      string `json:"price"`
	CloseRatio string `json:"closeRatio"`
}

// Summary is the short description of a calculation shown in history
// listings.
type Summary struct {
	Symbol            string  `json:"symbol"`
	Direction         string  `json:"direction"`
	OrderNotionalUsdt float64 `json:"orderNotionalUsdt"`
	Leg1MarginUsdt    float64 `json:"leg1MarginUsdt"`
	Leg2MarginUsdt    float64 `json:"leg2MarginUsdt"`
	RiskAmountUsdt    float64 `json:"riskAmountUsdt"`
	ActualLoss        float64 `json:"actualLoss"`
	TpMode            string  `json:"tpMode"`
	TpPnl             float64 `json:"tpPnl"`
	RrTarget          float64 `json:"rrTarget"`
}

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	FormData  FormData  `json:"formData"`
	Summary   Summary   `json:"summary"`
}

// NewEntry stamps a calculation with the current time and a fresh ID.
func NewEntry(form FormData, summary Summary) Entry {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return Entry{
		ID:        id.NewAt(now),
		Timestamp: now,
		FormData:  form,
		Summary:   summary,
	}
}

// Store keeps the most recent calculations, newest first.
type Store interface {
	Push(ctx context.Context, e Entry) error
	List(ctx context.Context) ([]Entry, error)
	// Get returns the entry at a 0-based position in List order.
	Get(ctx context.Context, index int) (Entry, error)
	Clear(ctx context.Context) error
	Close() error
}

// Open returns the store selected by cfg.Type.
func Open(cfg config.HistoryConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch cfg.Type {
	case "sqlite":
		s, err := NewSQLite(cfg.DBPath, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "file":
		return NewFileStore(cfg.FilePath, log), nil
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, errors.Errorf("unknown history type %q", cfg.Type)
}

func pick(entries []Entry, index int) (Entry, error) {
	if index < 0 || index >= len(entries) {
		return Entry{}, errors.Wrapf(ErrNotFound, "index %d", index)
	}
	return entries[index], nil
}

// capped prepends e and trims the list to Limit.
func capped(e Entry, entries []Entry) []Entry {
	out := make([]Entry, 0, Limit)
	out = append(out, e)
	for _, old := range entries {
		if len(out) == Limit {
			break
		}
		out = append(out, old)
	}
	return out
}
