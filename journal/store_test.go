package journal

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/riskcalc/config"
)

func testEntry(i int) Entry {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Add(time.Duration(i) * time.Second)
	return Entry{
		ID:        fmt.Sprintf("E%03d", i),
		Timestamp: at,
		FormData: FormData{
			Symbol:         "BTCUSDT",
			Entry1Price:    fmt.Sprintf("%d", 100+i),
			Entry1Ratio:    "100",
			StopPrice:      "95",
			RiskAmountUsdt: "50",
			FeeRatePct:     "0.04",
			TpMode:         "single",
			SingleTpPrice:  "120",
			TpLevels:       [3]TpLevelForm{{Price: "110", CloseRatio: "50"}},
		},
		Summary: Summary{
			Symbol:            "BTCUSDT",
			Direction:         "LONG",
			OrderNotionalUsdt: float64(1000 + i),
			Leg1MarginUsdt:    float64(1000+i) / 150,
			TpMode:            "single",
		},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()

	dir := t.TempDir()
	sq, err := NewSQLite(filepath.Join(dir, "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	return map[string]Store{
		"sqlite": sq,
		"file":   NewFileStore(filepath.Join(dir, "history.json"), nil),
		"memory": NewMemoryStore(),
	}
}

func TestStore_PushListNewestFirst(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			for i := 0; i < 3; i++ {
				require.NoError(t, s.Push(ctx, testEntry(i)))
			}

			list, err = s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Equal(t, "E002", list[0].ID)
			assert.Equal(t, "E000", list[2].ID)
			assert.Equal(t, testEntry(2), list[0])
		})
	}
}

func TestStore_CapsAtLimit(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < Limit+5; i++ {
				require.NoError(t, s.Push(ctx, testEntry(i)))
			}

			list, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, Limit)
			assert.Equal(t, fmt.Sprintf("E%03d", Limit+4), list[0].ID)
			assert.Equal(t, "E005", list[Limit-1].ID)
		})
	}
}

func TestStore_GetAndClear(t *testing.T) {
	t.Parallel()

	for name, s := range stores(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Push(ctx, testEntry(0)))
			require.NoError(t, s.Push(ctx, testEntry(1)))

			e, err := s.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, "E000", e.ID)
			assert.Equal(t, "100", e.FormData.Entry1Price)

			_, err = s.Get(ctx, 2)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Get(ctx, -1)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Clear(ctx))
			list, err := s.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, list)

			// Clearing an empty history is fine.
			assert.NoError(t, s.Clear(ctx))
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	tests := []struct {
		cfg     config.HistoryConfig
		want    any
		wantErr bool
	}{
		{config.HistoryConfig{Type: "sqlite", DBPath: filepath.Join(dir, "h.db")}, &SQLiteStore{}, false},
		{config.HistoryConfig{Type: "file", FilePath: filepath.Join(dir, "h.json")}, &FileStore{}, false},
		{config.HistoryConfig{Type: "memory"}, &MemoryStore{}, false},
		{config.HistoryConfig{Type: "redis"}, nil, true},
	}

	for _, tt := range tests {
		s, err := Open(tt.cfg, nil)
		if tt.wantErr {
			assert.Error(t, err)
			assert.Nil(t, s)
			continue
		}
		require.NoError(t, err)
		assert.IsType(t, tt.want, s)
		assert.NoError(t, s.Close())
	}
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	e := NewEntry(FormData{Symbol: "ETHUSDT"}, Summary{Symbol: "ETHUSDT"})
	assert.Len(t, e.ID, 26)
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Minute)
	assert.Equal(t, "ETHUSDT", e.FormData.Symbol)
}
