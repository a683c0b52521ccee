package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type SQLiteStore struct {
	db  *sql.DB
	log *zap.Logger
}

func NewSQLite(path string, log *zap.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open history db")
	}
	// ":memory:" databases live per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "create history schema")
	}

	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Push(ctx context.Context, e Entry) error {
	form, err := json.Marshal(e.FormData)
	if err != nil {
		return errors.Wrap(err, "marshal form data")
	}
	summary, err := json.Marshal(e.Summary)
	if err != nil {
		return errors.Wrap(err, "marshal summary")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin history tx")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO history (id, created_at, form_data, summary)
		VALUES (?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixMilli(), string(form), string(summary),
	); err != nil {
		return errors.Wrap(err, "insert history entry")
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM history
		WHERE id NOT IN (
			SELECT id FROM history ORDER BY created_at DESC, id DESC LIMIT ?
		)`, Limit,
	); err != nil {
		return errors.Wrap(err, "trim history")
	}

	return errors.Wrap(tx.Commit(), "commit history entry")
}

// List returns up to Limit entries, newest first. Rows whose stored JSON
// no longer decodes are skipped.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, form_data, summary
		FROM history
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, Limit)
	if err != nil {
		return nil, errors.Wrap(err, "query history")
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			ms      int64
			form    string
			summary string
		)
		if err := rows.Scan(&e.ID, &ms, &form, &summary); err != nil {
			return nil, errors.Wrap(err, "scan history row")
		}
		if err := json.Unmarshal([]byte(form), &e.FormData); err != nil {
			s.log.Warn("skipping corrupted history row", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		if err := json.Unmarshal([]byte(summary), &e.Summary); err != nil {
			s.log.Warn("skipping corrupted history row", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		e.Timestamp = time.UnixMilli(ms).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate history")
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, index int) (Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return Entry{}, err
	}
	return pick(entries, index)
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
	return errors.Wrap(err, "clear history")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
