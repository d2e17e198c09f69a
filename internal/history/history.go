// Package history journals recognized commands and spoken responses to a
// local sqlite file, so "what did it hear" questions can be answered
// after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"veer/pkg/logx"
)

const schema = `
CREATE TABLE IF NOT EXISTS interactions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	at       TEXT NOT NULL,
	heard    TEXT NOT NULL,
	intent   TEXT NOT NULL,
	response TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interactions_at ON interactions(at);
`

// Entry is one recognized command and its outcome.
type Entry struct {
	At       time.Time
	Heard    string
	Intent   string
	Response string
}

// Journal is the sqlite-backed interaction log. Pruning keeps the table
// bounded at MaxRows; a zero cap disables pruning.
type Journal struct {
	db  *sql.DB
	log logx.Logger

	maxRows    int
	opCount    atomic.Uint64
	pruneEvery uint64
}

func Open(path string, maxRows int, log logx.Logger) (*Journal, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, log: log, maxRows: maxRows, pruneEvery: 50}, nil
}

// Record appends one entry. Failures are the caller's to log; the
// journal never blocks the command loop on its own.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO interactions(at, heard, intent, response) VALUES(?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.Heard, e.Intent, e.Response,
	)
	if err == nil && j.maxRows > 0 && j.opCount.Add(1)%j.pruneEvery == 0 {
		pctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		if perr := j.prune(pctx); perr != nil {
			j.log.Warn("history prune failed", logx.Err(perr))
		}
		cancel()
	}
	return err
}

func (j *Journal) prune(ctx context.Context) error {
	_, err := j.db.ExecContext(ctx,
		`DELETE FROM interactions WHERE id NOT IN
		 (SELECT id FROM interactions ORDER BY id DESC LIMIT ?)`, j.maxRows)
	return err
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT at, heard, intent, response FROM interactions ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var at string
		if err := rows.Scan(&at, &e.Heard, &e.Intent, &e.Response); err != nil {
			return nil, err
		}
		if t, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
			e.At = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}
