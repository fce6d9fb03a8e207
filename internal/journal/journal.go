package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Journal is a local sqlite record of every order this client sent:
// what was submitted, where it landed, and the lifecycle events along
// the way. A nil Journal is valid and records nothing, so callers can
// run with journaling disabled.
type Journal struct {
	db *sql.DB
}

// timeLayout keeps full nanosecond width in UTC so the stored text
// sorts in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one submitted order as recorded locally.
type Entry struct {
	OrderID     string
	Market      string
	AssetID     string
	Side        string
	Price       string
	MakerAmount string
	TakerAmount string
	Maker       string
	Salt        int64
	Nonce       int64
	OrderType   string
	Status      string
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA foreign_keys=ON;`,
		`
CREATE TABLE IF NOT EXISTS orders (
  order_id TEXT PRIMARY KEY,
  market TEXT,
  asset_id TEXT NOT NULL,
  side TEXT NOT NULL,
  price TEXT NOT NULL,
  maker_amount TEXT NOT NULL,
  taker_amount TEXT NOT NULL,
  maker TEXT NOT NULL,
  salt INTEGER NOT NULL,
  nonce INTEGER NOT NULL,
  order_type TEXT NOT NULL,
  status TEXT NOT NULL,
  submitted_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_orders_submitted_at ON orders(submitted_at DESC);`,
		`
CREATE TABLE IF NOT EXISTS order_events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id TEXT NOT NULL,
  event TEXT NOT NULL,
  detail TEXT,
  ts TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_order_events_order_id ON order_events(order_id, ts);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("journal migrate: %w", err)
		}
	}
	return nil
}

// RecordSubmission stores a freshly accepted order. Resubmission with
// the same order id overwrites, keeping the latest snapshot.
func (j *Journal) RecordSubmission(ctx context.Context, e *Entry) error {
	if j == nil || j.db == nil {
		return nil
	}
	now := time.Now()
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = now
	}
	_, err := j.db.ExecContext(ctx, `
INSERT OR REPLACE INTO orders (order_id,market,asset_id,side,price,maker_amount,taker_amount,maker,salt,nonce,order_type,status,submitted_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
`, e.OrderID, e.Market, e.AssetID, e.Side, e.Price, e.MakerAmount, e.TakerAmount, e.Maker, e.Salt, e.Nonce, e.OrderType, e.Status,
		e.SubmittedAt.UTC().Format(timeLayout), now.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// UpdateStatus moves an order to a new lifecycle status.
func (j *Journal) UpdateStatus(ctx context.Context, orderID, status string) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.ExecContext(ctx, `
UPDATE orders SET status=?, updated_at=? WHERE order_id=?
`, status, time.Now().UTC().Format(timeLayout), orderID)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return nil
}

// RecordEvent appends a free-form lifecycle event for an order.
func (j *Journal) RecordEvent(ctx context.Context, orderID, event, detail string) error {
	if j == nil || j.db == nil {
		return nil
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO order_events (order_id,event,detail,ts) VALUES (?,?,?,?)
`, orderID, event, detail, time.Now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("record event: %w", err)
	}
	return nil
}

// Recent lists the latest submissions, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT order_id,market,asset_id,side,price,maker_amount,taker_amount,maker,salt,nonce,order_type,status,submitted_at,updated_at
FROM orders ORDER BY submitted_at DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var submittedAt, updatedAt string
		if err := rows.Scan(&e.OrderID, &e.Market, &e.AssetID, &e.Side, &e.Price, &e.MakerAmount, &e.TakerAmount, &e.Maker,
			&e.Salt, &e.Nonce, &e.OrderType, &e.Status, &submittedAt, &updatedAt); err != nil {
			return nil, err
		}
		e.SubmittedAt, _ = time.Parse(time.RFC3339Nano, submittedAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Events lists the recorded lifecycle events for one order.
func (j *Journal) Events(ctx context.Context, orderID string) ([]string, error) {
	if j == nil || j.db == nil {
		return nil, nil
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT event, detail FROM order_events WHERE order_id=? ORDER BY ts
`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var event string
		var detail sql.NullString
		if err := rows.Scan(&event, &detail); err != nil {
			return nil, err
		}
		if detail.Valid && detail.String != "" {
			event = event + ": " + detail.String
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
