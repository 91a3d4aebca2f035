package offline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const queueSchema = `
CREATE TABLE IF NOT EXISTS pending_mutations (
	rowid       INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	kind        TEXT NOT NULL,
	target_path TEXT NOT NULL,
	payload     BLOB,
	local_id    TEXT NOT NULL DEFAULT '',
	enqueued_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_mutations_enqueued_at
	ON pending_mutations(enqueued_at);
`

// Queue is the on-device, crash-durable store of pending write operations.
// Backed by SQLite so queued mutations survive process restarts.
type Queue struct {
	db *sql.DB

	mu     sync.Mutex
	lastTS int64
}

// OpenQueue creates or opens the queue database at the given path.
//
// The database is configured with:
//   - WAL mode for durability without blocking reads
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// SQLite supports a single writer, so the pool is capped at one
// connection. This function is idempotent.
func OpenQueue(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("cannot open queue database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot connect to queue database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("cannot execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(queueSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot apply queue schema: %w", err)
	}

	return &Queue{db: db}, nil
}

func (q *Queue) Close() error {
	if q.db == nil {
		return nil
	}
	return q.db.Close()
}

// Enqueue persists a new pending mutation and returns it. Each call gets a
// fresh unique id; timestamps never decrease within a queue instance, so
// rapid successive enqueues keep their causal order.
func (q *Queue) Enqueue(ctx context.Context, kind Kind, targetPath string, payload []byte, localID string) (*PendingMutation, error) {
	m := &PendingMutation{
		ID:         uuid.NewString(),
		Kind:       kind,
		TargetPath: targetPath,
		Payload:    payload,
		LocalID:    localID,
		EnqueuedAt: q.nextTimestamp(),
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pending_mutations (id, kind, target_path, payload, local_id, enqueued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, string(m.Kind), m.TargetPath, m.Payload, m.LocalID, m.EnqueuedAt)
	if err != nil {
		return nil, fmt.Errorf("cannot enqueue mutation: %w", err)
	}

	return m, nil
}

// List returns every pending mutation ordered by enqueue timestamp
// ascending, rowid breaking ties.
func (q *Queue) List(ctx context.Context) ([]PendingMutation, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, kind, target_path, payload, local_id, enqueued_at
		FROM pending_mutations
		ORDER BY enqueued_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("cannot list pending mutations: %w", err)
	}
	defer rows.Close()

	var result []PendingMutation
	for rows.Next() {
		var m PendingMutation
		var kind string
		if err := rows.Scan(&m.ID, &kind, &m.TargetPath, &m.Payload, &m.LocalID, &m.EnqueuedAt); err != nil {
			return nil, fmt.Errorf("cannot scan pending mutation: %w", err)
		}
		m.Kind = Kind(kind)
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cannot read pending mutations: %w", err)
	}
	return result, nil
}

// Remove deletes a mutation after its successful remote application.
func (q *Queue) Remove(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, `DELETE FROM pending_mutations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cannot remove mutation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("cannot remove mutation: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mutation %s not found", id)
	}
	return nil
}

// Len returns the number of pending mutations.
func (q *Queue) Len(ctx context.Context) (int, error) {
	var count int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pending_mutations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("cannot count pending mutations: %w", err)
	}
	return count, nil
}

// Rewrite substitutes a reconciled server id for a placeholder id in the
// target path and payload of every pending mutation, so replays that
// reference a row created offline hit the real remote document.
func (q *Queue) Rewrite(ctx context.Context, placeholderID, serverID string) error {
	mutations, err := q.List(ctx)
	if err != nil {
		return err
	}
	for _, m := range mutations {
		path := strings.ReplaceAll(m.TargetPath, placeholderID, serverID)
		payload := m.Payload
		if payload != nil {
			payload = []byte(strings.ReplaceAll(string(payload), placeholderID, serverID))
		}
		if path == m.TargetPath && string(payload) == string(m.Payload) {
			continue
		}
		_, err := q.db.ExecContext(ctx, `
			UPDATE pending_mutations SET target_path = ?, payload = ? WHERE id = ?
		`, path, payload, m.ID)
		if err != nil {
			return fmt.Errorf("cannot rewrite mutation %s: %w", m.ID, err)
		}
	}
	return nil
}

// nextTimestamp returns wall-clock unix nanos, guarded so the value never
// decreases within this queue instance.
func (q *Queue) nextTimestamp() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()

	ts := time.Now().UnixNano()
	if ts <= q.lastTS {
		ts = q.lastTS + 1
	}
	q.lastTS = ts
	return ts
}
