package history

// Archive keeps a write-behind transcript of every turn in SQLite.
// It is optional: a nil *Archive accepts every call and records nothing, and
// storage failures are logged rather than surfaced so a broken database never
// interrupts a conversation.

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/atlas-go/internal/logger"
)

// Record is an archived turn.
type Record struct {
	ID        int64
	SessionID string
	Turn
	CreatedAt time.Time
}

type Archive struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the archive at path and ensures the schema exists.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS turns (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        session_id TEXT NOT NULL,
        role TEXT NOT NULL,
        content TEXT NOT NULL,
        created_at INTEGER NOT NULL
    );`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create turns table: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS turns_session ON turns (session_id, id);`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create turns index: %w", err)
	}
	logger.L.Info("sqlite transcript archive initialized", "path", path)
	return &Archive{db: db, now: time.Now}, nil
}

// Save appends turns for a session in order.
func (a *Archive) Save(ctx context.Context, sessionID string, turns ...Turn) {
	if a == nil {
		return
	}
	for _, t := range turns {
		_, err := a.db.ExecContext(ctx,
			`INSERT INTO turns (session_id, role, content, created_at) VALUES (?,?,?,?);`,
			sessionID, t.Role, t.Content, a.now().UnixMilli())
		if err != nil {
			logger.L.Error("failed to archive turn", "session", sessionID, "role", t.Role, "error", err)
			return
		}
	}
}

// List returns all archived turns of a session in chronological order.
func (a *Archive) List(ctx context.Context, sessionID string) ([]Record, error) {
	if a == nil {
		return nil, nil
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM turns WHERE session_id = ? ORDER BY id ASC;`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r  Record
			ms int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Role, &r.Content, &ms); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		r.CreatedAt = time.UnixMilli(ms)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	return a.db.Close()
}
