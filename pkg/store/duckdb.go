package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/opspulse/opspulse/internal/model"
)

// DuckDBStore keeps the event log in an embedded DuckDB database so it can
// be queried ad hoc with SQL alongside the engine.
type DuckDBStore struct {
	db        *sql.DB
	mu        sync.Mutex
	retention int
}

// NewDuckDBStore opens (or creates) the database at path and initializes
// the schema. An empty path opens an in-memory database.
func NewDuckDBStore(path string) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS events (
		id VARCHAR PRIMARY KEY,
		ts TIMESTAMP NOT NULL,
		user_id VARCHAR NOT NULL,
		user_role VARCHAR,
		module VARCHAR NOT NULL,
		action VARCHAR NOT NULL,
		action_type VARCHAR NOT NULL,
		duration_ms BIGINT,
		metadata VARCHAR
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return &DuckDBStore{db: db, retention: DefaultRetention}, nil
}

// Append implements EventStore.
func (s *DuckDBStore) Append(ctx context.Context, e model.Event) error {
	e.ID = uuid.NewString()
	e.Timestamp = time.Now().UTC()

	var meta []byte
	if len(e.Metadata) > 0 {
		var err error
		meta, err = json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, ts, user_id, user_role, module, action, action_type, duration_ms, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp, e.UserID, e.UserRole, string(e.Module), e.Action,
		string(e.ActionType), e.DurationMS, string(meta))
	if err != nil {
		return err
	}

	// Drop oldest rows beyond the retention cap.
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM events WHERE id IN (
			SELECT id FROM events ORDER BY ts DESC OFFSET ?
		)`, s.retention)
	return err
}

// LoadAll implements EventStore. Query or scan failures degrade to an
// empty slice.
func (s *DuckDBStore) LoadAll(ctx context.Context) []model.Event {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, user_id, user_role, module, action, action_type, duration_ms, metadata
		 FROM events ORDER BY ts`)
	if err != nil {
		return []model.Event{}
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		var e model.Event
		var module, actionType string
		var meta sql.NullString
		var role sql.NullString
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.UserID, &role, &module,
			&e.Action, &actionType, &e.DurationMS, &meta); err != nil {
			continue
		}
		e.UserRole = role.String
		e.Module = model.Module(module)
		e.ActionType = model.ActionType(actionType)
		if meta.Valid && meta.String != "" {
			var m map[string]string
			if err := json.Unmarshal([]byte(meta.String), &m); err == nil {
				e.Metadata = m
			}
		}
		events = append(events, e)
	}
	if rows.Err() != nil {
		return []model.Event{}
	}
	return events
}

// Clear implements EventStore.
func (s *DuckDBStore) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM events`)
	return err
}

// Close closes the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}
