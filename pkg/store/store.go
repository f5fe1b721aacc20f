// Package store provides append-only, bounded-retention event storage.
// Four backends implement the same contract: in-memory, JSONL file, Redis,
// and DuckDB. The engine only ever reads a full snapshot.
package store

import (
	"context"

	"github.com/opspulse/opspulse/internal/model"
)

// DefaultRetention is the maximum number of events a store keeps. Once the
// log exceeds it, the oldest entries are dropped.
const DefaultRetention = 10000

// EventStore is the durable home of the event log.
//
// Append assigns a unique ID and the current timestamp before persisting,
// then enforces retention by dropping the oldest entries.
//
// LoadAll returns every retained event. On any I/O or deserialization
// failure it returns an empty slice and no error: the engine must tolerate
// corrupt or missing storage silently and degrade to a zeroed dashboard.
//
// Clear wipes the log wholesale. Individual events are never deleted.
type EventStore interface {
	Append(ctx context.Context, e model.Event) error
	LoadAll(ctx context.Context) []model.Event
	Clear(ctx context.Context) error
}
