package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

func testEvent(user, action string) model.Event {
	return model.Event{
		UserID:     user,
		Module:     model.ModulePOS,
		Action:     action,
		ActionType: model.ActionCreate,
	}
}

func TestMemoryStore_AppendAssignsIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Append(ctx, testEvent("u1", "create_sale")); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	events := s.LoadAll(ctx)
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if events[0].ID == "" {
		t.Error("Append must assign an ID")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("Append must assign a timestamp")
	}
}

func TestMemoryStore_Retention(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStoreWithRetention(3)

	for i := 0; i < 5; i++ {
		if err := s.Append(ctx, testEvent("u1", fmt.Sprintf("action_%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	events := s.LoadAll(ctx)
	if len(events) != 3 {
		t.Fatalf("Expected retention cap of 3, got %d", len(events))
	}
	if events[0].Action != "action_2" {
		t.Errorf("Oldest events must be evicted first, got %s", events[0].Action)
	}
}

func TestMemoryStore_LoadAllReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Append(ctx, testEvent("u1", "create_sale"))

	first := s.LoadAll(ctx)
	first[0].Action = "tampered"

	second := s.LoadAll(ctx)
	if second[0].Action != "create_sale" {
		t.Error("LoadAll must return a snapshot, not the backing slice")
	}
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.Append(ctx, testEvent("u1", "create_sale"))

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got := s.LoadAll(ctx); len(got) != 0 {
		t.Errorf("Expected empty store after Clear, got %d events", len(got))
	}
}

func TestMemoryStore_SeedPreservesIdentity(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	ts := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	e := testEvent("u1", "create_sale")
	e.ID = "fixed-id"
	e.Timestamp = ts
	s.Seed(e)

	events := s.LoadAll(ctx)
	if events[0].ID != "fixed-id" || !events[0].Timestamp.Equal(ts) {
		t.Errorf("Seed must preserve ID and timestamp, got %+v", events[0])
	}
}
