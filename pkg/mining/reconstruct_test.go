package mining

import (
	"testing"
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

func ev(ts time.Time, user, action string, typ model.ActionType) model.Event {
	return model.Event{
		ID:         "e-" + ts.Format("20060102150405") + user + action,
		Timestamp:  ts,
		UserID:     user,
		Module:     model.ModuleAccounting,
		Action:     action,
		ActionType: typ,
	}
}

var quoteToInvoice = ProcessDefinition{
	Name:          "Offerte → Factuur",
	StepFragments: []string{"quote", "invoice"},
}

func TestReconstruct_SingleInstance(t *testing.T) {
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(30*time.Minute), "u1", "convert_quote_to_invoice", model.ActionCreate),
		ev(start.Add(50*time.Minute), "u1", "send_invoice", model.ActionComplete),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 1 {
		t.Fatalf("Expected 1 task instance, got %d", len(instances))
	}
	if len(instances[0].Events) != 3 {
		t.Errorf("Expected 3 steps, got %d", len(instances[0].Events))
	}
	if instances[0].UserID != "u1" {
		t.Errorf("Expected user u1, got %s", instances[0].UserID)
	}
}

func TestReconstruct_NoMatches(t *testing.T) {
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "view_stock", model.ActionView),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if instances != nil {
		t.Errorf("Expected nil for no matching events, got %d instances", len(instances))
	}
}

func TestReconstruct_SplitsOnUser(t *testing.T) {
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(10*time.Minute), "u2", "create_quote", model.ActionCreate),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 2 {
		t.Fatalf("Expected 2 instances for 2 users, got %d", len(instances))
	}
}

func TestReconstruct_SplitsOnCalendarDay(t *testing.T) {
	// 23:00 and 01:00 the next day are within 4 hours but on different
	// calendar dates, so they must not merge.
	start := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(2*time.Hour), "u1", "send_invoice", model.ActionComplete),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 2 {
		t.Fatalf("Expected 2 instances across midnight, got %d", len(instances))
	}
}

func TestReconstruct_SplitsOutsideWindow(t *testing.T) {
	start := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(5*time.Hour), "u1", "send_invoice", model.ActionComplete),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 2 {
		t.Fatalf("Expected 2 instances beyond the 4h window, got %d", len(instances))
	}
}

func TestReconstruct_MergesSameDayTasksWithinWindow(t *testing.T) {
	// Documented approximation: two back-to-back executions by the same
	// user on the same day within the window merge into one instance.
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(time.Hour), "u1", "send_invoice", model.ActionComplete),
		ev(start.Add(2*time.Hour), "u1", "create_quote", model.ActionCreate),
		ev(start.Add(3*time.Hour), "u1", "send_invoice", model.ActionComplete),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 1 {
		t.Fatalf("Expected the greedy heuristic to merge into 1 instance, got %d", len(instances))
	}
	if len(instances[0].Events) != 4 {
		t.Errorf("Expected 4 events in the merged instance, got %d", len(instances[0].Events))
	}
}

func TestReconstruct_SortsUnorderedInput(t *testing.T) {
	start := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(start.Add(50*time.Minute), "u1", "send_invoice", model.ActionComplete),
		ev(start, "u1", "create_quote", model.ActionCreate),
		ev(start.Add(30*time.Minute), "u1", "convert_quote_to_invoice", model.ActionCreate),
	}

	instances := NewReconstructor().Reconstruct(quoteToInvoice, events)
	if len(instances) != 1 {
		t.Fatalf("Expected 1 instance, got %d", len(instances))
	}
	first := instances[0].Events[0]
	if first.Action != "create_quote" {
		t.Errorf("Expected chronological order, first event is %s", first.Action)
	}
}

func TestFragmentMatcher_CaseSensitive(t *testing.T) {
	m := NewFragmentMatcher([]string{"quote"})
	if !m.Matches("create_quote") {
		t.Error("Expected substring match")
	}
	if m.Matches("create_Quote") {
		t.Error("Matching must be case-sensitive")
	}
	if m.Matches("create_order") {
		t.Error("Unrelated action must not match")
	}
}
