package dashboard

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/opspulse/opspulse/internal/model"
	"github.com/opspulse/opspulse/pkg/mining"
	"github.com/opspulse/opspulse/pkg/store"
)

func ev(ts time.Time, user string, mod model.Module, action string, typ model.ActionType) model.Event {
	return model.Event{
		ID:         fmt.Sprintf("e-%d-%s", ts.UnixNano(), user),
		Timestamp:  ts,
		UserID:     user,
		Module:     mod,
		Action:     action,
		ActionType: typ,
		DurationMS: 60000,
	}
}

func TestParsePeriod(t *testing.T) {
	cases := map[string]int{"day": 1, "week": 7, "month": 30, "quarter": 90, "year": 365}
	for s, days := range cases {
		p, err := ParsePeriod(s)
		if err != nil {
			t.Fatalf("ParsePeriod(%q) failed: %v", s, err)
		}
		got, _ := p.Days()
		if got != days {
			t.Errorf("Period %q: expected %d days, got %d", s, days, got)
		}
	}
	if _, err := ParsePeriod("fortnight"); err == nil {
		t.Error("Expected error for unknown period")
	}
}

func TestBuild_EmptyStore(t *testing.T) {
	b := NewBuilder(store.NewMemoryStore(), nil)

	d, err := b.Build(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.TotalEvents != 0 || d.TotalUsers != 0 || d.TotalTimeMinutes != 0 {
		t.Errorf("Empty store must yield zeroed totals: %+v", d)
	}
	if d.ModuleStats == nil || d.UserStats == nil || d.ProcessMetrics == nil || d.Recommendations == nil {
		t.Error("Empty dashboard must carry empty slices, not nil")
	}
	if d.Period != PeriodWeek {
		t.Errorf("Expected period week, got %s", d.Period)
	}
}

func TestBuild_UnknownPeriod(t *testing.T) {
	b := NewBuilder(store.NewMemoryStore(), nil)
	if _, err := b.Build(context.Background(), Period("decade")); err == nil {
		t.Error("Expected error for unknown period")
	}
}

func TestBuild_PopulatedStore(t *testing.T) {
	now := time.Now().UTC()
	start := now.Add(-3 * time.Hour)

	s := store.NewMemoryStore()
	s.Seed(
		ev(start, "anna", model.ModuleAccounting, "create_quote", model.ActionCreate),
		ev(start.Add(20*time.Minute), "anna", model.ModuleAccounting, "convert_quote_to_invoice", model.ActionCreate),
		ev(start.Add(40*time.Minute), "anna", model.ModuleAccounting, "send_invoice", model.ActionComplete),
		ev(start.Add(time.Hour), "bram", model.ModuleInventory, "view_stock", model.ActionView),
	)

	d, err := NewBuilder(s, nil).Build(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if d.TotalEvents != 4 {
		t.Errorf("Expected 4 events in window, got %d", d.TotalEvents)
	}
	if d.TotalUsers != 2 {
		t.Errorf("Expected 2 users, got %d", d.TotalUsers)
	}
	if d.TotalTimeMinutes != 4 {
		t.Errorf("Expected 4 minutes total, got %v", d.TotalTimeMinutes)
	}
	if len(d.ModuleStats) != 2 {
		t.Errorf("Expected stats for 2 modules, got %d", len(d.ModuleStats))
	}
	if len(d.UserStats) != 2 {
		t.Errorf("Expected stats for 2 users, got %d", len(d.UserStats))
	}

	var found bool
	for _, p := range d.ProcessMetrics {
		if p.ProcessName == "Offerte → Factuur" {
			found = true
			if p.CompletionRate != 100 {
				t.Errorf("Expected completion rate 100, got %v", p.CompletionRate)
			}
		}
	}
	if !found {
		t.Error("Expected the quote-to-invoice process to be mined")
	}
}

func TestBuild_RoundsTotalTime(t *testing.T) {
	now := time.Now().UTC()

	e := ev(now.Add(-time.Hour), "anna", model.ModulePOS, "create_sale", model.ActionCreate)
	e.DurationMS = 100000 // 1.666... minutes

	s := store.NewMemoryStore()
	s.Seed(e)

	d, err := NewBuilder(s, nil).Build(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.TotalTimeMinutes != 1.67 {
		t.Errorf("Expected total time rounded to 1.67, got %v", d.TotalTimeMinutes)
	}
}

func TestBuild_WindowExcludesOldEvents(t *testing.T) {
	now := time.Now().UTC()

	s := store.NewMemoryStore()
	s.Seed(
		ev(now.Add(-time.Hour), "anna", model.ModulePOS, "create_sale", model.ActionCreate),
		ev(now.AddDate(0, 0, -30), "anna", model.ModulePOS, "create_sale", model.ActionCreate),
	)

	d, err := NewBuilder(s, nil).Build(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if d.TotalEvents != 1 {
		t.Errorf("Expected only the recent event in a week window, got %d", d.TotalEvents)
	}
}

func TestBuild_BrokenProcessIsIsolated(t *testing.T) {
	// A panicking miner must not take down the build.
	now := time.Now().UTC()
	s := store.NewMemoryStore()
	s.Seed(
		ev(now.Add(-time.Hour), "anna", model.ModulePOS, "create_sale", model.ActionCreate),
		ev(now.Add(-50*time.Minute), "anna", model.ModulePOS, "complete_sale", model.ActionComplete),
	)

	b := NewBuilder(s, []mining.ProcessDefinition{{Name: "sales", StepFragments: []string{"sale"}}})
	b.reconstructor = nil // forces a nil dereference once grouping starts

	d, err := b.Build(context.Background(), PeriodWeek)
	if err != nil {
		t.Fatalf("Build must survive a failing miner: %v", err)
	}
	if len(d.ProcessMetrics) != 0 {
		t.Errorf("Expected no process metrics from a broken miner, got %d", len(d.ProcessMetrics))
	}
	if d.TotalEvents != 2 {
		t.Errorf("Other dashboard sections must still compute, got %d events", d.TotalEvents)
	}
}
