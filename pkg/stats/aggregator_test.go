package stats

import (
	"testing"
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testAggregator() *Aggregator {
	a := NewAggregator()
	a.now = func() time.Time { return testNow }
	return a
}

func ev(ts time.Time, user string, mod model.Module, action string, typ model.ActionType, durMS int64) model.Event {
	return model.Event{
		ID:         "e-" + ts.Format("150405") + user,
		Timestamp:  ts,
		UserID:     user,
		Module:     mod,
		Action:     action,
		ActionType: typ,
		DurationMS: durMS,
	}
}

func TestModuleStats_SessionCounting(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	// Three actions on day D, one on day D+1, all by the same user.
	events := []model.Event{
		ev(day, "u1", model.ModuleInventory, "view_stock", model.ActionView, 0),
		ev(day.Add(time.Hour), "u1", model.ModuleInventory, "update_stock", model.ActionUpdate, 0),
		ev(day.Add(2*time.Hour), "u1", model.ModuleInventory, "view_stock", model.ActionView, 0),
		ev(day.AddDate(0, 0, 1), "u1", model.ModuleInventory, "view_stock", model.ActionView, 0),
	}

	stats := testAggregator().ModuleStats(events, Window{})
	if len(stats) != 1 {
		t.Fatalf("Expected 1 module, got %d", len(stats))
	}
	if stats[0].TotalSessions != 2 {
		t.Errorf("Expected 2 sessions (two distinct days), got %d", stats[0].TotalSessions)
	}
	if stats[0].ActionsCount != 4 {
		t.Errorf("Expected 4 actions, got %d", stats[0].ActionsCount)
	}
	if stats[0].UniqueUsers != 1 {
		t.Errorf("Expected 1 unique user, got %d", stats[0].UniqueUsers)
	}
}

func TestModuleStats_ActionConservation(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(day, "u1", model.ModuleInventory, "view_stock", model.ActionView, 0),
		ev(day, "u2", model.ModulePOS, "create_sale", model.ActionCreate, 0),
		ev(day, "u2", model.ModulePOS, "complete_sale", model.ActionComplete, 0),
		ev(day, "u3", model.ModuleCRM, "create_customer", model.ActionCreate, 0),
	}

	stats := testAggregator().ModuleStats(events, Window{})
	total := 0
	for _, m := range stats {
		total += m.ActionsCount
	}
	if total != len(events) {
		t.Errorf("Action counts sum to %d, want %d", total, len(events))
	}
}

func TestModuleStats_TotalTimeAndErrors(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(day, "u1", model.ModulePOS, "create_sale", model.ActionCreate, 3*60000),
		ev(day, "u1", model.ModulePOS, "create_sale", model.ActionError, 2*60000),
	}

	stats := testAggregator().ModuleStats(events, Window{})
	if stats[0].TotalTimeMinutes != 5 {
		t.Errorf("Expected 5 minutes total, got %v", stats[0].TotalTimeMinutes)
	}
	if stats[0].ErrorCount != 1 {
		t.Errorf("Expected 1 error, got %d", stats[0].ErrorCount)
	}
	// One user, one day: one session carrying all 5 minutes.
	if stats[0].AvgSessionMinutes != 5 {
		t.Errorf("Expected avg session 5 minutes, got %v", stats[0].AvgSessionMinutes)
	}
}

func TestModuleStats_SortedByActions(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(day, "u1", model.ModuleCRM, "a", model.ActionView, 0),
		ev(day, "u1", model.ModulePOS, "b", model.ActionView, 0),
		ev(day, "u1", model.ModulePOS, "c", model.ActionView, 0),
	}

	stats := testAggregator().ModuleStats(events, Window{})
	if stats[0].Module != model.ModulePOS {
		t.Errorf("Expected POS first (most actions), got %s", stats[0].Module)
	}
}

func TestModuleStats_Trend(t *testing.T) {
	mk := func(daysAgo, count int) []model.Event {
		out := []model.Event{}
		for i := 0; i < count; i++ {
			ts := testNow.AddDate(0, 0, -daysAgo).Add(time.Duration(i) * time.Minute)
			out = append(out, ev(ts, "u1", model.ModulePOS, "sale", model.ActionCreate, 0))
		}
		return out
	}

	cases := []struct {
		name     string
		events   []model.Event
		expected Trend
	}{
		{"no prior week activity", mk(2, 5), TrendStable},
		{"growing", append(mk(2, 12), mk(9, 5)...), TrendIncreasing},
		{"shrinking", append(mk(2, 2), mk(9, 10)...), TrendDecreasing},
		{"flat", append(mk(2, 10), mk(9, 10)...), TrendStable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := testAggregator().ModuleStats(tc.events, Window{})
			if stats[0].UsageTrend != tc.expected {
				t.Errorf("Expected trend %s, got %s", tc.expected, stats[0].UsageTrend)
			}
		})
	}
}

func TestModuleStats_TrendSeesBeyondWindow(t *testing.T) {
	mk := func(daysAgo, count int) []model.Event {
		out := []model.Event{}
		for i := 0; i < count; i++ {
			ts := testNow.AddDate(0, 0, -daysAgo).Add(time.Duration(i) * time.Minute)
			out = append(out, ev(ts, "u1", model.ModulePOS, "sale", model.ActionCreate, 0))
		}
		return out
	}

	// Prior-week activity lies outside a week-long window. The window caps
	// the usage counts, but the trend still compares the two full trailing
	// weeks anchored to now.
	events := append(mk(9, 10), mk(2, 2)...)
	window := Window{Start: testNow.AddDate(0, 0, -7), End: testNow}

	stats := testAggregator().ModuleStats(events, window)
	if stats[0].ActionsCount != 2 {
		t.Errorf("Expected 2 actions inside the window, got %d", stats[0].ActionsCount)
	}
	if stats[0].UsageTrend != TrendDecreasing {
		t.Errorf("Expected decreasing trend (2 vs 10), got %s", stats[0].UsageTrend)
	}
}

func TestUserStats_EfficiencyScore(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	// 10 actions: 5 completed, 1 error.
	// completionRate = 50, errorRate = 10
	// score = 50*0.6 + (100-10)*0.4 = 30 + 36 = 66
	events := []model.Event{}
	for i := 0; i < 5; i++ {
		events = append(events, ev(day.Add(time.Duration(i)*time.Minute), "u1",
			model.ModulePOS, "complete_sale", model.ActionComplete, 0))
	}
	for i := 0; i < 4; i++ {
		events = append(events, ev(day.Add(time.Duration(10+i)*time.Minute), "u1",
			model.ModulePOS, "view_sale", model.ActionView, 0))
	}
	events = append(events, ev(day.Add(20*time.Minute), "u1",
		model.ModulePOS, "create_sale", model.ActionError, 0))

	users := testAggregator().UserStats(events, Window{})
	if len(users) != 1 {
		t.Fatalf("Expected 1 user, got %d", len(users))
	}
	if users[0].EfficiencyScore != 66 {
		t.Errorf("Expected efficiency 66, got %v", users[0].EfficiencyScore)
	}
	if users[0].CompletedTasks != 5 {
		t.Errorf("Expected 5 completed tasks, got %d", users[0].CompletedTasks)
	}
}

func TestUserStats_ScoreBounds(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	// All completions pushes the raw formula to 100; all errors to 0.
	allDone := []model.Event{}
	allErr := []model.Event{}
	for i := 0; i < 8; i++ {
		ts := day.Add(time.Duration(i) * time.Minute)
		allDone = append(allDone, ev(ts, "good", model.ModulePOS, "done", model.ActionComplete, 0))
		allErr = append(allErr, ev(ts, "bad", model.ModulePOS, "boom", model.ActionError, 0))
	}

	users := testAggregator().UserStats(append(allDone, allErr...), Window{})
	for _, u := range users {
		if u.EfficiencyScore < 0 || u.EfficiencyScore > 100 {
			t.Errorf("Efficiency score %v for %s out of [0,100]", u.EfficiencyScore, u.UserID)
		}
	}
	if users[0].UserID != "good" {
		t.Errorf("Expected user with all completions first, got %s", users[0].UserID)
	}
}

func TestUserStats_MostUsedModule(t *testing.T) {
	day := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(day, "u1", model.ModuleCRM, "a", model.ActionView, 0),
		ev(day.Add(time.Minute), "u1", model.ModuleInventory, "b", model.ActionView, 0),
		ev(day.Add(2*time.Minute), "u1", model.ModuleInventory, "c", model.ActionView, 0),
	}

	users := testAggregator().UserStats(events, Window{})
	if users[0].MostUsedModule != model.ModuleInventory {
		t.Errorf("Expected INVENTORY, got %s", users[0].MostUsedModule)
	}
	if len(users[0].ModulesUsed) != 2 {
		t.Errorf("Expected 2 modules used, got %d", len(users[0].ModulesUsed))
	}
}

func TestWindow_Filter(t *testing.T) {
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	events := []model.Event{
		ev(day.Add(-time.Hour), "u1", model.ModulePOS, "before", model.ActionView, 0),
		ev(day, "u1", model.ModulePOS, "on-start", model.ActionView, 0),
		ev(day.Add(time.Hour), "u1", model.ModulePOS, "inside", model.ActionView, 0),
		ev(day.AddDate(0, 0, 1), "u1", model.ModulePOS, "on-end", model.ActionView, 0),
	}

	w := Window{Start: day, End: day.AddDate(0, 0, 1)}
	got := w.Filter(events)
	if len(got) != 2 {
		t.Fatalf("Expected 2 events in [start,end), got %d", len(got))
	}
	if got[0].Action != "on-start" || got[1].Action != "inside" {
		t.Errorf("Window filter kept the wrong events: %v", got)
	}
}

func TestWindow_Mirror(t *testing.T) {
	start := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	m := Window{Start: start, End: end}.Mirror()

	if !m.End.Equal(start) {
		t.Errorf("Mirror end should equal window start, got %v", m.End)
	}
	if !m.Start.Equal(start.AddDate(0, 0, -7)) {
		t.Errorf("Mirror start wrong: %v", m.Start)
	}
}
