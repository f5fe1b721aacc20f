package trend

import (
	"testing"
	"time"

	"github.com/opspulse/opspulse/internal/model"
	"github.com/opspulse/opspulse/pkg/stats"
)

func ev(ts time.Time, user string, typ model.ActionType) model.Event {
	return model.Event{
		ID:         "e-" + ts.Format("20060102150405") + user,
		Timestamp:  ts,
		UserID:     user,
		Module:     model.ModulePOS,
		Action:     "create_sale",
		ActionType: typ,
	}
}

func TestCalculate_Symmetry(t *testing.T) {
	// Identical activity in window and mirror: all deltas must be 0.
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	window := stats.Window{Start: end.AddDate(0, 0, -7), End: end}

	events := []model.Event{}
	for _, base := range []time.Time{window.Start, window.Start.AddDate(0, 0, -7)} {
		events = append(events,
			ev(base.Add(time.Hour), "u1", model.ActionCreate),
			ev(base.Add(2*time.Hour), "u1", model.ActionComplete),
			ev(base.Add(3*time.Hour), "u2", model.ActionError),
		)
	}

	trends := NewCalculator(stats.NewAggregator()).Calculate(events, window)
	if trends.UsageGrowth != 0 {
		t.Errorf("Expected usage growth 0, got %v", trends.UsageGrowth)
	}
	if trends.EfficiencyChange != 0 {
		t.Errorf("Expected efficiency change 0, got %v", trends.EfficiencyChange)
	}
	if trends.ErrorRateChange != 0 {
		t.Errorf("Expected error rate change 0, got %v", trends.ErrorRateChange)
	}
}

func TestCalculate_EmptyMirror(t *testing.T) {
	// No activity in the mirror window: every delta is 0 by definition,
	// never a division error.
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	window := stats.Window{Start: end.AddDate(0, 0, -7), End: end}

	events := []model.Event{
		ev(window.Start.Add(time.Hour), "u1", model.ActionCreate),
		ev(window.Start.Add(2*time.Hour), "u1", model.ActionComplete),
	}

	trends := NewCalculator(stats.NewAggregator()).Calculate(events, window)
	if trends.UsageGrowth != 0 || trends.EfficiencyChange != 0 || trends.ErrorRateChange != 0 {
		t.Errorf("Expected all-zero trends with empty mirror, got %+v", trends)
	}
}

func TestCalculate_Growth(t *testing.T) {
	end := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	window := stats.Window{Start: end.AddDate(0, 0, -7), End: end}
	mirrorStart := window.Start.AddDate(0, 0, -7)

	// 4 actions now vs 2 before: +100% usage growth.
	events := []model.Event{
		ev(window.Start.Add(time.Hour), "u1", model.ActionCreate),
		ev(window.Start.Add(2*time.Hour), "u1", model.ActionCreate),
		ev(window.Start.Add(3*time.Hour), "u1", model.ActionCreate),
		ev(window.Start.Add(4*time.Hour), "u1", model.ActionCreate),
		ev(mirrorStart.Add(time.Hour), "u1", model.ActionCreate),
		ev(mirrorStart.Add(2*time.Hour), "u1", model.ActionCreate),
	}

	trends := NewCalculator(stats.NewAggregator()).Calculate(events, window)
	if trends.UsageGrowth != 100 {
		t.Errorf("Expected usage growth 100, got %v", trends.UsageGrowth)
	}
}

func TestPctChange_Rounding(t *testing.T) {
	if got := pctChange(1, 3); got != -66.67 {
		t.Errorf("Expected -66.67, got %v", got)
	}
	if got := pctChange(5, 0); got != 0 {
		t.Errorf("Expected 0 for zero base, got %v", got)
	}
}
