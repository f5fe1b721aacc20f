// Package stats aggregates the raw event log into per-module usage and
// per-user activity statistics.
package stats

import (
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

// Trend describes the direction of module usage over the last two weeks.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Window is a half-open time interval [Start, End). A zero Start or End
// leaves that side unbounded; the zero Window matches every event.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// Duration returns End-Start, or 0 if either side is unbounded.
func (w Window) Duration() time.Duration {
	if w.Start.IsZero() || w.End.IsZero() {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Mirror returns the window of identical duration immediately preceding w.
func (w Window) Mirror() Window {
	d := w.Duration()
	return Window{Start: w.Start.Add(-d), End: w.Start}
}

// Filter returns the events whose timestamps fall inside the window.
func (w Window) Filter(events []model.Event) []model.Event {
	if w.Start.IsZero() && w.End.IsZero() {
		return events
	}
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if w.Contains(e.Timestamp) {
			out = append(out, e)
		}
	}
	return out
}

// ModuleUsageStats summarizes usage of one feature area.
type ModuleUsageStats struct {
	Module            model.Module `json:"module"`
	TotalSessions     int          `json:"totalSessions"`
	TotalTimeMinutes  float64      `json:"totalTimeMinutes"`
	AvgSessionMinutes float64      `json:"avgSessionMinutes"`
	UniqueUsers       int          `json:"uniqueUsers"`
	ActionsCount      int          `json:"actionsCount"`
	ErrorCount        int          `json:"errorCount"`
	LastUsed          time.Time    `json:"lastUsed"`
	UsageTrend        Trend        `json:"usageTrend"`
}

// UserActivityStats summarizes one user's activity.
type UserActivityStats struct {
	UserID           string         `json:"userId"`
	UserName         string         `json:"userName"`
	UserRole         string         `json:"userRole"`
	SessionCount     int            `json:"sessionCount"`
	TotalTimeMinutes float64        `json:"totalTimeMinutes"`
	ModulesUsed      []model.Module `json:"modulesUsed"`
	MostUsedModule   model.Module   `json:"mostUsedModule"`
	CompletedTasks   int            `json:"completedTasks"`
	ErrorCount       int            `json:"errorCount"`
	EfficiencyScore  float64        `json:"efficiencyScore"`
	LastActive       time.Time      `json:"lastActive"`
}
