package stats

import (
	"math"
	"sort"
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

// sessionKey identifies one session: a user active on a calendar day.
type sessionKey struct {
	userID string
	day    time.Time
}

// Aggregator computes module and user statistics from an event snapshot.
// Every call is a pure fold over its input; no state survives between calls.
type Aggregator struct {
	// now anchors the two 7-day trend windows. Overridable in tests.
	now func() time.Time
}

// NewAggregator creates an aggregator anchored to the wall clock.
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// ModuleStats computes per-module usage statistics for the events inside
// the window, sorted descending by action count.
func (a *Aggregator) ModuleStats(events []model.Event, window Window) []ModuleUsageStats {
	filtered := window.Filter(events)

	type acc struct {
		sessions map[sessionKey]struct{}
		users    map[string]struct{}
		total    float64
		actions  int
		errors   int
		lastUsed time.Time
		all      []model.Event
	}
	byModule := make(map[model.Module]*acc)

	for _, e := range filtered {
		m := byModule[e.Module]
		if m == nil {
			m = &acc{
				sessions: make(map[sessionKey]struct{}),
				users:    make(map[string]struct{}),
			}
			byModule[e.Module] = m
		}
		m.sessions[sessionKey{e.UserID, e.Day()}] = struct{}{}
		m.users[e.UserID] = struct{}{}
		m.total += e.DurationMinutes()
		m.actions++
		if e.ActionType == model.ActionError {
			m.errors++
		}
		if e.Timestamp.After(m.lastUsed) {
			m.lastUsed = e.Timestamp
		}
	}

	// Trends read the full snapshot, not the requested window: a week-long
	// window would otherwise filter away the prior trend week entirely.
	for _, e := range events {
		if m := byModule[e.Module]; m != nil {
			m.all = append(m.all, e)
		}
	}

	out := make([]ModuleUsageStats, 0, len(byModule))
	for mod, m := range byModule {
		avg := 0.0
		if len(m.sessions) > 0 {
			avg = m.total / float64(len(m.sessions))
		}
		out = append(out, ModuleUsageStats{
			Module:            mod,
			TotalSessions:     len(m.sessions),
			TotalTimeMinutes:  round2(m.total),
			AvgSessionMinutes: round2(avg),
			UniqueUsers:       len(m.users),
			ActionsCount:      m.actions,
			ErrorCount:        m.errors,
			LastUsed:          m.lastUsed,
			UsageTrend:        a.usageTrend(m.all),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ActionsCount > out[j].ActionsCount
	})
	return out
}

// usageTrend compares the trailing 7 days against the 7 days before that.
// Both weeks are anchored to now and drawn from the full snapshot, never
// from the requested window.
func (a *Aggregator) usageTrend(events []model.Event) Trend {
	now := a.now()
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	var thisWeek, lastWeek int
	for _, e := range events {
		switch {
		case !e.Timestamp.Before(weekAgo) && e.Timestamp.Before(now):
			thisWeek++
		case !e.Timestamp.Before(twoWeeksAgo) && e.Timestamp.Before(weekAgo):
			lastWeek++
		}
	}

	if lastWeek == 0 {
		return TrendStable
	}
	change := float64(thisWeek-lastWeek) / float64(lastWeek) * 100
	switch {
	case change > 10:
		return TrendIncreasing
	case change < -10:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// UserStats computes per-user activity statistics for the events inside
// the window, sorted descending by efficiency score.
func (a *Aggregator) UserStats(events []model.Event, window Window) []UserActivityStats {
	filtered := window.Filter(events)

	type acc struct {
		role       string
		sessions   map[time.Time]struct{}
		total      float64
		perModule  map[model.Module]int
		actions    int
		completed  int
		errors     int
		lastActive time.Time
	}
	byUser := make(map[string]*acc)

	for _, e := range filtered {
		u := byUser[e.UserID]
		if u == nil {
			u = &acc{
				sessions:  make(map[time.Time]struct{}),
				perModule: make(map[model.Module]int),
			}
			byUser[e.UserID] = u
		}
		if u.role == "" {
			u.role = e.UserRole
		}
		u.sessions[e.Day()] = struct{}{}
		u.total += e.DurationMinutes()
		u.perModule[e.Module]++
		u.actions++
		switch e.ActionType {
		case model.ActionComplete:
			u.completed++
		case model.ActionError:
			u.errors++
		}
		if e.Timestamp.After(u.lastActive) {
			u.lastActive = e.Timestamp
		}
	}

	out := make([]UserActivityStats, 0, len(byUser))
	for id, u := range byUser {
		modules := make([]model.Module, 0, len(u.perModule))
		for m := range u.perModule {
			modules = append(modules, m)
		}
		sort.Slice(modules, func(i, j int) bool { return modules[i] < modules[j] })

		out = append(out, UserActivityStats{
			UserID:           id,
			UserName:         id,
			UserRole:         u.role,
			SessionCount:     len(u.sessions),
			TotalTimeMinutes: round2(u.total),
			ModulesUsed:      modules,
			MostUsedModule:   mostUsed(u.perModule),
			CompletedTasks:   u.completed,
			ErrorCount:       u.errors,
			EfficiencyScore:  efficiencyScore(u.actions, u.completed, u.errors),
			LastActive:       u.lastActive,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EfficiencyScore > out[j].EfficiencyScore
	})
	return out
}

// efficiencyScore is a 0-100 composite of completion rate and inverse
// error rate: completionRate*0.6 + (100-errorRate)*0.4, clamped.
func efficiencyScore(actions, completed, errors int) float64 {
	if actions == 0 {
		return 0
	}
	completionRate := float64(completed) / float64(actions) * 100
	errorRate := float64(errors) / float64(actions) * 100
	score := completionRate*0.6 + (100-errorRate)*0.4
	return round2(math.Min(100, math.Max(0, score)))
}

// mostUsed returns the module with the highest event count, DASHBOARD if
// the user somehow has none.
func mostUsed(perModule map[model.Module]int) model.Module {
	best := model.ModuleDashboard
	bestCount := 0
	// Deterministic pick on ties: lowest module name wins.
	modules := make([]model.Module, 0, len(perModule))
	for m := range perModule {
		modules = append(modules, m)
	}
	sort.Slice(modules, func(i, j int) bool { return modules[i] < modules[j] })
	for _, m := range modules {
		if perModule[m] > bestCount {
			best = m
			bestCount = perModule[m]
		}
	}
	return best
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
