// Package trend computes period-over-period deltas by re-aggregating the
// event log over the mirror window preceding the requested one.
package trend

import (
	"math"

	"github.com/opspulse/opspulse/internal/model"
	"github.com/opspulse/opspulse/pkg/stats"
)

// Trends holds the three dashboard-level percentage deltas, each comparing
// the requested window against its mirror window.
type Trends struct {
	UsageGrowth      float64 `json:"usageGrowth"`
	EfficiencyChange float64 `json:"efficiencyChange"`
	ErrorRateChange  float64 `json:"errorRateChange"`
}

// Calculator derives Trends from the full event snapshot.
type Calculator struct {
	aggregator *stats.Aggregator
}

// NewCalculator creates a trend calculator sharing the given aggregator.
func NewCalculator(aggregator *stats.Aggregator) *Calculator {
	return &Calculator{aggregator: aggregator}
}

// Calculate compares the requested window against the mirror window of
// identical duration immediately preceding it. Each delta is 0 when its
// mirror-side denominator is 0. Results are rounded to 2 decimals.
func (c *Calculator) Calculate(events []model.Event, window stats.Window) Trends {
	mirror := window.Mirror()

	curModules := c.aggregator.ModuleStats(events, window)
	prevModules := c.aggregator.ModuleStats(events, mirror)
	curUsers := c.aggregator.UserStats(events, window)
	prevUsers := c.aggregator.UserStats(events, mirror)

	return Trends{
		UsageGrowth:      pctChange(totalActions(curModules), totalActions(prevModules)),
		EfficiencyChange: pctChange(meanEfficiency(curUsers), meanEfficiency(prevUsers)),
		ErrorRateChange:  pctChange(aggregateErrorRate(curModules), aggregateErrorRate(prevModules)),
	}
}

func totalActions(modules []stats.ModuleUsageStats) float64 {
	var total int
	for _, m := range modules {
		total += m.ActionsCount
	}
	return float64(total)
}

func meanEfficiency(users []stats.UserActivityStats) float64 {
	if len(users) == 0 {
		return 0
	}
	var sum float64
	for _, u := range users {
		sum += u.EfficiencyScore
	}
	return sum / float64(len(users))
}

// aggregateErrorRate is sum(errors)/sum(actions)*100 across all modules.
func aggregateErrorRate(modules []stats.ModuleUsageStats) float64 {
	var errors, actions int
	for _, m := range modules {
		errors += m.ErrorCount
		actions += m.ActionsCount
	}
	if actions == 0 {
		return 0
	}
	return float64(errors) / float64(actions) * 100
}

// pctChange is (current-previous)/previous*100, 0 when previous is 0.
func pctChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return math.Round((current-previous)/previous*100*100) / 100
}
