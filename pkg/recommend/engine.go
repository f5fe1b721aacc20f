package recommend

import (
	"fmt"
	"math"
	"sort"

	"github.com/opspulse/opspulse/pkg/mining"
	"github.com/opspulse/opspulse/pkg/stats"
)

// Rule thresholds and fixed ROI constants. ROI scores are assigned per
// rule, not computed.
const (
	lowUsageSessionLimit   = 5
	highErrorRateLimit     = 0.10
	highReworkRateLimit    = 15.0
	lowEfficiencyLimit     = 60.0
	automationCycleMinutes = 60.0
	automationStepLimit    = 5.0

	roiHighErrorRate = 85.0
	roiBottleneck    = 80.0
	roiRework        = 65.0
	roiLowEfficiency = 60.0
	roiLowUsage      = 55.0
	roiAutomation    = 45.0

	maxRecommendations = 10
)

// Engine evaluates the fixed rule set. Every rule reads only the inputs;
// no rule depends on another rule's output.
type Engine struct{}

// NewEngine creates a recommendation engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Recommend runs all rules and returns the ranked list: priority descending,
// then ROI descending, truncated to 10 entries.
func (e *Engine) Recommend(modules []stats.ModuleUsageStats, users []stats.UserActivityStats, processes []mining.ProcessMetrics) []Recommendation {
	recs := []Recommendation{}
	recs = append(recs, e.lowUsageModules(modules)...)
	recs = append(recs, e.highErrorModules(modules)...)
	recs = append(recs, e.processBottlenecks(processes)...)
	recs = append(recs, e.highRework(processes)...)
	recs = append(recs, e.lowEfficiencyCohort(users)...)
	recs = append(recs, e.automationCandidates(processes)...)

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Priority.rank() != recs[j].Priority.rank() {
			return recs[i].Priority.rank() < recs[j].Priority.rank()
		}
		return recs[i].ROIScore > recs[j].ROIScore
	})
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// Rule 1: a module with few sessions and a decreasing trend is either
// unknown to users or not worth their time.
func (e *Engine) lowUsageModules(modules []stats.ModuleUsageStats) []Recommendation {
	recs := []Recommendation{}
	for _, m := range modules {
		if m.TotalSessions >= lowUsageSessionLimit || m.UsageTrend != stats.TrendDecreasing {
			continue
		}
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("low-usage:%s", m.Module),
			Priority: PriorityMedium,
			Category: CategoryFeature,
			Title:    fmt.Sprintf("Increase adoption of %s", m.Module),
			Description: fmt.Sprintf("%s saw only %d sessions and usage is decreasing. "+
				"Users may not know the feature exists or find it too cumbersome.", m.Module, m.TotalSessions),
			Impact:   "Higher feature adoption spreads workload across the application",
			Effort:   EffortLow,
			ROIScore: roiLowUsage,
			Metric:   Metric{Current: float64(m.TotalSessions), Target: float64(lowUsageSessionLimit * 2), Unit: "sessions"},
			Actions: []string{
				fmt.Sprintf("Survey users on why they avoid %s", m.Module),
				"Add an onboarding hint on the dashboard",
				"Review the entry points to the feature",
			},
		})
	}
	return recs
}

// Rule 2: more than 10% of a module's actions ending in error points at a
// defect or a confusing flow.
func (e *Engine) highErrorModules(modules []stats.ModuleUsageStats) []Recommendation {
	recs := []Recommendation{}
	for _, m := range modules {
		if m.ActionsCount == 0 {
			continue
		}
		rate := float64(m.ErrorCount) / float64(m.ActionsCount)
		if rate <= highErrorRateLimit {
			continue
		}
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("high-errors:%s", m.Module),
			Priority: PriorityHigh,
			Category: CategoryQuality,
			Title:    fmt.Sprintf("Reduce errors in %s", m.Module),
			Description: fmt.Sprintf("%.1f%% of actions in %s end in an error (%d of %d).",
				rate*100, m.Module, m.ErrorCount, m.ActionsCount),
			Impact:   "Fewer errors means less rework and higher trust in the data",
			Effort:   EffortMedium,
			ROIScore: roiHighErrorRate,
			Metric:   Metric{Current: round2(rate * 100), Target: highErrorRateLimit * 100, Unit: "%"},
			Actions: []string{
				fmt.Sprintf("Inspect the most frequent error actions in %s", m.Module),
				"Add inline validation before submission",
				"Log error context to pinpoint the failing step",
			},
		})
	}
	return recs
}

// Rule 3: any process with a bottleneck step gets a recommendation
// referencing its single worst step.
func (e *Engine) processBottlenecks(processes []mining.ProcessMetrics) []Recommendation {
	recs := []Recommendation{}
	for _, p := range processes {
		if len(p.Bottlenecks) == 0 {
			continue
		}
		worst := p.Bottlenecks[0]
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("bottleneck:%s", p.ProcessName),
			Priority: PriorityHigh,
			Category: CategoryProcess,
			Title:    fmt.Sprintf("Remove bottleneck in %s", p.ProcessName),
			Description: fmt.Sprintf("Step %q waits %.1f minutes on average before it happens "+
				"(seen %d times).", worst.Step, worst.AverageWaitTime, worst.Frequency),
			Impact:   "Shorter waits between steps cut the overall cycle time directly",
			Effort:   EffortMedium,
			ROIScore: roiBottleneck,
			Metric:   Metric{Current: worst.AverageWaitTime, Target: mining.BottleneckThresholdMinutes, Unit: "min"},
			Actions: []string{
				fmt.Sprintf("Find out what blocks %q", worst.Step),
				"Notify the responsible user when the previous step finishes",
				"Pre-fill the step with data from the previous one",
			},
		})
	}
	return recs
}

// Rule 4: a high rework rate means steps are being redone.
func (e *Engine) highRework(processes []mining.ProcessMetrics) []Recommendation {
	recs := []Recommendation{}
	for _, p := range processes {
		if p.ReworkRate <= highReworkRateLimit {
			continue
		}
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("rework:%s", p.ProcessName),
			Priority: PriorityMedium,
			Category: CategoryQuality,
			Title:    fmt.Sprintf("Reduce rework in %s", p.ProcessName),
			Description: fmt.Sprintf("%.1f%% of %s executions repeat at least one step.",
				p.ReworkRate, p.ProcessName),
			Impact:   "Less rework frees time for new work and shortens cycle times",
			Effort:   EffortMedium,
			ROIScore: roiRework,
			Metric:   Metric{Current: p.ReworkRate, Target: highReworkRateLimit, Unit: "%"},
			Actions: []string{
				"Identify which step is most often redone",
				"Validate input earlier so the step succeeds the first time",
			},
		})
	}
	return recs
}

// Rule 5: users scoring below the efficiency floor get one aggregate
// recommendation covering the whole cohort, never one per user.
func (e *Engine) lowEfficiencyCohort(users []stats.UserActivityStats) []Recommendation {
	var cohort int
	var sum float64
	for _, u := range users {
		if u.EfficiencyScore < lowEfficiencyLimit {
			cohort++
			sum += u.EfficiencyScore
		}
	}
	if cohort == 0 {
		return nil
	}
	avg := round2(sum / float64(cohort))
	return []Recommendation{{
		ID:       "low-efficiency-cohort",
		Priority: PriorityMedium,
		Category: CategoryUsability,
		Title:    fmt.Sprintf("Coach %d users with low efficiency scores", cohort),
		Description: fmt.Sprintf("%d users score below %.0f (cohort average %.1f). "+
			"They complete few tasks or run into errors often.", cohort, lowEfficiencyLimit, avg),
		Impact:   "Raising the weakest scores lifts overall throughput the most",
		Effort:   EffortLow,
		ROIScore: roiLowEfficiency,
		Metric:   Metric{Current: avg, Target: lowEfficiencyLimit, Unit: "score"},
		Actions: []string{
			"Offer targeted training on the modules these users touch most",
			"Pair low scorers with high scorers for a week",
			"Check whether their workflows hit known error paths",
		},
	}}
}

// Rule 6: long, many-step processes are candidates for automation.
func (e *Engine) automationCandidates(processes []mining.ProcessMetrics) []Recommendation {
	recs := []Recommendation{}
	for _, p := range processes {
		if p.AverageCycleTime <= automationCycleMinutes || p.AverageSteps <= automationStepLimit {
			continue
		}
		recs = append(recs, Recommendation{
			ID:       fmt.Sprintf("automation:%s", p.ProcessName),
			Priority: PriorityLow,
			Category: CategoryAutomation,
			Title:    fmt.Sprintf("Automate parts of %s", p.ProcessName),
			Description: fmt.Sprintf("%s takes %.0f minutes over %.1f steps on average; "+
				"several steps look mechanical.", p.ProcessName, p.AverageCycleTime, p.AverageSteps),
			Impact:   "Automating mechanical steps cuts cycle time and error opportunities",
			Effort:   EffortHigh,
			ROIScore: roiAutomation,
			Metric:   Metric{Current: p.AverageCycleTime, Target: automationCycleMinutes, Unit: "min"},
			Actions: []string{
				"Map which steps never need human judgment",
				"Auto-generate follow-up documents from the previous step",
			},
		})
	}
	return recs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
