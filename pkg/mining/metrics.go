package mining

import (
	"math"
	"sort"

	"github.com/opspulse/opspulse/internal/model"
)

// BottleneckThresholdMinutes is the minimum mean inter-step wait for a step
// to count as a bottleneck.
const BottleneckThresholdMinutes = 5.0

// maxBottlenecks caps the bottleneck list per process.
const maxBottlenecks = 5

// BottleneckStep is a step whose mean wait since the previous step exceeds
// the threshold.
type BottleneckStep struct {
	Step            string  `json:"step"`
	AverageWaitTime float64 `json:"averageWaitTime"`
	Frequency       int     `json:"frequency"`
}

// ProcessMetrics summarizes the reconstructed instances of one process.
type ProcessMetrics struct {
	ProcessName      string           `json:"processName"`
	AverageCycleTime float64          `json:"averageCycleTime"`
	AverageSteps     float64          `json:"averageSteps"`
	CompletionRate   float64          `json:"completionRate"`
	ErrorRate        float64          `json:"errorRate"`
	ReworkRate       float64          `json:"reworkRate"`
	Bottlenecks      []BottleneckStep `json:"bottlenecks"`
}

// Calculator derives process metrics from reconstructed task instances.
type Calculator struct{}

// NewCalculator creates a metrics calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate aggregates the given task instances of one process. The second
// return value is false when there are no instances; the caller omits the
// process from its output in that case.
func (c *Calculator) Calculate(processName string, instances []TaskInstance) (ProcessMetrics, bool) {
	if len(instances) == 0 {
		return ProcessMetrics{}, false
	}

	var totalCycle, totalSteps float64
	var completed, errored, reworked int
	waitTotals := make(map[string]float64)
	waitCounts := make(map[string]int)

	for _, inst := range instances {
		events := inst.Events
		start := events[0].Timestamp

		// The cycle ends at the first completing event, or at the last
		// event when the instance never completed.
		end := events[len(events)-1].Timestamp
		done := false
		for _, e := range events {
			if e.ActionType == model.ActionComplete {
				end = e.Timestamp
				done = true
				break
			}
		}

		totalCycle += end.Sub(start).Minutes()
		totalSteps += float64(len(events))
		if done {
			completed++
		}

		actionCounts := make(map[string]int)
		hasError := false
		for _, e := range events {
			actionCounts[e.Action]++
			if e.ActionType == model.ActionError {
				hasError = true
			}
		}
		if hasError {
			errored++
		}
		for _, n := range actionCounts {
			if n > 1 {
				reworked++
				break
			}
		}

		// Inter-arrival gaps, keyed by the action of the later event.
		for i := 1; i < len(events); i++ {
			gap := events[i].Timestamp.Sub(events[i-1].Timestamp).Minutes()
			waitTotals[events[i].Action] += gap
			waitCounts[events[i].Action]++
		}
	}

	n := float64(len(instances))
	m := ProcessMetrics{
		ProcessName:      processName,
		AverageCycleTime: round2(totalCycle / n),
		AverageSteps:     round2(totalSteps / n),
		CompletionRate:   round2(float64(completed) / n * 100),
		ErrorRate:        round2(float64(errored) / n * 100),
		ReworkRate:       round2(float64(reworked) / n * 100),
		Bottlenecks:      bottlenecks(waitTotals, waitCounts),
	}
	return m, true
}

func bottlenecks(totals map[string]float64, counts map[string]int) []BottleneckStep {
	out := []BottleneckStep{}
	for step, total := range totals {
		avg := total / float64(counts[step])
		if avg > BottleneckThresholdMinutes {
			out = append(out, BottleneckStep{
				Step:            step,
				AverageWaitTime: round2(avg),
				Frequency:       counts[step],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageWaitTime != out[j].AverageWaitTime {
			return out[i].AverageWaitTime > out[j].AverageWaitTime
		}
		return out[i].Step < out[j].Step
	})
	if len(out) > maxBottlenecks {
		out = out[:maxBottlenecks]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
