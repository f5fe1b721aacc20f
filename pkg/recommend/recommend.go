// Package recommend turns computed statistics and process metrics into a
// ranked list of improvement recommendations using a fixed rule set.
package recommend

// Priority ranks how urgent a recommendation is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// rank orders priorities for sorting, high first.
func (p Priority) rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Category classifies what kind of improvement is suggested.
type Category string

const (
	CategoryProcess    Category = "process"
	CategoryFeature    Category = "feature"
	CategoryUsability  Category = "usability"
	CategoryAutomation Category = "automation"
	CategoryQuality    Category = "quality"
)

// Effort estimates the implementation cost.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Metric is the current/target pair a recommendation aims to move.
type Metric struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Unit    string  `json:"unit"`
}

// Recommendation is one ranked improvement suggestion.
type Recommendation struct {
	ID          string   `json:"id"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Impact      string   `json:"impact"`
	Effort      Effort   `json:"effort"`
	ROIScore    float64  `json:"roiScore"`
	Metric      Metric   `json:"metric"`
	Actions     []string `json:"actions"`
}
