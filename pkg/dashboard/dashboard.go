// Package dashboard orchestrates the analytics engine: it loads one event
// snapshot, runs the aggregators and the process miner, and assembles the
// Dashboard aggregate for a requested period.
package dashboard

import (
	"fmt"
	"time"

	"github.com/opspulse/opspulse/pkg/mining"
	"github.com/opspulse/opspulse/pkg/recommend"
	"github.com/opspulse/opspulse/pkg/stats"
	"github.com/opspulse/opspulse/pkg/trend"
)

// Period selects the reporting window ending now.
type Period string

const (
	PeriodDay     Period = "day"
	PeriodWeek    Period = "week"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

// Days returns the fixed window length of the period.
func (p Period) Days() (int, error) {
	switch p {
	case PeriodDay:
		return 1, nil
	case PeriodWeek:
		return 7, nil
	case PeriodMonth:
		return 30, nil
	case PeriodQuarter:
		return 90, nil
	case PeriodYear:
		return 365, nil
	default:
		return 0, fmt.Errorf("unknown period %q", string(p))
	}
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, err := p.Days(); err != nil {
		return "", err
	}
	return p, nil
}

// Dashboard is the aggregate the presentation layer renders. Every field is
// computed fresh from one store snapshot; nothing here is persisted.
type Dashboard struct {
	Period           Period                     `json:"period"`
	StartDate        time.Time                  `json:"startDate"`
	EndDate          time.Time                  `json:"endDate"`
	TotalEvents      int                        `json:"totalEvents"`
	TotalUsers       int                        `json:"totalUsers"`
	TotalTimeMinutes float64                    `json:"totalTimeMinutes"`
	ModuleStats      []stats.ModuleUsageStats   `json:"moduleStats"`
	UserStats        []stats.UserActivityStats  `json:"userStats"`
	ProcessMetrics   []mining.ProcessMetrics    `json:"processMetrics"`
	Recommendations  []recommend.Recommendation `json:"recommendations"`
	Trends           trend.Trends               `json:"trends"`
}
