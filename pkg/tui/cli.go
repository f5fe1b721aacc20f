// Package tui renders dashboards in the terminal.
// Simple, streaming, no complex TUI - just clean sections and output.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/opspulse/opspulse/pkg/dashboard"
	"github.com/opspulse/opspulse/pkg/recommend"
	"github.com/opspulse/opspulse/pkg/stats"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF0000")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
)

// PrintHeader prints the application banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  OPSPULSE") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  Operational intelligence from the user-action log"))
	fmt.Println()
}

// RenderDashboard prints a full dashboard to stdout.
func RenderDashboard(d *dashboard.Dashboard) {
	fmt.Println(accentStyle.Render(fmt.Sprintf("▸ DASHBOARD — %s", d.Period)))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("  %s → %s",
		d.StartDate.Format("2006-01-02"), d.EndDate.Format("2006-01-02"))))
	fmt.Println()

	if d.TotalEvents == 0 {
		fmt.Println(mutedStyle.Render("  No events in this period."))
		fmt.Println()
		return
	}

	fmt.Printf("  %s %s   %s %s   %s %s\n",
		mutedStyle.Render("Events:"), titleStyle.Render(fmt.Sprintf("%d", d.TotalEvents)),
		mutedStyle.Render("Users:"), titleStyle.Render(fmt.Sprintf("%d", d.TotalUsers)),
		mutedStyle.Render("Time:"), titleStyle.Render(formatMinutes(d.TotalTimeMinutes)))
	fmt.Printf("  %s %s   %s %s   %s %s\n",
		mutedStyle.Render("Usage:"), renderDelta(d.Trends.UsageGrowth),
		mutedStyle.Render("Efficiency:"), renderDelta(d.Trends.EfficiencyChange),
		mutedStyle.Render("Errors:"), renderDelta(d.Trends.ErrorRateChange))
	fmt.Println()

	renderModules(d.ModuleStats)
	renderProcesses(d)
	renderRecommendations(d.Recommendations)
}

func renderModules(modules []stats.ModuleUsageStats) {
	if len(modules) == 0 {
		return
	}
	fmt.Println(accentStyle.Render("▸ MODULES"))
	for _, m := range modules {
		trend := mutedStyle.Render(string(m.UsageTrend))
		switch m.UsageTrend {
		case stats.TrendIncreasing:
			trend = successStyle.Render("↑ " + string(m.UsageTrend))
		case stats.TrendDecreasing:
			trend = accentStyle.Render("↓ " + string(m.UsageTrend))
		}
		fmt.Printf("  %-12s %s actions, %s sessions, %s errors  %s\n",
			m.Module,
			titleStyle.Render(fmt.Sprintf("%4d", m.ActionsCount)),
			titleStyle.Render(fmt.Sprintf("%3d", m.TotalSessions)),
			titleStyle.Render(fmt.Sprintf("%3d", m.ErrorCount)),
			trend)
	}
	fmt.Println()
}

func renderProcesses(d *dashboard.Dashboard) {
	if len(d.ProcessMetrics) == 0 {
		return
	}
	fmt.Println(accentStyle.Render("▸ PROCESSES"))
	for _, p := range d.ProcessMetrics {
		fmt.Printf("  %s\n", titleStyle.Render(p.ProcessName))
		fmt.Printf("    %s %s   %s %.1f   %s %.0f%%   %s %.0f%%\n",
			mutedStyle.Render("cycle:"), formatMinutes(p.AverageCycleTime),
			mutedStyle.Render("steps:"), p.AverageSteps,
			mutedStyle.Render("done:"), p.CompletionRate,
			mutedStyle.Render("rework:"), p.ReworkRate)
		for _, b := range p.Bottlenecks {
			fmt.Printf("    %s %s waits %s on average (%dx)\n",
				accentStyle.Render("⚠"), b.Step, formatMinutes(b.AverageWaitTime), b.Frequency)
		}
	}
	fmt.Println()
}

func renderRecommendations(recs []recommend.Recommendation) {
	if len(recs) == 0 {
		return
	}
	fmt.Println(accentStyle.Render("▸ RECOMMENDATIONS"))
	for i, r := range recs {
		prio := mutedStyle.Render(string(r.Priority))
		if r.Priority == recommend.PriorityHigh {
			prio = accentStyle.Render(string(r.Priority))
		}
		fmt.Printf("  %d. [%s] %s %s\n", i+1, prio, titleStyle.Render(r.Title),
			mutedStyle.Render(fmt.Sprintf("(roi %.0f)", r.ROIScore)))
	}
	fmt.Println()
}

// PrintSuccess prints a completion line.
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render("  ✓ " + msg))
}

// PrintError prints an error line.
func PrintError(msg string) {
	fmt.Println(accentStyle.Render("  ✗ " + msg))
}

// NewProgressBar creates a bar for n units of work.
func NewProgressBar(n int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(n,
		progressbar.OptionSetDescription(mutedStyle.Render("  "+description)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer: "█", SaucerPadding: "░", BarStart: " ", BarEnd: " ",
		}),
	)
}

func renderDelta(pct float64) string {
	s := fmt.Sprintf("%+.1f%%", pct)
	switch {
	case pct > 0:
		return successStyle.Render(s)
	case pct < 0:
		return accentStyle.Render(s)
	default:
		return mutedStyle.Render(s)
	}
}

func formatMinutes(min float64) string {
	d := time.Duration(min * float64(time.Minute))
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
