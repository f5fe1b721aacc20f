package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/opspulse/opspulse/pkg/dashboard"
)

// WriteWorkbook writes one dashboard to an XLSX workbook with sheets for
// the overview, modules, users, processes and recommendations.
func WriteWorkbook(path string, d *dashboard.Dashboard) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", "Overview")
	writeOverview(f, d)

	if err := writeModules(f, d); err != nil {
		return err
	}
	if err := writeUsers(f, d); err != nil {
		return err
	}
	if err := writeProcesses(f, d); err != nil {
		return err
	}
	if err := writeRecommendations(f, d); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeOverview(f *excelize.File, d *dashboard.Dashboard) {
	rows := [][]interface{}{
		{"Period", string(d.Period)},
		{"Window start", d.StartDate.Format("2006-01-02 15:04")},
		{"Window end", d.EndDate.Format("2006-01-02 15:04")},
		{"Total events", d.TotalEvents},
		{"Total users", d.TotalUsers},
		{"Total time (min)", d.TotalTimeMinutes},
		{"Usage growth (%)", d.Trends.UsageGrowth},
		{"Efficiency change (%)", d.Trends.EfficiencyChange},
		{"Error rate change (%)", d.Trends.ErrorRateChange},
	}
	writeRows(f, "Overview", rows)
}

func writeModules(f *excelize.File, d *dashboard.Dashboard) error {
	if _, err := f.NewSheet("Modules"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Module", "Sessions", "Time (min)", "Avg session (min)", "Users", "Actions", "Errors", "Trend"},
	}
	for _, m := range d.ModuleStats {
		rows = append(rows, []interface{}{
			string(m.Module), m.TotalSessions, m.TotalTimeMinutes, m.AvgSessionMinutes,
			m.UniqueUsers, m.ActionsCount, m.ErrorCount, string(m.UsageTrend),
		})
	}
	writeRows(f, "Modules", rows)
	return nil
}

func writeUsers(f *excelize.File, d *dashboard.Dashboard) error {
	if _, err := f.NewSheet("Users"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"User", "Role", "Sessions", "Time (min)", "Most used", "Completed", "Errors", "Efficiency"},
	}
	for _, u := range d.UserStats {
		rows = append(rows, []interface{}{
			u.UserID, u.UserRole, u.SessionCount, u.TotalTimeMinutes,
			string(u.MostUsedModule), u.CompletedTasks, u.ErrorCount, u.EfficiencyScore,
		})
	}
	writeRows(f, "Users", rows)
	return nil
}

func writeProcesses(f *excelize.File, d *dashboard.Dashboard) error {
	if _, err := f.NewSheet("Processes"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Process", "Avg cycle (min)", "Avg steps", "Completion (%)", "Errors (%)", "Rework (%)", "Worst bottleneck", "Wait (min)"},
	}
	for _, p := range d.ProcessMetrics {
		worstStep, worstWait := "", 0.0
		if len(p.Bottlenecks) > 0 {
			worstStep = p.Bottlenecks[0].Step
			worstWait = p.Bottlenecks[0].AverageWaitTime
		}
		rows = append(rows, []interface{}{
			p.ProcessName, p.AverageCycleTime, p.AverageSteps,
			p.CompletionRate, p.ErrorRate, p.ReworkRate, worstStep, worstWait,
		})
	}
	writeRows(f, "Processes", rows)
	return nil
}

func writeRecommendations(f *excelize.File, d *dashboard.Dashboard) error {
	if _, err := f.NewSheet("Recommendations"); err != nil {
		return err
	}
	rows := [][]interface{}{
		{"Priority", "Category", "Title", "Description", "Effort", "ROI", "Current", "Target", "Unit"},
	}
	for _, r := range d.Recommendations {
		rows = append(rows, []interface{}{
			string(r.Priority), string(r.Category), r.Title, r.Description,
			string(r.Effort), r.ROIScore, r.Metric.Current, r.Metric.Target, r.Metric.Unit,
		})
	}
	writeRows(f, "Recommendations", rows)
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) {
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			f.SetCellValue(sheet, cell, v)
		}
	}
}
