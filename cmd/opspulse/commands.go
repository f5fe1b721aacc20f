package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opspulse/opspulse/internal/demo"
	"github.com/opspulse/opspulse/pkg/dashboard"
	"github.com/opspulse/opspulse/pkg/export"
	"github.com/opspulse/opspulse/pkg/store"
	"github.com/opspulse/opspulse/pkg/tui"
)

var (
	dashboardPeriod string

	exportDir     string
	exportPeriods []string

	archiveOut      string
	archiveS3Bucket string
	archiveS3Region string

	seedDays int
	seedRand int64
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Render the dashboard for a period in the terminal",
	Long: `Build the operational dashboard from the event log and render it.

Examples:
  opspulse dashboard                 # trailing week
  opspulse dashboard --period month  # trailing 30 days`,
	RunE: runDashboard,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export dashboards to XLSX workbooks",
	Long: `Build one XLSX workbook per period. Periods are built concurrently;
each gets its own snapshot of the event log.

Examples:
  opspulse export
  opspulse export --periods week,month,quarter --out ./reports`,
	RunE: runExport,
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Archive the event log to a Parquet file",
	Long: `Snapshot the full event log to Parquet for long-term storage or
analysis in external tools. Optionally uploads the file to S3.

Examples:
  opspulse archive --out events.parquet
  opspulse archive --out events.parquet --s3-bucket audit-logs --s3-region eu-west-1`,
	RunE: runArchive,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the store with deterministic demo events",
	RunE:  runSeed,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Wipe the event log",
	RunE:  runClear,
}

func init() {
	dashboardCmd.Flags().StringVarP(&dashboardPeriod, "period", "p", "week",
		"Reporting period: day, week, month, quarter, year")

	exportCmd.Flags().StringVar(&exportDir, "out", ".", "Output directory")
	exportCmd.Flags().StringSliceVar(&exportPeriods, "periods",
		[]string{"week", "month"}, "Periods to export")

	archiveCmd.Flags().StringVar(&archiveOut, "out", "events.parquet", "Output file")
	archiveCmd.Flags().StringVar(&archiveS3Bucket, "s3-bucket", "", "Upload to this S3 bucket")
	archiveCmd.Flags().StringVar(&archiveS3Region, "s3-region", "", "S3 bucket region")

	seedCmd.Flags().IntVar(&seedDays, "days", 60, "Days of history to generate")
	seedCmd.Flags().Int64Var(&seedRand, "seed", 42, "Random seed")

	rootCmd.AddCommand(dashboardCmd, exportCmd, archiveCmd, seedCmd, clearCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	period, err := dashboard.ParsePeriod(dashboardPeriod)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	shutdown := initTelemetry(ctx)
	defer shutdown(context.Background())

	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	builder, err := newBuilder(eventStore)
	if err != nil {
		return err
	}

	d, err := builder.Build(ctx, period)
	if err != nil {
		return err
	}

	tui.PrintHeader(version)
	tui.RenderDashboard(d)
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	periods := make([]dashboard.Period, 0, len(exportPeriods))
	for _, p := range exportPeriods {
		period, err := dashboard.ParsePeriod(p)
		if err != nil {
			return err
		}
		periods = append(periods, period)
	}
	if err := os.MkdirAll(exportDir, 0755); err != nil {
		return err
	}

	ctx := cmd.Context()
	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	builder, err := newBuilder(eventStore)
	if err != nil {
		return err
	}

	bar := tui.NewProgressBar(len(periods), "exporting")
	svc := export.NewService(builder)
	paths, err := svc.ExportPeriods(ctx, periods, exportDir, func(dashboard.Period) {
		bar.Add(1)
	})
	if err != nil {
		return err
	}

	for _, path := range paths {
		tui.PrintSuccess("wrote " + path)
	}
	return nil
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	events := eventStore.LoadAll(ctx)
	if len(events) == 0 {
		return fmt.Errorf("event log is empty, nothing to archive")
	}

	if err := export.WriteParquetArchive(archiveOut, events); err != nil {
		return err
	}
	tui.PrintSuccess(fmt.Sprintf("archived %d events to %s", len(events), archiveOut))

	if archiveS3Bucket == "" {
		return nil
	}

	uploader, err := export.NewS3Uploader(ctx,
		export.DefaultS3Config(archiveS3Bucket, archiveS3Region))
	if err != nil {
		return err
	}
	key := fmt.Sprintf("opspulse/%s/%s",
		time.Now().UTC().Format("2006-01-02"), filepath.Base(archiveOut))
	if err := uploader.Upload(ctx, archiveOut, key); err != nil {
		return err
	}
	tui.PrintSuccess(fmt.Sprintf("uploaded to s3://%s/%s", archiveS3Bucket, key))
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	events := demo.Generate(seedRand, seedDays)

	// File and memory stores accept pre-timestamped events directly; other
	// backends get them through Append, which stamps them at "now".
	switch s := eventStore.(type) {
	case *store.FileStore:
		if err := s.Seed(events...); err != nil {
			return err
		}
	case *store.MemoryStore:
		s.Seed(events...)
	default:
		bar := tui.NewProgressBar(len(events), "seeding")
		for _, e := range events {
			if err := eventStore.Append(ctx, e); err != nil {
				return err
			}
			bar.Add(1)
		}
	}

	tui.PrintSuccess(fmt.Sprintf("seeded %d events over %d days", len(events), seedDays))
	return nil
}

func runClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	eventStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := eventStore.Clear(ctx); err != nil {
		return err
	}
	tui.PrintSuccess("event log cleared")
	return nil
}
