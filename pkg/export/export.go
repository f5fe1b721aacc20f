package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opspulse/opspulse/pkg/dashboard"
)

// Service exports dashboards built from the shared builder.
type Service struct {
	builder *dashboard.Builder
}

// NewService creates an export service.
func NewService(builder *dashboard.Builder) *Service {
	return &Service{builder: builder}
}

// ExportPeriods builds one workbook per period, building dashboards
// concurrently. Each build works on its own snapshot, so no synchronization
// with the engine is needed. The optional onDone callback runs after each
// finished workbook (progress reporting).
func (s *Service) ExportPeriods(ctx context.Context, periods []dashboard.Period, dir string, onDone func(period dashboard.Period)) ([]string, error) {
	paths := make([]string, len(periods))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, period := range periods {
		i, period := i, period
		g.Go(func() error {
			d, err := s.builder.Build(ctx, period)
			if err != nil {
				return fmt.Errorf("failed to build %s dashboard: %w", period, err)
			}
			path := filepath.Join(dir, fmt.Sprintf("opspulse-%s.xlsx", period))
			if err := WriteWorkbook(path, d); err != nil {
				return err
			}
			mu.Lock()
			paths[i] = path
			mu.Unlock()
			if onDone != nil {
				onDone(period)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
