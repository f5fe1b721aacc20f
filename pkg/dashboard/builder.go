package dashboard

import (
	"context"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opspulse/opspulse/internal/model"
	"github.com/opspulse/opspulse/pkg/mining"
	"github.com/opspulse/opspulse/pkg/recommend"
	"github.com/opspulse/opspulse/pkg/stats"
	"github.com/opspulse/opspulse/pkg/store"
	"github.com/opspulse/opspulse/pkg/trend"
)

// Builder wires the engine components together. It holds no mutable state;
// concurrent Build calls each work on their own snapshot.
type Builder struct {
	store         store.EventStore
	catalogue     []mining.ProcessDefinition
	aggregator    *stats.Aggregator
	reconstructor *mining.Reconstructor
	calculator    *mining.Calculator
	trends        *trend.Calculator
	engine        *recommend.Engine
	tracer        trace.Tracer

	// now anchors the reporting window. Overridable in tests.
	now func() time.Time
}

// NewBuilder creates a builder over the given store and process catalogue.
// A nil or empty catalogue falls back to the built-in one.
func NewBuilder(eventStore store.EventStore, catalogue []mining.ProcessDefinition) *Builder {
	if len(catalogue) == 0 {
		catalogue = mining.DefaultCatalogue()
	}
	aggregator := stats.NewAggregator()
	return &Builder{
		store:         eventStore,
		catalogue:     catalogue,
		aggregator:    aggregator,
		reconstructor: mining.NewReconstructor(),
		calculator:    mining.NewCalculator(),
		trends:        trend.NewCalculator(aggregator),
		engine:        recommend.NewEngine(),
		tracer:        otel.Tracer("opspulse/dashboard"),
		now:           time.Now,
	}
}

// Build computes the dashboard for the window [now - period, now). An empty
// or unreadable store yields the zeroed dashboard; the only error case is an
// unknown period.
func (b *Builder) Build(ctx context.Context, period Period) (*Dashboard, error) {
	days, err := period.Days()
	if err != nil {
		return nil, err
	}

	ctx, span := b.tracer.Start(ctx, "dashboard.build",
		trace.WithAttributes(attribute.String("period", string(period))))
	defer span.End()

	now := b.now().UTC()
	window := stats.Window{Start: now.AddDate(0, 0, -days), End: now}

	events := b.store.LoadAll(ctx)
	if len(events) == 0 {
		return b.empty(period, window), nil
	}
	span.SetAttributes(attribute.Int("events.total", len(events)))

	windowed := window.Filter(events)

	moduleStats := b.aggregator.ModuleStats(events, window)
	userStats := b.aggregator.UserStats(events, window)
	processMetrics := b.mineProcesses(windowed)
	trends := b.trends.Calculate(events, window)
	recommendations := b.engine.Recommend(moduleStats, userStats, processMetrics)

	var totalTime float64
	users := make(map[string]struct{})
	for _, e := range windowed {
		totalTime += e.DurationMinutes()
		users[e.UserID] = struct{}{}
	}

	return &Dashboard{
		Period:           period,
		StartDate:        window.Start,
		EndDate:          window.End,
		TotalEvents:      len(windowed),
		TotalUsers:       len(users),
		TotalTimeMinutes: round2(totalTime),
		ModuleStats:      moduleStats,
		UserStats:        userStats,
		ProcessMetrics:   processMetrics,
		Recommendations:  recommendations,
		Trends:           trends,
	}, nil
}

// mineProcesses reconstructs and measures every catalogue process. Each
// definition runs in its own recover scope so one failing process cannot
// take down the whole build; processes without matching events are omitted.
func (b *Builder) mineProcesses(events []model.Event) []mining.ProcessMetrics {
	out := []mining.ProcessMetrics{}
	for _, def := range b.catalogue {
		if m, ok := b.mineProcess(def, events); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *Builder) mineProcess(def mining.ProcessDefinition, events []model.Event) (m mining.ProcessMetrics, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	instances := b.reconstructor.Reconstruct(def, events)
	return b.calculator.Calculate(def.Name, instances)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (b *Builder) empty(period Period, window stats.Window) *Dashboard {
	return &Dashboard{
		Period:          period,
		StartDate:       window.Start,
		EndDate:         window.End,
		ModuleStats:     []stats.ModuleUsageStats{},
		UserStats:       []stats.UserActivityStats{},
		ProcessMetrics:  []mining.ProcessMetrics{},
		Recommendations: []recommend.Recommendation{},
	}
}
