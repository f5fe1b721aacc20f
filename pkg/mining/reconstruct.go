package mining

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opspulse/opspulse/internal/model"
)

// CorrelationWindow is the maximum gap between consecutive events of one
// inferred task instance.
const CorrelationWindow = 4 * time.Hour

// StepMatcher decides whether an event action is a step of a process.
// Isolated as an interface so an exact task-ID correlation can replace the
// substring heuristic without touching the metrics calculator.
type StepMatcher interface {
	Matches(action string) bool
}

// FragmentMatcher matches an action when it contains any of the configured
// fragments. Matching is case-sensitive, exactly as actions are stored.
type FragmentMatcher struct {
	fragments []string
}

// NewFragmentMatcher builds a matcher from a process definition's fragments.
func NewFragmentMatcher(fragments []string) *FragmentMatcher {
	return &FragmentMatcher{fragments: fragments}
}

// Matches implements StepMatcher.
func (m *FragmentMatcher) Matches(action string) bool {
	for _, f := range m.fragments {
		if strings.Contains(action, f) {
			return true
		}
	}
	return false
}

// TaskInstance is an inferred ordered sequence of events believed to belong
// to one execution of a named process. Events are in chronological order.
type TaskInstance struct {
	Key     string
	Process string
	UserID  string
	Events  []model.Event
}

// Reconstructor groups matching events into task instances.
//
// The grouping is a deliberately cheap greedy first-fit heuristic: an event
// joins the first open group (in creation order) whose last member shares
// its user and calendar date and lies within the correlation window. Two
// unrelated same-day, same-user executions of one process within four hours
// of each other therefore merge into a single instance. That approximation
// is part of the contract; downstream rates are computed over these groups
// as-is.
type Reconstructor struct {
	window time.Duration
}

// NewReconstructor creates a reconstructor with the default 4-hour window.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{window: CorrelationWindow}
}

// Reconstruct infers the task instances of one process definition from the
// event snapshot. Returns nil when no event matches.
func (r *Reconstructor) Reconstruct(def ProcessDefinition, events []model.Event) []TaskInstance {
	return r.reconstruct(def.Name, NewFragmentMatcher(def.StepFragments), events)
}

// ReconstructWith infers task instances using a caller-supplied matcher.
func (r *Reconstructor) ReconstructWith(name string, matcher StepMatcher, events []model.Event) []TaskInstance {
	return r.reconstruct(name, matcher, events)
}

func (r *Reconstructor) reconstruct(name string, matcher StepMatcher, events []model.Event) []TaskInstance {
	matched := make([]model.Event, 0, len(events))
	for _, e := range events {
		if matcher.Matches(e.Action) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})

	groups := []*TaskInstance{}
	for _, e := range matched {
		assigned := false
		for _, g := range groups {
			last := g.Events[len(g.Events)-1]
			if last.UserID != e.UserID {
				continue
			}
			if !last.Day().Equal(e.Day()) {
				continue
			}
			if e.Timestamp.Sub(last.Timestamp) > r.window {
				continue
			}
			g.Events = append(g.Events, e)
			assigned = true
			break
		}
		if !assigned {
			groups = append(groups, &TaskInstance{
				Key: fmt.Sprintf("%s|%s|%s|%d", name, e.UserID,
					e.Day().Format("2006-01-02"), e.Timestamp.UnixNano()),
				Process: name,
				UserID:  e.UserID,
				Events:  []model.Event{e},
			})
		}
	}

	out := make([]TaskInstance, len(groups))
	for i, g := range groups {
		out[i] = *g
	}
	return out
}
