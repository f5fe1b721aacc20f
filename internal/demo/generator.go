// Package demo generates a deterministic sample event log so the engine can
// be evaluated without a live application feeding it.
package demo

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/opspulse/opspulse/internal/model"
)

var users = []struct {
	id   string
	role string
}{
	{"anna", "sales"},
	{"bram", "sales"},
	{"carla", "warehouse"},
	{"dirk", "finance"},
	{"els", "manager"},
}

var browseActions = []struct {
	module model.Module
	action string
	typ    model.ActionType
}{
	{model.ModuleDashboard, "view_dashboard", model.ActionView},
	{model.ModuleInventory, "view_stock", model.ActionView},
	{model.ModuleInventory, "update_stock", model.ActionUpdate},
	{model.ModuleCRM, "view_customer", model.ActionView},
	{model.ModuleCRM, "create_customer", model.ActionCreate},
	{model.ModuleReports, "view_report", model.ActionView},
	{model.ModulePOS, "create_sale", model.ActionCreate},
	{model.ModulePOS, "complete_sale", model.ActionComplete},
	{model.ModuleHRM, "view_schedule", model.ActionView},
}

// Generate produces a reproducible event log spanning the past days. The
// same seed always yields the same log.
func Generate(seed int64, days int) []model.Event {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now().UTC()
	events := []model.Event{}

	for day := days; day > 0; day-- {
		dayStart := now.AddDate(0, 0, -day).Truncate(24 * time.Hour).Add(8 * time.Hour)

		// General browsing through the day.
		for i := 0; i < 10+rng.Intn(20); i++ {
			u := users[rng.Intn(len(users))]
			a := browseActions[rng.Intn(len(browseActions))]
			at := a.typ
			if rng.Intn(20) == 0 {
				at = model.ActionError
			}
			events = append(events, event(
				dayStart.Add(time.Duration(rng.Intn(9*3600))*time.Second),
				u.id, u.role, a.module, a.action, at,
				int64(rng.Intn(10*60000)),
			))
		}

		// A quote-to-invoice flow most days.
		if rng.Intn(4) != 0 {
			u := users[rng.Intn(2)] // sales
			t := dayStart.Add(time.Duration(rng.Intn(4*3600)) * time.Second)
			events = append(events,
				event(t, u.id, u.role, model.ModuleCRM, "create_quote", model.ActionCreate, 5*60000),
				event(t.Add(time.Duration(20+rng.Intn(90))*time.Minute), u.id, u.role,
					model.ModuleAccounting, "convert_quote_to_invoice", model.ActionCreate, 3*60000),
				event(t.Add(time.Duration(120+rng.Intn(60))*time.Minute), u.id, u.role,
					model.ModuleAccounting, "send_invoice", model.ActionComplete, 60000),
			)
		}

		// A work-order lifecycle some days.
		if rng.Intn(3) == 0 {
			u := users[2]
			t := dayStart.Add(time.Duration(rng.Intn(5*3600)) * time.Second)
			events = append(events,
				event(t, u.id, u.role, model.ModuleWorkOrders, "create_work_order", model.ActionCreate, 4*60000),
				event(t.Add(time.Duration(30+rng.Intn(60))*time.Minute), u.id, u.role,
					model.ModuleWorkOrders, "start_work_order", model.ActionUpdate, 2*60000),
				event(t.Add(time.Duration(100+rng.Intn(80))*time.Minute), u.id, u.role,
					model.ModuleWorkOrders, "complete_work_order", model.ActionComplete, 60000),
			)
		}

		// Invoice validation with the occasional failure.
		if rng.Intn(2) == 0 {
			t := dayStart.Add(time.Duration(rng.Intn(6*3600)) * time.Second)
			typ := model.ActionComplete
			action := "validate_invoice"
			if rng.Intn(5) == 0 {
				typ = model.ActionError
			}
			events = append(events, event(t, "dirk", "finance",
				model.ModuleAccounting, action, typ, 2*60000))
		}
	}

	return events
}

func event(ts time.Time, userID, role string, mod model.Module, action string, typ model.ActionType, durationMS int64) model.Event {
	return model.Event{
		ID:         uuid.NewString(),
		Timestamp:  ts,
		UserID:     userID,
		UserRole:   role,
		Module:     mod,
		Action:     action,
		ActionType: typ,
		DurationMS: durationMS,
		Metadata:   map[string]string{"source": "demo"},
	}
}
