// Package model defines the core data structures for OpsPulse.
package model

import "time"

// Module is a feature area of the host application. The set is closed;
// events written by the application always carry one of these values.
type Module string

const (
	ModuleDashboard  Module = "DASHBOARD"
	ModuleInventory  Module = "INVENTORY"
	ModulePOS        Module = "POS"
	ModuleWorkOrders Module = "WORK_ORDERS"
	ModuleAccounting Module = "ACCOUNTING"
	ModuleCRM        Module = "CRM"
	ModuleHRM        Module = "HRM"
	ModulePlanning   Module = "PLANNING"
	ModuleReports    Module = "REPORTS"
	ModuleWebshop    Module = "WEBSHOP"
)

// ActionType classifies what kind of action an event records.
type ActionType string

const (
	ActionNavigate ActionType = "navigate"
	ActionCreate   ActionType = "create"
	ActionUpdate   ActionType = "update"
	ActionComplete ActionType = "complete"
	ActionError    ActionType = "error"
	ActionView     ActionType = "view"
	ActionDelete   ActionType = "delete"
	ActionExport   ActionType = "export"
)

// Event is one immutable record of a user action. The store assigns ID and
// Timestamp at write time; events are never mutated after that.
type Event struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	UserID     string            `json:"userId"`
	UserRole   string            `json:"userRole,omitempty"`
	Module     Module            `json:"module"`
	Action     string            `json:"action"`
	ActionType ActionType        `json:"actionType"`
	DurationMS int64             `json:"durationMs,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// DurationMinutes returns the optional elapsed time in minutes, 0 if absent.
func (e Event) DurationMinutes() float64 {
	if e.DurationMS <= 0 {
		return 0
	}
	return float64(e.DurationMS) / 60000.0
}

// Day returns the calendar date of the event in UTC, truncated to midnight.
// All session counting and task correlation uses this value.
func (e Event) Day() time.Time {
	y, m, d := e.Timestamp.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FromModule returns the module the user navigated away from, if the event
// is a navigation event carrying that detail.
func (e Event) FromModule() (Module, bool) {
	if e.ActionType != ActionNavigate || e.Metadata == nil {
		return "", false
	}
	v, ok := e.Metadata["fromModule"]
	return Module(v), ok
}
