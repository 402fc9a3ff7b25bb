package ports

import "context"

// CompletionEvent is published after a completion transaction commits.
// Dates are yyyy-mm-dd; DueDateSatisfied is empty for a first scheduling.
type CompletionEvent struct {
	CompletionID     string `json:"completion_id"`
	EquipmentID      string `json:"equipment_record_id"`
	ClientID         string `json:"client_id"`
	SiteID           string `json:"site_id"`
	DueDateSatisfied string `json:"due_date"`
	NextDueDate      string `json:"next_due_date"`
	IntervalWeeks    int    `json:"interval_weeks"`
	Policy           string `json:"policy"`
	CompletedOn      string `json:"completed_on"`
	CompletedAt      string `json:"completed_at"`
	CompletedBy      string `json:"completed_by,omitempty"`
}

type EventPublisher interface {
	PublishCompletion(ctx context.Context, event CompletionEvent) error
}
