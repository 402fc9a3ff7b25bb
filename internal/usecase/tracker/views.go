package tracker

import (
	"cloud.google.com/go/civil"

	"duetrack/internal/domain/recurrence"
	"duetrack/internal/ports"
)

// EquipmentView is the wire shape of a recurrence record. A nil DueDate means
// the record is unscheduled.
type EquipmentView struct {
	ID            string  `json:"id" yaml:"id"`
	ClientID      string  `json:"client_id" yaml:"client_id"`
	SiteID        string  `json:"site_id" yaml:"site_id"`
	TypeID        string  `json:"type_id,omitempty" yaml:"type_id,omitempty"`
	Name          string  `json:"name" yaml:"name"`
	AnchorDate    string  `json:"anchor_date" yaml:"anchor_date"`
	DueDate       *string `json:"due_date" yaml:"due_date"`
	LeadDate      *string `json:"lead_date,omitempty" yaml:"lead_date,omitempty"`
	IntervalWeeks int     `json:"interval_weeks" yaml:"interval_weeks"`
	LeadWeeks     int     `json:"lead_weeks" yaml:"lead_weeks"`
	Active        bool    `json:"active" yaml:"active"`
	Timezone      string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Notes         string  `json:"notes,omitempty" yaml:"notes,omitempty"`
	State         string  `json:"state" yaml:"state"`
	CreatedAt     string  `json:"created_at" yaml:"created_at"`
	UpdatedAt     string  `json:"updated_at" yaml:"updated_at"`
}

type CompletionView struct {
	ID               string  `json:"id" yaml:"id"`
	EquipmentID      string  `json:"equipment_record_id" yaml:"equipment_record_id"`
	DueDateSatisfied *string `json:"due_date" yaml:"due_date"`
	IntervalWeeks    int     `json:"interval_weeks" yaml:"interval_weeks"`
	CompletedOn      string  `json:"completed_on" yaml:"completed_on"`
	NextDueDate      string  `json:"next_due_date" yaml:"next_due_date"`
	Policy           string  `json:"policy" yaml:"policy"`
	CompletedAt      string  `json:"completed_at" yaml:"completed_at"`
	CompletedBy      string  `json:"completed_by,omitempty" yaml:"completed_by,omitempty"`
}

type ClientView struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

type SiteView struct {
	ID        string `json:"id" yaml:"id"`
	ClientID  string `json:"client_id" yaml:"client_id"`
	Name      string `json:"name" yaml:"name"`
	Timezone  string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	CreatedAt string `json:"created_at" yaml:"created_at"`
}

type EquipmentTypeView struct {
	ID                   string `json:"id" yaml:"id"`
	Name                 string `json:"name" yaml:"name"`
	DefaultIntervalWeeks int    `json:"default_interval_weeks" yaml:"default_interval_weeks"`
	DefaultLeadWeeks     int    `json:"default_lead_weeks" yaml:"default_lead_weeks"`
}

func optionalDate(d civil.Date) *string {
	if d.IsZero() {
		return nil
	}
	s := d.String()
	return &s
}

func NewEquipmentView(eq recurrence.Equipment) EquipmentView {
	return EquipmentView{
		ID:            eq.ID,
		ClientID:      eq.ClientID,
		SiteID:        eq.SiteID,
		TypeID:        eq.TypeID,
		Name:          eq.Name,
		AnchorDate:    recurrence.FormatDate(eq.AnchorDate),
		DueDate:       optionalDate(eq.DueDate),
		LeadDate:      optionalDate(eq.LeadDate()),
		IntervalWeeks: eq.IntervalWeeks,
		LeadWeeks:     eq.LeadWeeks,
		Active:        eq.Active,
		Timezone:      eq.Timezone,
		Notes:         eq.Notes,
		State:         string(eq.State()),
		CreatedAt:     formatTime(eq.CreatedAt),
		UpdatedAt:     formatTime(eq.UpdatedAt),
	}
}

func newEquipmentViews(records []recurrence.Equipment) []EquipmentView {
	out := make([]EquipmentView, 0, len(records))
	for _, eq := range records {
		out = append(out, NewEquipmentView(eq))
	}
	return out
}

func NewCompletionView(c recurrence.Completion) CompletionView {
	return CompletionView{
		ID:               c.ID,
		EquipmentID:      c.EquipmentID,
		DueDateSatisfied: optionalDate(c.DueDateSatisfied),
		IntervalWeeks:    c.IntervalWeeks,
		CompletedOn:      recurrence.FormatDate(c.CompletedOn),
		NextDueDate:      recurrence.FormatDate(c.NextDueDate),
		Policy:           string(c.Policy),
		CompletedAt:      formatTime(c.CompletedAt),
		CompletedBy:      c.CompletedBy,
	}
}

func newClientView(c ports.Client) ClientView {
	return ClientView{ID: c.ClientID, Name: c.Name, CreatedAt: c.CreatedAt}
}

func newSiteView(s ports.Site) SiteView {
	return SiteView{ID: s.SiteID, ClientID: s.ClientID, Name: s.Name, Timezone: s.Timezone, CreatedAt: s.CreatedAt}
}

func newEquipmentTypeView(t ports.EquipmentType) EquipmentTypeView {
	return EquipmentTypeView{
		ID:                   t.TypeID,
		Name:                 t.Name,
		DefaultIntervalWeeks: t.DefaultIntervalWeeks,
		DefaultLeadWeeks:     t.DefaultLeadWeeks,
	}
}
