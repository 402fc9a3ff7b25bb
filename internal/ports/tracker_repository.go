package ports

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"

	"duetrack/internal/domain/recurrence"
)

var (
	ErrClientNotFound        = errors.New("client not found")
	ErrSiteNotFound          = errors.New("site not found")
	ErrEquipmentTypeNotFound = errors.New("equipment type not found")
	ErrEquipmentNotFound     = errors.New("equipment not found")
	ErrDuplicateName         = errors.New("name already exists")

	// ErrConcurrentUpdate means the stored schedule no longer matches the one
	// the caller read; nothing was written.
	ErrConcurrentUpdate = errors.New("equipment schedule changed concurrently")

	// ErrDeleteBlocked guards active records that already have a completion
	// history.
	ErrDeleteBlocked = errors.New("equipment has completions; deactivate it instead of deleting")
)

type Client struct {
	ClientID  string
	Name      string
	CreatedAt string
}

type Site struct {
	SiteID    string
	ClientID  string
	Name      string
	Timezone  string
	CreatedAt string
}

type EquipmentType struct {
	TypeID               string
	Name                 string
	DefaultIntervalWeeks int
	DefaultLeadWeeks     int
	CreatedAt            string
	UpdatedAt            string
}

// ScheduleUpdate is a compare-and-set on an equipment record's schedule.
// Expected* must match the stored row or ErrConcurrentUpdate is returned.
type ScheduleUpdate struct {
	EquipmentID           string
	ExpectedDueDate       civil.Date
	ExpectedIntervalWeeks int
	DueDate               civil.Date
	IntervalWeeks         int
	UpdatedAt             time.Time
}

type DirectoryRepository interface {
	CreateClient(ctx context.Context, client Client) (Client, error)
	GetClient(ctx context.Context, clientID string) (Client, error)
	ListClients(ctx context.Context) ([]Client, error)

	CreateSite(ctx context.Context, site Site) (Site, error)
	GetSite(ctx context.Context, siteID string) (Site, error)
	ListSites(ctx context.Context, clientID string) ([]Site, error)

	CreateEquipmentType(ctx context.Context, equipmentType EquipmentType) (EquipmentType, error)
	UpsertEquipmentTypeByName(ctx context.Context, equipmentType EquipmentType) (EquipmentType, bool, error)
	GetEquipmentType(ctx context.Context, typeID string) (EquipmentType, error)
	ListEquipmentTypes(ctx context.Context) ([]EquipmentType, error)
}

type EquipmentRepository interface {
	CreateEquipment(ctx context.Context, eq recurrence.Equipment) error
	GetEquipment(ctx context.Context, equipmentID string) (recurrence.Equipment, error)
	ListEquipment(ctx context.Context, filter recurrence.Filter) ([]recurrence.Equipment, error)
	UpdateEquipment(ctx context.Context, eq recurrence.Equipment) error
	UpdateSchedule(ctx context.Context, update ScheduleUpdate) error
	DeleteEquipment(ctx context.Context, equipmentID string) error

	AppendCompletion(ctx context.Context, completion recurrence.Completion) error
	ListCompletions(ctx context.Context, equipmentID string, limit int) ([]recurrence.Completion, error)
	CountCompletions(ctx context.Context, equipmentID string) (int64, error)
}

type TrackerRepository interface {
	DirectoryRepository
	EquipmentRepository
}
