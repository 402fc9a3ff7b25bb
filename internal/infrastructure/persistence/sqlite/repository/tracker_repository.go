package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"duetrack/internal/errs"
	"duetrack/internal/infrastructure/persistence/sqlite/model"
	"duetrack/internal/ports"
)

type TrackerRepository struct {
	db *gorm.DB
}

var _ ports.TrackerRepository = (*TrackerRepository)(nil)

func NewTrackerRepository(db *gorm.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

func (r *TrackerRepository) dbFromContext(ctx context.Context) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return r.db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}

// inTx runs fn inside the caller's transaction, or opens one when the caller
// has none.
func (r *TrackerRepository) inTx(ctx context.Context, fn func(db *gorm.DB) error) error {
	if ports.TxFromContext(ctx) != nil {
		db, err := r.dbFromContext(ctx)
		if err != nil {
			return err
		}
		return fn(db)
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *TrackerRepository) CreateClient(ctx context.Context, client ports.Client) (ports.Client, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Client{}, err
	}

	row := model.Client{
		ClientID:  client.ClientID,
		Name:      client.Name,
		CreatedAt: client.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.Client{}, errs.Wrapf(ports.ErrDuplicateName, "client %q", client.Name)
		}
		return ports.Client{}, errs.Wrap(err, "insert client")
	}
	return mapClient(row), nil
}

func (r *TrackerRepository) GetClient(ctx context.Context, clientID string) (ports.Client, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Client{}, err
	}

	var row model.Client
	if err := db.Where("client_id = ?", clientID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Client{}, ports.ErrClientNotFound
		}
		return ports.Client{}, errs.Wrap(err, "query client")
	}
	return mapClient(row), nil
}

func (r *TrackerRepository) ListClients(ctx context.Context) ([]ports.Client, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.Client
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query clients")
	}

	items := make([]ports.Client, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapClient(row))
	}
	return items, nil
}

func (r *TrackerRepository) CreateSite(ctx context.Context, site ports.Site) (ports.Site, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Site{}, err
	}

	row := model.Site{
		SiteID:    site.SiteID,
		ClientID:  site.ClientID,
		Name:      site.Name,
		Timezone:  site.Timezone,
		CreatedAt: site.CreatedAt,
	}
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.Site{}, errs.Wrapf(ports.ErrDuplicateName, "site %q", site.Name)
		}
		return ports.Site{}, errs.Wrap(err, "insert site")
	}
	return mapSite(row), nil
}

func (r *TrackerRepository) GetSite(ctx context.Context, siteID string) (ports.Site, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.Site{}, err
	}

	var row model.Site
	if err := db.Where("site_id = ?", siteID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Site{}, ports.ErrSiteNotFound
		}
		return ports.Site{}, errs.Wrap(err, "query site")
	}
	return mapSite(row), nil
}

func (r *TrackerRepository) ListSites(ctx context.Context, clientID string) ([]ports.Site, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Site{})
	if clientID = strings.TrimSpace(clientID); clientID != "" {
		query = query.Where("client_id = ?", clientID)
	}

	var rows []model.Site
	if err := query.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query sites")
	}

	items := make([]ports.Site, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapSite(row))
	}
	return items, nil
}

func (r *TrackerRepository) CreateEquipmentType(ctx context.Context, equipmentType ports.EquipmentType) (ports.EquipmentType, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.EquipmentType{}, err
	}

	row := typeRow(equipmentType)
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return ports.EquipmentType{}, errs.Wrapf(ports.ErrDuplicateName, "equipment type %q", equipmentType.Name)
		}
		return ports.EquipmentType{}, errs.Wrap(err, "insert equipment type")
	}
	return mapEquipmentType(row), nil
}

// UpsertEquipmentTypeByName inserts a type or refreshes the defaults of the
// type with the same name. The bool reports whether a new row was created.
func (r *TrackerRepository) UpsertEquipmentTypeByName(ctx context.Context, equipmentType ports.EquipmentType) (ports.EquipmentType, bool, error) {
	var (
		out     ports.EquipmentType
		created bool
	)
	err := r.inTx(ctx, func(db *gorm.DB) error {
		var existing model.EquipmentType
		err := db.Where("name = ?", equipmentType.Name).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := typeRow(equipmentType)
			if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
				return errs.Wrap(err, "insert equipment type")
			}
			out, created = mapEquipmentType(row), true
			return nil
		case err != nil:
			return errs.Wrap(err, "query equipment type by name")
		}

		if err := db.Model(&model.EquipmentType{}).
			Where("type_id = ?", existing.TypeID).
			Updates(map[string]any{
				"default_interval_weeks": equipmentType.DefaultIntervalWeeks,
				"default_lead_weeks":     equipmentType.DefaultLeadWeeks,
				"updated_at":             equipmentType.UpdatedAt,
			}).Error; err != nil {
			return errs.Wrap(err, "update equipment type defaults")
		}
		existing.DefaultIntervalWeeks = equipmentType.DefaultIntervalWeeks
		existing.DefaultLeadWeeks = equipmentType.DefaultLeadWeeks
		existing.UpdatedAt = equipmentType.UpdatedAt
		out = mapEquipmentType(existing)
		return nil
	})
	if err != nil {
		return ports.EquipmentType{}, false, err
	}
	return out, created, nil
}

func (r *TrackerRepository) GetEquipmentType(ctx context.Context, typeID string) (ports.EquipmentType, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return ports.EquipmentType{}, err
	}

	var row model.EquipmentType
	if err := db.Where("type_id = ?", typeID).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.EquipmentType{}, ports.ErrEquipmentTypeNotFound
		}
		return ports.EquipmentType{}, errs.Wrap(err, "query equipment type")
	}
	return mapEquipmentType(row), nil
}

func (r *TrackerRepository) ListEquipmentTypes(ctx context.Context) ([]ports.EquipmentType, error) {
	db, err := r.dbFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var rows []model.EquipmentType
	if err := db.Order("name asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query equipment types")
	}

	items := make([]ports.EquipmentType, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapEquipmentType(row))
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
