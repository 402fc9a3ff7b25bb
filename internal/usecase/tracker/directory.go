package tracker

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"duetrack/internal/bootstrap/logging"
	"duetrack/internal/domain/recurrence"
	"duetrack/internal/errs"
	"duetrack/internal/ports"
)

type CreateClientInput struct {
	Name string
}

type CreateSiteInput struct {
	ClientID string
	Name     string
	Timezone string
}

type EquipmentTypeInput struct {
	Name                 string
	DefaultIntervalWeeks int
	DefaultLeadWeeks     int
}

// SyncResult counts catalog entries that were inserted or refreshed.
type SyncResult struct {
	Created int
	Updated int
}

func (s *Service) CreateClient(ctx context.Context, input CreateClientInput) (ClientView, error) {
	if err := s.ready(ctx); err != nil {
		return ClientView{}, err
	}
	name, err := requireID("client name", input.Name)
	if err != nil {
		return ClientView{}, err
	}

	var created ports.Client
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateClient(txCtx, ports.Client{
			ClientID:  s.newID(),
			Name:      name,
			CreatedAt: formatTime(s.now()),
		})
		return err
	}); err != nil {
		return ClientView{}, err
	}
	return newClientView(created), nil
}

func (s *Service) GetClient(ctx context.Context, clientID string) (ClientView, error) {
	if err := s.ready(ctx); err != nil {
		return ClientView{}, err
	}
	client, err := s.repo.GetClient(ctx, strings.TrimSpace(clientID))
	if err != nil {
		return ClientView{}, err
	}
	return newClientView(client), nil
}

func (s *Service) ListClients(ctx context.Context) ([]ClientView, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ClientView, 0, len(clients))
	for _, c := range clients {
		out = append(out, newClientView(c))
	}
	return out, nil
}

// CreateSite registers a site under an existing client. The timezone is
// validated against the tz database when provided.
func (s *Service) CreateSite(ctx context.Context, input CreateSiteInput) (SiteView, error) {
	if err := s.ready(ctx); err != nil {
		return SiteView{}, err
	}
	clientID, err := requireID("client id", input.ClientID)
	if err != nil {
		return SiteView{}, err
	}
	name, err := requireID("site name", input.Name)
	if err != nil {
		return SiteView{}, err
	}
	timezone := strings.TrimSpace(input.Timezone)
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return SiteView{}, invalidInput("timezone %q: %v", timezone, err)
		}
	}

	var created ports.Site
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.GetClient(txCtx, clientID); err != nil {
			return err
		}
		var err error
		created, err = s.repo.CreateSite(txCtx, ports.Site{
			SiteID:    s.newID(),
			ClientID:  clientID,
			Name:      name,
			Timezone:  timezone,
			CreatedAt: formatTime(s.now()),
		})
		return err
	}); err != nil {
		return SiteView{}, err
	}
	return newSiteView(created), nil
}

func (s *Service) GetSite(ctx context.Context, siteID string) (SiteView, error) {
	if err := s.ready(ctx); err != nil {
		return SiteView{}, err
	}
	site, err := s.repo.GetSite(ctx, strings.TrimSpace(siteID))
	if err != nil {
		return SiteView{}, err
	}
	return newSiteView(site), nil
}

// ListSites lists every site, or only the sites of clientID when set.
func (s *Service) ListSites(ctx context.Context, clientID string) ([]SiteView, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	sites, err := s.repo.ListSites(ctx, strings.TrimSpace(clientID))
	if err != nil {
		return nil, err
	}
	out := make([]SiteView, 0, len(sites))
	for _, site := range sites {
		out = append(out, newSiteView(site))
	}
	return out, nil
}

func (s *Service) CreateEquipmentType(ctx context.Context, input EquipmentTypeInput) (EquipmentTypeView, error) {
	if err := s.ready(ctx); err != nil {
		return EquipmentTypeView{}, err
	}
	item, err := s.equipmentTypeFromInput(input)
	if err != nil {
		return EquipmentTypeView{}, err
	}

	var created ports.EquipmentType
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.repo.CreateEquipmentType(txCtx, item)
		return err
	}); err != nil {
		return EquipmentTypeView{}, err
	}
	return newEquipmentTypeView(created), nil
}

func (s *Service) GetEquipmentType(ctx context.Context, typeID string) (EquipmentTypeView, error) {
	if err := s.ready(ctx); err != nil {
		return EquipmentTypeView{}, err
	}
	item, err := s.repo.GetEquipmentType(ctx, strings.TrimSpace(typeID))
	if err != nil {
		return EquipmentTypeView{}, err
	}
	return newEquipmentTypeView(item), nil
}

func (s *Service) ListEquipmentTypes(ctx context.Context) ([]EquipmentTypeView, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	items, err := s.repo.ListEquipmentTypes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]EquipmentTypeView, 0, len(items))
	for _, item := range items {
		out = append(out, newEquipmentTypeView(item))
	}
	return out, nil
}

// SyncEquipmentTypes upserts catalog entries by name in one transaction.
// Existing equipment keeps its interval; type defaults only apply at creation.
func (s *Service) SyncEquipmentTypes(ctx context.Context, inputs []EquipmentTypeInput) (SyncResult, error) {
	if err := s.ready(ctx); err != nil {
		return SyncResult{}, err
	}

	items := make([]ports.EquipmentType, 0, len(inputs))
	for _, input := range inputs {
		item, err := s.equipmentTypeFromInput(input)
		if err != nil {
			return SyncResult{}, err
		}
		items = append(items, item)
	}

	var result SyncResult
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		for _, item := range items {
			_, created, err := s.repo.UpsertEquipmentTypeByName(txCtx, item)
			if err != nil {
				return errs.Wrapf(err, "sync equipment type %q", item.Name)
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
		return nil
	}); err != nil {
		return SyncResult{}, err
	}

	logging.Info(ctx, "equipment types synced",
		slog.Int("created", result.Created),
		slog.Int("updated", result.Updated),
	)
	return result, nil
}

func (s *Service) equipmentTypeFromInput(input EquipmentTypeInput) (ports.EquipmentType, error) {
	name, err := requireID("equipment type name", input.Name)
	if err != nil {
		return ports.EquipmentType{}, err
	}
	if err := recurrence.ValidateInterval(input.DefaultIntervalWeeks); err != nil {
		return ports.EquipmentType{}, errs.Wrapf(err, "equipment type %q", name)
	}
	if input.DefaultLeadWeeks < 0 {
		return ports.EquipmentType{}, invalidInput("equipment type %q: default lead weeks must not be negative", name)
	}

	now := formatTime(s.now())
	return ports.EquipmentType{
		TypeID:               s.newID(),
		Name:                 name,
		DefaultIntervalWeeks: input.DefaultIntervalWeeks,
		DefaultLeadWeeks:     input.DefaultLeadWeeks,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}
