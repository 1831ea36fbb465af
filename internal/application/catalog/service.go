package catalog

import (
	"context"
	"strings"

	"loadplan-backend/internal/application/audit"
	"loadplan-backend/internal/application/tenancy"
	"loadplan-backend/internal/domain"
	"loadplan-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Kind names a master-data collection as it appears in the URL.
type Kind string

const (
	KindCities           Kind = "cities"
	KindClients          Kind = "clients"
	KindSuppliers        Kind = "suppliers"
	KindTruckTypes       Kind = "truck-types"
	KindDemandCategories Kind = "demand-categories"
)

// Service manages tenant master data. Rows are never hard-deleted; they are
// deactivated so existing forecasts keep resolving.
type Service struct {
	DB    *gorm.DB
	Audit audit.Recorder
}

type CityInput struct {
	Name   string `json:"name" validate:"required,max=100"`
	Code   string `json:"code" validate:"max=20"`
	Region string `json:"region" validate:"max=100"`
}

type PartyInput struct {
	Name         string  `json:"name" validate:"required,max=200"`
	ContactEmail *string `json:"contactEmail" validate:"omitempty,email"`
}

type NameInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (s *Service) CreateCity(ctx context.Context, actor tenancy.Actor, in CityInput) (*domain.City, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	city := &domain.City{
		OrgID:    actor.OrgID,
		Name:     name,
		Code:     strings.ToUpper(strings.TrimSpace(in.Code)),
		Region:   strings.TrimSpace(in.Region),
		IsActive: true,
	}
	if err := s.create(ctx, actor, city, &domain.City{}, name, audit.EntityCity, func() uuid.UUID { return city.ID }); err != nil {
		return nil, err
	}
	return city, nil
}

// CreateParty creates a client (KindClients) or supplier (KindSuppliers).
func (s *Service) CreateParty(ctx context.Context, actor tenancy.Actor, kind Kind, in PartyInput) (*domain.Party, error) {
	role, err := partyRole(kind)
	if err != nil {
		return nil, err
	}
	name := strings.Join(strings.Fields(in.Name), " ")
	party := &domain.Party{
		OrgID:        actor.OrgID,
		Name:         name,
		PartyRole:    role,
		ContactEmail: in.ContactEmail,
		IsActive:     true,
	}
	scope := func(db *gorm.DB) *gorm.DB { return db.Where("party_role = ?", role) }
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(scope(tx), &domain.Party{}, actor.OrgID, name); err != nil {
			return err
		}
		return tx.Create(party).Error
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actor, audit.ActionCreate, audit.EntityParty, party.ID, map[string]interface{}{"name": name, "partyRole": role})
	return party, nil
}

func (s *Service) CreateTruckType(ctx context.Context, actor tenancy.Actor, in NameInput) (*domain.TruckType, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	tt := &domain.TruckType{OrgID: actor.OrgID, Name: name, IsActive: true}
	if err := s.create(ctx, actor, tt, &domain.TruckType{}, name, audit.EntityTruckType, func() uuid.UUID { return tt.ID }); err != nil {
		return nil, err
	}
	return tt, nil
}

func (s *Service) CreateDemandCategory(ctx context.Context, actor tenancy.Actor, in NameInput) (*domain.DemandCategory, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	dc := &domain.DemandCategory{OrgID: actor.OrgID, Name: name, IsActive: true}
	if err := s.create(ctx, actor, dc, &domain.DemandCategory{}, name, audit.EntityDemandCategory, func() uuid.UUID { return dc.ID }); err != nil {
		return nil, err
	}
	return dc, nil
}

func (s *Service) create(ctx context.Context, actor tenancy.Actor, row, model interface{}, name, entity string, id func() uuid.UUID) error {
	if name == "" {
		return apperr.Validation("name is required")
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUniqueName(tx, model, actor.OrgID, name); err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, audit.ActionCreate, entity, id(), map[string]interface{}{"name": name})
	return nil
}

func ensureUniqueName(tx *gorm.DB, model interface{}, orgID uuid.UUID, name string) error {
	var n int64
	if err := tenancy.Scoped(tx.Model(model), orgID).Where("LOWER(name) = LOWER(?)", name).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return apperr.Duplicate("An entry named " + name + " already exists")
	}
	return nil
}

func (s *Service) ListCities(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.City, error) {
	var rows []domain.City
	err := activeScope(tenancy.Scoped(s.DB.WithContext(ctx), orgID), includeInactive).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) ListParties(ctx context.Context, orgID uuid.UUID, kind Kind, includeInactive bool) ([]domain.Party, error) {
	role, err := partyRole(kind)
	if err != nil {
		return nil, err
	}
	var rows []domain.Party
	err = activeScope(tenancy.Scoped(s.DB.WithContext(ctx), orgID), includeInactive).
		Where("party_role = ?", role).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Service) ListTruckTypes(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.TruckType, error) {
	var rows []domain.TruckType
	err := activeScope(tenancy.Scoped(s.DB.WithContext(ctx), orgID), includeInactive).Order("name ASC").Find(&rows).Error
	return rows, err
}

func (s *Service) ListDemandCategories(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]domain.DemandCategory, error) {
	var rows []domain.DemandCategory
	err := activeScope(tenancy.Scoped(s.DB.WithContext(ctx), orgID), includeInactive).Order("name ASC").Find(&rows).Error
	return rows, err
}

func activeScope(q *gorm.DB, includeInactive bool) *gorm.DB {
	if includeInactive {
		return q
	}
	return q.Where("is_active = ?", true)
}

// Deactivate soft-deletes one master-data row.
func (s *Service) Deactivate(ctx context.Context, actor tenancy.Actor, kind Kind, id uuid.UUID) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadOwned(tx, actor.OrgID, kind, id); err != nil {
			return err
		}
		_, err := deactivate(tx, actor.OrgID, kind, []uuid.UUID{id})
		return err
	})
	if err != nil {
		return err
	}
	s.record(ctx, actor, audit.ActionDeactivate, entityOf(kind), id, map[string]interface{}{"kind": string(kind)})
	return nil
}

// DeactivateBatch soft-deletes every id of kind owned by the actor's org in one
// statement and returns how many rows changed.
func (s *Service) DeactivateBatch(ctx context.Context, actor tenancy.Actor, kind Kind, ids []uuid.UUID) (int, error) {
	var n int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = deactivate(tx, actor.OrgID, kind, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, actor, audit.ActionBulkDelete, entityOf(kind), "", map[string]interface{}{"kind": string(kind), "ids": ids, "deactivated": n})
	return n, nil
}

func loadOwned(tx *gorm.DB, orgID uuid.UUID, kind Kind, id uuid.UUID) error {
	switch kind {
	case KindCities:
		_, err := tenancy.Load[domain.City](tx, orgID, id, "City")
		return err
	case KindClients, KindSuppliers:
		p, err := tenancy.Load[domain.Party](tx, orgID, id, partyLabel(kind))
		if err != nil {
			return err
		}
		if role, _ := partyRole(kind); p.PartyRole != role {
			return apperr.NotFound(partyLabel(kind) + " not found")
		}
		return nil
	case KindTruckTypes:
		_, err := tenancy.Load[domain.TruckType](tx, orgID, id, "Truck type")
		return err
	case KindDemandCategories:
		_, err := tenancy.Load[domain.DemandCategory](tx, orgID, id, "Demand category")
		return err
	}
	return apperr.Validation("unknown collection " + string(kind))
}

func deactivate(tx *gorm.DB, orgID uuid.UUID, kind Kind, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := tenancy.Scoped(tx, orgID).Where("id IN ?", ids)
	var model interface{}
	switch kind {
	case KindCities:
		model = &domain.City{}
	case KindClients, KindSuppliers:
		role, _ := partyRole(kind)
		model = &domain.Party{}
		q = q.Where("party_role = ?", role)
	case KindTruckTypes:
		model = &domain.TruckType{}
	case KindDemandCategories:
		model = &domain.DemandCategory{}
	default:
		return 0, apperr.Validation("unknown collection " + string(kind))
	}
	res := q.Model(model).Update("is_active", false)
	return int(res.RowsAffected), res.Error
}

func partyRole(kind Kind) (string, error) {
	switch kind {
	case KindClients:
		return domain.PartyCustomer, nil
	case KindSuppliers:
		return domain.PartySupplier, nil
	}
	return "", apperr.Validation("unknown party collection " + string(kind))
}

func partyLabel(kind Kind) string {
	if kind == KindSuppliers {
		return "Supplier"
	}
	return "Client"
}

func entityOf(kind Kind) string {
	switch kind {
	case KindCities:
		return audit.EntityCity
	case KindClients, KindSuppliers:
		return audit.EntityParty
	case KindTruckTypes:
		return audit.EntityTruckType
	}
	return audit.EntityDemandCategory
}

func (s *Service) record(ctx context.Context, actor tenancy.Actor, action, entity string, id interface{}, meta map[string]interface{}) {
	if s.Audit == nil {
		return
	}
	entityID := ""
	switch v := id.(type) {
	case uuid.UUID:
		entityID = v.String()
	case string:
		entityID = v
	}
	s.Audit.Record(ctx, audit.Entry{
		OrgID:      actor.OrgID,
		UserID:     actor.UserRef(),
		Action:     action,
		EntityType: entity,
		EntityID:   entityID,
		Metadata:   meta,
	})
}

// ParseKind validates a collection name from the URL.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCities, KindClients, KindSuppliers, KindTruckTypes, KindDemandCategories:
		return k, nil
	}
	return "", apperr.NotFound("Unknown collection " + s)
}
