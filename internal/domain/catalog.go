package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Party roles.
const (
	PartyCustomer = "CUSTOMER"
	PartySupplier = "SUPPLIER"
)

// City is a pickup or dropoff location.
type City struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Code      string    `gorm:"column:code;type:varchar(20)" json:"code"`
	Region    string    `gorm:"column:region" json:"region"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (City) TableName() string {
	return "Cities"
}

func (c *City) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Party is a client (CUSTOMER) or a carrier (SUPPLIER).
type Party struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID        uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	PartyRole    string    `gorm:"column:party_role;type:varchar(10);not null;index" json:"partyRole"`
	ContactEmail *string   `gorm:"column:contact_email" json:"contactEmail"`
	IsActive     bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (Party) TableName() string {
	return "Parties"
}

func (p *Party) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type TruckType struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TruckType) TableName() string {
	return "TruckTypes"
}

func (t *TruckType) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type DemandCategory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID     uuid.UUID `gorm:"column:org_id;type:uuid;not null;index" json:"org_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (DemandCategory) TableName() string {
	return "DemandCategories"
}

func (d *DemandCategory) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
