package tenancy

import (
	"errors"
	"strings"

	"loadplan-backend/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Owned is implemented by every tenant-scoped model.
type Owned interface {
	OwnerOrg() uuid.UUID
}

// Scoped restricts a query to one tenant. Every read goes through this or an
// explicit org_id condition.
func Scoped(db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return db.Where("org_id = ?", orgID)
}

// ParseID parses an id taken from a request body field.
func ParseID(s, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, apperr.ValidationFields(field+" must be a valid id", map[string]string{field: field + " must be a valid id"})
	}
	return id, nil
}

// Load fetches a row the caller intends to mutate. A missing row is NOT_FOUND;
// a row owned by another tenant is FORBIDDEN and is never returned.
func Load[T any, P interface {
	*T
	Owned
}](tx *gorm.DB, orgID, id uuid.UUID, what string) (*T, error) {
	row := new(T)
	if err := tx.Where("id = ?", id).First(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(what + " not found")
		}
		return nil, err
	}
	if P(row).OwnerOrg() != orgID {
		return nil, apperr.Forbidden("You do not have access to this " + lower(what))
	}
	return row, nil
}

// Find fetches a referenced row inside the tenant. Rows of other tenants are
// indistinguishable from missing ones.
func Find[T any](tx *gorm.DB, orgID, id uuid.UUID, what string) (*T, error) {
	row := new(T)
	if err := Scoped(tx, orgID).Where("id = ?", id).First(row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(what + " not found")
		}
		return nil, err
	}
	return row, nil
}

func lower(s string) string {
	b := []byte(s)
	if len(b) > 0 && b[0] >= 'A' && b[0] <= 'Z' {
		b[0] += 'a' - 'A'
	}
	return string(b)
}

// Actor is the authenticated caller of a tenant-scoped operation.
type Actor struct {
	OrgID  uuid.UUID
	UserID uuid.UUID
	Name   string
	Role   string
}

// UserRef returns the actor's user id for nullable columns.
func (a Actor) UserRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
