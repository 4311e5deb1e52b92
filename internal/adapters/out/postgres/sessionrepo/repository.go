package sessionrepo

import (
	"context"
	"errors"
	"time"

	"pizzeria/internal/core/domain/model/session"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSessionStore implements the session store contract using GORM.
type GormSessionStore struct {
	db *gorm.DB
}

// NewGormSessionStore creates a session store over an open database handle.
func NewGormSessionStore(db *gorm.DB) (*GormSessionStore, error) {
	if db == nil {
		return nil, errs.NewValueIsRequiredError("db")
	}

	return &GormSessionStore{db: db}, nil
}

// Get reads one slot. The boolean reports presence.
func (s *GormSessionStore) Get(
	ctx context.Context, identity session.Identity, slot ports.Slot,
) ([]byte, bool, error) {
	if err := identity.Validate(); err != nil {
		return nil, false, err
	}

	var dto SessionSlotDTO
	err := s.db.WithContext(ctx).
		First(&dto, "identity = ? AND slot = ?", identity.String(), string(slot)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return dto.Value, true, nil
}

// Set writes one slot, replacing any previous value.
func (s *GormSessionStore) Set(
	ctx context.Context, identity session.Identity, slot ports.Slot, value []byte,
) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	dto := SessionSlotDTO{
		Identity:  identity.String(),
		Slot:      string(slot),
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}, {Name: "slot"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&dto).Error
}

// Delete removes one slot. Deleting an absent slot is not an error.
func (s *GormSessionStore) Delete(
	ctx context.Context, identity session.Identity, slot ports.Slot,
) error {
	if err := identity.Validate(); err != nil {
		return err
	}

	return s.db.WithContext(ctx).
		Delete(&SessionSlotDTO{}, "identity = ? AND slot = ?", identity.String(), string(slot)).Error
}
