package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetOrCreatePlan returns the plan for date, creating it with the default
// capacities the first time the day is consulted.
func (s *Store) GetOrCreatePlan(ctx context.Context, date string) (*models.WorkDayPlan, error) {
	const op = "database.GetOrCreatePlan"

	// Single-query insert that leaves an existing row untouched
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoNothing: true,
	}).Create(&models.WorkDayPlan{
		Date:           date,
		JacketCapacity: s.jacketCapacity,
		PantsCapacity:  s.pantsCapacity,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var plan models.WorkDayPlan
	if err := s.conn(ctx).Where("date = ?", date).First(&plan).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &plan, nil
}

func unitColumns(unit models.UnitType) (assigned, capacity string) {
	if unit == models.UnitPants {
		return "assigned_pants", "pants_capacity"
	}
	return "assigned_jackets", "jacket_capacity"
}

// Reserve atomically adds n units to the day's assigned counter, but only
// if the day is open and the result stays within capacity. It is the only
// way assigned counters grow.
func (s *Store) Reserve(ctx context.Context, date string, unit models.UnitType, n int) error {
	const op = "database.Reserve"

	if n <= 0 {
		return fmt.Errorf("%s: %w: reserve count must be positive", op, apperr.ErrValidation)
	}

	assigned, capacity := unitColumns(unit)
	res := s.conn(ctx).Model(&models.WorkDayPlan{}).
		Where("date = ? AND is_closed = ? AND "+assigned+" + ? <= "+capacity, date, false, n).
		Updates(map[string]interface{}{
			assigned:  gorm.Expr(assigned+" + ?", n),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := s.planExists(ctx, date); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %s %s full or closed", op, apperr.ErrCapacityExhausted, date, unit)
	}
	return nil
}

// Release gives back n previously reserved units.
func (s *Store) Release(ctx context.Context, date string, unit models.UnitType, n int) error {
	const op = "database.Release"

	if n <= 0 {
		return fmt.Errorf("%s: %w: release count must be positive", op, apperr.ErrValidation)
	}

	assigned, _ := unitColumns(unit)
	res := s.conn(ctx).Model(&models.WorkDayPlan{}).
		Where("date = ? AND "+assigned+" - ? >= 0", date, n).
		Updates(map[string]interface{}{
			assigned:  gorm.Expr(assigned+" - ?", n),
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		if err := s.planExists(ctx, date); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: nothing to release on %s", op, apperr.ErrConcurrencyConflict, date)
	}
	return nil
}

// SetDayCapacity changes a day's capacities and, when closed is non-nil, its
// closed flag. Capacity can never drop below what is already assigned, and a
// day with scheduled parts cannot be closed.
func (s *Store) SetDayCapacity(ctx context.Context, date string, jackets, pants int, closed *bool) (*models.WorkDayPlan, error) {
	const op = "database.SetDayCapacity"

	if jackets < 0 || pants < 0 {
		return nil, fmt.Errorf("%s: %w: capacity must not be negative", op, apperr.ErrValidation)
	}
	if _, err := s.GetOrCreatePlan(ctx, date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	updates := map[string]interface{}{
		"jacket_capacity": jackets,
		"pants_capacity":  pants,
		"version":         gorm.Expr("version + 1"),
	}
	q := s.conn(ctx).Model(&models.WorkDayPlan{}).
		Where("date = ? AND assigned_jackets <= ? AND assigned_pants <= ?", date, jackets, pants)
	if closed != nil {
		updates["is_closed"] = *closed
		if *closed {
			q = q.Where("assigned_jackets = 0 AND assigned_pants = 0")
		}
	}

	res := q.Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		plan, err := s.GetOrCreatePlan(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if plan.AssignedJackets > jackets || plan.AssignedPants > pants {
			return nil, fmt.Errorf("%s: %w: capacity below already assigned work on %s", op, apperr.ErrValidation, date)
		}
		return nil, fmt.Errorf("%s: %w: %s still has %d parts scheduled, reschedule them first",
			op, apperr.ErrValidation, date, plan.AssignedJackets+plan.AssignedPants)
	}
	return s.GetOrCreatePlan(ctx, date)
}

func (s *Store) planExists(ctx context.Context, date string) error {
	var count int64
	if err := s.conn(ctx).Model(&models.WorkDayPlan{}).Where("date = ?", date).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: no plan for %s", apperr.ErrNotFound, date)
	}
	return nil
}

// AddClosure marks date as closed. Adding the same date twice is a no-op.
// The day's plan is flagged closed in the same transaction, guarded on
// nothing being assigned, so a concurrent Reserve either lands first and
// blocks the closure or sees the day closed and fails.
func (s *Store) AddClosure(ctx context.Context, date, reason string) error {
	const op = "database.AddClosure"

	err := s.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.GetOrCreatePlan(ctx, date); err != nil {
			return err
		}

		res := tx.conn(ctx).Model(&models.WorkDayPlan{}).
			Where("date = ? AND assigned_jackets = 0 AND assigned_pants = 0", date).
			Updates(map[string]interface{}{
				"is_closed": true,
				"version":   gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s has parts scheduled, reschedule them first", apperr.ErrValidation, date)
		}

		return tx.conn(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.AssignmentColumns([]string{"reason"}),
		}).Create(&models.Closure{Date: date, Reason: reason}).Error
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsClosed reports whether date is a closure or its plan is flagged closed.
func (s *Store) IsClosed(ctx context.Context, date string) (bool, error) {
	const op = "database.IsClosed"

	var count int64
	if err := s.conn(ctx).Model(&models.Closure{}).Where("date = ?", date).Count(&count).Error; err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if count > 0 {
		return true, nil
	}

	var plan models.WorkDayPlan
	err := s.conn(ctx).Select("is_closed").Where("date = ?", date).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return plan.IsClosed, nil
}
