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

// CreateStaff inserts a staff member with availability blocks and skills.
func (s *Store) CreateStaff(ctx context.Context, staff *models.Staff) error {
	const op = "database.CreateStaff"

	for i := range staff.Skills {
		staff.Skills[i].Skill = models.NormalizeSkill(staff.Skills[i].Skill)
	}
	err := s.conn(ctx).Create(staff).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w: username %q already exists", op, apperr.ErrValidation, staff.Username)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) CountStaff(ctx context.Context) (int64, error) {
	var count int64
	if err := s.conn(ctx).Model(&models.Staff{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("database.CountStaff: %w", err)
	}
	return count, nil
}

func (s *Store) FindStaffByUsername(ctx context.Context, username string) (*models.Staff, error) {
	const op = "database.FindStaffByUsername"

	var staff models.Staff
	err := s.conn(ctx).Where("username = ?", username).First(&staff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w: staff %q", op, apperr.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &staff, nil
}

// ListWorkEligibleStaff returns active staff allowed to do alteration work,
// with their weekly availability preloaded.
func (s *Store) ListWorkEligibleStaff(ctx context.Context) ([]models.Staff, error) {
	const op = "database.ListWorkEligibleStaff"

	var staff []models.Staff
	err := s.conn(ctx).
		Preload("Availability").
		Where("is_active = ? AND can_work = ?", true, true).
		Order("id").
		Find(&staff).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return staff, nil
}

// StaffWithSkill returns skill rows at or above minProficiency for active,
// work-eligible staff.
func (s *Store) StaffWithSkill(ctx context.Context, skill string, minProficiency int) ([]models.StaffSkill, error) {
	const op = "database.StaffWithSkill"

	var skills []models.StaffSkill
	err := s.conn(ctx).
		Joins("JOIN staff ON staff.id = staff_skills.staff_id").
		Where("staff_skills.skill = ? AND staff_skills.proficiency >= ? AND staff.is_active = ? AND staff.can_work = ?",
			models.NormalizeSkill(skill), minProficiency, true, true).
		Order("staff_skills.staff_id").
		Find(&skills).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return skills, nil
}

// UpsertSkill sets a staff member's proficiency for skill.
func (s *Store) UpsertSkill(ctx context.Context, skill models.StaffSkill) error {
	const op = "database.UpsertSkill"

	skill.Skill = models.NormalizeSkill(skill.Skill)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "staff_id"}, {Name: "skill"}},
		DoUpdates: clause.AssignmentColumns([]string{"proficiency"}),
	}).Create(&skill).Error
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
