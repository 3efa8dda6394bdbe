package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateJob inserts a job together with its parts.
func (s *Store) CreateJob(ctx context.Context, job *models.AlterationJob) error {
	const op = "database.CreateJob"

	err := s.conn(ctx).Create(job).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w: job number or qr code already exists", op, apperr.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetJob loads a job with its parts ordered by id.
func (s *Store) GetJob(ctx context.Context, id uint) (*models.AlterationJob, error) {
	const op = "database.GetJob"

	var job models.AlterationJob
	err := s.conn(ctx).
		Preload("Parts", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&job, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w: job %d", op, apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &job, nil
}

// LockJob reads a job row with SELECT ... FOR UPDATE. Inside a transaction
// the row stays locked until commit, so part transitions of the same job
// serialize on it. SQLite has no row locks; its single writer connection
// serializes transactions anyway.
func (s *Store) LockJob(ctx context.Context, id uint) (*models.AlterationJob, error) {
	const op = "database.LockJob"

	var job models.AlterationJob
	err := s.conn(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w: job %d", op, apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &job, nil
}

// JobsNeedingSchedule returns ids of jobs in one of statuses that still have
// at least one part without a scheduled day.
func (s *Store) JobsNeedingSchedule(ctx context.Context, statuses []models.Status) ([]uint, error) {
	const op = "database.JobsNeedingSchedule"

	var ids []uint
	err := s.conn(ctx).Model(&models.AlterationJobPart{}).
		Distinct("alteration_job_parts.job_id").
		Joins("JOIN alteration_jobs ON alteration_jobs.id = alteration_job_parts.job_id").
		Where("alteration_job_parts.scheduled_for IS NULL AND alteration_jobs.status IN ?", statuses).
		Order("alteration_job_parts.job_id").
		Pluck("alteration_job_parts.job_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

func (s *Store) GetPart(ctx context.Context, id uint) (*models.AlterationJobPart, error) {
	const op = "database.GetPart"

	var part models.AlterationJobPart
	err := s.conn(ctx).First(&part, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w: part %d", op, apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &part, nil
}

func (s *Store) FindPartByQRCode(ctx context.Context, qrCode string) (*models.AlterationJobPart, error) {
	const op = "database.FindPartByQRCode"

	var part models.AlterationJobPart
	err := s.conn(ctx).Where("qr_code = ?", qrCode).First(&part).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w: unknown qr code %q", op, apperr.ErrNotFound, qrCode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &part, nil
}

// ListPartsForJob always reads from the database, never from a cached job.
func (s *Store) ListPartsForJob(ctx context.Context, jobID uint) ([]models.AlterationJobPart, error) {
	const op = "database.ListPartsForJob"

	var parts []models.AlterationJobPart
	if err := s.conn(ctx).Where("job_id = ?", jobID).Order("id").Find(&parts).Error; err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return parts, nil
}

// AssignPart sets scheduled_for and assigned_to on a part that has not been
// scheduled yet and is still at version.
func (s *Store) AssignPart(ctx context.Context, partID uint, version int, day string, assignee *uint) error {
	const op = "database.AssignPart"

	res := s.conn(ctx).Model(&models.AlterationJobPart{}).
		Where("id = ? AND version = ? AND scheduled_for IS NULL", partID, version).
		Updates(map[string]interface{}{
			"scheduled_for": day,
			"assigned_to":   assignee,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w: part %d changed while scheduling", op, apperr.ErrConcurrencyConflict, partID)
	}
	return nil
}

// MovePart is the explicit reschedule path: it replaces an existing
// scheduled day, guarded by the expected previous day and version.
func (s *Store) MovePart(ctx context.Context, partID uint, version int, fromDay, toDay string, assignee *uint) error {
	const op = "database.MovePart"

	res := s.conn(ctx).Model(&models.AlterationJobPart{}).
		Where("id = ? AND version = ? AND scheduled_for = ?", partID, version, fromDay).
		Updates(map[string]interface{}{
			"scheduled_for": toDay,
			"assigned_to":   assignee,
			"version":       gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w: part %d changed while rescheduling", op, apperr.ErrConcurrencyConflict, partID)
	}
	return nil
}

// PartTransition describes a status change applied by TransitionPart.
type PartTransition struct {
	From       models.Status
	To         models.Status
	Version    int
	AssignTo   *uint
	StampField string // started_at, completed_at or picked_up_at
	At         time.Time
}

// TransitionPart moves a part from t.From to t.To only if nobody else has
// changed it since it was read.
func (s *Store) TransitionPart(ctx context.Context, partID uint, t PartTransition) error {
	const op = "database.TransitionPart"

	updates := map[string]interface{}{
		"status":  t.To,
		"version": gorm.Expr("version + 1"),
	}
	if t.AssignTo != nil {
		updates["assigned_to"] = *t.AssignTo
	}
	if t.StampField != "" {
		updates[t.StampField] = t.At
	}

	res := s.conn(ctx).Model(&models.AlterationJobPart{}).
		Where("id = ? AND status = ? AND version = ?", partID, t.From, t.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w: part %d is no longer %s", op, apperr.ErrConcurrencyConflict, partID, t.From)
	}
	return nil
}

// CompareAndSetJobStatus changes a job's status only if it is still from.
func (s *Store) CompareAndSetJobStatus(ctx context.Context, jobID uint, from, to models.Status) error {
	const op = "database.CompareAndSetJobStatus"

	res := s.conn(ctx).Model(&models.AlterationJob{}).
		Where("id = ? AND status = ?", jobID, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w: job %d is no longer %s", op, apperr.ErrConcurrencyConflict, jobID, from)
	}
	return nil
}

// SetJobStatus is the manual override path.
func (s *Store) SetJobStatus(ctx context.Context, jobID uint, status models.Status) error {
	const op = "database.SetJobStatus"

	res := s.conn(ctx).Model(&models.AlterationJob{}).Where("id = ?", jobID).Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("%s: %w", op, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w: job %d", op, apperr.ErrNotFound, jobID)
	}
	return nil
}

// WorkloadMinutes sums estimated minutes of open parts scheduled for day,
// per staff member. Staff with no work are present with zero.
func (s *Store) WorkloadMinutes(ctx context.Context, staffIDs []uint, day string) (map[uint]int, error) {
	const op = "database.WorkloadMinutes"

	out := make(map[uint]int, len(staffIDs))
	for _, id := range staffIDs {
		out[id] = 0
	}
	if len(staffIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		AssignedTo uint
		Total      int
	}
	err := s.conn(ctx).Model(&models.AlterationJobPart{}).
		Select("assigned_to, COALESCE(SUM(estimated_time_minutes), 0) AS total").
		Where("assigned_to IN ? AND scheduled_for = ? AND status IN ?", staffIDs, day,
			[]models.Status{models.StatusNotStarted, models.StatusInProgress}).
		Group("assigned_to").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range rows {
		out[r.AssignedTo] = r.Total
	}
	return out, nil
}

// PartsForDay lists every part scheduled on day with job number and
// assignee name.
func (s *Store) PartsForDay(ctx context.Context, day string) ([]models.DayAssignment, error) {
	const op = "database.PartsForDay"

	var rows []models.DayAssignment
	err := s.conn(ctx).Table("alteration_job_parts AS p").
		Select(`p.id AS part_id, j.job_number, p.part_name, p.part_type, p.assigned_to,
			COALESCE(st.name, '') AS assignee_name, p.status, p.estimated_time_minutes`).
		Joins("JOIN alteration_jobs j ON j.id = p.job_id").
		Joins("LEFT JOIN staff st ON st.id = p.assigned_to").
		Where("p.scheduled_for = ?", day).
		Order("p.assigned_to, p.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rows, nil
}
