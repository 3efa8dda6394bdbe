package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/models"
)

const (
	defaultLeadDays     = 14
	linkedEventLeadDays = 7
	preferredLeadDays   = 3
)

// JobScheduler places each garment part of a job on a day with spare
// capacity and picks somebody to do it.
type JobScheduler struct {
	store    *database.Store
	days     *DaySelector
	staff    *AvailabilityResolver
	balancer *Balancer
	log      *slog.Logger
	now      func() time.Time
}

type Option func(*JobScheduler)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *JobScheduler) { s.now = now }
}

func NewJobScheduler(store *database.Store, days *DaySelector, staff *AvailabilityResolver, balancer *Balancer, log *slog.Logger, opts ...Option) *JobScheduler {
	s := &JobScheduler{
		store:    store,
		days:     days,
		staff:    staff,
		balancer: balancer,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *JobScheduler) today() time.Time {
	return models.Day(s.now())
}

// ScheduleJobParts schedules every part of an open job that has no day yet.
// Jobs that are on hold, complete or picked up are refused.
// Parts already scheduled are reported as such and never touched. A part
// that cannot be placed before the due date is reported with the
// capacity_exhausted outcome; other parts are still attempted.
func (s *JobScheduler) ScheduleJobParts(ctx context.Context, jobID uint, earliest *time.Time) ([]models.PartSchedule, error) {
	const op = "scheduler.ScheduleJobParts"

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !slices.Contains(openStatuses, job.Status) {
		return nil, fmt.Errorf("%s: %w: job %s is %s", op, apperr.ErrValidation, job.JobNumber, job.Status)
	}

	today := s.today()
	due, from, err := searchWindow(job, today, earliest)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log := s.log.With(slog.String("op", op), slog.String("job", job.JobNumber))

	results := make([]models.PartSchedule, 0, len(job.Parts))
	for _, part := range job.Parts {
		if part.ScheduledFor != nil {
			results = append(results, models.PartSchedule{
				PartID:   part.ID,
				Day:      *part.ScheduledFor,
				Assignee: part.AssignedTo,
				Outcome:  models.OutcomeAlreadyScheduled,
			})
			continue
		}

		res, err := s.schedulePart(ctx, job, part, due, from, today)
		if errors.Is(err, apperr.ErrCapacityExhausted) {
			log.Info("no capacity before due date",
				slog.Uint64("part", uint64(part.ID)),
				slog.String("due", models.FormatDate(due)))
			results = append(results, models.PartSchedule{PartID: part.ID, Outcome: models.OutcomeCapacityExhausted})
			continue
		}
		if err != nil {
			return results, fmt.Errorf("%s: part %d: %w", op, part.ID, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// searchWindow resolves the target due date and the first day to try.
func searchWindow(job *models.AlterationJob, today time.Time, earliest *time.Time) (due, from time.Time, err error) {
	switch {
	case job.DueDate != nil:
		due, err = models.ParseDate(*job.DueDate)
	case job.LinkedEventDate != nil:
		due, err = models.ParseDate(*job.LinkedEventDate)
		due = due.AddDate(0, 0, -linkedEventLeadDays)
	default:
		due = today.AddDate(0, 0, defaultLeadDays)
	}
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	from = due.AddDate(0, 0, -preferredLeadDays)
	if !today.AddDate(0, 0, preferredLeadDays).Before(due) {
		// Too close to the deadline: aim for the day before.
		from = due.AddDate(0, 0, -1)
	}
	if earliest != nil && models.Day(*earliest).After(from) {
		from = models.Day(*earliest)
	}
	if from.Before(today) {
		from = today
	}
	return due, from, nil
}

func (s *JobScheduler) schedulePart(ctx context.Context, job *models.AlterationJob, part models.AlterationJobPart, due, from, today time.Time) (*models.PartSchedule, error) {
	unit, explicit := part.PartType.Unit()
	if !explicit {
		s.log.Warn("part type has no capacity class, counting as jacket",
			slog.Uint64("part", uint64(part.ID)),
			slog.String("part_type", string(part.PartType)))
	}

	var day time.Time
	if job.LastMinute {
		day = s.days.NextNonWorkingWeekday(today)
	} else {
		var err error
		if day, err = s.days.FindNextSchedulableDay(ctx, from, false); err != nil {
			return nil, err
		}
	}

	for i := 0; i < s.days.Horizon(); i++ {
		if !job.LastMinute && day.After(due) {
			return nil, fmt.Errorf("%w: part %d due %s", apperr.ErrCapacityExhausted, part.ID, models.FormatDate(due))
		}

		res, err := s.tryDay(ctx, job, part, unit, day)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}

		if job.LastMinute {
			day = s.days.NextNonWorkingWeekday(day)
		} else if day, err = s.days.FindNextSchedulableDay(ctx, day.AddDate(0, 0, 1), false); err != nil {
			return nil, err
		}
	}
	return nil, ErrNoSchedulableDay
}

// tryDay attempts to place the part on day. It returns nil, nil when the day
// is unusable or full so the caller moves on.
func (s *JobScheduler) tryDay(ctx context.Context, job *models.AlterationJob, part models.AlterationJobPart, unit models.UnitType, day time.Time) (*models.PartSchedule, error) {
	date := models.FormatDate(day)

	plan, err := s.store.GetOrCreatePlan(ctx, date)
	if err != nil {
		return nil, err
	}
	closed, err := s.store.IsClosed(ctx, date)
	if err != nil {
		return nil, err
	}
	if closed || (s.days.IsNonWorkingDay(day) && !job.LastMinute) || plan.Spare(unit) <= 0 {
		return nil, nil
	}

	assignee, err := s.pickAssignee(ctx, day)
	if err != nil {
		return nil, err
	}

	err = s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.Reserve(ctx, date, unit, 1); err != nil {
			return err
		}
		return tx.AssignPart(ctx, part.ID, part.Version, date, assignee)
	})
	if errors.Is(err, apperr.ErrCapacityExhausted) {
		// Lost the last slot to a concurrent scheduler.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &models.PartSchedule{PartID: part.ID, Day: date, Assignee: assignee, Outcome: models.OutcomeScheduled}, nil
}

func (s *JobScheduler) pickAssignee(ctx context.Context, day time.Time) (*uint, error) {
	candidates, err := s.staff.WorkingStaffOn(ctx, day)
	if err != nil {
		return nil, err
	}
	return s.balancer.PickAssignee(ctx, candidates, day)
}

// ReschedulePart explicitly moves a not-yet-started part to day, releasing
// its old capacity and reserving the new one in a single transaction.
func (s *JobScheduler) ReschedulePart(ctx context.Context, partID uint, day time.Time) (*models.PartSchedule, error) {
	const op = "scheduler.ReschedulePart"

	part, err := s.store.GetPart(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	job, err := s.store.GetJob(ctx, part.JobID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if part.Status != models.StatusNotStarted {
		return nil, fmt.Errorf("%s: %w: part %d is %s", op, apperr.ErrValidation, partID, part.Status)
	}

	day = models.Day(day)
	date := models.FormatDate(day)
	if part.ScheduledFor != nil && *part.ScheduledFor == date {
		return &models.PartSchedule{PartID: part.ID, Day: date, Assignee: part.AssignedTo, Outcome: models.OutcomeAlreadyScheduled}, nil
	}
	if day.Before(s.today()) {
		return nil, fmt.Errorf("%s: %w: %s is in the past", op, apperr.ErrValidation, date)
	}
	if s.days.IsNonWorkingDay(day) && !job.LastMinute {
		return nil, fmt.Errorf("%s: %w: %s is the shop's non-working day", op, apperr.ErrValidation, date)
	}
	closed, err := s.store.IsClosed(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if closed {
		return nil, fmt.Errorf("%s: %w: shop is closed on %s", op, apperr.ErrValidation, date)
	}

	if _, err := s.store.GetOrCreatePlan(ctx, date); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	assignee, err := s.pickAssignee(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unit, _ := part.PartType.Unit()
	err = s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.Reserve(ctx, date, unit, 1); err != nil {
			return err
		}
		if part.ScheduledFor == nil {
			return tx.AssignPart(ctx, part.ID, part.Version, date, assignee)
		}
		if err := tx.Release(ctx, *part.ScheduledFor, unit, 1); err != nil {
			return err
		}
		return tx.MovePart(ctx, part.ID, part.Version, *part.ScheduledFor, date, assignee)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("part rescheduled",
		slog.String("op", op),
		slog.Uint64("part", uint64(part.ID)),
		slog.String("day", date))

	return &models.PartSchedule{PartID: part.ID, Day: date, Assignee: assignee, Outcome: models.OutcomeScheduled}, nil
}
