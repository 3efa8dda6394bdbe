package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/logger"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday.
var today = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store *database.Store
	jobs  *JobScheduler
	days  *DaySelector
}

func newFixture(t *testing.T, opts ...database.Option) *fixture {
	t.Helper()

	db, err := database.Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := database.NewStore(db, opts...)
	days := NewDaySelector(store, time.Sunday, 180)
	staff := NewAvailabilityResolver(store, time.Sunday)
	balancer := NewBalancer(store, store, BalancerConfig{})
	jobs := NewJobScheduler(store, days, staff, balancer, logger.Discard(),
		WithClock(func() time.Time { return today }))

	return &fixture{store: store, jobs: jobs, days: days}
}

var jobSeq int

func (f *fixture) job(t *testing.T, job models.AlterationJob, types ...models.PartType) *models.AlterationJob {
	t.Helper()

	jobSeq++
	job.JobNumber = fmt.Sprintf("J-%d", jobSeq)
	job.QRCode = "JOB-" + job.JobNumber
	if job.Status == "" {
		job.Status = models.StatusNotStarted
	}
	for i, pt := range types {
		job.Parts = append(job.Parts, models.AlterationJobPart{
			PartName:             string(pt),
			PartType:             pt,
			Status:               models.StatusNotStarted,
			QRCode:               fmt.Sprintf("%s-P%d", job.JobNumber, i+1),
			EstimatedTimeMinutes: 60,
			Priority:             models.PriorityNormal,
		})
	}
	require.NoError(t, f.store.CreateJob(context.Background(), &job))
	return &job
}

func (f *fixture) staff(t *testing.T, name string, blocks ...models.AvailabilityBlock) *models.Staff {
	t.Helper()

	st := &models.Staff{
		Name: name, Username: name, PasswordHash: "x", Role: models.RoleTailor,
		IsActive: true, CanWork: true, Availability: blocks,
	}
	require.NoError(t, f.store.CreateStaff(context.Background(), st))
	return st
}

func (f *fixture) fill(t *testing.T, date string, unit models.UnitType) {
	t.Helper()

	ctx := context.Background()
	plan, err := f.store.GetOrCreatePlan(ctx, date)
	require.NoError(t, err)
	if spare := plan.Spare(unit); spare > 0 {
		require.NoError(t, f.store.Reserve(ctx, date, unit, spare))
	}
}

func ptr[T any](v T) *T { return &v }

func TestScheduleJobParts_FullDayMovesToNext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Due Friday 13th: preferred start is Tuesday 10th.
	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-13")}, models.PartJacket)
	f.fill(t, "2026-03-10", models.UnitJacket)

	res, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, models.OutcomeScheduled, res[0].Outcome)
	assert.Equal(t, "2026-03-11", res[0].Day)

	full, err := f.store.GetOrCreatePlan(ctx, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, 5, full.AssignedJackets)

	next, err := f.store.GetOrCreatePlan(ctx, "2026-03-11")
	require.NoError(t, err)
	assert.Equal(t, 1, next.AssignedJackets)
}

func TestScheduleJobParts_TargetDay(t *testing.T) {
	tests := []struct {
		name string
		job  models.AlterationJob
		want string
	}{
		{name: "due far ahead lands three days early", job: models.AlterationJob{DueDate: ptr("2026-03-20")}, want: "2026-03-17"},
		{name: "due too close uses the day before", job: models.AlterationJob{DueDate: ptr("2026-03-04")}, want: "2026-03-03"},
		{name: "linked event minus a week", job: models.AlterationJob{LinkedEventDate: ptr("2026-03-27")}, want: "2026-03-17"},
		{name: "no dates defaults to two weeks out", job: models.AlterationJob{}, want: "2026-03-13"},
		{name: "preferred day on the non-working weekday", job: models.AlterationJob{DueDate: ptr("2026-03-11")}, want: "2026-03-09"},
		{name: "last minute goes to next non-working weekday", job: models.AlterationJob{DueDate: ptr("2026-03-04"), LastMinute: true}, want: "2026-03-08"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			job := f.job(t, tt.job, models.PartPants)

			res, err := f.jobs.ScheduleJobParts(context.Background(), job.ID, nil)
			require.NoError(t, err)
			require.Len(t, res, 1)
			assert.Equal(t, tt.want, res[0].Day)

			part, err := f.store.GetPart(context.Background(), job.Parts[0].ID)
			require.NoError(t, err)
			require.NotNil(t, part.ScheduledFor)
			assert.Equal(t, tt.want, *part.ScheduledFor)
		})
	}
}

func TestScheduleJobParts_DueDateInRange(t *testing.T) {
	f := newFixture(t)
	due := "2026-03-20"
	job := f.job(t, models.AlterationJob{DueDate: &due},
		models.PartJacket, models.PartVest, models.PartPants, models.PartSkirt)

	res, err := f.jobs.ScheduleJobParts(context.Background(), job.ID, nil)
	require.NoError(t, err)
	for _, r := range res {
		assert.Equal(t, models.OutcomeScheduled, r.Outcome)
		assert.GreaterOrEqual(t, r.Day, "2026-03-17")
		assert.LessOrEqual(t, r.Day, due)
	}
}

func TestScheduleJobParts_EarliestAndPastClamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	later := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket)
	res, err := f.jobs.ScheduleJobParts(ctx, later.ID, ptr(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, "2026-03-19", res[0].Day)

	overdue := f.job(t, models.AlterationJob{DueDate: ptr("2026-02-20")}, models.PartJacket)
	res, err = f.jobs.ScheduleJobParts(ctx, overdue.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeCapacityExhausted, res[0].Outcome, "never scheduled into the past")
}

func TestScheduleJobParts_SkipsClosures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddClosure(ctx, "2026-03-17", "stock take"))

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket)
	res, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-18", res[0].Day)
}

func TestScheduleJobParts_NoCapacityBeforeDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fill(t, "2026-03-03", models.UnitJacket)
	f.fill(t, "2026-03-04", models.UnitJacket)

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-04")}, models.PartJacket, models.PartPants)
	res, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.Equal(t, models.OutcomeCapacityExhausted, res[0].Outcome)
	assert.Empty(t, res[0].Day)
	assert.Equal(t, models.OutcomeScheduled, res[1].Outcome, "pants capacity is separate")

	part, err := f.store.GetPart(ctx, job.Parts[0].ID)
	require.NoError(t, err)
	assert.Nil(t, part.ScheduledFor)
}

func TestScheduleJobParts_LastMinuteOverflow(t *testing.T) {
	f := newFixture(t)
	f.fill(t, "2026-03-08", models.UnitJacket)

	job := f.job(t, models.AlterationJob{LastMinute: true}, models.PartJacket)
	res, err := f.jobs.ScheduleJobParts(context.Background(), job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", res[0].Day)
}

func TestScheduleJobParts_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.staff(t, "alice")

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket)

	first, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.OutcomeScheduled, first[0].Outcome)
	require.NotNil(t, first[0].Assignee)
	assert.Equal(t, alice.ID, *first[0].Assignee)

	second, err := f.jobs.ScheduleJobParts(ctx, job.ID, ptr(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeAlreadyScheduled, second[0].Outcome)
	assert.Equal(t, first[0].Day, second[0].Day)
	assert.Equal(t, *first[0].Assignee, *second[0].Assignee)

	plan, err := f.store.GetOrCreatePlan(ctx, first[0].Day)
	require.NoError(t, err)
	assert.Equal(t, 1, plan.AssignedJackets)
}

func TestScheduleJobParts_AssigneeBalancing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	alice := f.staff(t, "alice")
	bob := f.staff(t, "bob")
	// Off on Tuesdays.
	carol := f.staff(t, "carol", models.AvailabilityBlock{Weekday: int(time.Tuesday), IsOff: true})

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")},
		models.PartJacket, models.PartJacket, models.PartPants)
	res, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)
	require.Len(t, res, 3)

	got := []uint{*res[0].Assignee, *res[1].Assignee, *res[2].Assignee}
	assert.Equal(t, []uint{alice.ID, bob.ID, alice.ID}, got)
	assert.NotContains(t, got, carol.ID)
}

func TestScheduleJobParts_UnknownJob(t *testing.T) {
	f := newFixture(t)

	_, err := f.jobs.ScheduleJobParts(context.Background(), 404, nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound), err)
}

func TestScheduleJobParts_RefusesClosedOutJobs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, st := range []models.Status{models.StatusOnHold, models.StatusComplete, models.StatusPickedUp} {
		job := f.job(t, models.AlterationJob{Status: st}, models.PartJacket)

		_, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
		assert.True(t, errors.Is(err, apperr.ErrValidation), "%s: %v", st, err)

		part, err := f.store.GetPart(ctx, job.Parts[0].ID)
		require.NoError(t, err)
		assert.Nil(t, part.ScheduledFor, st)
	}
}

func TestScheduleJobParts_ConcurrentCallersRespectCapacity(t *testing.T) {
	f := newFixture(t, database.WithDefaultCapacity(2, 2))
	ctx := context.Background()

	// Tue 17th to Fri 20th: four days, eight jacket slots for ten jobs.
	var jobs []*models.AlterationJob
	for i := 0; i < 10; i++ {
		jobs = append(jobs, f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket))
	}

	var wg sync.WaitGroup
	results := make([][]models.PartSchedule, len(jobs))
	errs := make([]error, len(jobs))
	for i, job := range jobs {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			results[i], errs[i] = f.jobs.ScheduleJobParts(ctx, id, nil)
		}(i, job.ID)
	}
	wg.Wait()

	scheduled := 0
	for i := range jobs {
		require.NoError(t, errs[i])
		if results[i][0].Outcome == models.OutcomeScheduled {
			scheduled++
		}
	}
	assert.Equal(t, 8, scheduled)

	total := 0
	for _, date := range []string{"2026-03-17", "2026-03-18", "2026-03-19", "2026-03-20"} {
		plan, err := f.store.GetOrCreatePlan(ctx, date)
		require.NoError(t, err)
		assert.LessOrEqual(t, plan.AssignedJackets, plan.JacketCapacity, date)
		total += plan.AssignedJackets
	}
	assert.Equal(t, 8, total)
}

func TestReschedulePart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartPants)
	_, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)

	t.Run("moves capacity with the part", func(t *testing.T) {
		res, err := f.jobs.ReschedulePart(ctx, job.Parts[0].ID, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, "2026-03-18", res.Day)

		old, err := f.store.GetOrCreatePlan(ctx, "2026-03-17")
		require.NoError(t, err)
		assert.Zero(t, old.AssignedPants)

		moved, err := f.store.GetOrCreatePlan(ctx, "2026-03-18")
		require.NoError(t, err)
		assert.Equal(t, 1, moved.AssignedPants)
	})

	t.Run("rejects the non-working weekday", func(t *testing.T) {
		_, err := f.jobs.ReschedulePart(ctx, job.Parts[0].ID, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC))
		assert.True(t, errors.Is(err, apperr.ErrValidation), err)
	})

	t.Run("rejects the past", func(t *testing.T) {
		_, err := f.jobs.ReschedulePart(ctx, job.Parts[0].ID, time.Date(2026, 2, 27, 0, 0, 0, 0, time.UTC))
		assert.True(t, errors.Is(err, apperr.ErrValidation), err)
	})

	t.Run("full target day", func(t *testing.T) {
		f.fill(t, "2026-03-19", models.UnitPants)
		_, err := f.jobs.ReschedulePart(ctx, job.Parts[0].ID, time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC))
		assert.True(t, errors.Is(err, apperr.ErrCapacityExhausted), err)

		part, err := f.store.GetPart(ctx, job.Parts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-18", *part.ScheduledFor, "failed move leaves the part where it was")
	})

	t.Run("started parts stay put", func(t *testing.T) {
		part, err := f.store.GetPart(ctx, job.Parts[0].ID)
		require.NoError(t, err)
		require.NoError(t, f.store.TransitionPart(ctx, part.ID, database.PartTransition{
			From: models.StatusNotStarted, To: models.StatusInProgress, Version: part.Version,
		}))

		_, err = f.jobs.ReschedulePart(ctx, part.ID, time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC))
		assert.True(t, errors.Is(err, apperr.ErrValidation), err)
	})
}

func TestBulkScheduler_Run(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket)
	b := f.job(t, models.AlterationJob{Status: models.StatusInProgress}, models.PartPants, models.PartShirt)
	f.job(t, models.AlterationJob{Status: models.StatusOnHold}, models.PartJacket)

	bulk := NewBulkScheduler(f.store, f.jobs, logger.Discard())

	res, err := bulk.Run(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Zero(t, res.Failed)

	for _, id := range []uint{a.ID, b.ID} {
		parts, err := f.store.ListPartsForJob(ctx, id)
		require.NoError(t, err)
		for _, p := range parts {
			assert.NotNil(t, p.ScheduledFor)
		}
	}

	res, err = bulk.Run(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, res.Processed, "nothing left to schedule")
}

func TestBoard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := NewBoard(f.store, f.days, f.store)

	alice := f.staff(t, "alice")
	bob := f.staff(t, "bob")
	require.NoError(t, f.store.AddClosure(ctx, "2026-03-09", "inventory"))

	job := f.job(t, models.AlterationJob{DueDate: ptr("2026-03-20")}, models.PartJacket, models.PartPants)
	_, err := f.jobs.ScheduleJobParts(ctx, job.ID, nil)
	require.NoError(t, err)

	t.Run("capacity window", func(t *testing.T) {
		rows, err := board.CapacityWindow(ctx, time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC), 3)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "2026-03-08", rows[1].Date)
		assert.True(t, rows[1].IsNonWorkingDay)
		assert.True(t, rows[2].IsClosed)
		assert.Equal(t, 5, rows[0].JacketCapacity)

		_, err = board.CapacityWindow(ctx, today, 0)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
		_, err = board.CapacityWindow(ctx, today, 91)
		assert.True(t, errors.Is(err, apperr.ErrValidation))
	})

	t.Run("assignments for day", func(t *testing.T) {
		day, err := board.AssignmentsForDay(ctx, time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, day.Assignments, 2)
		assert.Equal(t, 60, day.Workloads[alice.ID])
		assert.Equal(t, 60, day.Workloads[bob.ID])
		assert.InDelta(t, 100.0, day.Fairness, 0.001)

		empty, err := board.AssignmentsForDay(ctx, time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, empty.Assignments)
	})
}
