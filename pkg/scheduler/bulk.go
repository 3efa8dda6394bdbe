package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arnavshah/alterations-api/pkg/models"
)

// JobSource lists jobs that still have unscheduled parts.
type JobSource interface {
	JobsNeedingSchedule(ctx context.Context, statuses []models.Status) ([]uint, error)
}

// openStatuses are the job statuses the bulk run picks up. COMPLETE,
// PICKED_UP and ON_HOLD jobs are left alone.
var openStatuses = []models.Status{models.StatusNotStarted, models.StatusInProgress}

type BulkResult struct {
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	FailedIDs []uint `json:"failed_job_ids,omitempty"`
}

// BulkScheduler runs ScheduleJobParts over every job with unscheduled parts.
type BulkScheduler struct {
	jobs      JobSource
	scheduler *JobScheduler
	log       *slog.Logger
}

func NewBulkScheduler(jobs JobSource, scheduler *JobScheduler, log *slog.Logger) *BulkScheduler {
	return &BulkScheduler{jobs: jobs, scheduler: scheduler, log: log}
}

// Run schedules jobs one after another. Reservations made for one job change
// what the next job sees, so jobs are never scheduled in parallel. A job that
// fails is counted and logged and the run continues.
func (b *BulkScheduler) Run(ctx context.Context, startDate *time.Time) (BulkResult, error) {
	const op = "scheduler.BulkScheduler.Run"

	log := b.log.With(slog.String("op", op))

	ids, err := b.jobs.JobsNeedingSchedule(ctx, openStatuses)
	if err != nil {
		return BulkResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var res BulkResult
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}

		if _, err := b.scheduler.ScheduleJobParts(ctx, id, startDate); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, fmt.Errorf("%s: %w", op, err)
			}
			log.Error("failed to schedule job", slog.Uint64("job_id", uint64(id)), slog.String("error", err.Error()))
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, id)
			continue
		}
		res.Processed++
	}

	log.Info("bulk schedule finished", slog.Int("processed", res.Processed), slog.Int("failed", res.Failed))
	return res, nil
}
