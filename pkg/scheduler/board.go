package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
)

const maxWindowDays = 90

// PlanSource is the capacity and assignment data behind the board views.
type PlanSource interface {
	GetOrCreatePlan(ctx context.Context, date string) (*models.WorkDayPlan, error)
	IsClosed(ctx context.Context, date string) (bool, error)
	PartsForDay(ctx context.Context, day string) ([]models.DayAssignment, error)
}

// Board serves the read-only calendar and per-day views.
type Board struct {
	plans    PlanSource
	days     *DaySelector
	workload WorkloadSource
}

func NewBoard(plans PlanSource, days *DaySelector, workload WorkloadSource) *Board {
	return &Board{plans: plans, days: days, workload: workload}
}

// CapacityWindow returns one row per day for numDays days starting at start.
func (b *Board) CapacityWindow(ctx context.Context, start time.Time, numDays int) ([]models.CapacityDay, error) {
	const op = "scheduler.CapacityWindow"

	if numDays < 1 || numDays > maxWindowDays {
		return nil, fmt.Errorf("%s: %w: days must be between 1 and %d", op, apperr.ErrValidation, maxWindowDays)
	}

	day := models.Day(start)
	rows := make([]models.CapacityDay, 0, numDays)
	for i := 0; i < numDays; i++ {
		date := models.FormatDate(day)

		plan, err := b.plans.GetOrCreatePlan(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		closed, err := b.plans.IsClosed(ctx, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		rows = append(rows, models.CapacityDay{
			Date:            date,
			JacketCapacity:  plan.JacketCapacity,
			PantsCapacity:   plan.PantsCapacity,
			AssignedJackets: plan.AssignedJackets,
			AssignedPants:   plan.AssignedPants,
			IsNonWorkingDay: b.days.IsNonWorkingDay(day),
			IsClosed:        closed,
		})
		day = day.AddDate(0, 0, 1)
	}
	return rows, nil
}

// DayBoard is the assignment list for one day plus how evenly it is spread.
type DayBoard struct {
	Date        string                 `json:"date"`
	Assignments []models.DayAssignment `json:"assignments"`
	Workloads   map[uint]int           `json:"workload_minutes"`
	Fairness    float64                `json:"fairness_score"`
}

func (b *Board) AssignmentsForDay(ctx context.Context, day time.Time) (*DayBoard, error) {
	const op = "scheduler.AssignmentsForDay"

	date := models.FormatDate(day)
	rows, err := b.plans.PartsForDay(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var ids []uint
	seen := make(map[uint]bool)
	for _, r := range rows {
		if r.AssignedTo != nil && !seen[*r.AssignedTo] {
			seen[*r.AssignedTo] = true
			ids = append(ids, *r.AssignedTo)
		}
	}
	load, err := b.workload.WorkloadMinutes(ctx, ids, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if rows == nil {
		rows = []models.DayAssignment{}
	}
	return &DayBoard{
		Date:        date,
		Assignments: rows,
		Workloads:   load,
		Fairness:    FairnessScore(load),
	}, nil
}
