package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/alterations-api/pkg/models"
)

// StaffDirectory lists active, work-eligible staff with weekly availability.
type StaffDirectory interface {
	ListWorkEligibleStaff(ctx context.Context) ([]models.Staff, error)
}

// AvailabilityResolver derives who is working on a given day from the
// recurring weekly schedules.
type AvailabilityResolver struct {
	staff      StaffDirectory
	nonWorking time.Weekday
}

func NewAvailabilityResolver(staff StaffDirectory, nonWorking time.Weekday) *AvailabilityResolver {
	return &AvailabilityResolver{staff: staff, nonWorking: nonWorking}
}

// WorkingStaffOn returns ids of staff working on day, in id order. Staff
// without any schedule configured count as available, except on the
// non-working weekday when nobody works.
func (r *AvailabilityResolver) WorkingStaffOn(ctx context.Context, day time.Time) ([]uint, error) {
	weekday := day.Weekday()
	if weekday == r.nonWorking {
		return nil, nil
	}

	staff, err := r.staff.ListWorkEligibleStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("scheduler.WorkingStaffOn: %w", err)
	}

	var working []uint
	for _, st := range staff {
		if !st.IsActive || !st.CanWork {
			continue
		}
		if worksOn(st.Availability, weekday) {
			working = append(working, st.ID)
		}
	}
	return working, nil
}

func worksOn(blocks []models.AvailabilityBlock, weekday time.Weekday) bool {
	if len(blocks) == 0 {
		return true
	}

	hasWorkingBlock := false
	for _, b := range blocks {
		if b.Weekday != int(weekday) {
			continue
		}
		if b.IsOff {
			return false
		}
		if b.Working() {
			hasWorkingBlock = true
		}
	}
	return hasWorkingBlock
}
