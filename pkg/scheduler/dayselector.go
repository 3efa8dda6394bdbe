package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
)

// ErrNoSchedulableDay is returned when the search horizon runs out.
var ErrNoSchedulableDay = fmt.Errorf("%w: no schedulable day within search horizon", apperr.ErrCapacityExhausted)

// ClosureLookup reports shop closures. Dates are YYYY-MM-DD.
type ClosureLookup interface {
	IsClosed(ctx context.Context, date string) (bool, error)
}

// DaySelector walks the calendar honouring closures and the shop's
// non-working weekday.
type DaySelector struct {
	closures   ClosureLookup
	nonWorking time.Weekday
	horizon    int
}

func NewDaySelector(closures ClosureLookup, nonWorking time.Weekday, horizonDays int) *DaySelector {
	if horizonDays <= 0 {
		horizonDays = 180
	}
	return &DaySelector{closures: closures, nonWorking: nonWorking, horizon: horizonDays}
}

// Horizon is the maximum number of day advances a search may take.
func (d *DaySelector) Horizon() int {
	return d.horizon
}

func (d *DaySelector) NonWorkingWeekday() time.Weekday {
	return d.nonWorking
}

func (d *DaySelector) IsNonWorkingDay(day time.Time) bool {
	return day.Weekday() == d.nonWorking
}

// FindNextSchedulableDay returns the first day on or after from that is not
// closed and, unless allowNonWorkingDay, is not the non-working weekday.
func (d *DaySelector) FindNextSchedulableDay(ctx context.Context, from time.Time, allowNonWorkingDay bool) (time.Time, error) {
	const op = "scheduler.FindNextSchedulableDay"

	day := models.Day(from)
	for i := 0; i < d.horizon; i++ {
		if err := ctx.Err(); err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, err)
		}

		if allowNonWorkingDay || !d.IsNonWorkingDay(day) {
			closed, err := d.closures.IsClosed(ctx, models.FormatDate(day))
			if err != nil {
				return time.Time{}, fmt.Errorf("%s: %w", op, err)
			}
			if !closed {
				return day, nil
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return time.Time{}, fmt.Errorf("%s: from %s: %w", op, models.FormatDate(from), ErrNoSchedulableDay)
}

// NextNonWorkingWeekday returns the next occurrence of the non-working
// weekday strictly after from. Only last-minute work lands there.
func (d *DaySelector) NextNonWorkingWeekday(from time.Time) time.Time {
	day := models.Day(from)
	delta := (int(d.nonWorking) - int(day.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return day.AddDate(0, 0, delta)
}
