package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staffList []models.Staff

func (s staffList) ListWorkEligibleStaff(context.Context) ([]models.Staff, error) {
	return s, nil
}

func TestWorkingStaffOn(t *testing.T) {
	staff := staffList{
		{ID: 1, IsActive: true, CanWork: true},
		{ID: 2, IsActive: true, CanWork: true, Availability: []models.AvailabilityBlock{
			{Weekday: int(time.Monday), StartTime: "09:00", EndTime: "17:00"},
		}},
		{ID: 3, IsActive: true, CanWork: true, Availability: []models.AvailabilityBlock{
			{Weekday: int(time.Monday), StartTime: "09:00", EndTime: "17:00"},
			{Weekday: int(time.Monday), IsOff: true},
		}},
		{ID: 4, IsActive: true, CanWork: true, Availability: []models.AvailabilityBlock{
			{Weekday: int(time.Tuesday), StartTime: "09:00", EndTime: "17:00"},
		}},
		{ID: 5, IsActive: true, CanWork: true, Availability: []models.AvailabilityBlock{
			{Weekday: int(time.Monday), StartTime: "17:00", EndTime: "09:00"},
		}},
		{ID: 6, IsActive: false, CanWork: true},
	}
	r := NewAvailabilityResolver(staff, time.Sunday)
	ctx := context.Background()

	got, err := r.WorkingStaffOn(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, got)

	got, err = r.WorkingStaffOn(ctx, today.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 4}, got)

	got, err = r.WorkingStaffOn(ctx, time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, got, "nobody works on the non-working weekday")
}
