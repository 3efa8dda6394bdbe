package models

import (
	"errors"
	"testing"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScanType(t *testing.T) {
	st, err := ParseScanType("start_work")
	require.NoError(t, err)
	assert.Equal(t, ScanStartWork, st)

	_, err = ParseScanType("DANCE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestParsePartType_RejectsUnknown(t *testing.T) {
	_, err := ParsePartType("cape")
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	pt, err := ParsePartType(" Skirt ")
	require.NoError(t, err)
	assert.Equal(t, PartSkirt, pt)
}

func TestParsePriority_DefaultsToNormal(t *testing.T) {
	p, err := ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, PriorityNormal, p)
}

func TestPartTypeUnit(t *testing.T) {
	tests := []struct {
		part     PartType
		unit     UnitType
		explicit bool
	}{
		{PartJacket, UnitJacket, true},
		{PartVest, UnitJacket, true},
		{PartShirt, UnitJacket, true},
		{PartPants, UnitPants, true},
		{PartSkirt, UnitPants, true},
		{PartOther, UnitJacket, false},
	}
	for _, tt := range tests {
		unit, explicit := tt.part.Unit()
		assert.Equal(t, tt.unit, unit, tt.part)
		assert.Equal(t, tt.explicit, explicit, tt.part)
	}
}

func TestWorkDayPlanSpare(t *testing.T) {
	p := WorkDayPlan{JacketCapacity: 5, AssignedJackets: 3, PantsCapacity: 4, AssignedPants: 4}
	assert.Equal(t, 2, p.Spare(UnitJacket))
	assert.Equal(t, 0, p.Spare(UnitPants))
}

func TestAvailabilityBlockWorking(t *testing.T) {
	assert.True(t, AvailabilityBlock{StartTime: "09:00", EndTime: "17:00"}.Working())
	assert.False(t, AvailabilityBlock{StartTime: "09:00", EndTime: "17:00", IsOff: true}.Working())
	assert.False(t, AvailabilityBlock{}.Working())
	assert.False(t, AvailabilityBlock{StartTime: "17:00", EndTime: "09:00"}.Working())
}

func TestDates(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04", FormatDate(AddDays(d, 3)))
	assert.Equal(t, d, Day(time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)))

	_, err = ParseDate("03/01/2026")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
