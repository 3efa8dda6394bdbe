package main

import (
	"context"
	"testing"
	"time"

	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/logger"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopYAML = `
staff:
  - name: Tess
    username: tess
    password: needle
    role: tailor
    availability:
      - weekday: Monday
        start: "09:00"
        end: "17:00"
      - weekday: tuesday
        off: true
    skills:
      jacket: 4
      PANTS: 3
  - name: Frank
    username: frank
    password: counter
    role: front_desk
closures:
  - date: "2026-12-25"
    reason: Christmas
capacity:
  - date: "2026-03-14"
    jackets: 3
    pants: 2
`

func TestApplyFixture(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(config.Database{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	store := database.NewStore(db)

	fx, err := parseFixture([]byte(shopYAML))
	require.NoError(t, err)
	require.NoError(t, apply(ctx, store, fx, logger.Discard()))
	// Re-running is harmless.
	require.NoError(t, apply(ctx, store, fx, logger.Discard()))

	eligible, err := store.ListWorkEligibleStaff(ctx)
	require.NoError(t, err)
	require.Len(t, eligible, 1, "front desk does not do alterations by default")
	assert.Equal(t, "tess", eligible[0].Username)
	require.Len(t, eligible[0].Availability, 2)
	assert.Equal(t, int(time.Monday), eligible[0].Availability[0].Weekday)

	skills, err := store.StaffWithSkill(ctx, "JACKET", 3)
	require.NoError(t, err)
	assert.Len(t, skills, 1)

	closed, err := store.IsClosed(ctx, "2026-12-25")
	require.NoError(t, err)
	assert.True(t, closed)

	plan, err := store.GetOrCreatePlan(ctx, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, 3, plan.JacketCapacity)
	assert.Equal(t, 2, plan.PantsCapacity)
}

func TestFixtureValidation(t *testing.T) {
	_, err := (staffFixture{Username: "x", Password: "y", Role: "wizard"}).toStaff()
	assert.ErrorContains(t, err, "unknown role")

	_, err = (staffFixture{Username: "x", Password: "y", Role: "tailor", Skills: map[string]int{"JACKET": 9}}).toStaff()
	assert.ErrorContains(t, err, "want 1-5")

	_, err = (staffFixture{Username: "x", Password: "y", Role: "tailor", Availability: []blockFixture{{Weekday: "someday"}}}).toStaff()
	assert.ErrorContains(t, err, "unknown weekday")

	_, err = parseFixture([]byte("staff: [unclosed"))
	assert.Error(t, err)
}

func TestToStaffDefaults(t *testing.T) {
	st, err := (staffFixture{Name: "M", Username: "m", Password: "pw", Role: "manager"}).toStaff()
	require.NoError(t, err)
	assert.Equal(t, models.RoleManager, st.Role)
	assert.False(t, st.CanWork)
	assert.True(t, st.IsActive)
	assert.NotEqual(t, "pw", st.PasswordHash)
}
