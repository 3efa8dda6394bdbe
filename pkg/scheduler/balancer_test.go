package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticWorkload map[uint]int

func (w staticWorkload) WorkloadMinutes(_ context.Context, ids []uint, _ string) (map[uint]int, error) {
	out := make(map[uint]int, len(ids))
	for _, id := range ids {
		out[id] = w[id]
	}
	return out, nil
}

type staticSkills []models.StaffSkill

func (s staticSkills) StaffWithSkill(_ context.Context, skill string, min int) ([]models.StaffSkill, error) {
	var out []models.StaffSkill
	for _, sk := range s {
		if sk.Skill == skill && sk.Proficiency >= min {
			out = append(out, sk)
		}
	}
	return out, nil
}

func TestPickAssignee(t *testing.T) {
	b := NewBalancer(staticWorkload{1: 120, 2: 30, 3: 30}, staticSkills{}, BalancerConfig{})
	ctx := context.Background()

	got, err := b.PickAssignee(ctx, []uint{1, 2, 3}, today)
	require.NoError(t, err)
	assert.Equal(t, uint(2), *got)

	got, err = b.PickAssignee(ctx, nil, today)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFindAvailableTailors(t *testing.T) {
	skills := staticSkills{
		{StaffID: 1, Skill: "JACKET", Proficiency: 5},
		{StaffID: 2, Skill: "JACKET", Proficiency: 3},
		{StaffID: 3, Skill: "JACKET", Proficiency: 4},
		{StaffID: 4, Skill: "JACKET", Proficiency: 2},
		{StaffID: 5, Skill: "JACKET", Proficiency: 5},
	}
	load := staticWorkload{1: 60, 2: 60, 3: 0, 5: 450}
	b := NewBalancer(load, skills, BalancerConfig{})
	ctx := context.Background()

	req := TailorRequest{Skill: "JACKET", Date: today, Start: "10:00", DurationMinutes: 60}

	t.Run("ranked by workload then proficiency", func(t *testing.T) {
		got, err := b.FindAvailableTailors(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, []uint{3, 1, 2}, staffIDs(got))
	})

	t.Run("rotates away from the previous assignee", func(t *testing.T) {
		r := req
		r.PreviousAssignee = ptr(uint(3))
		got, err := b.FindAvailableTailors(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, []uint{1, 2, 3}, staffIDs(got))
	})

	t.Run("skill name in any case", func(t *testing.T) {
		r := req
		r.Skill = " jacket"
		got, err := b.FindAvailableTailors(ctx, r)
		require.NoError(t, err)
		assert.Equal(t, []uint{3, 1, 2}, staffIDs(got))
	})

	t.Run("window outside the schedule block", func(t *testing.T) {
		r := req
		r.Start = "16:30"
		got, err := b.FindAvailableTailors(ctx, r)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("invalid request", func(t *testing.T) {
		for _, r := range []TailorRequest{
			{Date: today, Start: "10:00", DurationMinutes: 60},
			{Skill: "JACKET", Date: today, Start: "10:00"},
			{Skill: "JACKET", Date: today, Start: "ten", DurationMinutes: 60},
		} {
			_, err := b.FindAvailableTailors(ctx, r)
			assert.True(t, errors.Is(err, apperr.ErrValidation), err)
		}
	})
}

func staffIDs(cs []TailorCandidate) []uint {
	ids := make([]uint, 0, len(cs))
	for _, c := range cs {
		ids = append(ids, c.StaffID)
	}
	return ids
}

func TestFairnessScore(t *testing.T) {
	assert.Equal(t, 100.0, FairnessScore(nil))
	assert.Equal(t, 100.0, FairnessScore(map[uint]int{1: 0, 2: 0}))
	assert.Equal(t, 100.0, FairnessScore(map[uint]int{1: 90, 2: 90}))
	assert.InDelta(t, 50.0, FairnessScore(map[uint]int{1: 30, 2: 90}), 0.001)
	assert.Equal(t, 0.0, FairnessScore(map[uint]int{1: 0, 2: 0, 3: 300}))
}
