package scheduler

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/models"
)

// WorkloadSource sums open estimated minutes per staff member for a day.
type WorkloadSource interface {
	WorkloadMinutes(ctx context.Context, staffIDs []uint, day string) (map[uint]int, error)
}

// SkillDirectory returns staff rated at least minProficiency in skill.
type SkillDirectory interface {
	StaffWithSkill(ctx context.Context, skill string, minProficiency int) ([]models.StaffSkill, error)
}

type BalancerConfig struct {
	DailyCapMinutes int
	MinProficiency  int
	// DayStart and DayEnd bound the fixed daily schedule block, HH:MM.
	DayStart string
	DayEnd   string
}

// Balancer spreads work across staff by same-day workload.
type Balancer struct {
	workload WorkloadSource
	skills   SkillDirectory
	cfg      BalancerConfig
}

func NewBalancer(workload WorkloadSource, skills SkillDirectory, cfg BalancerConfig) *Balancer {
	if cfg.DailyCapMinutes <= 0 {
		cfg.DailyCapMinutes = 480
	}
	if cfg.MinProficiency <= 0 {
		cfg.MinProficiency = 3
	}
	if cfg.DayStart == "" {
		cfg.DayStart = "09:00"
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = "17:00"
	}
	return &Balancer{workload: workload, skills: skills, cfg: cfg}
}

// PickAssignee returns the candidate with the least open work on day, or nil
// when there are no candidates. Ties go to the earlier candidate.
func (b *Balancer) PickAssignee(ctx context.Context, candidates []uint, day time.Time) (*uint, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	load, err := b.workload.WorkloadMinutes(ctx, candidates, models.FormatDate(day))
	if err != nil {
		return nil, fmt.Errorf("scheduler.PickAssignee: %w", err)
	}

	best := candidates[0]
	for _, id := range candidates[1:] {
		if load[id] < load[best] {
			best = id
		}
	}
	return &best, nil
}

// TailorRequest asks for skill-gated staff for an appointment-style slot.
type TailorRequest struct {
	Skill           string
	Date            time.Time
	Start           string // HH:MM
	DurationMinutes int
	// PreviousAssignee is whoever took the previous piece of the same job.
	PreviousAssignee *uint
}

type TailorCandidate struct {
	StaffID         uint `json:"staff_id"`
	Proficiency     int  `json:"proficiency"`
	WorkloadMinutes int  `json:"workload_minutes"`
}

// FindAvailableTailors ranks qualified staff by (workload asc, proficiency
// desc). Candidates whose day would exceed the daily cap are dropped, and
// nobody qualifies for a window outside the schedule block.
func (b *Balancer) FindAvailableTailors(ctx context.Context, req TailorRequest) ([]TailorCandidate, error) {
	const op = "scheduler.FindAvailableTailors"

	req.Skill = models.NormalizeSkill(req.Skill)
	if req.Skill == "" {
		return nil, fmt.Errorf("%s: %w: skill is required", op, apperr.ErrValidation)
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: %w: duration must be positive", op, apperr.ErrValidation)
	}
	start, err := clockMinutes(req.Start)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: start %q", op, apperr.ErrValidation, req.Start)
	}
	blockStart, _ := clockMinutes(b.cfg.DayStart)
	blockEnd, _ := clockMinutes(b.cfg.DayEnd)
	if start < blockStart || start+req.DurationMinutes > blockEnd {
		return []TailorCandidate{}, nil
	}

	skills, err := b.skills.StaffWithSkill(ctx, req.Skill, b.cfg.MinProficiency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(skills) == 0 {
		return []TailorCandidate{}, nil
	}

	ids := make([]uint, 0, len(skills))
	for _, sk := range skills {
		ids = append(ids, sk.StaffID)
	}
	load, err := b.workload.WorkloadMinutes(ctx, ids, models.FormatDate(req.Date))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	candidates := make([]TailorCandidate, 0, len(skills))
	for _, sk := range skills {
		if load[sk.StaffID]+req.DurationMinutes > b.cfg.DailyCapMinutes {
			continue
		}
		candidates = append(candidates, TailorCandidate{
			StaffID:         sk.StaffID,
			Proficiency:     sk.Proficiency,
			WorkloadMinutes: load[sk.StaffID],
		})
	}

	slices.SortStableFunc(candidates, func(a, b TailorCandidate) int {
		if c := cmp.Compare(a.WorkloadMinutes, b.WorkloadMinutes); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Proficiency, a.Proficiency); c != 0 {
			return c
		}
		return cmp.Compare(a.StaffID, b.StaffID)
	})

	return rotateAway(candidates, req.PreviousAssignee), nil
}

// rotateAway moves the previous assignee from the head of the ranking to the
// back when somebody else is eligible too.
func rotateAway(ranked []TailorCandidate, previous *uint) []TailorCandidate {
	if previous == nil || len(ranked) < 2 || ranked[0].StaffID != *previous {
		return ranked
	}
	return append(ranked[1:], ranked[0])
}

func clockMinutes(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FairnessScore returns a percentage (0-100) representing how evenly
// minutes are spread. 100% is perfectly fair (standard deviation = 0).
func FairnessScore(workloads map[uint]int) float64 {
	if len(workloads) == 0 {
		return 100.0
	}

	var sum float64
	for _, m := range workloads {
		sum += float64(m)
	}
	if sum == 0 {
		return 100.0
	}

	mean := sum / float64(len(workloads))

	var varianceSum float64
	for _, m := range workloads {
		diff := float64(m) - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(workloads)))

	// 0% means SD is >= mean
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}
