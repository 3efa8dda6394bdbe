package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arnavshah/alterations-api/pkg/auth"
	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/models"
	"gopkg.in/yaml.v3"
)

type fixture struct {
	Staff    []staffFixture    `yaml:"staff"`
	Closures []closureFixture  `yaml:"closures"`
	Capacity []capacityFixture `yaml:"capacity"`
}

type staffFixture struct {
	Name         string         `yaml:"name"`
	Username     string         `yaml:"username"`
	Password     string         `yaml:"password"`
	Role         string         `yaml:"role"`
	CanWork      *bool          `yaml:"can_work"`
	Availability []blockFixture `yaml:"availability"`
	// Skills maps a task type (usually a part type) to a 1-5 rating.
	Skills map[string]int `yaml:"skills"`
}

type blockFixture struct {
	Weekday string `yaml:"weekday"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Off     bool   `yaml:"off"`
}

type closureFixture struct {
	Date   string `yaml:"date"`
	Reason string `yaml:"reason"`
}

type capacityFixture struct {
	Date    string `yaml:"date"`
	Jackets int    `yaml:"jackets"`
	Pants   int    `yaml:"pants"`
	// Closed is left as stored when omitted.
	Closed  *bool  `yaml:"closed"`
}

func parseFixture(data []byte) (*fixture, error) {
	var fx fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &fx, nil
}

// toStaff validates one staff entry and hashes its password.
func (s staffFixture) toStaff() (*models.Staff, error) {
	if s.Username == "" || s.Password == "" {
		return nil, fmt.Errorf("staff %q: username and password are required", s.Name)
	}
	role, err := models.ParseRole(s.Role)
	if err != nil {
		return nil, fmt.Errorf("staff %q: %w", s.Username, err)
	}

	hash, err := auth.HashPassword(s.Password)
	if err != nil {
		return nil, fmt.Errorf("staff %q: %w", s.Username, err)
	}

	canWork := role == models.RoleTailor
	if s.CanWork != nil {
		canWork = *s.CanWork
	}

	st := &models.Staff{
		Name:         s.Name,
		Username:     s.Username,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CanWork:      canWork,
	}

	for _, b := range s.Availability {
		wd, err := config.ParseWeekday(b.Weekday)
		if err != nil {
			return nil, fmt.Errorf("staff %q: %w", s.Username, err)
		}
		st.Availability = append(st.Availability, models.AvailabilityBlock{
			Weekday:   int(wd),
			StartTime: b.Start,
			EndTime:   b.End,
			IsOff:     b.Off,
		})
	}

	for skill, level := range s.Skills {
		if level < 1 || level > 5 {
			return nil, fmt.Errorf("staff %q: skill %s rated %d, want 1-5", s.Username, skill, level)
		}
		st.Skills = append(st.Skills, models.StaffSkill{Skill: models.NormalizeSkill(skill), Proficiency: level})
	}
	return st, nil
}

// apply writes the fixture. Staff that already exist are left untouched so
// the seed can be re-run.
func apply(ctx context.Context, store *database.Store, fx *fixture, log *slog.Logger) error {
	for _, sf := range fx.Staff {
		if _, err := store.FindStaffByUsername(ctx, sf.Username); err == nil {
			log.Info("staff exists, skipping", slog.String("username", sf.Username))
			continue
		}

		st, err := sf.toStaff()
		if err != nil {
			return err
		}
		if err := store.CreateStaff(ctx, st); err != nil {
			return err
		}
		log.Info("staff created", slog.String("username", st.Username), slog.String("role", string(st.Role)))
	}

	for _, c := range fx.Closures {
		if _, err := models.ParseDate(c.Date); err != nil {
			return fmt.Errorf("closure: %w", err)
		}
		if err := store.AddClosure(ctx, c.Date, c.Reason); err != nil {
			return err
		}
	}

	for _, c := range fx.Capacity {
		if _, err := models.ParseDate(c.Date); err != nil {
			return fmt.Errorf("capacity: %w", err)
		}
		if _, err := store.SetDayCapacity(ctx, c.Date, c.Jackets, c.Pants, c.Closed); err != nil {
			return err
		}
	}

	log.Info("fixture applied",
		slog.Int("staff", len(fx.Staff)),
		slog.Int("closures", len(fx.Closures)),
		slog.Int("capacity_overrides", len(fx.Capacity)))
	return nil
}
