package models

import (
	"fmt"
	"strings"

	"github.com/arnavshah/alterations-api/pkg/apperr"
)

// Status is shared by jobs and parts.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusComplete   Status = "COMPLETE"
	StatusPickedUp   Status = "PICKED_UP"
	StatusOnHold     Status = "ON_HOLD"
)

var statuses = []Status{StatusNotStarted, StatusInProgress, StatusComplete, StatusPickedUp, StatusOnHold}

func ParseStatus(s string) (Status, error) {
	return parseEnum("status", s, statuses)
}

// Terminal reports whether no further work can happen.
func (s Status) Terminal() bool {
	return s == StatusPickedUp
}

type PartType string

const (
	PartJacket PartType = "JACKET"
	PartVest   PartType = "VEST"
	PartShirt  PartType = "SHIRT"
	PartPants  PartType = "PANTS"
	PartSkirt  PartType = "SKIRT"
	// PartOther is accepted at intake but has no capacity class of its own.
	PartOther PartType = "OTHER"
)

var partTypes = []PartType{PartJacket, PartVest, PartShirt, PartPants, PartSkirt, PartOther}

func ParsePartType(s string) (PartType, error) {
	return parseEnum("part type", s, partTypes)
}

// NormalizeSkill gives the stored form of a skill name. Skills are usually
// part types but may be any task, so they are not checked against a list.
func NormalizeSkill(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// UnitType is the capacity class a part consumes.
type UnitType string

const (
	UnitJacket UnitType = "JACKET"
	UnitPants  UnitType = "PANTS"
)

// Unit returns the capacity class for p. The second result is false when p
// has no explicit class and falls back to jacket capacity.
func (p PartType) Unit() (UnitType, bool) {
	switch p {
	case PartJacket, PartVest, PartShirt:
		return UnitJacket, true
	case PartPants, PartSkirt:
		return UnitPants, true
	default:
		return UnitJacket, false
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityRush   Priority = "RUSH"
)

var priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityRush}

// ParsePriority defaults an empty string to NORMAL.
func ParsePriority(s string) (Priority, error) {
	if strings.TrimSpace(s) == "" {
		return PriorityNormal, nil
	}
	return parseEnum("priority", s, priorities)
}

type ScanType string

const (
	ScanStartWork   ScanType = "START_WORK"
	ScanFinishWork  ScanType = "FINISH_WORK"
	ScanPickup      ScanType = "PICKUP"
	ScanStatusCheck ScanType = "STATUS_CHECK"
)

var scanTypes = []ScanType{ScanStartWork, ScanFinishWork, ScanPickup, ScanStatusCheck}

func ParseScanType(s string) (ScanType, error) {
	return parseEnum("scan type", s, scanTypes)
}

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleTailor  Role = "TAILOR"
	RoleFront   Role = "FRONT_DESK"
)

var roles = []Role{RoleAdmin, RoleManager, RoleTailor, RoleFront}

func ParseRole(s string) (Role, error) {
	return parseEnum("role", s, roles)
}

// parseEnum matches s case-insensitively against allowed and rejects
// anything else.
func parseEnum[T ~string](kind, s string, allowed []T) (T, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	for _, v := range allowed {
		if string(v) == norm {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: unknown %s %q", apperr.ErrValidation, kind, s)
}
