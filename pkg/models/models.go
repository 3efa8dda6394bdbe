package models

import "time"

// WorkDayPlan is the capacity record for one calendar day.
type WorkDayPlan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Date            string    `gorm:"uniqueIndex;not null" json:"date"`
	JacketCapacity  int       `gorm:"not null" json:"jacket_capacity"`
	PantsCapacity   int       `gorm:"not null" json:"pants_capacity"`
	AssignedJackets int       `gorm:"not null" json:"assigned_jackets"`
	AssignedPants   int       `gorm:"not null" json:"assigned_pants"`
	IsClosed        bool      `gorm:"not null" json:"is_closed"`
	Version         int       `gorm:"not null" json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Spare returns the remaining slots for unit.
func (p WorkDayPlan) Spare(unit UnitType) int {
	if unit == UnitPants {
		return p.PantsCapacity - p.AssignedPants
	}
	return p.JacketCapacity - p.AssignedJackets
}

// Closure marks a day the shop is shut (holiday, stock-take, ...).
type Closure struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      string    `gorm:"uniqueIndex;not null" json:"date"`
	Reason    string    `gorm:"size:200" json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type AlterationJob struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	JobNumber       string              `gorm:"uniqueIndex;not null" json:"job_number"`
	QRCode          string              `gorm:"uniqueIndex;not null" json:"qr_code"`
	CustomerName    string              `gorm:"size:200" json:"customer_name,omitempty"`
	Status          Status              `gorm:"type:varchar(20);not null;index" json:"status"`
	DueDate         *string             `gorm:"index" json:"due_date,omitempty"`
	RushOrder       bool                `gorm:"not null" json:"rush_order"`
	LastMinute      bool                `gorm:"not null" json:"last_minute"`
	LinkedEventDate *string             `json:"linked_event_date,omitempty"`
	Notes           string              `gorm:"type:text" json:"notes,omitempty"`
	Parts           []AlterationJobPart `gorm:"foreignKey:JobID" json:"parts,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type AlterationJobPart struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	JobID                uint       `gorm:"not null;index" json:"job_id"`
	PartName             string     `gorm:"size:200" json:"part_name"`
	PartType             PartType   `gorm:"type:varchar(20);not null" json:"part_type"`
	Status               Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	QRCode               string     `gorm:"uniqueIndex;not null" json:"qr_code"`
	EstimatedTimeMinutes int        `gorm:"not null" json:"estimated_time_minutes"`
	Priority             Priority   `gorm:"type:varchar(10);not null" json:"priority"`
	ScheduledFor         *string    `gorm:"index" json:"scheduled_for,omitempty"`
	AssignedTo           *uint      `gorm:"index" json:"assigned_to,omitempty"`
	Notes                string     `gorm:"type:text" json:"notes,omitempty"`
	StartedAt            *time.Time `json:"started_at,omitempty"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	PickedUpAt           *time.Time `json:"picked_up_at,omitempty"`
	Version              int        `gorm:"not null" json:"version"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// QRScanLog is append-only: one row per scan attempt.
type QRScanLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	QRCode         string    `gorm:"not null;index" json:"qr_code"`
	PartID         uint      `gorm:"not null;index" json:"part_id"`
	ScannedBy      uint      `gorm:"not null" json:"scanned_by"`
	ScanType       ScanType  `gorm:"type:varchar(20);not null" json:"scan_type"`
	Location       string    `gorm:"size:100" json:"location,omitempty"`
	Result         string    `gorm:"size:200;not null" json:"result"`
	PreviousStatus Status    `gorm:"type:varchar(20)" json:"previous_status"`
	NewStatus      Status    `gorm:"type:varchar(20)" json:"new_status"`
	Notes          string    `gorm:"type:text" json:"notes,omitempty"`
	Timestamp      time.Time `gorm:"not null;index" json:"timestamp"`
}

type Staff struct {
	ID           uint                `gorm:"primaryKey" json:"id"`
	Name         string              `gorm:"not null" json:"name"`
	Username     string              `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string              `gorm:"not null" json:"-"`
	Role         Role                `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool                `gorm:"not null" json:"is_active"`
	CanWork      bool                `gorm:"not null" json:"can_work"`
	Availability []AvailabilityBlock `gorm:"foreignKey:StaffID" json:"availability,omitempty"`
	Skills       []StaffSkill        `gorm:"foreignKey:StaffID" json:"skills,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// AvailabilityBlock is one recurring weekly working block. A staff member
// with no blocks at all has no schedule configured.
type AvailabilityBlock struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StaffID   uint   `gorm:"not null;index" json:"staff_id"`
	Weekday   int    `gorm:"not null" json:"weekday"` // 0 = Sunday
	StartTime string `gorm:"size:5" json:"start_time"`
	EndTime   string `gorm:"size:5" json:"end_time"`
	IsOff     bool   `gorm:"not null" json:"is_off"`
}

// Working reports whether the block defines actual working time.
func (b AvailabilityBlock) Working() bool {
	return !b.IsOff && b.StartTime != "" && b.EndTime != "" && b.StartTime < b.EndTime
}

// StaffSkill rates a staff member 1-5 on a task type (a part type).
type StaffSkill struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	StaffID     uint   `gorm:"not null;uniqueIndex:idx_staff_skill" json:"staff_id"`
	Skill       string `gorm:"not null;uniqueIndex:idx_staff_skill" json:"skill"`
	Proficiency int    `gorm:"not null" json:"proficiency"`
}

// PartSchedule is the outcome of scheduling one part.
type PartSchedule struct {
	PartID   uint   `json:"part_id"`
	Day      string `json:"day,omitempty"`
	Assignee *uint  `json:"assignee,omitempty"`
	Outcome  string `json:"outcome"`
}

const (
	OutcomeScheduled         = "scheduled"
	OutcomeAlreadyScheduled  = "already_scheduled"
	OutcomeCapacityExhausted = "capacity_exhausted"
)

// CapacityDay is one row of the capacity board.
type CapacityDay struct {
	Date            string `json:"date"`
	JacketCapacity  int    `json:"jacket_capacity"`
	PantsCapacity   int    `json:"pants_capacity"`
	AssignedJackets int    `json:"assigned_jackets"`
	AssignedPants   int    `json:"assigned_pants"`
	IsNonWorkingDay bool   `json:"is_non_working_day"`
	IsClosed        bool   `json:"is_closed"`
}

// DayAssignment is one row of the per-day assignment board.
type DayAssignment struct {
	PartID               uint     `json:"part_id"`
	JobNumber            string   `json:"job_number"`
	PartName             string   `json:"part_name"`
	PartType             PartType `json:"part_type"`
	AssignedTo           *uint    `json:"assigned_to,omitempty"`
	AssigneeName         string   `json:"assignee_name,omitempty"`
	Status               Status   `json:"status"`
	EstimatedTimeMinutes int      `json:"estimated_time_minutes"`
}

// JobStatusEvent is emitted when a job reaches COMPLETE or PICKED_UP.
type JobStatusEvent struct {
	JobID      uint      `json:"job_id"`
	JobNumber  string    `json:"job_number"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (WorkDayPlan) TableName() string       { return "work_day_plans" }
func (Closure) TableName() string           { return "closures" }
func (AlterationJob) TableName() string     { return "alteration_jobs" }
func (AlterationJobPart) TableName() string { return "alteration_job_parts" }
func (QRScanLog) TableName() string         { return "qr_scan_logs" }
func (Staff) TableName() string             { return "staff" }
func (AvailabilityBlock) TableName() string { return "availability_blocks" }
func (StaffSkill) TableName() string        { return "staff_skills" }
