package model

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidStatus   = errors.New("model: invalid task status")
)

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

func (p Priority) IsValid() bool {
	return p >= PriorityLow && p <= PriorityUrgent
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	default:
		return "Normal"
	}
}

func ParsePriority(s string) Priority {
	switch s {
	case "Low":
		return PriorityLow
	case "High":
		return PriorityHigh
	case "Urgent":
		return PriorityUrgent
	default:
		return PriorityNormal
	}
}

type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusCancelled
)

func (s Status) IsValid() bool {
	return s >= StatusPending && s <= StatusCancelled
}

func (s Status) String() string {
	switch s {
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Pending"
	}
}

func ParseStatus(s string) Status {
	switch s {
	case "In Progress":
		return StatusInProgress
	case "Completed":
		return StatusCompleted
	case "Cancelled":
		return StatusCancelled
	default:
		return StatusPending
	}
}

const (
	MaxTitleLength         = 200
	MaxReminderMinutes     = 10080 // 7 days
	DefaultReminderMinutes = 15
	DefaultCategory        = "default"
)

// Task is a single to-do item. The zero value is not usable; construct
// through New or NewWithTitle so the task gets an ID and creation time.
type Task struct {
	ID              string
	Title           string
	Description     string
	CreateTime      time.Time
	DueTime         *time.Time
	Priority        Priority
	Status          Status
	Category        string
	Tags            []string
	ReminderEnabled bool
	ReminderMinutes int
}

func New() Task {
	return Task{
		ID:              uuid.NewString(),
		CreateTime:      time.Now(),
		Priority:        PriorityNormal,
		Status:          StatusPending,
		Category:        DefaultCategory,
		ReminderMinutes: DefaultReminderMinutes,
	}
}

func NewWithTitle(title, description string) Task {
	t := New()
	t.Title = title
	t.Description = description
	return t
}

// Validate is the hard gate the store applies before any write.
func (t Task) Validate() error {
	if t.ID == "" {
		return errors.New("model: task id is required")
	}
	if len(t.ID) != 36 {
		return fmt.Errorf("model: task id must be a 36-character UUID, got %d characters", len(t.ID))
	}
	if t.Title == "" {
		return errors.New("model: task title is required")
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return fmt.Errorf("model: task title exceeds %d characters", MaxTitleLength)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidPriority, t.Priority)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidStatus, t.Status)
	}
	if t.ReminderEnabled && t.ReminderMinutes < 0 {
		return errors.New("model: reminder minutes must not be negative")
	}
	if t.DueTime != nil && !t.CreateTime.IsZero() && t.DueTime.Before(t.CreateTime) {
		return errors.New("model: due time is earlier than create time")
	}
	return nil
}

func (t Task) IsOverdue(now time.Time) bool {
	if t.DueTime == nil {
		return false
	}
	return t.DueTime.Before(now) && t.Status != StatusCompleted
}

func (t Task) IsDueToday(now time.Time) bool {
	if t.DueTime == nil {
		return false
	}
	y1, m1, d1 := t.DueTime.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (t Task) IsDueSoon(now time.Time, hours int) bool {
	if t.DueTime == nil || t.Status == StatusCompleted {
		return false
	}
	threshold := now.Add(time.Duration(hours) * time.Hour)
	return !t.DueTime.Before(now) && !t.DueTime.After(threshold)
}

// IsValidTransition reports whether moving to next is a legal status
// change. Pending and InProgress may go anywhere; Completed may only be
// cancelled or reopened via InProgress; Cancelled may only return to
// Pending or InProgress.
func (t Task) IsValidTransition(next Status) bool {
	switch t.Status {
	case StatusPending, StatusInProgress:
		return true
	case StatusCompleted:
		return next == StatusCancelled || next == StatusInProgress
	case StatusCancelled:
		return next == StatusPending || next == StatusInProgress
	default:
		return false
	}
}

// HasValidReminder is a soft check, separate from Validate: callers decide
// whether a reminder that can no longer fire should block a write.
func (t Task) HasValidReminder(now time.Time) bool {
	if !t.ReminderEnabled {
		return true
	}
	if t.ReminderMinutes < 1 || t.ReminderMinutes > MaxReminderMinutes {
		return false
	}
	if t.DueTime != nil {
		reminderAt := t.DueTime.Add(-time.Duration(t.ReminderMinutes) * time.Minute)
		return reminderAt.After(now)
	}
	return true
}

// Equal compares task identity, not field contents.
func (t Task) Equal(other Task) bool {
	return t.ID == other.ID
}
