package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DocumentVersion tags every serialized task document.
const DocumentVersion = "1.0"

var ErrMalformedDocument = errors.New("model: malformed task document")

type taskDocument struct {
	Version         string   `json:"version"`
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CreateTime      string   `json:"createTime,omitempty"`
	DueTime         string   `json:"dueTime,omitempty"`
	Priority        int      `json:"priority"`
	Status          int      `json:"status"`
	Category        string   `json:"category"`
	ReminderEnabled bool     `json:"reminderEnabled"`
	ReminderMinutes int      `json:"reminderMinutes"`
	Tags            []string `json:"tags"`
}

// incomingDocument distinguishes absent fields from zero values so a
// document can be validated wholesale before anything is applied.
type incomingDocument struct {
	Version         string  `json:"version"`
	ID              *string `json:"id"`
	Title           *string `json:"title"`
	Description     string  `json:"description"`
	CreateTime      string  `json:"createTime"`
	DueTime         string  `json:"dueTime"`
	Priority        *int    `json:"priority"`
	Status          *int    `json:"status"`
	Category        *string `json:"category"`
	ReminderEnabled *bool   `json:"reminderEnabled"`
	ReminderMinutes *int    `json:"reminderMinutes"`
	Tags            []any   `json:"tags"`
}

// ToJSON serializes the task as a flat versioned document. Timestamps are
// RFC 3339 and omitted when unset; tags is always present, possibly empty.
func (t Task) ToJSON() ([]byte, error) {
	doc := taskDocument{
		Version:         DocumentVersion,
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Priority:        int(t.Priority),
		Status:          int(t.Status),
		Category:        t.Category,
		ReminderEnabled: t.ReminderEnabled,
		ReminderMinutes: t.ReminderMinutes,
		Tags:            make([]string, 0, len(t.Tags)),
	}
	doc.Tags = append(doc.Tags, t.Tags...)
	if !t.CreateTime.IsZero() {
		doc.CreateTime = t.CreateTime.Format(time.RFC3339)
	}
	if t.DueTime != nil {
		doc.DueTime = t.DueTime.Format(time.RFC3339)
	}
	return json.Marshal(doc)
}

// TaskFromJSON parses a serialized task document. Malformed input is
// rejected wholesale: on error no partially populated task is returned.
func TaskFromJSON(data []byte) (Task, error) {
	var doc incomingDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Task{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.ID == nil || doc.Title == nil {
		return Task{}, fmt.Errorf("%w: id and title are required", ErrMalformedDocument)
	}
	if doc.Priority != nil && (*doc.Priority < int(PriorityLow) || *doc.Priority > int(PriorityUrgent)) {
		return Task{}, fmt.Errorf("%w: priority %d out of range", ErrMalformedDocument, *doc.Priority)
	}
	if doc.Status != nil && (*doc.Status < int(StatusPending) || *doc.Status > int(StatusCancelled)) {
		return Task{}, fmt.Errorf("%w: status %d out of range", ErrMalformedDocument, *doc.Status)
	}

	t := Task{
		ID:              *doc.ID,
		Title:           *doc.Title,
		Description:     doc.Description,
		Priority:        PriorityNormal,
		Status:          StatusPending,
		Category:        DefaultCategory,
		ReminderMinutes: DefaultReminderMinutes,
		Tags:            make([]string, 0, len(doc.Tags)),
	}
	if doc.CreateTime != "" {
		if ts, err := time.Parse(time.RFC3339, doc.CreateTime); err == nil {
			t.CreateTime = ts
		}
	}
	if doc.DueTime != "" {
		if ts, err := time.Parse(time.RFC3339, doc.DueTime); err == nil {
			t.DueTime = &ts
		}
	}
	if doc.Priority != nil {
		t.Priority = Priority(*doc.Priority)
	}
	if doc.Status != nil {
		t.Status = Status(*doc.Status)
	}
	if doc.Category != nil {
		t.Category = *doc.Category
	}
	if doc.ReminderEnabled != nil {
		t.ReminderEnabled = *doc.ReminderEnabled
	}
	if doc.ReminderMinutes != nil {
		t.ReminderMinutes = *doc.ReminderMinutes
	}
	for _, raw := range doc.Tags {
		if s, ok := raw.(string); ok {
			t.Tags = append(t.Tags, s)
		}
	}
	return t, nil
}
