package announcements

import (
	"time"

	"github.com/google/uuid"
)

// Priority defines ordering for announcements.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ValidPriority reports whether p is one of the known levels.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the announcement lifecycle state. The only legal transition is
// Active -> Archived, performed by the expiry sweeper or an explicit admin
// action; archived announcements never return to active.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Attachment is a stored file reference on an announcement.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// Announcement represents a persisted announcement row.
type Announcement struct {
	ID          uuid.UUID
	AuthorID    string
	Title       string
	Content     string
	Summary     string
	Category    string
	Priority    Priority
	Department  string
	Deadline    *time.Time
	Status      Status
	Attachments []Attachment
	CreatedAt   time.Time
}

// Archived reports whether the announcement has left the active state.
func (a Announcement) Archived() bool {
	return a.Status == StatusArchived
}

// Filter narrows listing queries.
type Filter struct {
	Query      string
	Priority   Priority
	Category   string
	Department string
	Status     Status
}
