package models

import (
	"time"
)

type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

type ContentStatus string

const (
	StatusGenerating ContentStatus = "generating"
	StatusPending    ContentStatus = "pending"
	StatusApproved   ContentStatus = "approved"
	StatusRejected   ContentStatus = "rejected"
	StatusScheduled  ContentStatus = "scheduled"
	StatusPosted     ContentStatus = "posted"
	StatusError      ContentStatus = "error"
)

// ContentItem is a unit of generated content moving through review and
// publication. Data holds an opaque reference to the generated payload (a
// storage URL or inline content); it is empty while generation is in flight.
// Schedule is set if and only if the item is in StatusScheduled.
type ContentItem struct {
	ID           string        `gorm:"primaryKey;size:36" json:"id"`
	UserID       string        `gorm:"not null;index;size:64" json:"-"`
	Type         ContentType   `gorm:"not null;size:20" json:"type"`
	Data         string        `gorm:"type:text" json:"data"`
	Prompt       string        `gorm:"type:text" json:"prompt"`
	Status       ContentStatus `gorm:"not null;index;size:20" json:"status"`
	Schedule     *time.Time    `json:"schedule,omitempty"`
	ErrorMessage string        `gorm:"type:text" json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// transitions is the full lifecycle table. A status missing from the map has
// no outgoing transitions. StatusScheduled lists itself so an already
// scheduled item can be rescheduled to a new time.
var transitions = map[ContentStatus][]ContentStatus{
	StatusGenerating: {StatusPending, StatusError},
	StatusPending:    {StatusApproved, StatusRejected},
	StatusApproved:   {StatusScheduled},
	StatusScheduled:  {StatusPosted, StatusScheduled},
}

// IsValidTransition reports whether the lifecycle table permits moving an
// item from one status to another. It consults the table only; it has no
// side effects.
func IsValidTransition(from, to ContentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CanDelete reports whether an item in the given status may be removed.
// Items mid-generation are owned by the pipeline, and scheduled items must
// leave the scheduled state before deletion so a queued post never silently
// vanishes.
func CanDelete(status ContentStatus) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusPosted, StatusError:
		return true
	default:
		return false
	}
}

// AllStatuses lists every lifecycle state, in rough lifecycle order.
func AllStatuses() []ContentStatus {
	return []ContentStatus{
		StatusGenerating,
		StatusPending,
		StatusApproved,
		StatusRejected,
		StatusScheduled,
		StatusPosted,
		StatusError,
	}
}
