// Package store defines the persistence surface the lifecycle controller and
// scheduler read and write through. All item access is scoped to a user; an
// item is visible and mutable only within its owner's scope.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lumenlabs/brandflow/internal/models"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrStale means a guarded update found the item no longer in the state
	// the caller observed. The item is left untouched.
	ErrStale = errors.New("item changed concurrently")
)

// ItemPatch is a partial update applied to a single item. Nil fields are left
// untouched. ClearSchedule removes the schedule timestamp; it wins over
// Schedule if both are set.
//
// IfStatus and IfScheduleBy make the patch conditional: the update applies
// only while the stored item still has that status (and, for IfScheduleBy, a
// schedule at or before that time), atomically with the write. A guard that no
// longer holds reports ErrStale. Callers that read an item and then patch it
// use these to keep the read-check-write sequence from racing a concurrent
// mutation.
type ItemPatch struct {
	Status        *models.ContentStatus
	Data          *string
	ErrorMessage  *string
	Schedule      *time.Time
	ClearSchedule bool

	IfStatus     *models.ContentStatus
	IfScheduleBy *time.Time
}

type Store interface {
	ListItems(ctx context.Context, userID string) ([]models.ContentItem, error)
	GetItem(ctx context.Context, userID, id string) (models.ContentItem, error)
	CreateItem(ctx context.Context, item models.ContentItem) (models.ContentItem, error)
	UpdateItem(ctx context.Context, userID, id string, patch ItemPatch) (models.ContentItem, error)
	DeleteItem(ctx context.Context, userID, id string) error

	// ListScheduled returns every scheduled item across all user scopes, for
	// the sweep. Reads fresh state; implementations must not serve a cache.
	ListScheduled(ctx context.Context) ([]models.ContentItem, error)

	// GetContext returns the user's brand context, or a zero-valued record
	// if none was saved yet.
	GetContext(ctx context.Context, userID string) (models.UserContext, error)
	SaveContext(ctx context.Context, uc models.UserContext) (models.UserContext, error)

	ListImages(ctx context.Context, userID string) ([]models.UserImage, error)
	CreateImage(ctx context.Context, image models.UserImage) (models.UserImage, error)
	DeleteImage(ctx context.Context, userID, id string) error

	RecordEvent(ctx context.Context, event models.EventLog) error
}

// StatusPtr is a convenience for building patches.
func StatusPtr(s models.ContentStatus) *models.ContentStatus { return &s }

// StringPtr is a convenience for building patches.
func StringPtr(s string) *string { return &s }
