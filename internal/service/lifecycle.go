package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/models"
	"github.com/lumenlabs/brandflow/internal/service/generate"
	"github.com/lumenlabs/brandflow/internal/store"
)

var (
	// ErrInvalidTransition means the requested status change is not in the
	// lifecycle table. The item is left unchanged.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation means the request itself was malformed, e.g. a schedule
	// time in the past. The item is left unchanged.
	ErrValidation = errors.New("validation error")
)

// Lifecycle is the only component that applies user-driven or
// generation-driven transitions to content items. Every mutation reads the
// current status, checks the transition table and writes a single patch, or
// fails without touching the item.
type Lifecycle struct {
	store    store.Store
	provider generate.Provider
	logger   *zap.Logger
	now      func() time.Time
}

func NewLifecycle(st store.Store, provider generate.Provider, logger *zap.Logger) *Lifecycle {
	return &Lifecycle{
		store:    st,
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// ListItems returns the user's full collection.
func (l *Lifecycle) ListItems(ctx context.Context, userID string) ([]models.ContentItem, error) {
	return l.store.ListItems(ctx, userID)
}

// Context returns the user's saved brand notes and links, empty if never set.
func (l *Lifecycle) Context(ctx context.Context, userID string) (models.UserContext, error) {
	return l.store.GetContext(ctx, userID)
}

// SaveContext overwrites the user's brand notes and links.
func (l *Lifecycle) SaveContext(ctx context.Context, userID, notes, links string) (models.UserContext, error) {
	return l.store.SaveContext(ctx, models.UserContext{
		UserID: userID,
		Notes:  notes,
		Links:  links,
	})
}

// CreatePending creates an item whose generation already completed, so it
// enters review directly. Text and image generation are synchronous from the
// lifecycle's point of view.
func (l *Lifecycle) CreatePending(ctx context.Context, userID string, contentType models.ContentType, prompt, data string) (models.ContentItem, error) {
	item := models.ContentItem{
		ID:     uuid.NewString(),
		UserID: userID,
		Type:   contentType,
		Prompt: prompt,
		Data:   data,
		Status: models.StatusPending,
	}
	created, err := l.store.CreateItem(ctx, item)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to create item: %w", err)
	}
	l.recordEvent(ctx, "info", userID, created.ID, fmt.Sprintf("%s content created", contentType))
	return created, nil
}

// CreateGenerating creates a placeholder for an in-flight generation. Video
// generation is long-running, so the item is visible while it renders.
func (l *Lifecycle) CreateGenerating(ctx context.Context, userID string, contentType models.ContentType, prompt string) (models.ContentItem, error) {
	item := models.ContentItem{
		ID:           uuid.NewString(),
		UserID:       userID,
		Type:         contentType,
		Prompt:       prompt,
		Status:       models.StatusGenerating,
		ErrorMessage: "Generating...",
	}
	created, err := l.store.CreateItem(ctx, item)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to create item: %w", err)
	}
	return created, nil
}

// Generate runs the provider for the requested type. Text and image complete
// synchronously and yield a pending item; a provider failure surfaces without
// creating anything. Video yields a generating placeholder immediately and is
// finalized in the background.
func (l *Lifecycle) Generate(ctx context.Context, userID string, contentType models.ContentType, prompt, startImageURL string) (models.ContentItem, error) {
	switch contentType {
	case models.ContentTypeText:
		data, err := l.provider.GenerateText(ctx, prompt)
		if err != nil {
			return models.ContentItem{}, err
		}
		return l.CreatePending(ctx, userID, contentType, prompt, data)

	case models.ContentTypeImage:
		data, err := l.provider.GenerateImage(ctx, prompt)
		if err != nil {
			return models.ContentItem{}, err
		}
		return l.CreatePending(ctx, userID, contentType, prompt, data)

	case models.ContentTypeVideo:
		item, err := l.CreateGenerating(ctx, userID, contentType, prompt)
		if err != nil {
			return models.ContentItem{}, err
		}
		go l.generateVideo(userID, item.ID, prompt, startImageURL)
		return item, nil

	default:
		return models.ContentItem{}, fmt.Errorf("%w: unknown content type %q", ErrValidation, contentType)
	}
}

// generateVideo runs detached from the request so a slow render never blocks
// review actions on other items.
func (l *Lifecycle) generateVideo(userID, id, prompt, startImageURL string) {
	ctx := context.Background()
	data, err := l.provider.GenerateVideo(ctx, prompt, startImageURL)
	l.FinalizeGeneration(ctx, userID, id, data, err)
}

// FinalizeGeneration resolves a generating placeholder: success moves it to
// pending with the payload reference, failure moves it to error with a
// user-facing message. A missing item means the user deleted it while the
// render was in flight; that race is benign and only logged.
func (l *Lifecycle) FinalizeGeneration(ctx context.Context, userID, id, data string, genErr error) {
	var patch store.ItemPatch
	if genErr != nil {
		patch = store.ItemPatch{
			Status:       store.StatusPtr(models.StatusError),
			ErrorMessage: store.StringPtr(generate.UserMessage(genErr)),
		}
	} else {
		patch = store.ItemPatch{
			Status:       store.StatusPtr(models.StatusPending),
			Data:         store.StringPtr(data),
			ErrorMessage: store.StringPtr(""),
		}
	}

	item, err := l.store.GetItem(ctx, userID, id)
	if errors.Is(err, store.ErrNotFound) {
		l.logger.Info("Generation finished for a deleted item, discarding result",
			zap.String("item_id", id))
		return
	}
	if err != nil {
		l.logger.Error("Failed to load item for generation result",
			zap.String("item_id", id), zap.Error(err))
		return
	}

	to := models.StatusPending
	if genErr != nil {
		to = models.StatusError
	}
	if !models.IsValidTransition(item.Status, to) {
		l.logger.Warn("Generation result arrived for item no longer generating",
			zap.String("item_id", id),
			zap.String("status", string(item.Status)))
		return
	}

	patch.IfStatus = store.StatusPtr(item.Status)
	if _, err := l.store.UpdateItem(ctx, userID, id, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrStale) {
			l.logger.Info("Generation finished for an item that moved on, discarding result",
				zap.String("item_id", id))
			return
		}
		l.logger.Error("Failed to store generation result",
			zap.String("item_id", id), zap.Error(err))
		return
	}

	if genErr != nil {
		l.recordEvent(ctx, "error", userID, id, fmt.Sprintf("generation failed: %s", generate.UserMessage(genErr)))
	} else {
		l.recordEvent(ctx, "info", userID, id, "generation succeeded")
	}
}

// Approve moves a pending item into the approved state.
func (l *Lifecycle) Approve(ctx context.Context, userID, id string) (models.ContentItem, error) {
	return l.transition(ctx, userID, id, models.StatusApproved, store.ItemPatch{
		Status: store.StatusPtr(models.StatusApproved),
	})
}

// Reject moves a pending item into the rejected state.
func (l *Lifecycle) Reject(ctx context.Context, userID, id string) (models.ContentItem, error) {
	return l.transition(ctx, userID, id, models.StatusRejected, store.ItemPatch{
		Status: store.StatusPtr(models.StatusRejected),
	})
}

// SetSchedule queues an approved item for posting at the given time, which
// must be strictly in the future. Calling it again on an already scheduled
// item overwrites the timestamp.
func (l *Lifecycle) SetSchedule(ctx context.Context, userID, id string, at time.Time) (models.ContentItem, error) {
	if !at.After(l.now()) {
		return models.ContentItem{}, fmt.Errorf("%w: schedule time must be in the future", ErrValidation)
	}
	return l.transition(ctx, userID, id, models.StatusScheduled, store.ItemPatch{
		Status:   store.StatusPtr(models.StatusScheduled),
		Schedule: &at,
	})
}

// Delete removes an item. Items mid-generation or queued for posting cannot
// be deleted; they have to leave those states first.
func (l *Lifecycle) Delete(ctx context.Context, userID, id string) error {
	item, err := l.store.GetItem(ctx, userID, id)
	if err != nil {
		return err
	}
	if !models.CanDelete(item.Status) {
		return fmt.Errorf("%w: cannot delete item in status %q", ErrInvalidTransition, item.Status)
	}
	if err := l.store.DeleteItem(ctx, userID, id); err != nil {
		return err
	}
	l.recordEvent(ctx, "info", userID, id, "item deleted")
	return nil
}

func (l *Lifecycle) transition(ctx context.Context, userID, id string, to models.ContentStatus, patch store.ItemPatch) (models.ContentItem, error) {
	item, err := l.store.GetItem(ctx, userID, id)
	if err != nil {
		return models.ContentItem{}, err
	}
	if !models.IsValidTransition(item.Status, to) {
		return models.ContentItem{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, to)
	}

	// Guard on the status the table check ran against, so a mutation landing
	// between the read and the write fails the patch instead of being
	// silently overwritten.
	patch.IfStatus = store.StatusPtr(item.Status)
	updated, err := l.store.UpdateItem(ctx, userID, id, patch)
	if errors.Is(err, store.ErrStale) {
		return models.ContentItem{}, fmt.Errorf("%w: item changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return models.ContentItem{}, err
	}
	l.recordEvent(ctx, "info", userID, id, fmt.Sprintf("status changed to %s", to))
	return updated, nil
}

// recordEvent is best effort; an audit write never fails a user action.
func (l *Lifecycle) recordEvent(ctx context.Context, level, userID, itemID, message string) {
	event := models.EventLog{
		Level:   level,
		Source:  "lifecycle",
		UserID:  userID,
		ItemID:  itemID,
		Message: message,
	}
	if err := l.store.RecordEvent(ctx, event); err != nil {
		l.logger.Warn("Failed to record event", zap.Error(err))
	}
}
