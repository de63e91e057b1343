package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlabs/brandflow/internal/models"
)

func TestMemoryStoreItemCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateItem(ctx, models.ContentItem{
		ID:     "item-1",
		UserID: "alice",
		Type:   models.ContentTypeText,
		Prompt: "launch post",
		Status: models.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "item-1", created.ID)

	got, err := s.GetItem(ctx, "alice", "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	updated, err := s.UpdateItem(ctx, "alice", "item-1", ItemPatch{
		Status: StatusPtr(models.StatusApproved),
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)

	require.NoError(t, s.DeleteItem(ctx, "alice", "item-1"))
	_, err = s.GetItem(ctx, "alice", "item-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreScopeIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.CreateItem(ctx, models.ContentItem{ID: "item-1", UserID: "alice", Status: models.StatusPending})
	require.NoError(t, err)

	_, err = s.GetItem(ctx, "bob", "item-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateItem(ctx, "bob", "item-1", ItemPatch{Status: StatusPtr(models.StatusApproved)})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteItem(ctx, "bob", "item-1"), ErrNotFound)

	items, err := s.ListItems(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMemoryStoreListScheduledSpansUsers(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Now().Add(time.Hour)

	for _, item := range []models.ContentItem{
		{ID: "a", UserID: "alice", Status: models.StatusScheduled, Schedule: &at},
		{ID: "b", UserID: "bob", Status: models.StatusScheduled, Schedule: &at},
		{ID: "c", UserID: "alice", Status: models.StatusPosted},
	} {
		_, err := s.CreateItem(ctx, item)
		require.NoError(t, err)
	}

	scheduled, err := s.ListScheduled(ctx)
	require.NoError(t, err)
	assert.Len(t, scheduled, 2)
}

func TestMemoryStoreGuardedUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Now().Add(time.Hour)

	_, err := s.CreateItem(ctx, models.ContentItem{
		ID: "item-1", UserID: "alice", Status: models.StatusScheduled, Schedule: &at,
	})
	require.NoError(t, err)

	// A status guard that no longer matches leaves the item untouched.
	_, err = s.UpdateItem(ctx, "alice", "item-1", ItemPatch{
		Status:   StatusPtr(models.StatusPosted),
		IfStatus: StatusPtr(models.StatusPending),
	})
	assert.ErrorIs(t, err, ErrStale)

	// A schedule guard earlier than the stored time fails too.
	early := at.Add(-time.Minute)
	_, err = s.UpdateItem(ctx, "alice", "item-1", ItemPatch{
		Status:       StatusPtr(models.StatusPosted),
		IfScheduleBy: &early,
	})
	assert.ErrorIs(t, err, ErrStale)

	got, err := s.GetItem(ctx, "alice", "item-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, got.Status)

	// Matching guards apply the patch.
	updated, err := s.UpdateItem(ctx, "alice", "item-1", ItemPatch{
		Status:        StatusPtr(models.StatusPosted),
		ClearSchedule: true,
		IfStatus:      StatusPtr(models.StatusScheduled),
		IfScheduleBy:  &at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, updated.Status)
	assert.Nil(t, updated.Schedule)

	// A guard against a missing item still reports not found.
	_, err = s.UpdateItem(ctx, "alice", "missing", ItemPatch{
		IfStatus: StatusPtr(models.StatusScheduled),
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreUserContext(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	uc, err := s.GetContext(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, uc.Notes)
	assert.Empty(t, uc.Links)

	_, err = s.SaveContext(ctx, models.UserContext{
		UserID: "alice",
		Notes:  "eco product line launches next month",
		Links:  "https://example.com/brief",
	})
	require.NoError(t, err)

	uc, err = s.GetContext(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "eco product line launches next month", uc.Notes)

	// Context is scoped per user.
	other, err := s.GetContext(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other.Notes)
}

func TestMemoryStoreClearSchedule(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	at := time.Now().Add(time.Hour)

	_, err := s.CreateItem(ctx, models.ContentItem{
		ID: "item-1", UserID: "alice", Status: models.StatusScheduled, Schedule: &at,
	})
	require.NoError(t, err)

	updated, err := s.UpdateItem(ctx, "alice", "item-1", ItemPatch{
		Status:        StatusPtr(models.StatusPosted),
		ClearSchedule: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPosted, updated.Status)
	assert.Nil(t, updated.Schedule)
}
