package store

import (
	"context"
	"sync"

	"github.com/lumenlabs/brandflow/internal/models"
)

// MemoryStore is an in-memory implementation of Store, used by tests and by
// deployments running without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	items    map[string][]models.ContentItem // keyed by user id
	images   map[string][]models.UserImage
	contexts map[string]models.UserContext
	events   []models.EventLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string][]models.ContentItem),
		images:   make(map[string][]models.UserImage),
		contexts: make(map[string]models.UserContext),
	}
}

func (m *MemoryStore) ListItems(_ context.Context, userID string) ([]models.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ContentItem(nil), m.items[userID]...), nil
}

func (m *MemoryStore) GetItem(_ context.Context, userID, id string) (models.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, item := range m.items[userID] {
		if item.ID == id {
			return item, nil
		}
	}
	return models.ContentItem{}, ErrNotFound
}

func (m *MemoryStore) CreateItem(_ context.Context, item models.ContentItem) (models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.UserID] = append(m.items[item.UserID], item)
	return item, nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, userID, id string, patch ItemPatch) (models.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[userID]
	for idx := range items {
		if items[idx].ID != id {
			continue
		}
		if patch.IfStatus != nil && items[idx].Status != *patch.IfStatus {
			return models.ContentItem{}, ErrStale
		}
		if patch.IfScheduleBy != nil &&
			(items[idx].Schedule == nil || items[idx].Schedule.After(*patch.IfScheduleBy)) {
			return models.ContentItem{}, ErrStale
		}
		if patch.Status != nil {
			items[idx].Status = *patch.Status
		}
		if patch.Data != nil {
			items[idx].Data = *patch.Data
		}
		if patch.ErrorMessage != nil {
			items[idx].ErrorMessage = *patch.ErrorMessage
		}
		if patch.ClearSchedule {
			items[idx].Schedule = nil
		} else if patch.Schedule != nil {
			schedule := *patch.Schedule
			items[idx].Schedule = &schedule
		}
		return items[idx], nil
	}
	return models.ContentItem{}, ErrNotFound
}

func (m *MemoryStore) DeleteItem(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := m.items[userID]
	for idx, item := range items {
		if item.ID == id {
			m.items[userID] = append(items[:idx], items[idx+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) ListScheduled(_ context.Context) ([]models.ContentItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var scheduled []models.ContentItem
	for _, items := range m.items {
		for _, item := range items {
			if item.Status == models.StatusScheduled {
				scheduled = append(scheduled, item)
			}
		}
	}
	return scheduled, nil
}

func (m *MemoryStore) GetContext(_ context.Context, userID string) (models.UserContext, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	uc := m.contexts[userID]
	uc.UserID = userID
	return uc, nil
}

func (m *MemoryStore) SaveContext(_ context.Context, uc models.UserContext) (models.UserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[uc.UserID] = uc
	return uc, nil
}

func (m *MemoryStore) ListImages(_ context.Context, userID string) ([]models.UserImage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.UserImage(nil), m.images[userID]...), nil
}

func (m *MemoryStore) CreateImage(_ context.Context, image models.UserImage) (models.UserImage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[image.UserID] = append(m.images[image.UserID], image)
	return image, nil
}

func (m *MemoryStore) DeleteImage(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	images := m.images[userID]
	for idx, image := range images {
		if image.ID == id {
			m.images[userID] = append(images[:idx], images[idx+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) RecordEvent(_ context.Context, event models.EventLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of all recorded events, newest last.
func (m *MemoryStore) Events() []models.EventLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.EventLog(nil), m.events...)
}
