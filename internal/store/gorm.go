package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lumenlabs/brandflow/internal/config"
	"github.com/lumenlabs/brandflow/internal/models"
)

// GormStore persists items in Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(cfg *config.DatabaseConfig) (*GormStore, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode, cfg.TimeZone)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ContentItem{},
		&models.UserImage{},
		&models.UserContext{},
		&models.EventLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &GormStore{db: db}, nil
}

func (s *GormStore) ListItems(ctx context.Context, userID string) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (s *GormStore) GetItem(ctx context.Context, userID, id string) (models.ContentItem, error) {
	var item models.ContentItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ContentItem{}, ErrNotFound
	}
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

func (s *GormStore) CreateItem(ctx context.Context, item models.ContentItem) (models.ContentItem, error) {
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return models.ContentItem{}, fmt.Errorf("failed to create item: %w", err)
	}
	return item, nil
}

func (s *GormStore) UpdateItem(ctx context.Context, userID, id string, patch ItemPatch) (models.ContentItem, error) {
	updates := map[string]any{}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}
	if patch.Data != nil {
		updates["data"] = *patch.Data
	}
	if patch.ErrorMessage != nil {
		updates["error_message"] = *patch.ErrorMessage
	}
	if patch.ClearSchedule {
		updates["schedule"] = nil
	} else if patch.Schedule != nil {
		updates["schedule"] = *patch.Schedule
	}

	if len(updates) > 0 {
		query := s.db.WithContext(ctx).
			Model(&models.ContentItem{}).
			Where("user_id = ? AND id = ?", userID, id)
		if patch.IfStatus != nil {
			query = query.Where("status = ?", *patch.IfStatus)
		}
		if patch.IfScheduleBy != nil {
			query = query.Where("schedule IS NOT NULL AND schedule <= ?", *patch.IfScheduleBy)
		}
		result := query.Updates(updates)
		if result.Error != nil {
			return models.ContentItem{}, fmt.Errorf("failed to update item: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			// A guarded update that matched no row is stale if the item still
			// exists; otherwise the item is gone.
			if patch.IfStatus != nil || patch.IfScheduleBy != nil {
				if _, err := s.GetItem(ctx, userID, id); err == nil {
					return models.ContentItem{}, ErrStale
				}
			}
			return models.ContentItem{}, ErrNotFound
		}
	}

	return s.GetItem(ctx, userID, id)
}

func (s *GormStore) DeleteItem(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.ContentItem{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListScheduled(ctx context.Context) ([]models.ContentItem, error) {
	var items []models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusScheduled).
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list scheduled items: %w", err)
	}
	return items, nil
}

func (s *GormStore) GetContext(ctx context.Context, userID string) (models.UserContext, error) {
	var uc models.UserContext
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&uc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.UserContext{UserID: userID}, nil
	}
	if err != nil {
		return models.UserContext{}, fmt.Errorf("failed to get user context: %w", err)
	}
	return uc, nil
}

func (s *GormStore) SaveContext(ctx context.Context, uc models.UserContext) (models.UserContext, error) {
	if err := s.db.WithContext(ctx).Save(&uc).Error; err != nil {
		return models.UserContext{}, fmt.Errorf("failed to save user context: %w", err)
	}
	return uc, nil
}

func (s *GormStore) ListImages(ctx context.Context, userID string) ([]models.UserImage, error) {
	var images []models.UserImage
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	return images, nil
}

func (s *GormStore) CreateImage(ctx context.Context, image models.UserImage) (models.UserImage, error) {
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		return models.UserImage{}, fmt.Errorf("failed to create image: %w", err)
	}
	return image, nil
}

func (s *GormStore) DeleteImage(ctx context.Context, userID, id string) error {
	result := s.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&models.UserImage{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) RecordEvent(ctx context.Context, event models.EventLog) error {
	return s.db.WithContext(ctx).Create(&event).Error
}
