package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/models"
	"github.com/lumenlabs/brandflow/internal/store"
)

// ImageService manages the user's uploaded image library. Images seed video
// generation; the binary itself lives in the object store, only the reference
// is kept here.
type ImageService struct {
	store  store.Store
	logger *zap.Logger
}

func NewImageService(st store.Store, logger *zap.Logger) *ImageService {
	return &ImageService{store: st, logger: logger}
}

func (s *ImageService) List(ctx context.Context, userID string) ([]models.UserImage, error) {
	return s.store.ListImages(ctx, userID)
}

func (s *ImageService) Add(ctx context.Context, userID, name, url string) (models.UserImage, error) {
	if name == "" || url == "" {
		return models.UserImage{}, fmt.Errorf("%w: image name and url are required", ErrValidation)
	}
	image := models.UserImage{
		ID:     uuid.NewString(),
		UserID: userID,
		Name:   name,
		URL:    url,
	}
	created, err := s.store.CreateImage(ctx, image)
	if err != nil {
		return models.UserImage{}, fmt.Errorf("failed to create image: %w", err)
	}
	s.logger.Info("Image added to library",
		zap.String("user_id", userID),
		zap.String("image_id", created.ID))
	return created, nil
}

func (s *ImageService) Delete(ctx context.Context, userID, id string) error {
	return s.store.DeleteImage(ctx, userID, id)
}

// Get resolves an image id to its record, for video generation start frames.
func (s *ImageService) Get(ctx context.Context, userID, id string) (models.UserImage, error) {
	images, err := s.store.ListImages(ctx, userID)
	if err != nil {
		return models.UserImage{}, err
	}
	for _, image := range images {
		if image.ID == id {
			return image, nil
		}
	}
	return models.UserImage{}, store.ErrNotFound
}
