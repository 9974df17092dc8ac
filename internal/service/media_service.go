package service

import (
	"bytes"
	"context"
	"errors"
	"path"

	"wanderlog/internal/middleware"
	"wanderlog/internal/models"
	"wanderlog/internal/observability"
	"wanderlog/internal/storage"
	"wanderlog/internal/validation"

	"github.com/google/uuid"
)

// DefaultImageMaxUploadSizeKB caps uploads when no limit is configured.
const DefaultImageMaxUploadSizeKB = 2048

const storyImagePrefix = "stories"

// MediaService stores story images and resolves their public URLs.
type MediaService struct {
	store     storage.Store
	maxSizeKB int
}

func NewMediaService(store storage.Store, maxSizeKB int) *MediaService {
	if maxSizeKB <= 0 {
		maxSizeKB = DefaultImageMaxUploadSizeKB
	}
	return &MediaService{store: store, maxSizeKB: maxSizeKB}
}

// Inspect validates an upload without storing it.
func (s *MediaService) Inspect(content []byte) (*validation.ImageInfo, error) {
	return validation.ValidateImage(content, s.maxSizeKB)
}

// Store persists an already inspected upload and returns its relative key,
// e.g. "stories/0b7c...e1.png".
func (s *MediaService) Store(ctx context.Context, content []byte, info *validation.ImageInfo) (string, error) {
	key := path.Join(storyImagePrefix, uuid.NewString()+info.Extension)

	err := s.store.Put(ctx, key, bytes.NewReader(content), int64(len(content)), info.ContentType)
	observability.MediaOperations.WithLabelValues(s.store.Driver(), "put", observability.Outcome(err)).Inc()
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return key, nil
}

// Remove deletes a stored image. Failures are logged, never returned.
func (s *MediaService) Remove(ctx context.Context, key string) {
	err := s.store.Delete(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		observability.MediaOperations.WithLabelValues(s.store.Driver(), "delete", "missing").Inc()
		middleware.Logger.WarnContext(ctx, "image already missing", "key", key)
		return
	}
	observability.MediaOperations.WithLabelValues(s.store.Driver(), "delete", observability.Outcome(err)).Inc()
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to delete image", "key", key, "error", err)
	}
}

// PublicURL resolves a story's image value: external URLs pass through,
// local keys are mapped through the store.
func (s *MediaService) PublicURL(story *models.Story) string {
	if story.Image == nil || *story.Image == "" {
		return ""
	}
	if !story.IsLocalImage() {
		return *story.Image
	}
	return s.store.URL(*story.Image)
}
