package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
	"github.com/resto-rate/api/internal/validation"
)

// UploadPhoto stores an image in object storage and attaches it to the actor's review.
// The image must already be size-checked by the caller's body limit; type is checked here.
func (s *ReviewService) UploadPhoto(ctx context.Context, actor *model.User, reviewID string, header *multipart.FileHeader, caption *string, maxSize int64) (*model.ReviewPhoto, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	review, err := s.repos.Reviews.ByID(ctx, reviewID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	if review.UserID != actor.ID {
		return nil, ErrNotReviewAuthor
	}

	caption = trimmed(caption)
	if err := validation.ValidateText("caption", caption, maxPhotoCaption); err != nil {
		return nil, invalid(err)
	}
	contentType, err := validation.ValidateImage(header, maxSize)
	if err != nil {
		return nil, invalid(err)
	}
	if err := checkPhotoCapacity(ctx, s.repos, reviewID, 1); err != nil {
		return nil, mapReviewError(err)
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("reviews/%s/%s%s", reviewID, id, strings.ToLower(filepath.Ext(header.Filename)))

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	err = s.storage.Save(ctx, key, file, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	order, err := s.repos.Photos.NextOrderIndex(ctx, reviewID)
	if err != nil {
		s.deleteObject(ctx, key)
		return nil, fmt.Errorf("failed to get photo order: %w", err)
	}

	photo := &model.ReviewPhoto{
		ID:          id,
		ReviewID:    reviewID,
		StoragePath: &key,
		Caption:     caption,
		OrderIndex:  order,
		CreatedAt:   s.now().UTC(),
	}
	err = s.repos.Photos.Create(ctx, photo)
	if err != nil {
		// If the insert fails the stored object would be orphaned
		s.deleteObject(ctx, key)
		return nil, mapReviewError(err)
	}

	slog.Info("review photo uploaded", "review_id", reviewID, "photo_id", id, "key", key)
	s.resolvePhotoURL(ctx, photo)
	return photo, nil
}

// DeletePhoto removes a photo from the actor's review and, for uploads, from storage.
func (s *ReviewService) DeletePhoto(ctx context.Context, actor *model.User, reviewID, photoID string) error {
	review, err := s.repos.Reviews.ByID(ctx, reviewID)
	if err != nil {
		return mapReviewError(err)
	}
	if review.UserID != actor.ID {
		return ErrNotReviewAuthor
	}

	photo, err := s.repos.Photos.ByID(ctx, photoID)
	if errors.Is(err, repository.ErrPhotoNotFound) || (err == nil && photo.ReviewID != reviewID) {
		return ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get photo: %w", err)
	}

	err = s.repos.Photos.Delete(ctx, photoID)
	if err != nil {
		return mapReviewError(err)
	}

	if photo.StoragePath != nil {
		s.deleteObject(ctx, *photo.StoragePath)
	}
	return nil
}

// resolvePhotoURL fills URL for stored uploads. External photo URLs are left as given.
func (s *ReviewService) resolvePhotoURL(ctx context.Context, photo *model.ReviewPhoto) {
	if photo.StoragePath == nil || s.storage == nil {
		return
	}
	photo.URL = s.storage.URL(ctx, *photo.StoragePath)
}

func (s *ReviewService) deleteObject(ctx context.Context, key string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Error("failed to delete photo from storage", "error", err, "key", key)
	}
}
