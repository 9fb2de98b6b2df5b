package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
	"github.com/resto-rate/api/internal/storage"
	"github.com/resto-rate/api/internal/validation"
)

const (
	maxReviewTitle   = 200
	maxReviewContent = 5000
	maxPhotoCaption  = 300
	maxReviewPhotos  = 10
)

var (
	ErrReviewNotFound     = apperr.NotFound("review not found")
	ErrReviewExists       = apperr.Conflict("you have already reviewed this restaurant")
	ErrNotReviewAuthor    = apperr.Forbidden("you can only modify your own reviews")
	ErrRatingRequired     = apperr.Validation("rating is required")
	ErrPhotoNotFound      = apperr.NotFound("photo not found")
	ErrStorageUnavailable = apperr.New(apperr.KindUnavailable, "photo storage is not configured")
	ErrTooManyPhotos      = apperr.Validation(fmt.Sprintf("a review can have at most %d photos", maxReviewPhotos))
)

type ReviewService struct {
	db      *sqlx.DB
	repos   *repository.Repositories
	storage storage.Storage
	now     func() time.Time
}

// NewReviewService builds the review service. A nil store disables photo uploads.
func NewReviewService(database *sqlx.DB, store storage.Storage) *ReviewService {
	return &ReviewService{
		db:      database,
		repos:   repository.New(database),
		storage: store,
		now:     time.Now,
	}
}

// ListForRestaurant returns a page of reviews, newest first, with authors, photos
// and the viewer's own helpful vote. An empty viewerID lists anonymously.
func (s *ReviewService) ListForRestaurant(ctx context.Context, restaurantID, viewerID string, limit, offset int) ([]*model.ReviewWithAuthor, error) {
	restaurant, err := s.repos.Restaurants.ByID(ctx, restaurantID)
	if errors.Is(err, repository.ErrRestaurantNotFound) || (err == nil && !restaurant.IsActive) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}

	return s.recent(ctx, s.repos, restaurantID, viewerID, limit, offset)
}

// recent lists reviews through repos so callers can run it on their own querier.
func (s *ReviewService) recent(ctx context.Context, repos *repository.Repositories, restaurantID, viewerID string, limit, offset int) ([]*model.ReviewWithAuthor, error) {
	reviews, err := repos.Reviews.ListByRestaurant(ctx, restaurantID, viewerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	ids := make([]string, len(reviews))
	byID := make(map[string]*model.ReviewWithAuthor, len(reviews))
	for i, r := range reviews {
		ids[i] = r.ID
		r.Photos = []*model.ReviewPhoto{}
		byID[r.ID] = r
	}

	photos, err := repos.Photos.ListByReviews(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list review photos: %w", err)
	}
	for _, p := range photos {
		s.resolvePhotoURL(ctx, p)
		byID[p.ReviewID].Photos = append(byID[p.ReviewID].Photos, p)
	}
	return reviews, nil
}

func (s *ReviewService) ByID(ctx context.Context, id string) (*model.Review, error) {
	review, err := s.repos.Reviews.ByID(ctx, id)
	if errors.Is(err, repository.ErrReviewNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return review, nil
}

// Create posts the actor's review of an active restaurant. One review per user and restaurant.
func (s *ReviewService) Create(ctx context.Context, actor *model.User, restaurantID string, in model.ReviewInput) (*model.Review, error) {
	if in.Rating == nil {
		return nil, ErrRatingRequired
	}
	if err := validateReviewInput(in); err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	review := &model.Review{
		ID:           id,
		RestaurantID: restaurantID,
		UserID:       actor.ID,
		Rating:       *in.Rating,
		Title:        trimmed(in.Title),
		Content:      trimmed(in.Content),
		VisitDate:    utcPtr(in.VisitDate),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		restaurant, err := repos.Restaurants.ByID(ctx, restaurantID)
		if err != nil {
			return err
		}
		if !restaurant.IsActive {
			return repository.ErrRestaurantNotFound
		}

		if err := repos.Reviews.Create(ctx, review); err != nil {
			return err
		}
		for i, ref := range in.Photos {
			if err := s.attachRef(ctx, repos, review.ID, ref, i, now); err != nil {
				return err
			}
		}
		return repos.Restaurants.RefreshRating(ctx, restaurantID, now)
	})
	if err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

// Update edits the actor's own review and refreshes the restaurant rating.
func (s *ReviewService) Update(ctx context.Context, actor *model.User, id string, in model.ReviewInput) (*model.Review, error) {
	if in.Empty() {
		return nil, ErrNoUpdateData
	}
	if err := validateReviewInput(in); err != nil {
		return nil, err
	}

	var review *model.Review
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		var err error
		review, err = repos.Reviews.ByID(ctx, id)
		if err != nil {
			return err
		}
		if review.UserID != actor.ID {
			return ErrNotReviewAuthor
		}

		now := s.now().UTC()
		if in.Rating != nil {
			review.Rating = *in.Rating
		}
		if in.Title != nil {
			review.Title = trimmed(in.Title)
		}
		if in.Content != nil {
			review.Content = trimmed(in.Content)
		}
		if in.VisitDate != nil {
			review.VisitDate = utcPtr(in.VisitDate)
		}
		review.UpdatedAt = now

		if err := repos.Reviews.Update(ctx, review); err != nil {
			return err
		}

		if len(in.Photos) > 0 {
			if err := checkPhotoCapacity(ctx, repos, review.ID, len(in.Photos)); err != nil {
				return err
			}
			next, err := repos.Photos.NextOrderIndex(ctx, review.ID)
			if err != nil {
				return err
			}
			for i, ref := range in.Photos {
				if err := s.attachRef(ctx, repos, review.ID, ref, next+i, now); err != nil {
					return err
				}
			}
		}
		return repos.Restaurants.RefreshRating(ctx, review.RestaurantID, now)
	})
	if err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

// Delete removes the actor's own review together with its photos and votes.
func (s *ReviewService) Delete(ctx context.Context, actor *model.User, id string) error {
	var keys []string
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		review, err := repos.Reviews.ByID(ctx, id)
		if err != nil {
			return err
		}
		if review.UserID != actor.ID {
			return ErrNotReviewAuthor
		}

		photos, err := repos.Photos.ListByReviews(ctx, []string{id})
		if err != nil {
			return err
		}
		for _, p := range photos {
			if p.StoragePath != nil {
				keys = append(keys, *p.StoragePath)
			}
		}

		if err := repos.Reviews.Delete(ctx, id); err != nil {
			return err
		}
		return repos.Restaurants.RefreshRating(ctx, review.RestaurantID, s.now().UTC())
	})
	if err != nil {
		return mapReviewError(err)
	}

	for _, key := range keys {
		s.deleteObject(ctx, key)
	}
	return nil
}

// Vote records whether the actor found a review helpful. Voting again replaces the earlier vote.
func (s *ReviewService) Vote(ctx context.Context, actor *model.User, reviewID string, helpful bool) (*model.Review, error) {
	var review *model.Review
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		err := repos.Votes.Upsert(ctx, &model.HelpfulVote{
			ReviewID:  reviewID,
			UserID:    actor.ID,
			IsHelpful: helpful,
			CreatedAt: s.now().UTC(),
		})
		if err != nil {
			return err
		}
		if err := repos.Reviews.RefreshHelpfulCount(ctx, reviewID); err != nil {
			return err
		}
		review, err = repos.Reviews.ByID(ctx, reviewID)
		return err
	})
	if err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

func validateReviewInput(in model.ReviewInput) error {
	if in.Rating != nil {
		if err := validation.ValidateRating(*in.Rating); err != nil {
			return invalid(err)
		}
	}
	if err := validation.ValidateText("title", in.Title, maxReviewTitle); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateText("content", in.Content, maxReviewContent); err != nil {
		return invalid(err)
	}
	if len(in.Photos) > maxReviewPhotos {
		return ErrTooManyPhotos
	}
	for _, p := range in.Photos {
		if err := validation.ValidateURL("photo url", p.URL); err != nil {
			return invalid(err)
		}
		if err := validation.ValidateText("caption", p.Caption, maxPhotoCaption); err != nil {
			return invalid(err)
		}
	}
	return nil
}

func (s *ReviewService) attachRef(ctx context.Context, repos *repository.Repositories, reviewID string, ref model.PhotoRef, order int, now time.Time) error {
	id, err := newID()
	if err != nil {
		return err
	}
	return repos.Photos.Create(ctx, &model.ReviewPhoto{
		ID:         id,
		ReviewID:   reviewID,
		URL:        ref.URL,
		Caption:    trimmed(ref.Caption),
		OrderIndex: order,
		CreatedAt:  now,
	})
}

// checkPhotoCapacity fails when adding photos would take the review past maxReviewPhotos.
func checkPhotoCapacity(ctx context.Context, repos *repository.Repositories, reviewID string, adding int) error {
	count, err := repos.Photos.CountByReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if count+adding > maxReviewPhotos {
		return ErrTooManyPhotos
	}
	return nil
}

func mapReviewError(err error) error {
	switch {
	case errors.Is(err, repository.ErrReviewNotFound):
		return ErrReviewNotFound
	case errors.Is(err, repository.ErrDuplicateReview):
		return ErrReviewExists
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return ErrRestaurantNotFound
	case errors.Is(err, repository.ErrPhotoNotFound):
		return ErrPhotoNotFound
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	}
	return fmt.Errorf("review operation failed: %w", err)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
