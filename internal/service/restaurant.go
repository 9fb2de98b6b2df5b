package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
	"github.com/resto-rate/api/internal/validation"
)

const (
	recentReviewsLimit      = 10
	maxRestaurantText       = 2000
	maxRestaurantField      = 255
	maxRestaurantCategories = 20
)

var (
	ErrRestaurantNotFound  = apperr.NotFound("restaurant not found")
	ErrRestaurantNameEmpty = apperr.Validation("restaurant name is required")
	ErrNotOwnerUpdate      = apperr.Forbidden("you can only update restaurants you created")
	ErrNotOwnerDelete      = apperr.Forbidden("you can only delete restaurants you created")
	ErrUnknownCategory     = apperr.Validation("one or more categories do not exist")
)

type RestaurantService struct {
	db      *sqlx.DB
	repos   *repository.Repositories
	reviews *ReviewService
	now     func() time.Time
}

func NewRestaurantService(database *sqlx.DB, reviews *ReviewService) *RestaurantService {
	return &RestaurantService{
		db:      database,
		repos:   repository.New(database),
		reviews: reviews,
		now:     time.Now,
	}
}

// List returns active restaurants, newest first.
func (s *RestaurantService) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, error) {
	restaurants, err := s.repos.Restaurants.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list restaurants: %w", err)
	}
	return restaurants, nil
}

// Detail returns an active restaurant with its categories and most recent reviews.
// The two lookups run concurrently.
func (s *RestaurantService) Detail(ctx context.Context, id, viewerID string) (*model.RestaurantDetail, error) {
	restaurant, err := s.active(ctx, s.repos, id)
	if err != nil {
		return nil, err
	}

	detail := &model.RestaurantDetail{
		Restaurant: *restaurant,
		ReviewStats: model.ReviewStats{
			AverageRating: restaurant.AverageRating,
			TotalReviews:  restaurant.TotalReviews,
		},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := s.repos.Categories.ForRestaurant(gctx, id)
		if err != nil {
			return fmt.Errorf("failed to get categories: %w", err)
		}
		detail.Categories = categories
		return nil
	})
	g.Go(func() error {
		reviews, err := s.reviews.recent(gctx, s.repos, id, viewerID, recentReviewsLimit, 0)
		if err != nil {
			return err
		}
		detail.RecentReviews = reviews
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return detail, nil
}

// Create adds a restaurant owned by actor and links its categories in one transaction.
func (s *RestaurantService) Create(ctx context.Context, actor *model.User, in model.RestaurantInput) (*model.RestaurantDetail, error) {
	name := trimmed(in.Name)
	if name == nil {
		return nil, ErrRestaurantNameEmpty
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	restaurant := &model.Restaurant{
		ID:        id,
		Name:      *name,
		IsActive:  true,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := applyRestaurantInput(restaurant, in); err != nil {
		return nil, err
	}

	var categoryIDs []string
	if in.CategoryIDs != nil {
		categoryIDs = dedupe(*in.CategoryIDs)
	}

	var categories []*model.Category
	err = db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		if err := checkCategories(ctx, repos, categoryIDs); err != nil {
			return err
		}
		if err := repos.Restaurants.Create(ctx, restaurant); err != nil {
			return err
		}
		if err := repos.Categories.ReplaceLinks(ctx, restaurant.ID, categoryIDs, now); err != nil {
			return err
		}
		var err error
		categories, err = repos.Categories.ForRestaurant(ctx, restaurant.ID)
		return err
	})
	if err != nil {
		return nil, mapRestaurantError(err)
	}

	slog.Info("restaurant created", "restaurant_id", restaurant.ID, "created_by", actor.ID)
	return &model.RestaurantDetail{
		Restaurant:    *restaurant,
		Categories:    categories,
		RecentReviews: []*model.ReviewWithAuthor{},
	}, nil
}

// Update edits a restaurant the actor created. A non-nil CategoryIDs replaces the category set.
func (s *RestaurantService) Update(ctx context.Context, actor *model.User, id string, in model.RestaurantInput) (*model.RestaurantDetail, error) {
	if in.Empty() {
		return nil, ErrNoUpdateData
	}

	var (
		restaurant *model.Restaurant
		categories []*model.Category
	)
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		var err error
		restaurant, err = s.active(ctx, repos, id)
		if err != nil {
			return err
		}
		if restaurant.CreatedBy != actor.ID {
			return ErrNotOwnerUpdate
		}

		if in.Name != nil {
			name := trimmed(in.Name)
			if name == nil {
				return ErrRestaurantNameEmpty
			}
			restaurant.Name = *name
		}
		if err := applyRestaurantInput(restaurant, in); err != nil {
			return err
		}

		now := s.now().UTC()
		restaurant.UpdatedAt = now
		if err := repos.Restaurants.Update(ctx, restaurant); err != nil {
			return err
		}

		if in.CategoryIDs != nil {
			ids := dedupe(*in.CategoryIDs)
			if err := checkCategories(ctx, repos, ids); err != nil {
				return err
			}
			if err := repos.Categories.ReplaceLinks(ctx, id, ids, now); err != nil {
				return err
			}
		}

		categories, err = repos.Categories.ForRestaurant(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapRestaurantError(err)
	}

	return &model.RestaurantDetail{
		Restaurant: *restaurant,
		Categories: categories,
		ReviewStats: model.ReviewStats{
			AverageRating: restaurant.AverageRating,
			TotalReviews:  restaurant.TotalReviews,
		},
	}, nil
}

// Delete soft-deletes a restaurant the actor created. Its reviews are kept.
func (s *RestaurantService) Delete(ctx context.Context, actor *model.User, id string) error {
	restaurant, err := s.active(ctx, s.repos, id)
	if err != nil {
		return err
	}
	if restaurant.CreatedBy != actor.ID {
		return ErrNotOwnerDelete
	}

	err = s.repos.Restaurants.Deactivate(ctx, id, s.now().UTC())
	if err != nil {
		return mapRestaurantError(err)
	}

	slog.Info("restaurant deactivated", "restaurant_id", id)
	return nil
}

func (s *RestaurantService) Categories(ctx context.Context, id string) ([]*model.Category, error) {
	if _, err := s.active(ctx, s.repos, id); err != nil {
		return nil, err
	}
	categories, err := s.repos.Categories.ForRestaurant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

// SetCategories replaces the category links of a restaurant the actor created.
func (s *RestaurantService) SetCategories(ctx context.Context, actor *model.User, id string, categoryIDs []string) ([]*model.Category, error) {
	ids := dedupe(categoryIDs)

	var categories []*model.Category
	err := db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		repos := repository.New(tx)

		restaurant, err := s.active(ctx, repos, id)
		if err != nil {
			return err
		}
		if restaurant.CreatedBy != actor.ID {
			return ErrNotOwnerUpdate
		}
		if err := checkCategories(ctx, repos, ids); err != nil {
			return err
		}
		if err := repos.Categories.ReplaceLinks(ctx, id, ids, s.now().UTC()); err != nil {
			return err
		}
		categories, err = repos.Categories.ForRestaurant(ctx, id)
		return err
	})
	if err != nil {
		return nil, mapRestaurantError(err)
	}
	return categories, nil
}

// active loads a restaurant and hides soft-deleted ones.
func (s *RestaurantService) active(ctx context.Context, repos *repository.Repositories, id string) (*model.Restaurant, error) {
	restaurant, err := repos.Restaurants.ByID(ctx, id)
	if errors.Is(err, repository.ErrRestaurantNotFound) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if !restaurant.IsActive {
		return nil, ErrRestaurantNotFound
	}
	return restaurant, nil
}

func checkCategories(ctx context.Context, repos *repository.Repositories, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if len(ids) > maxRestaurantCategories {
		return apperr.Validation(fmt.Sprintf("a restaurant can have at most %d categories", maxRestaurantCategories))
	}
	count, err := repos.Categories.CountExisting(ctx, ids)
	if err != nil {
		return err
	}
	if count != len(ids) {
		return ErrUnknownCategory
	}
	return nil
}

// applyRestaurantInput copies the optional fields of in onto r after validating them.
func applyRestaurantInput(r *model.Restaurant, in model.RestaurantInput) error {
	if err := validation.ValidateName("name", r.Name); err != nil {
		return invalid(err)
	}
	if err := validation.ValidateText("description", in.Description, maxRestaurantText); err != nil {
		return invalid(err)
	}
	for field, v := range map[string]*string{
		"cuisine type": in.CuisineType,
		"address":      in.Address,
		"phone":        in.Phone,
		"website":      in.Website,
	} {
		if err := validation.ValidateText(field, v, maxRestaurantField); err != nil {
			return invalid(err)
		}
	}
	if in.Website != nil && trimmed(in.Website) != nil {
		if err := validation.ValidateURL("website", *trimmed(in.Website)); err != nil {
			return invalid(err)
		}
	}
	if in.PriceRange != nil {
		if err := validation.ValidatePriceRange(*in.PriceRange); err != nil {
			return invalid(err)
		}
	}
	if err := validation.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return invalid(err)
	}

	if in.Description != nil {
		r.Description = trimmed(in.Description)
	}
	if in.CuisineType != nil {
		r.CuisineType = trimmed(in.CuisineType)
	}
	if in.Address != nil {
		r.Address = trimmed(in.Address)
	}
	if in.Phone != nil {
		r.Phone = trimmed(in.Phone)
	}
	if in.Website != nil {
		r.Website = trimmed(in.Website)
	}
	if in.Latitude != nil {
		r.Latitude = in.Latitude
	}
	if in.Longitude != nil {
		r.Longitude = in.Longitude
	}
	if in.PriceRange != nil {
		r.PriceRange = in.PriceRange
	}
	return nil
}

func mapRestaurantError(err error) error {
	switch {
	case errors.Is(err, repository.ErrRestaurantNotFound):
		return ErrRestaurantNotFound
	case errors.Is(err, repository.ErrCategoryNotFound):
		return ErrUnknownCategory
	case apperr.KindOf(err) != apperr.KindInternal:
		return err
	}
	return fmt.Errorf("restaurant operation failed: %w", err)
}
