package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

var ErrRestaurantNotFound = errors.New("restaurant not found")

const restaurantColumns = `id, name, description, cuisine_type, address, latitude, longitude, phone, website,
	price_range, average_rating, total_reviews, is_active, created_by, created_at, updated_at`

// created_by is cleared when the owner's account is deleted.
const restaurantSelect = `id, name, description, cuisine_type, address, latitude, longitude, phone, website,
	price_range, average_rating, total_reviews, is_active, COALESCE(created_by, '') AS created_by, created_at, updated_at`

type RestaurantRepository interface {
	Create(ctx context.Context, restaurant *model.Restaurant) error
	// ByID returns the restaurant whether or not it is active.
	ByID(ctx context.Context, id string) (*model.Restaurant, error)
	List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, error)
	Update(ctx context.Context, restaurant *model.Restaurant) error
	Deactivate(ctx context.Context, id string, now time.Time) error
	// DeactivateByOwner soft-deletes every active restaurant the user created.
	DeactivateByOwner(ctx context.Context, userID string, now time.Time) error
	// RefreshRating recomputes average_rating and total_reviews from the reviews table.
	RefreshRating(ctx context.Context, id string, now time.Time) error
}

type restaurantRepository struct {
	db db.Querier
}

func NewRestaurantRepository(db db.Querier) RestaurantRepository {
	return &restaurantRepository{db: db}
}

func (r *restaurantRepository) Create(ctx context.Context, restaurant *model.Restaurant) error {
	query := `INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	_, err := r.db.ExecContext(ctx, query,
		restaurant.ID,
		restaurant.Name,
		restaurant.Description,
		restaurant.CuisineType,
		restaurant.Address,
		restaurant.Latitude,
		restaurant.Longitude,
		restaurant.Phone,
		restaurant.Website,
		restaurant.PriceRange,
		restaurant.AverageRating,
		restaurant.TotalReviews,
		restaurant.IsActive,
		restaurant.CreatedBy,
		restaurant.CreatedAt,
		restaurant.UpdatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrUserNotFound
	}
	return err
}

func (r *restaurantRepository) ByID(ctx context.Context, id string) (*model.Restaurant, error) {
	restaurant := &model.Restaurant{}
	err := r.db.GetContext(ctx, restaurant, `SELECT `+restaurantSelect+` FROM restaurants WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRestaurantNotFound
	}
	if err != nil {
		return nil, err
	}
	return restaurant, nil
}

// List returns active restaurants, newest first.
func (r *restaurantRepository) List(ctx context.Context, filter model.RestaurantFilter) ([]*model.Restaurant, error) {
	var (
		query strings.Builder
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	query.WriteString(`SELECT r.id, r.name, r.description, r.cuisine_type, r.address, r.latitude, r.longitude, r.phone, r.website,
		r.price_range, r.average_rating, r.total_reviews, r.is_active, COALESCE(r.created_by, '') AS created_by, r.created_at, r.updated_at
		FROM restaurants r`)
	if filter.CategorySlug != "" {
		query.WriteString(`
		JOIN restaurant_categories rc ON rc.restaurant_id = r.id
		JOIN categories c ON c.id = rc.category_id AND c.slug = ` + arg(filter.CategorySlug))
	}
	query.WriteString(`
		WHERE r.is_active = TRUE`)
	if filter.CreatedBy != "" {
		query.WriteString(` AND r.created_by = ` + arg(filter.CreatedBy))
	}
	query.WriteString(`
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ` + arg(filter.Limit) + ` OFFSET ` + arg(filter.Offset))

	restaurants := []*model.Restaurant{}
	err := r.db.SelectContext(ctx, &restaurants, query.String(), args...)
	if err != nil {
		return nil, err
	}
	return restaurants, nil
}

func (r *restaurantRepository) Update(ctx context.Context, restaurant *model.Restaurant) error {
	query := `UPDATE restaurants SET name = $1, description = $2, cuisine_type = $3, address = $4, latitude = $5,
		longitude = $6, phone = $7, website = $8, price_range = $9, updated_at = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		restaurant.Name,
		restaurant.Description,
		restaurant.CuisineType,
		restaurant.Address,
		restaurant.Latitude,
		restaurant.Longitude,
		restaurant.Phone,
		restaurant.Website,
		restaurant.PriceRange,
		restaurant.UpdatedAt,
		restaurant.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result, ErrRestaurantNotFound)
}

// Deactivate soft-deletes the restaurant; its reviews are kept.
func (r *restaurantRepository) Deactivate(ctx context.Context, id string, now time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND is_active = TRUE`,
		now, id,
	)
	if err != nil {
		return err
	}
	return expectOne(result, ErrRestaurantNotFound)
}

func (r *restaurantRepository) DeactivateByOwner(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE restaurants SET is_active = FALSE, updated_at = $1 WHERE created_by = $2 AND is_active = TRUE`,
		now, userID,
	)
	return err
}

func (r *restaurantRepository) RefreshRating(ctx context.Context, id string, now time.Time) error {
	query := `
		UPDATE restaurants SET
			average_rating = COALESCE((SELECT AVG(rating) FROM reviews WHERE restaurant_id = $1), 0),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE restaurant_id = $1),
			updated_at = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return err
	}
	return expectOne(result, ErrRestaurantNotFound)
}
