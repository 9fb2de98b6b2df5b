package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

var (
	ErrReviewNotFound  = errors.New("review not found")
	ErrDuplicateReview = errors.New("you have already reviewed this restaurant")
)

const reviewColumns = `id, restaurant_id, user_id, rating, title, content, visit_date, is_verified, helpful_count, created_at, updated_at`

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ByID(ctx context.Context, id string) (*model.Review, error)
	// ListByRestaurant returns reviews newest first with their authors.
	// viewerID selects whose helpful vote is reported; empty means anonymous.
	ListByRestaurant(ctx context.Context, restaurantID, viewerID string, limit, offset int) ([]*model.ReviewWithAuthor, error)
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, id string) error
	RefreshHelpfulCount(ctx context.Context, id string) error
	// RestaurantIDsByUser lists the restaurants the user has reviewed.
	RestaurantIDsByUser(ctx context.Context, userID string) ([]string, error)
}

type reviewRepository struct {
	db db.Querier
}

func NewReviewRepository(db db.Querier) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.RestaurantID,
		review.UserID,
		review.Rating,
		review.Title,
		review.Content,
		review.VisitDate,
		review.IsVerified,
		review.HelpfulCount,
		review.CreatedAt,
		review.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err, ""):
		return ErrDuplicateReview
	case isForeignKeyViolation(err):
		return ErrRestaurantNotFound
	}
	return err
}

func (r *reviewRepository) ByID(ctx context.Context, id string) (*model.Review, error) {
	review := &model.Review{}
	err := r.db.GetContext(ctx, review, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (r *reviewRepository) ListByRestaurant(ctx context.Context, restaurantID, viewerID string, limit, offset int) ([]*model.ReviewWithAuthor, error) {
	reviews := []*model.ReviewWithAuthor{}
	query := `
		SELECT r.id, r.restaurant_id, r.user_id, r.rating, r.title, r.content, r.visit_date, r.is_verified,
			r.helpful_count, r.created_at, r.updated_at,
			u.id AS "user.id", u.username AS "user.username",
			v.is_helpful AS my_vote
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		LEFT JOIN review_helpful_votes v ON v.review_id = r.id AND v.user_id = $2
		WHERE r.restaurant_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $3 OFFSET $4
	`
	err := r.db.SelectContext(ctx, &reviews, query, restaurantID, viewerID, limit, offset)
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	query := `UPDATE reviews SET rating = $1, title = $2, content = $3, visit_date = $4, updated_at = $5 WHERE id = $6`

	result, err := r.db.ExecContext(ctx, query,
		review.Rating,
		review.Title,
		review.Content,
		review.VisitDate,
		review.UpdatedAt,
		review.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result, ErrReviewNotFound)
}

func (r *reviewRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, ErrReviewNotFound)
}

func (r *reviewRepository) RefreshHelpfulCount(ctx context.Context, id string) error {
	query := `
		UPDATE reviews SET helpful_count = (
			SELECT COUNT(*) FROM review_helpful_votes WHERE review_id = $1 AND is_helpful = TRUE
		)
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return expectOne(result, ErrReviewNotFound)
}

func (r *reviewRepository) RestaurantIDsByUser(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids, `SELECT DISTINCT restaurant_id FROM reviews WHERE user_id = $1 ORDER BY restaurant_id`, userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}
