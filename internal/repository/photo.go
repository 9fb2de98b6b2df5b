package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/resto-rate/api/internal/db"
	"github.com/resto-rate/api/internal/model"
)

var ErrPhotoNotFound = errors.New("photo not found")

const photoColumns = `id, review_id, url, storage_path, caption, order_index, created_at`

type PhotoRepository interface {
	Create(ctx context.Context, photo *model.ReviewPhoto) error
	ByID(ctx context.Context, id string) (*model.ReviewPhoto, error)
	ListByReviews(ctx context.Context, reviewIDs []string) ([]*model.ReviewPhoto, error)
	NextOrderIndex(ctx context.Context, reviewID string) (int, error)
	CountByReview(ctx context.Context, reviewID string) (int, error)
	Delete(ctx context.Context, id string) error
}

type photoRepository struct {
	db db.Querier
}

func NewPhotoRepository(db db.Querier) PhotoRepository {
	return &photoRepository{db: db}
}

func (r *photoRepository) Create(ctx context.Context, photo *model.ReviewPhoto) error {
	query := `INSERT INTO review_photos (` + photoColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		photo.ID,
		photo.ReviewID,
		photo.URL,
		photo.StoragePath,
		photo.Caption,
		photo.OrderIndex,
		photo.CreatedAt,
	)
	if isForeignKeyViolation(err) {
		return ErrReviewNotFound
	}
	return err
}

func (r *photoRepository) ByID(ctx context.Context, id string) (*model.ReviewPhoto, error) {
	photo := &model.ReviewPhoto{}
	err := r.db.GetContext(ctx, photo, `SELECT `+photoColumns+` FROM review_photos WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, err
	}
	return photo, nil
}

func (r *photoRepository) ListByReviews(ctx context.Context, reviewIDs []string) ([]*model.ReviewPhoto, error) {
	photos := []*model.ReviewPhoto{}
	if len(reviewIDs) == 0 {
		return photos, nil
	}

	args := make([]any, len(reviewIDs))
	for i, id := range reviewIDs {
		args[i] = id
	}

	query := `SELECT ` + photoColumns + ` FROM review_photos WHERE review_id IN (` + placeholders(1, len(reviewIDs)) + `) ORDER BY review_id, order_index`
	err := r.db.SelectContext(ctx, &photos, query, args...)
	if err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepository) NextOrderIndex(ctx context.Context, reviewID string) (int, error) {
	var next int
	err := r.db.GetContext(ctx, &next, `SELECT COALESCE(MAX(order_index) + 1, 0) FROM review_photos WHERE review_id = $1`, reviewID)
	return next, err
}

func (r *photoRepository) CountByReview(ctx context.Context, reviewID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM review_photos WHERE review_id = $1`, reviewID)
	return count, err
}

func (r *photoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM review_photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result, ErrPhotoNotFound)
}
