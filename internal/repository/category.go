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

var (
	ErrCategoryNotFound  = errors.New("category not found")
	ErrDuplicateCategory = errors.New("category already exists")
)

const categoryColumns = `id, name, slug, description, created_at, updated_at`

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	BySlug(ctx context.Context, slug string) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	// CountExisting returns how many of ids name an existing category.
	CountExisting(ctx context.Context, ids []string) (int, error)
	ForRestaurant(ctx context.Context, restaurantID string) ([]*model.Category, error)
	ReplaceLinks(ctx context.Context, restaurantID string, categoryIDs []string, now time.Time) error
}

type categoryRepository struct {
	db db.Querier
}

func NewCategoryRepository(db db.Querier) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if isUniqueViolation(err, "") {
		return ErrDuplicateCategory
	}
	return err
}

func (r *categoryRepository) BySlug(ctx context.Context, slug string) (*model.Category, error) {
	category := &model.Category{}
	err := r.db.GetContext(ctx, category, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*model.Category, error) {
	categories := []*model.Category{}
	err := r.db.SelectContext(ctx, &categories, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) CountExisting(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	var count int
	query := `SELECT COUNT(*) FROM categories WHERE id IN (` + placeholders(1, len(ids)) + `)`
	err := r.db.GetContext(ctx, &count, query, args...)
	return count, err
}

func (r *categoryRepository) ForRestaurant(ctx context.Context, restaurantID string) ([]*model.Category, error) {
	categories := []*model.Category{}
	query := `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at
		FROM categories c
		JOIN restaurant_categories rc ON rc.category_id = c.id
		WHERE rc.restaurant_id = $1
		ORDER BY c.name
	`
	err := r.db.SelectContext(ctx, &categories, query, restaurantID)
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// ReplaceLinks swaps the restaurant's category set. Run it inside a transaction.
func (r *categoryRepository) ReplaceLinks(ctx context.Context, restaurantID string, categoryIDs []string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM restaurant_categories WHERE restaurant_id = $1`, restaurantID)
	if err != nil {
		return err
	}

	for _, categoryID := range categoryIDs {
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO restaurant_categories (restaurant_id, category_id, created_at) VALUES ($1, $2, $3)`,
			restaurantID, categoryID, now,
		)
		if isForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// placeholders renders "$start, $start+1, ..." for n arguments.
func placeholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}
