package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
	"github.com/resto-rate/api/internal/validation"
)

var (
	ErrCategoryNotFound  = apperr.NotFound("category not found")
	ErrCategoryExists    = apperr.Conflict("category already exists")
	ErrAdminRequired     = apperr.Forbidden("admin access required")
	ErrCategoryNameEmpty = apperr.Validation("category name is required")
)

type CategoryService struct {
	categories repository.CategoryRepository
	now        func() time.Time
}

func NewCategoryService(database *sqlx.DB) *CategoryService {
	return &CategoryService{
		categories: repository.NewCategoryRepository(database),
		now:        time.Now,
	}
}

func (s *CategoryService) List(ctx context.Context) ([]*model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) BySlug(ctx context.Context, slug string) (*model.Category, error) {
	category, err := s.categories.BySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return category, nil
}

// Create adds a category. Only admins may create categories.
func (s *CategoryService) Create(ctx context.Context, actor *model.User, in model.CategoryInput) (*model.Category, error) {
	if actor == nil || !actor.IsAdmin {
		return nil, ErrAdminRequired
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrCategoryNameEmpty
	}
	if err := validation.ValidateName("name", name); err != nil {
		return nil, invalid(err)
	}
	description := trimmed(in.Description)
	if err := validation.ValidateText("description", description, 500); err != nil {
		return nil, invalid(err)
	}

	slug := Slugify(name)
	if slug == "" {
		return nil, apperr.Validation("category name must contain letters or digits")
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	category := &model.Category{
		ID:          id,
		Name:        name,
		Slug:        slug,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = s.categories.Create(ctx, category)
	if errors.Is(err, repository.ErrDuplicateCategory) {
		return nil, ErrCategoryExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// Slugify turns a display name into a URL slug: "Café Crème" becomes "cafe-creme".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	folded = cases.Lower(language.Und).String(folded)

	var b strings.Builder
	hyphen := false
	for _, r := range folded {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
		default:
			hyphen = true
		}
	}
	return b.String()
}
