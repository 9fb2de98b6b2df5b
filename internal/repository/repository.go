package repository

import (
	"strings"

	"github.com/resto-rate/api/internal/db"
)

// Repositories bundles every repository bound to the same querier,
// either the pool or a single transaction.
type Repositories struct {
	Users       UserRepository
	Sessions    SessionRepository
	Categories  CategoryRepository
	Restaurants RestaurantRepository
	Reviews     ReviewRepository
	Photos      PhotoRepository
	Votes       VoteRepository
}

func New(q db.Querier) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(q),
		Sessions:    NewSessionRepository(q),
		Categories:  NewCategoryRepository(q),
		Restaurants: NewRestaurantRepository(q),
		Reviews:     NewReviewRepository(q),
		Photos:      NewPhotoRepository(q),
		Votes:       NewVoteRepository(q),
	}
}

// isUniqueViolation checks for a unique constraint violation (works for both SQLite and PostgreSQL).
// A non-empty column narrows the match to that column or its named constraint.
func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") && !strings.Contains(errStr, "duplicate key value") {
		return false
	}
	return column == "" || strings.Contains(errStr, column)
}

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "FOREIGN KEY constraint failed") || strings.Contains(errStr, "violates foreign key constraint")
}
