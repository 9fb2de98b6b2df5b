package model

import (
	"time"
)

type Review struct {
	ID           string     `db:"id" json:"id"`
	RestaurantID string     `db:"restaurant_id" json:"restaurantId"`
	UserID       string     `db:"user_id" json:"userId"`
	Rating       int        `db:"rating" json:"rating"`
	Title        *string    `db:"title" json:"title"`
	Content      *string    `db:"content" json:"content"`
	VisitDate    *time.Time `db:"visit_date" json:"visitDate"`
	IsVerified   bool       `db:"is_verified" json:"isVerified"`
	HelpfulCount int        `db:"helpful_count" json:"helpfulCount"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

type ReviewAuthor struct {
	ID       string  `db:"id" json:"id"`
	Username *string `db:"username" json:"username"`
}

// ReviewWithAuthor is a review as listed under a restaurant.
// MyVote is the caller's helpful vote, nil when anonymous or not voted.
type ReviewWithAuthor struct {
	Review
	User   ReviewAuthor   `db:"user" json:"user"`
	MyVote *bool          `db:"my_vote" json:"myVote,omitempty"`
	Photos []*ReviewPhoto `db:"-" json:"photos"`
}

// ReviewInput is the create/update payload. On update nil fields are left untouched.
type ReviewInput struct {
	Rating    *int       `json:"rating"`
	Title     *string    `json:"title"`
	Content   *string    `json:"content"`
	VisitDate *time.Time `json:"visitDate"`
	Photos    []PhotoRef `json:"photos"`
}

func (in ReviewInput) Empty() bool {
	return in.Rating == nil && in.Title == nil && in.Content == nil && in.VisitDate == nil && len(in.Photos) == 0
}

type ReviewPhoto struct {
	ID          string    `db:"id" json:"id"`
	ReviewID    string    `db:"review_id" json:"reviewId"`
	URL         string    `db:"url" json:"url"`
	StoragePath *string   `db:"storage_path" json:"-"`
	Caption     *string   `db:"caption" json:"caption"`
	OrderIndex  int       `db:"order_index" json:"orderIndex"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// PhotoRef attaches an already hosted image to a review.
type PhotoRef struct {
	URL     string  `json:"url"`
	Caption *string `json:"caption"`
}

type HelpfulVote struct {
	ReviewID  string    `db:"review_id"`
	UserID    string    `db:"user_id"`
	IsHelpful bool      `db:"is_helpful"`
	CreatedAt time.Time `db:"created_at"`
}
