package model

import (
	"time"
)

type Restaurant struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description"`
	CuisineType   *string   `db:"cuisine_type" json:"cuisineType"`
	Address       *string   `db:"address" json:"address"`
	Latitude      *float64  `db:"latitude" json:"latitude"`
	Longitude     *float64  `db:"longitude" json:"longitude"`
	Phone         *string   `db:"phone" json:"phone"`
	Website       *string   `db:"website" json:"website"`
	PriceRange    *int      `db:"price_range" json:"priceRange"`
	AverageRating float64   `db:"average_rating" json:"averageRating"`
	TotalReviews  int       `db:"total_reviews" json:"totalReviews"`
	IsActive      bool      `db:"is_active" json:"isActive"`
	CreatedBy     string    `db:"created_by" json:"createdBy"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

type ReviewStats struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

// RestaurantDetail is a restaurant with its categories and aggregate rating.
type RestaurantDetail struct {
	Restaurant
	Categories    []*Category         `json:"categories"`
	ReviewStats   ReviewStats         `json:"reviewStats"`
	RecentReviews []*ReviewWithAuthor `json:"-"`
}

// RestaurantInput is the create/update payload. On update nil fields are left untouched.
type RestaurantInput struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	CuisineType *string   `json:"cuisineType"`
	Address     *string   `json:"address"`
	Latitude    *float64  `json:"latitude"`
	Longitude   *float64  `json:"longitude"`
	Phone       *string   `json:"phone"`
	Website     *string   `json:"website"`
	PriceRange  *int      `json:"priceRange"`
	CategoryIDs *[]string `json:"categoryIds"`
}

func (in RestaurantInput) Empty() bool {
	return in.Name == nil && in.Description == nil && in.CuisineType == nil && in.Address == nil &&
		in.Latitude == nil && in.Longitude == nil && in.Phone == nil && in.Website == nil &&
		in.PriceRange == nil && in.CategoryIDs == nil
}

type RestaurantFilter struct {
	CategorySlug string
	CreatedBy    string
	Limit        int
	Offset       int
}
