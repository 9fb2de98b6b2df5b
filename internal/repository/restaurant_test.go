package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/db/dbtest"
	"github.com/resto-rate/api/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, repos *Repositories, id, username string) *model.User {
	t.Helper()
	hash := "hash"
	user := &model.User{ID: id, Username: &username, PasswordHash: &hash, CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, repos.Users.Create(context.Background(), user))
	return user
}

func seedRestaurant(t *testing.T, repos *Repositories, id, owner string, createdAt time.Time) *model.Restaurant {
	t.Helper()
	restaurant := &model.Restaurant{
		ID: id, Name: "Restaurant " + id, IsActive: true, CreatedBy: owner,
		CreatedAt: createdAt, UpdatedAt: createdAt,
	}
	require.NoError(t, repos.Restaurants.Create(context.Background(), restaurant))
	return restaurant
}

func TestRestaurantListFilters(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))

	seedUser(t, repos, "u1", "alice")
	seedUser(t, repos, "u2", "bob")
	seedRestaurant(t, repos, "r1", "u1", t0)
	seedRestaurant(t, repos, "r2", "u2", t0.Add(time.Hour))
	seedRestaurant(t, repos, "r3", "u1", t0.Add(2*time.Hour))
	require.NoError(t, repos.Restaurants.Deactivate(ctx, "r3", t0))

	pizza := &model.Category{ID: "c1", Name: "Pizza", Slug: "pizza", CreatedAt: t0, UpdatedAt: t0}
	require.NoError(t, repos.Categories.Create(ctx, pizza))
	require.NoError(t, repos.Categories.ReplaceLinks(ctx, "r1", []string{"c1"}, t0))

	all, err := repos.Restaurants.List(ctx, model.RestaurantFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].ID, "newest first, inactive excluded")
	assert.Equal(t, "r1", all[1].ID)

	mine, err := repos.Restaurants.List(ctx, model.RestaurantFilter{CreatedBy: "u1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "r1", mine[0].ID)

	byCategory, err := repos.Restaurants.List(ctx, model.RestaurantFilter{CategorySlug: "pizza", Limit: 10})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "r1", byCategory[0].ID)

	paged, err := repos.Restaurants.List(ctx, model.RestaurantFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "r1", paged[0].ID)
}

func TestRestaurantDeactivateTwice(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	seedUser(t, repos, "u1", "alice")
	seedRestaurant(t, repos, "r1", "u1", t0)

	require.NoError(t, repos.Restaurants.Deactivate(ctx, "r1", t0))
	assert.ErrorIs(t, repos.Restaurants.Deactivate(ctx, "r1", t0), ErrRestaurantNotFound)

	got, err := repos.Restaurants.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestReviewsRatingAndVotes(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	seedUser(t, repos, "u1", "alice")
	seedUser(t, repos, "u2", "bob")
	seedRestaurant(t, repos, "r1", "u1", t0)

	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v1", RestaurantID: "r1", UserID: "u1", Rating: 4, CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v2", RestaurantID: "r1", UserID: "u2", Rating: 5, CreatedAt: t0.Add(time.Minute), UpdatedAt: t0}))

	err := repos.Reviews.Create(ctx, &model.Review{ID: "v3", RestaurantID: "r1", UserID: "u2", Rating: 1, CreatedAt: t0, UpdatedAt: t0})
	assert.ErrorIs(t, err, ErrDuplicateReview)

	require.NoError(t, repos.Restaurants.RefreshRating(ctx, "r1", t0))
	restaurant, err := repos.Restaurants.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 4.5, restaurant.AverageRating, 0.0001)
	assert.Equal(t, 2, restaurant.TotalReviews)

	require.NoError(t, repos.Votes.Upsert(ctx, &model.HelpfulVote{ReviewID: "v1", UserID: "u2", IsHelpful: true, CreatedAt: t0}))
	require.NoError(t, repos.Reviews.RefreshHelpfulCount(ctx, "v1"))

	reviews, err := repos.Reviews.ListByRestaurant(ctx, "r1", "u2", 10, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "v2", reviews[0].ID)
	assert.Nil(t, reviews[0].MyVote)
	assert.Equal(t, "v1", reviews[1].ID)
	assert.Equal(t, "alice", *reviews[1].User.Username)
	assert.Equal(t, 1, reviews[1].HelpfulCount)
	require.NotNil(t, reviews[1].MyVote)
	assert.True(t, *reviews[1].MyVote)

	// Changing the vote replaces it.
	require.NoError(t, repos.Votes.Upsert(ctx, &model.HelpfulVote{ReviewID: "v1", UserID: "u2", IsHelpful: false, CreatedAt: t0}))
	require.NoError(t, repos.Reviews.RefreshHelpfulCount(ctx, "v1"))
	review, err := repos.Reviews.ByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, 0, review.HelpfulCount)

	require.NoError(t, repos.Reviews.Delete(ctx, "v2"))
	require.NoError(t, repos.Restaurants.RefreshRating(ctx, "r1", t0))
	restaurant, err = repos.Restaurants.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, restaurant.AverageRating, 0.0001)
	assert.Equal(t, 1, restaurant.TotalReviews)
}

func TestPhotosOrderAndCascade(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	seedUser(t, repos, "u1", "alice")
	seedRestaurant(t, repos, "r1", "u1", t0)
	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v1", RestaurantID: "r1", UserID: "u1", Rating: 3, CreatedAt: t0, UpdatedAt: t0}))

	for i, url := range []string{"https://img.example/a.jpg", "https://img.example/b.jpg"} {
		next, err := repos.Photos.NextOrderIndex(ctx, "v1")
		require.NoError(t, err)
		assert.Equal(t, i, next)
		require.NoError(t, repos.Photos.Create(ctx, &model.ReviewPhoto{ID: url, ReviewID: "v1", URL: url, OrderIndex: next, CreatedAt: t0}))
	}

	photos, err := repos.Photos.ListByReviews(ctx, []string{"v1"})
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, 1, photos[1].OrderIndex)

	require.NoError(t, repos.Reviews.Delete(ctx, "v1"))
	photos, err = repos.Photos.ListByReviews(ctx, []string{"v1"})
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestSessionsCascadeWithUser(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	seedUser(t, repos, "u1", "alice")

	require.NoError(t, repos.Sessions.Create(ctx, &model.Session{ID: "s1", UserID: "u1", ExpiresAt: t0.Add(time.Hour), CreatedAt: t0}))

	user, err := repos.Sessions.UserBySession(ctx, "s1", t0)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, err = repos.Sessions.UserBySession(ctx, "s1", t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrSessionNotFound, "a session expiring exactly now is expired")

	require.NoError(t, repos.Users.Delete(ctx, "u1"))
	_, err = repos.Sessions.UserBySession(ctx, "s1", t0)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestUserDeleteLeavesOwnedRestaurants(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	seedUser(t, repos, "u1", "alice")
	seedUser(t, repos, "u2", "bob")
	seedRestaurant(t, repos, "r1", "u1", t0)
	seedRestaurant(t, repos, "r2", "u2", t0)
	seedRestaurant(t, repos, "r3", "u2", t0)

	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v1", RestaurantID: "r2", UserID: "u1", Rating: 4, CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v2", RestaurantID: "r1", UserID: "u2", Rating: 3, CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, repos.Reviews.Create(ctx, &model.Review{ID: "v3", RestaurantID: "r3", UserID: "u2", Rating: 5, CreatedAt: t0, UpdatedAt: t0}))
	require.NoError(t, repos.Votes.Upsert(ctx, &model.HelpfulVote{ReviewID: "v1", UserID: "u2", IsHelpful: true, CreatedAt: t0}))
	require.NoError(t, repos.Votes.Upsert(ctx, &model.HelpfulVote{ReviewID: "v3", UserID: "u2", IsHelpful: true, CreatedAt: t0}))

	reviewed, err := repos.Reviews.RestaurantIDsByUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r3"}, reviewed)

	voted, err := repos.Votes.ReviewIDsByVoter(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, voted, "votes on the user's own reviews go away with them")

	require.NoError(t, repos.Restaurants.DeactivateByOwner(ctx, "u2", t0))
	require.NoError(t, repos.Users.Delete(ctx, "u2"))

	for _, id := range []string{"r2", "r3"} {
		restaurant, err := repos.Restaurants.ByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, restaurant.IsActive)
		assert.Empty(t, restaurant.CreatedBy)
	}
	review, err := repos.Reviews.ByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "r2", review.RestaurantID)
	_, err = repos.Reviews.ByID(ctx, "v2")
	assert.ErrorIs(t, err, ErrReviewNotFound)
}

func TestCategoryCountExisting(t *testing.T) {
	ctx := context.Background()
	repos := New(dbtest.New(t))
	require.NoError(t, repos.Categories.Create(ctx, &model.Category{ID: "c1", Name: "Sushi", Slug: "sushi", CreatedAt: t0, UpdatedAt: t0}))

	n, err := repos.Categories.CountExisting(ctx, []string{"c1", "nope"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = repos.Categories.Create(ctx, &model.Category{ID: "c2", Name: "Sushi", Slug: "sushi-2", CreatedAt: t0, UpdatedAt: t0})
	assert.ErrorIs(t, err, ErrDuplicateCategory)
}
