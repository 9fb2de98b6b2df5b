package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resto-rate/api/internal/apperr"
	"github.com/resto-rate/api/internal/db/dbtest"
	"github.com/resto-rate/api/internal/model"
	"github.com/resto-rate/api/internal/repository"
)

// memStorage is an in-memory object store.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Save(_ context.Context, key string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) URL(_ context.Context, key string) string {
	return "https://cdn.example.com/" + key
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type domainFixture struct {
	db          *sqlx.DB
	clock       *clock
	store       *memStorage
	restaurants *RestaurantService
	reviews     *ReviewService
	alice       *model.User
	bob         *model.User
}

func newDomainFixture(t *testing.T) *domainFixture {
	t.Helper()
	database := dbtest.New(t)
	c := newClock()
	store := newMemStorage()

	reviews := NewReviewService(database, store)
	reviews.now = c.Now
	restaurants := NewRestaurantService(database, reviews)
	restaurants.now = c.Now

	return &domainFixture{
		db:          database,
		clock:       c,
		store:       store,
		restaurants: restaurants,
		reviews:     reviews,
		alice:       createUser(t, database, "u-alice", "alice"),
		bob:         createUser(t, database, "u-bob", "bob"),
	}
}

func (f *domainFixture) category(t *testing.T, id, name string) *model.Category {
	t.Helper()
	now := f.clock.Now()
	category := &model.Category{ID: id, Name: name, Slug: Slugify(name), CreatedAt: now, UpdatedAt: now}
	require.NoError(t, repository.NewCategoryRepository(f.db).Create(context.Background(), category))
	return category
}

func (f *domainFixture) restaurant(t *testing.T, owner *model.User, name string, categoryIDs ...string) *model.RestaurantDetail {
	t.Helper()
	in := model.RestaurantInput{Name: strPtr(name)}
	if len(categoryIDs) > 0 {
		in.CategoryIDs = &categoryIDs
	}
	detail, err := f.restaurants.Create(context.Background(), owner, in)
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return detail
}

func TestRestaurantCreateWithCategories(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	f.category(t, "c-thai", "Thai")
	f.category(t, "c-vegan", "Vegan")

	price := 2
	detail, err := f.restaurants.Create(ctx, f.alice, model.RestaurantInput{
		Name:        strPtr("  Green Curry House "),
		CuisineType: strPtr("Thai"),
		PriceRange:  &price,
		CategoryIDs: &[]string{"c-vegan", "c-thai", "c-thai"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Green Curry House", detail.Name)
	assert.Equal(t, "u-alice", detail.CreatedBy)
	assert.True(t, detail.IsActive)
	require.Len(t, detail.Categories, 2)
	assert.Equal(t, "Thai", detail.Categories[0].Name)
	assert.Equal(t, "Vegan", detail.Categories[1].Name)
}

func TestRestaurantCreateRollsBackOnUnknownCategory(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	f.category(t, "c-thai", "Thai")

	_, err := f.restaurants.Create(ctx, f.alice, model.RestaurantInput{
		Name:        strPtr("Ghost Kitchen"),
		CategoryIDs: &[]string{"c-thai", "c-missing"},
	})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	var count int
	require.NoError(t, f.db.Get(&count, `SELECT COUNT(*) FROM restaurants`))
	assert.Zero(t, count)
}

func TestRestaurantCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)

	_, err := f.restaurants.Create(ctx, f.alice, model.RestaurantInput{})
	assert.ErrorIs(t, err, ErrRestaurantNameEmpty)

	price := 5
	_, err = f.restaurants.Create(ctx, f.alice, model.RestaurantInput{Name: strPtr("Pricey"), PriceRange: &price})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	lat := 91.0
	_, err = f.restaurants.Create(ctx, f.alice, model.RestaurantInput{Name: strPtr("North"), Latitude: &lat})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.restaurants.Create(ctx, f.alice, model.RestaurantInput{Name: strPtr("Site"), Website: strPtr("ftp://x")})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRestaurantOwnership(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	r := f.restaurant(t, f.alice, "Alice's Bistro")

	_, err := f.restaurants.Update(ctx, f.bob, r.ID, model.RestaurantInput{Name: strPtr("Bob's Bistro")})
	assert.ErrorIs(t, err, ErrNotOwnerUpdate)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	err = f.restaurants.Delete(ctx, f.bob, r.ID)
	assert.ErrorIs(t, err, ErrNotOwnerDelete)

	_, err = f.restaurants.SetCategories(ctx, f.bob, r.ID, nil)
	assert.ErrorIs(t, err, ErrNotOwnerUpdate)

	updated, err := f.restaurants.Update(ctx, f.alice, r.ID, model.RestaurantInput{Name: strPtr("Alice's Brasserie")})
	require.NoError(t, err)
	assert.Equal(t, "Alice's Brasserie", updated.Name)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	_, err = f.restaurants.Update(ctx, f.alice, r.ID, model.RestaurantInput{})
	assert.ErrorIs(t, err, ErrNoUpdateData)

	require.NoError(t, f.restaurants.Delete(ctx, f.alice, r.ID))
}

func TestRestaurantSoftDelete(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	r := f.restaurant(t, f.alice, "Closing Soon")

	_, err := f.reviews.Create(ctx, f.bob, r.ID, model.ReviewInput{Rating: intPtr(4)})
	require.NoError(t, err)

	require.NoError(t, f.restaurants.Delete(ctx, f.alice, r.ID))

	_, err = f.restaurants.Detail(ctx, r.ID, "")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	err = f.restaurants.Delete(ctx, f.alice, r.ID)
	assert.ErrorIs(t, err, ErrRestaurantNotFound)

	list, err := f.restaurants.List(ctx, model.RestaurantFilter{Limit: 20})
	require.NoError(t, err)
	assert.Empty(t, list)

	var reviews int
	require.NoError(t, f.db.Get(&reviews, `SELECT COUNT(*) FROM reviews WHERE restaurant_id = $1`, r.ID))
	assert.Equal(t, 1, reviews, "reviews survive a soft delete")
}

func TestRestaurantDetail(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	f.category(t, "c-thai", "Thai")
	r := f.restaurant(t, f.alice, "Detail Diner", "c-thai")

	review, err := f.reviews.Create(ctx, f.bob, r.ID, model.ReviewInput{
		Rating: intPtr(5),
		Title:  strPtr("Great"),
		Photos: []model.PhotoRef{{URL: "https://img.example.com/1.jpg"}},
	})
	require.NoError(t, err)
	_, err = f.reviews.Vote(ctx, f.alice, review.ID, true)
	require.NoError(t, err)

	detail, err := f.restaurants.Detail(ctx, r.ID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, detail.ReviewStats.AverageRating)
	assert.Equal(t, 1, detail.ReviewStats.TotalReviews)
	require.Len(t, detail.Categories, 1)
	require.Len(t, detail.RecentReviews, 1)

	recent := detail.RecentReviews[0]
	assert.Equal(t, "bob", *recent.User.Username)
	assert.Equal(t, 1, recent.HelpfulCount)
	require.NotNil(t, recent.MyVote)
	assert.True(t, *recent.MyVote)
	require.Len(t, recent.Photos, 1)
	assert.Equal(t, "https://img.example.com/1.jpg", recent.Photos[0].URL)

	anonymous, err := f.restaurants.Detail(ctx, r.ID, "")
	require.NoError(t, err)
	assert.Nil(t, anonymous.RecentReviews[0].MyVote)

	_, err = f.restaurants.Detail(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrRestaurantNotFound)
}

func TestRestaurantListFilters(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	f.category(t, "c-thai", "Thai")
	first := f.restaurant(t, f.alice, "First", "c-thai")
	second := f.restaurant(t, f.bob, "Second")
	third := f.restaurant(t, f.alice, "Third")

	all, err := f.restaurants.List(ctx, model.RestaurantFilter{Limit: 20})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	thai, err := f.restaurants.List(ctx, model.RestaurantFilter{CategorySlug: "thai", Limit: 20})
	require.NoError(t, err)
	require.Len(t, thai, 1)
	assert.Equal(t, first.ID, thai[0].ID)

	byAlice, err := f.restaurants.List(ctx, model.RestaurantFilter{CreatedBy: f.alice.ID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, byAlice, 1)
	assert.Equal(t, first.ID, byAlice[0].ID)
}

func TestRestaurantSetCategories(t *testing.T) {
	ctx := context.Background()
	f := newDomainFixture(t)
	f.category(t, "c-thai", "Thai")
	f.category(t, "c-vegan", "Vegan")
	r := f.restaurant(t, f.alice, "Switcher", "c-thai")

	categories, err := f.restaurants.SetCategories(ctx, f.alice, r.ID, []string{"c-vegan"})
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "c-vegan", categories[0].ID)

	_, err = f.restaurants.SetCategories(ctx, f.alice, r.ID, []string{"c-nope"})
	assert.ErrorIs(t, err, ErrUnknownCategory)

	current, err := f.restaurants.Categories(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "c-vegan", current[0].ID, "failed replace leaves the previous links")

	cleared, err := f.restaurants.SetCategories(ctx, f.alice, r.ID, []string{})
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func intPtr(i int) *int { return &i }
