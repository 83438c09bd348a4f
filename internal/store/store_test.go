package store

import (
	"context"
	"os"
	"testing"
	"time"

	"ecommerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL; integration tests skip without it
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database (set TEST_DATABASE_URL)")
	}

	store, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestUser(t *testing.T, store *Store) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "Alice",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Avatar:       models.DefaultAvatar,
		Role:         models.RoleUser,
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func TestProductWhere(t *testing.T) {
	where, args := productWhere(models.ProductFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)

	gte := decimal.NewFromInt(100)
	lte := decimal.NewFromInt(500)
	rating := 4.0
	where, args = productWhere(models.ProductFilter{
		Keyword:    "phone",
		Category:   "Electronics",
		PriceGTE:   &gte,
		PriceLTE:   &lte,
		RatingsGTE: &rating,
	})
	assert.Equal(t,
		` WHERE name ILIKE $1 ESCAPE '\' AND category = $2 AND price >= $3 AND price <= $4 AND ratings >= $5`, where)
	assert.Equal(t, []interface{}{"%phone%", "Electronics", gte, lte, rating}, args)
}

func TestProductWhere_EscapesWildcards(t *testing.T) {
	_, args := productWhere(models.ProductFilter{Keyword: `50%_off\`})
	assert.Equal(t, []interface{}{`%50\%\_off\\%`}, args)
}

func TestJSONColumns(t *testing.T) {
	v, err := imageList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	var images imageList
	require.NoError(t, images.Scan([]byte(`[{"public_id":"products/a","url":"http://x/a"}]`)))
	assert.Equal(t, imageList{{PublicID: "products/a", URL: "http://x/a"}}, images)

	var items orderItemList
	require.NoError(t, items.Scan(nil))
	assert.Nil(t, items)
	assert.Error(t, items.Scan(42))
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, store)
	dup := &models.User{
		Name:         "Bob",
		Email:        user.Email,
		PasswordHash: "hash",
		Avatar:       models.DefaultAvatar,
		Role:         models.RoleUser,
	}
	err := store.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestGetUserByResetToken(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, store)
	digest := "digest-" + uuid.NewString()
	expire := time.Now().Add(15 * time.Minute)
	user.ResetPasswordToken = &digest
	user.ResetPasswordExpire = &expire
	require.NoError(t, store.UpdateUser(ctx, user))

	found, err := store.GetUserByResetToken(ctx, digest, time.Now())
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = store.GetUserByResetToken(ctx, digest, expire.Add(time.Second))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewAggregates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	owner := newTestUser(t, store)
	product := &models.Product{
		Name:        "Phone",
		Description: "A phone",
		Price:       decimal.NewFromInt(999),
		Category:    "Electronics",
		Stock:       5,
		UserID:      owner.ID,
	}
	require.NoError(t, store.CreateProduct(ctx, product))
	defer store.DeleteProduct(ctx, product.ID)

	a := newTestUser(t, store)
	b := newTestUser(t, store)
	require.NoError(t, store.UpsertReview(ctx, product.ID, &models.Review{UserID: a.ID, Name: a.Name, Rating: 4, Comment: "good"}))
	require.NoError(t, store.UpsertReview(ctx, product.ID, &models.Review{UserID: b.ID, Name: b.Name, Rating: 2, Comment: "meh"}))
	// second review by the same user replaces the first
	require.NoError(t, store.UpsertReview(ctx, product.ID, &models.Review{UserID: a.ID, Name: a.Name, Rating: 5, Comment: "great"}))

	got, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumOfReviews)
	assert.InDelta(t, 3.5, got.Ratings, 0.0001)
	require.Len(t, got.Reviews, 2)

	require.NoError(t, store.DeleteReview(ctx, product.ID, got.Reviews[0].ID))
	got, err = store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumOfReviews)
}

func TestOrderLifecycle(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	user := newTestUser(t, store)
	order := &models.Order{
		ShippingInfo: models.ShippingInfo{Address: "1 Main St", City: "Pune", State: "MH", Country: "IN", PinCode: 411001, PhoneNo: 9999999999},
		OrderItems: []models.OrderItem{
			{Name: "Phone", Price: decimal.NewFromInt(999), Quantity: 2, Image: "http://x/a", ProductID: uuid.New()},
		},
		User:        models.UserRef{ID: user.ID},
		PaymentInfo: models.PaymentInfo{ID: "pi_123", Status: "succeeded"},
		PaidAt:      time.Now(),
		TotalPrice:  decimal.NewFromInt(1998),
		OrderStatus: models.OrderStatusProcessing,
	}
	require.NoError(t, store.CreateOrder(ctx, order))
	defer store.DeleteOrder(ctx, order.ID)

	got, err := store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.User.Email)
	assert.Len(t, got.OrderItems, 1)
	assert.Nil(t, got.DeliveredAt)

	now := time.Now()
	require.NoError(t, store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing, models.OrderStatusDelivered, &now))
	got, err = store.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, got.OrderStatus)
	assert.NotNil(t, got.DeliveredAt)

	mine, err := store.GetOrdersByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	err = store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusProcessing, models.OrderStatusShipped, nil)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, store.UpdateOrderStatus(ctx, uuid.New(), models.OrderStatusProcessing, models.OrderStatusShipped, nil), ErrNotFound)
}
