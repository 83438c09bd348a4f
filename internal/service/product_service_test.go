package service

import (
	"context"
	"fmt"
	"math"
	"testing"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService() (*ProductService, *testutil.MemStore, *testutil.Images) {
	st := testutil.NewMemStore()
	images := testutil.NewImages()
	return NewProductService(st, images), st, images
}

func productRequest(name, category string, price int64) *ProductRequest {
	desc := "Description of " + name
	p := decimal.NewFromInt(price)
	return &ProductRequest{Name: &name, Description: &desc, Price: &p, Category: &category}
}

func TestCreateProduct(t *testing.T) {
	svc, _, images := newProductService()
	req := productRequest("Phone", "Electronics", 999)
	req.Images = []string{"data:image/png;base64,aGVsbG8="}

	creator := uuid.New()
	p, err := svc.CreateProduct(context.Background(), creator, req)
	require.NoError(t, err)
	assert.Equal(t, creator, p.UserID)
	assert.Equal(t, 1, p.Stock)
	require.Len(t, p.Images, 1)
	assert.Contains(t, p.Images[0].PublicID, "products/")
	assert.Len(t, images.Stored, 1)
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, uuid.New(), productRequest("Phone", "Electronics", 0))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.CreateProduct(ctx, uuid.New(), productRequest("Phone", "Electronics", 100000000))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	req := productRequest("Phone", "Electronics", 10)
	stock := 10000
	req.Stock = &stock
	_, err = svc.CreateProduct(ctx, uuid.New(), req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	req = productRequest("Phone", "Electronics", 10)
	req.Images = []string{"not-a-data-url"}
	_, err = svc.CreateProduct(ctx, uuid.New(), req)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListProducts_Pagination(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.CreateProduct(ctx, uuid.New(), productRequest(fmt.Sprintf("Phone %d", i), "Electronics", int64(100+i)))
		require.NoError(t, err)
	}
	_, err := svc.CreateProduct(ctx, uuid.New(), productRequest("Laptop", "Computers", 5000))
	require.NoError(t, err)

	page, err := svc.ListProducts(ctx, models.ProductFilter{Keyword: "phone"}, 1)
	require.NoError(t, err)
	assert.Len(t, page.Products, ResultPerPage)
	assert.Equal(t, 11, page.ProductsCount)
	assert.Equal(t, 10, page.FilteredProductsCount)
	assert.Equal(t, 8, page.ResultPerPage)

	page, err = svc.ListProducts(ctx, models.ProductFilter{Keyword: "phone"}, 2)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)

	lte := decimal.NewFromInt(101)
	page, err = svc.ListProducts(ctx, models.ProductFilter{PriceLTE: &lte}, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.FilteredProductsCount)
}

func TestUpdateProduct_ReplacesImages(t *testing.T) {
	svc, _, images := newProductService()
	ctx := context.Background()

	req := productRequest("Phone", "Electronics", 999)
	req.Images = []string{"data:image/png;base64,aGVsbG8="}
	p, err := svc.CreateProduct(ctx, uuid.New(), req)
	require.NoError(t, err)
	old := p.Images[0].PublicID

	price := decimal.NewFromInt(899)
	updated, err := svc.UpdateProduct(ctx, p.ID, &ProductRequest{
		Price:  &price,
		Images: []string{"data:image/png;base64,d29ybGQ="},
	})
	require.NoError(t, err)
	assert.Equal(t, "Phone", updated.Name)
	assert.True(t, price.Equal(updated.Price))
	assert.NotEqual(t, old, updated.Images[0].PublicID)
	assert.Contains(t, images.Deleted, old)
}

func TestListProducts_PageBeyondResults(t *testing.T) {
	svc, st, _ := newProductService()
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, uuid.New(), productRequest("Phone", "Electronics", 100))
	require.NoError(t, err)

	for _, pg := range []int{3, math.MaxInt/ResultPerPage + 2, math.MaxInt} {
		page, err := svc.ListProducts(ctx, models.ProductFilter{}, pg)
		require.NoError(t, err, "page %d", pg)
		assert.Empty(t, page.Products)
		assert.Equal(t, 1, page.FilteredProductsCount)
	}

	products, err := st.ListProducts(ctx, models.ProductFilter{Limit: ResultPerPage, Offset: -8})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestUpdateProduct_OversoldStock(t *testing.T) {
	svc, st, _ := newProductService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, uuid.New(), productRequest("Widget", "Tools", 50))
	require.NoError(t, err)
	require.NoError(t, st.DecrementStock(ctx, p.ID, 3))

	name := "Widget 2"
	updated, err := svc.UpdateProduct(ctx, p.ID, &ProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Widget 2", updated.Name)
	assert.Equal(t, -2, updated.Stock)

	negative := -1
	_, err = svc.UpdateProduct(ctx, p.ID, &ProductRequest{Stock: &negative})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	restock := 20
	updated, err = svc.UpdateProduct(ctx, p.ID, &ProductRequest{Stock: &restock})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Stock)
}

func TestDeleteProduct(t *testing.T) {
	svc, _, images := newProductService()
	ctx := context.Background()

	req := productRequest("Phone", "Electronics", 999)
	req.Images = []string{"data:image/png;base64,aGVsbG8="}
	p, err := svc.CreateProduct(ctx, uuid.New(), req)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Empty(t, images.Stored)

	_, err = svc.GetProduct(ctx, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "Product not found")
}

func TestReviews(t *testing.T) {
	svc, _, _ := newProductService()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, uuid.New(), productRequest("Phone", "Electronics", 999))
	require.NoError(t, err)

	alice := &models.User{ID: uuid.New(), Name: "Alice", Role: models.RoleUser}
	bob := &models.User{ID: uuid.New(), Name: "Bob", Role: models.RoleUser}
	admin := &models.User{ID: uuid.New(), Name: "Admin", Role: models.RoleAdmin}

	require.NoError(t, svc.UpsertReview(ctx, alice, &ReviewRequest{ProductID: p.ID, Rating: 4, Comment: "good"}))
	require.NoError(t, svc.UpsertReview(ctx, bob, &ReviewRequest{ProductID: p.ID, Rating: 2, Comment: "meh"}))
	require.NoError(t, svc.UpsertReview(ctx, alice, &ReviewRequest{ProductID: p.ID, Rating: 5, Comment: "great"}))

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.NumOfReviews)
	assert.InDelta(t, 3.5, got.Ratings, 0.0001)

	err = svc.UpsertReview(ctx, alice, &ReviewRequest{ProductID: p.ID, Rating: 6, Comment: "wow"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	reviews, err := svc.ListReviews(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	var aliceReview models.Review
	for _, r := range reviews {
		if r.UserID == alice.ID {
			aliceReview = r
		}
	}

	err = svc.DeleteReview(ctx, bob, p.ID, aliceReview.ID)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	require.NoError(t, svc.DeleteReview(ctx, admin, p.ID, aliceReview.ID))
	got, err = svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumOfReviews)
	assert.InDelta(t, 2.0, got.Ratings, 0.0001)

	err = svc.DeleteReview(ctx, admin, p.ID, aliceReview.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
