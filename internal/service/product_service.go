package service

import (
	"context"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// ResultPerPage is the page size of the public catalog listing
	ResultPerPage = 8

	productFolder = "products"
	defaultStock  = 1
)

// ProductService handles catalog and review business logic
type ProductService struct {
	products ProductStore
	images   ImageStore
	logger   *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(products ProductStore, images ImageStore) *ProductService {
	return &ProductService{
		products: products,
		images:   images,
		logger:   util.GetLogger(),
	}
}

// ProductRequest carries the fields of a create or update. Nil fields are
// left unchanged on update; Images, when present, replace the stored set.
type ProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
	Images      []string         `json:"images"`
}

func (r *ProductRequest) apply(p *models.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.Category != nil {
		p.Category = *r.Category
	}
	if r.Stock != nil {
		p.Stock = *r.Stock
	}
}

// ReviewRequest represents a user's review of a product
type ReviewRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment"`
}

// ProductPage is one page of the filtered catalog
type ProductPage struct {
	Products              []models.Product `json:"products"`
	ProductsCount         int              `json:"productsCount"`
	ResultPerPage         int              `json:"resultPerPage"`
	FilteredProductsCount int              `json:"filteredProductsCount"`
}

// ListProducts returns the requested page of products matching the filter
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter, page int) (*ProductPage, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListProducts")
	defer span.End()

	total, err := s.products.CountProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	filtered, err := s.products.CountProducts(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	if page < 1 {
		page = 1
	}
	if page-1 > filtered/ResultPerPage {
		return &ProductPage{
			Products:              []models.Product{},
			ProductsCount:         total,
			ResultPerPage:         ResultPerPage,
			FilteredProductsCount: filtered,
		}, nil
	}
	filter.Limit = ResultPerPage
	filter.Offset = (page - 1) * ResultPerPage

	products, err := s.products.ListProducts(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	return &ProductPage{
		Products:              products,
		ProductsCount:         total,
		ResultPerPage:         ResultPerPage,
		FilteredProductsCount: filtered,
	}, nil
}

// ListAllProducts returns the whole catalog for admins
func (s *ProductService) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.ListAllProducts")
	defer span.End()

	products, err := s.products.ListProducts(ctx, models.ProductFilter{})
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	return products, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.GetProduct")
	defer span.End()

	product, err := s.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Product not found")
	}
	return product, nil
}

func (s *ProductService) uploadImages(ctx context.Context, dataURLs []string) ([]models.Image, error) {
	images := make([]models.Image, 0, len(dataURLs))
	for _, d := range dataURLs {
		img, err := s.images.UploadDataURL(ctx, productFolder, d)
		if err != nil {
			s.removeImages(ctx, images)
			return nil, imageErr(err)
		}
		images = append(images, img)
	}
	return images, nil
}

func (s *ProductService) removeImages(ctx context.Context, images []models.Image) {
	for _, img := range images {
		if err := s.images.Delete(ctx, img.PublicID); err != nil {
			s.logger.Warn("Failed to delete image", zap.String("public_id", img.PublicID), zap.Error(err))
		}
	}
}

// CreateProduct adds a product to the catalog on behalf of creatorID
func (s *ProductService) CreateProduct(ctx context.Context, creatorID uuid.UUID, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.CreateProduct")
	defer span.End()

	product := &models.Product{
		Stock:   defaultStock,
		Images:  []models.Image{},
		Reviews: []models.Review{},
		UserID:  creatorID,
	}
	req.apply(product)
	if err := product.Validate(); err != nil {
		return nil, err
	}

	images, err := s.uploadImages(ctx, req.Images)
	if err != nil {
		return nil, err
	}
	product.Images = images

	if err := s.products.CreateProduct(ctx, product); err != nil {
		s.removeImages(ctx, images)
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID.String()))
	return product, nil
}

// UpdateProduct applies the supplied fields to an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *ProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.UpdateProduct")
	defer span.End()

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	req.apply(product)
	if err := product.ValidateDetails(); err != nil {
		return nil, err
	}
	if req.Stock != nil {
		if err := models.ValidateStock(*req.Stock); err != nil {
			return nil, err
		}
	}

	oldImages := product.Images
	if len(req.Images) > 0 {
		if product.Images, err = s.uploadImages(ctx, req.Images); err != nil {
			return nil, err
		}
	}

	if err := s.products.UpdateProduct(ctx, product); err != nil {
		if len(req.Images) > 0 {
			s.removeImages(ctx, product.Images)
		}
		return nil, notFoundOr(err, "Product not found")
	}

	if len(req.Images) > 0 {
		s.removeImages(ctx, oldImages)
	}
	return product, nil
}

// DeleteProduct removes a product, its reviews and its images
func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteProduct")
	defer span.End()

	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return notFoundOr(err, "Product not found")
	}
	s.removeImages(ctx, product.Images)

	s.logger.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

// UpsertReview creates or replaces the user's review of a product
func (s *ProductService) UpsertReview(ctx context.Context, user *models.User, req *ReviewRequest) error {
	ctx, span := util.StartSpan(ctx, "ProductService.UpsertReview")
	defer span.End()

	review := &models.Review{
		UserID:  user.ID,
		Name:    user.Name,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := review.Validate(); err != nil {
		return err
	}

	if err := s.products.UpsertReview(ctx, req.ProductID, review); err != nil {
		return notFoundOr(err, "Product not found")
	}
	return nil
}

// ListReviews retrieves the reviews of a product
func (s *ProductService) ListReviews(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	return product.Reviews, nil
}

// DeleteReview removes a review; only its author or an admin may do so
func (s *ProductService) DeleteReview(ctx context.Context, actor *models.User, productID, reviewID uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "ProductService.DeleteReview")
	defer span.End()

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	var review *models.Review
	for i := range product.Reviews {
		if product.Reviews[i].ID == reviewID {
			review = &product.Reviews[i]
			break
		}
	}
	if review == nil {
		return apperr.NotFound("Review not found")
	}
	if review.UserID != actor.ID && actor.Role != models.RoleAdmin {
		return apperr.Forbidden("You are not allowed to delete this review")
	}

	if err := s.products.DeleteReview(ctx, productID, reviewID); err != nil {
		return notFoundOr(err, "Review not found")
	}
	return nil
}
