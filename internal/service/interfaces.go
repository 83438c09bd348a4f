package service

import (
	"context"
	"errors"
	"time"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/store"

	"github.com/google/uuid"
)

// UserStore persists identities
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// ProductStore persists the catalog and its reviews
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	CountProducts(ctx context.Context, f models.ProductFilter) (int, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	DecrementStock(ctx context.Context, productID uuid.UUID, quantity int) error
	UpsertReview(ctx context.Context, productID uuid.UUID, review *models.Review) error
	DeleteReview(ctx context.Context, productID, reviewID uuid.UUID) error
}

// OrderStore persists orders
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, deliveredAt *time.Time) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
}

// EventPublisher delivers domain events to the broker
type EventPublisher interface {
	PublishPasswordResetRequested(ctx context.Context, event *models.PasswordResetRequestedEvent) error
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

// IdempotencyStore maps client idempotency keys to created orders
type IdempotencyStore interface {
	GetOrderForKey(ctx context.Context, key string) (uuid.UUID, bool, error)
	SetOrderForKey(ctx context.Context, key string, orderID uuid.UUID) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// ImageStore keeps avatar and product images
type ImageStore interface {
	UploadDataURL(ctx context.Context, folder, dataURL string) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// PaymentGateway creates payment intents with the processor
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64) (string, error)
	PublishableKey() string
}

// notFoundOr maps store.ErrNotFound to a NotFound error with msg and wraps anything else
func notFoundOr(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("%s", msg)
	}
	return apperr.Internal(err, "Internal Server Error")
}
