package service

import (
	"context"
	"errors"
	"time"

	"ecommerce-service/internal/apperr"
	"ecommerce-service/internal/models"
	"ecommerce-service/internal/store"
	"ecommerce-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	idempotencyLockTTL = 30 * time.Second
	lockReleaseTimeout = 2 * time.Second
)

// OrderService handles order business logic
type OrderService struct {
	orders   OrderStore
	products ProductStore
	idem     IdempotencyStore
	events   EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderStore,
	products ProductStore,
	idem IdempotencyStore,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		idem:     idem,
		events:   events,
		logger:   util.GetLogger(),
		now:      time.Now,
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	ShippingInfo   models.ShippingInfo `json:"shippingInfo"`
	OrderItems     []models.OrderItem  `json:"orderItems"`
	PaymentInfo    models.PaymentInfo  `json:"paymentInfo"`
	ItemsPrice     decimal.Decimal     `json:"itemsPrice"`
	TaxPrice       decimal.Decimal     `json:"taxPrice"`
	ShippingPrice  decimal.Decimal     `json:"shippingPrice"`
	TotalPrice     decimal.Decimal     `json:"totalPrice"`
	IdempotencyKey string              `json:"-"`
}

// OrderSummary is the admin view of all orders
type OrderSummary struct {
	Orders      []models.Order  `json:"orders"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// calculateItemsPrice sums price times quantity over the order lines
func calculateItemsPrice(items []models.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// CreateOrder stores a paid order for userID. With an idempotency key, a
// repeated request returns the order created by the first one.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.IdempotencyKey != "" {
		scoped := userID.String() + ":" + req.IdempotencyKey
		if existing, err := s.replay(ctx, scoped); err != nil || existing != nil {
			return existing, err
		}

		locked, err := s.idem.AcquireLock(ctx, "order:"+scoped, idempotencyLockTTL)
		if err != nil {
			return nil, apperr.Internal(err, "Internal Server Error")
		}
		if !locked {
			return nil, apperr.Validation("A request with this Idempotency-Key is already in progress")
		}
		defer s.releaseLock("order:" + scoped)

		// the first request may have finished while we waited for the lock
		if existing, err := s.replay(ctx, scoped); err != nil || existing != nil {
			return existing, err
		}
		order, err := s.createOrder(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		if err := s.idem.SetOrderForKey(ctx, scoped, order.ID); err != nil {
			s.logger.Warn("Failed to record idempotency key",
				zap.String("order_id", order.ID.String()), zap.Error(err))
		}
		return order, nil
	}

	return s.createOrder(ctx, userID, req)
}

// releaseLock frees an idempotency lock even when the request context is done
func (s *OrderService) releaseLock(lockKey string) {
	ctx, cancel := context.WithTimeout(context.Background(), lockReleaseTimeout)
	defer cancel()

	if err := s.idem.ReleaseLock(ctx, lockKey); err != nil {
		s.logger.Warn("Failed to release idempotency lock", zap.String("lock", lockKey), zap.Error(err))
	}
}

// replay returns the order already created under key, or nil
func (s *OrderService) replay(ctx context.Context, key string) (*models.Order, error) {
	orderID, ok, err := s.idem.GetOrderForKey(ctx, key)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	if !ok {
		return nil, nil
	}

	order, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, "Order not found with this Id")
	}

	util.OrdersReplayedTotal.Inc()
	s.logger.Info("Duplicate order request detected",
		zap.String("idempotency_key", key),
		zap.String("order_id", orderID.String()))
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	order := &models.Order{
		ShippingInfo:  req.ShippingInfo,
		OrderItems:    req.OrderItems,
		User:          models.UserRef{ID: userID},
		PaymentInfo:   req.PaymentInfo,
		PaidAt:        s.now(),
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
		OrderStatus:   models.OrderStatusProcessing,
	}
	if order.ItemsPrice.IsZero() {
		order.ItemsPrice = calculateItemsPrice(order.OrderItems)
	}
	if order.TotalPrice.IsZero() {
		order.TotalPrice = order.ItemsPrice.Add(order.TaxPrice).Add(order.ShippingPrice)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()))

	event := &models.OrderPlacedEvent{
		BaseEvent:  models.NewBaseEvent(models.EventTypeOrderPlaced),
		OrderID:    order.ID,
		UserID:     userID,
		TotalPrice: order.TotalPrice,
		Items:      order.OrderItems,
	}
	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}

	return order, nil
}

// GetOrder retrieves an order; only its owner or an admin may read it
func (s *OrderService) GetOrder(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found with this Id")
	}
	if order.User.ID != actor.ID && actor.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("You are not allowed to access this order")
	}
	return order, nil
}

// MyOrders retrieves the orders of one user
func (s *OrderService) MyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.MyOrders")
	defer span.End()

	orders, err := s.orders.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}
	return orders, nil
}

// AllOrders retrieves every order with the sum of their totals
func (s *OrderService) AllOrders(ctx context.Context) (*OrderSummary, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AllOrders")
	defer span.End()

	orders, err := s.orders.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "Internal Server Error")
	}

	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalPrice)
	}
	return &OrderSummary{Orders: orders, TotalAmount: total}, nil
}

// UpdateStatus moves an order forward. Delivered orders are final; leaving
// Processing decrements stock for every line.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	next, err := models.ParseOrderStatus(status)
	if err != nil {
		return nil, apperr.Validation("Invalid order status: %s", status)
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "Order not found with this Id")
	}

	current := order.OrderStatus
	if current == models.OrderStatusDelivered {
		return nil, apperr.Validation("You have already delivered this order")
	}
	if !current.Precedes(next) {
		return nil, apperr.Validation("Order status cannot move from %s to %s", current, next)
	}

	var deliveredAt *time.Time
	if next == models.OrderStatusDelivered {
		now := s.now()
		deliveredAt = &now
	}

	if err := s.orders.UpdateOrderStatus(ctx, id, current, next, deliveredAt); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.Validation("Order status was changed by another request")
		}
		return nil, notFoundOr(err, "Order not found with this Id")
	}
	order.OrderStatus = next
	if deliveredAt != nil {
		order.DeliveredAt = deliveredAt
	}

	if current == models.OrderStatusProcessing {
		s.decrementStock(ctx, order)
	}

	util.OrderStatusTransitionsTotal.WithLabelValues(string(current), string(next)).Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", id.String()),
		zap.String("from", string(current)),
		zap.String("to", string(next)))

	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypeOrderStatusChanged),
		OrderID:   order.ID,
		UserID:    order.User.ID,
		From:      current,
		To:        next,
	}
	if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event",
			zap.String("order_id", id.String()), zap.Error(err))
	}

	return order, nil
}

// decrementStock subtracts each line's quantity from its product. Failures are
// logged and counted but never returned.
func (s *OrderService) decrementStock(ctx context.Context, order *models.Order) {
	for _, item := range order.OrderItems {
		if err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			util.StockDecrementFailedTotal.Inc()
			s.logger.Warn("Failed to decrement stock",
				zap.String("order_id", order.ID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

// DeleteOrder removes an order
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer span.End()

	if err := s.orders.DeleteOrder(ctx, id); err != nil {
		return notFoundOr(err, "Order not found with this Id")
	}
	s.logger.Info("Order deleted", zap.String("order_id", id.String()))
	return nil
}
