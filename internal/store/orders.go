package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"time"

	"ecommerce-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type orderItemList []models.OrderItem

func (l orderItemList) Value() (driver.Value, error) { return jsonValue([]models.OrderItem(l)) }
func (l *orderItemList) Scan(src interface{}) error  { return scanJSON(src, l) }

type orderRow struct {
	ID              uuid.UUID       `db:"id"`
	UserID          uuid.UUID       `db:"user_id"`
	UserName        sql.NullString  `db:"user_name"`
	UserEmail       sql.NullString  `db:"user_email"`
	ShippingAddress string          `db:"shipping_address"`
	ShippingCity    string          `db:"shipping_city"`
	ShippingState   string          `db:"shipping_state"`
	ShippingCountry string          `db:"shipping_country"`
	ShippingPinCode int64           `db:"shipping_pin_code"`
	ShippingPhoneNo int64           `db:"shipping_phone_no"`
	OrderItems      orderItemList   `db:"order_items"`
	PaymentID       string          `db:"payment_id"`
	PaymentStatus   string          `db:"payment_status"`
	PaidAt          time.Time       `db:"paid_at"`
	ItemsPrice      decimal.Decimal `db:"items_price"`
	TaxPrice        decimal.Decimal `db:"tax_price"`
	ShippingPrice   decimal.Decimal `db:"shipping_price"`
	TotalPrice      decimal.Decimal `db:"total_price"`
	OrderStatus     string          `db:"order_status"`
	DeliveredAt     *time.Time      `db:"delivered_at"`
	CreatedAt       time.Time       `db:"created_at"`
}

func (r orderRow) toModel() models.Order {
	items := []models.OrderItem(r.OrderItems)
	if items == nil {
		items = []models.OrderItem{}
	}
	return models.Order{
		ID: r.ID,
		ShippingInfo: models.ShippingInfo{
			Address: r.ShippingAddress,
			City:    r.ShippingCity,
			State:   r.ShippingState,
			Country: r.ShippingCountry,
			PinCode: r.ShippingPinCode,
			PhoneNo: r.ShippingPhoneNo,
		},
		OrderItems:    items,
		User:          models.UserRef{ID: r.UserID, Name: r.UserName.String, Email: r.UserEmail.String},
		PaymentInfo:   models.PaymentInfo{ID: r.PaymentID, Status: r.PaymentStatus},
		PaidAt:        r.PaidAt,
		ItemsPrice:    r.ItemsPrice,
		TaxPrice:      r.TaxPrice,
		ShippingPrice: r.ShippingPrice,
		TotalPrice:    r.TotalPrice,
		OrderStatus:   models.OrderStatus(r.OrderStatus),
		DeliveredAt:   r.DeliveredAt,
		CreatedAt:     r.CreatedAt,
	}
}

const orderColumns = `o.id, o.user_id, o.shipping_address, o.shipping_city, o.shipping_state,
	o.shipping_country, o.shipping_pin_code, o.shipping_phone_no, o.order_items, o.payment_id,
	o.payment_status, o.paid_at, o.items_price, o.tax_price, o.shipping_price, o.total_price,
	o.order_status, o.delivered_at, o.created_at`

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}

	query := `
		INSERT INTO orders (id, user_id, shipping_address, shipping_city, shipping_state,
			shipping_country, shipping_pin_code, shipping_phone_no, order_items, payment_id,
			payment_status, paid_at, items_price, tax_price, shipping_price, total_price, order_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at`

	si := order.ShippingInfo
	return s.db.GetContext(ctx, &order.CreatedAt, query,
		order.ID, order.User.ID, si.Address, si.City, si.State, si.Country, si.PinCode, si.PhoneNo,
		orderItemList(order.OrderItems), order.PaymentInfo.ID, order.PaymentInfo.Status, order.PaidAt,
		order.ItemsPrice, order.TaxPrice, order.ShippingPrice, order.TotalPrice, string(order.OrderStatus))
}

// GetOrderByID retrieves an order by ID with the purchasing user's name and email
func (s *Store) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var row orderRow
	err := s.db.GetContext(ctx, &row, `
		SELECT `+orderColumns+`, u.name AS user_name, u.email AS user_email
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	order := row.toModel()
	return &order, nil
}

func (s *Store) selectOrders(ctx context.Context, where string, args ...interface{}) ([]models.Order, error) {
	var rows []orderRow
	query := "SELECT " + orderColumns + " FROM orders o" + where + " ORDER BY o.created_at DESC"
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, r.toModel())
	}
	return orders, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.selectOrders(ctx, " WHERE o.user_id = $1", userID)
}

// ListOrders retrieves every order, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.selectOrders(ctx, "")
}

// UpdateOrderStatus moves an order from one status to another; deliveredAt is
// left untouched when nil. ErrConflict means the order no longer has status from.
func (s *Store) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, deliveredAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET order_status = $1, delivered_at = COALESCE($2::timestamptz, delivered_at)
		WHERE id = $3 AND order_status = $4`,
		string(to), deliveredAt, id, string(from))
	if err != nil {
		return err
	}
	if err := expectAffected(res); !errors.Is(err, ErrNotFound) {
		return err
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)", id); err != nil {
		return err
	}
	if exists {
		return ErrConflict
	}
	return ErrNotFound
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return err
	}
	return expectAffected(res)
}
