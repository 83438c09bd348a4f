// Package testutil provides in-memory stand-ins for the service dependencies.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"ecommerce-service/internal/models"
	"ecommerce-service/internal/store"

	"github.com/google/uuid"
)

// MemStore keeps users, products and orders in maps
type MemStore struct {
	mu           sync.Mutex
	users        map[uuid.UUID]models.User
	products     map[uuid.UUID]models.Product
	productOrder []uuid.UUID
	orders       map[uuid.UUID]models.Order
	orderOrder   []uuid.UUID
}

func NewMemStore() *MemStore {
	return &MemStore{
		users:    make(map[uuid.UUID]models.User),
		products: make(map[uuid.UUID]models.Product),
		orders:   make(map[uuid.UUID]models.Order),
	}
}

func (m *MemStore) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *MemStore) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(user.Email, uuid.Nil) {
		return fmt.Errorf("%w: users_email_key", store.ErrDuplicate)
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == tokenHash &&
			u.ResetPasswordExpire != nil && u.ResetPasswordExpire.After(now) {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *MemStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	return users, nil
}

func (m *MemStore) UpdateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return store.ErrNotFound
	}
	if m.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("%w: users_email_key", store.ErrDuplicate)
	}
	m.users[user.ID] = *user
	return nil
}

func (m *MemStore) DeleteUser(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func copyProduct(p models.Product) models.Product {
	p.Images = append([]models.Image{}, p.Images...)
	p.Reviews = append([]models.Review{}, p.Reviews...)
	return p
}

func (m *MemStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	m.products[p.ID] = copyProduct(*p)
	m.productOrder = append(m.productOrder, p.ID)
	return nil
}

func (m *MemStore) GetProductByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = copyProduct(p)
	return &p, nil
}

func matches(p models.Product, f models.ProductFilter) bool {
	if f.Keyword != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Keyword)) {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.PriceGTE != nil && p.Price.LessThan(*f.PriceGTE) {
		return false
	}
	if f.PriceLTE != nil && p.Price.GreaterThan(*f.PriceLTE) {
		return false
	}
	if f.RatingsGTE != nil && p.Ratings < *f.RatingsGTE {
		return false
	}
	return true
}

// filtered returns matching products newest first
func (m *MemStore) filtered(f models.ProductFilter) []models.Product {
	var out []models.Product
	for i := len(m.productOrder) - 1; i >= 0; i-- {
		p, ok := m.products[m.productOrder[i]]
		if ok && matches(p, f) {
			out = append(out, copyProduct(p))
		}
	}
	return out
}

func (m *MemStore) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := m.filtered(f)
	if f.Limit <= 0 {
		return all, nil
	}
	if f.Offset < 0 || f.Offset >= len(all) {
		return []models.Product{}, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], nil
}

func (m *MemStore) CountProducts(_ context.Context, f models.ProductFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.filtered(f)), nil
}

func (m *MemStore) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.products[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	updated := copyProduct(*p)
	updated.Reviews = existing.Reviews
	updated.Ratings = existing.Ratings
	updated.NumOfReviews = existing.NumOfReviews
	m.products[p.ID] = updated
	return nil
}

func (m *MemStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *MemStore) DecrementStock(_ context.Context, productID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p.Stock -= quantity
	m.products[productID] = p
	return nil
}

func recomputeRatings(p *models.Product) {
	p.NumOfReviews = len(p.Reviews)
	p.Ratings = 0
	if len(p.Reviews) == 0 {
		return
	}
	var sum float64
	for _, r := range p.Reviews {
		sum += r.Rating
	}
	p.Ratings = sum / float64(len(p.Reviews))
}

func (m *MemStore) UpsertReview(_ context.Context, productID uuid.UUID, review *models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p = copyProduct(p)

	replaced := false
	for i, r := range p.Reviews {
		if r.UserID == review.UserID {
			review.ID = r.ID
			p.Reviews[i] = *review
			replaced = true
			break
		}
	}
	if !replaced {
		if review.ID == uuid.Nil {
			review.ID = uuid.New()
		}
		p.Reviews = append(p.Reviews, *review)
	}

	recomputeRatings(&p)
	m.products[productID] = p
	return nil
}

func (m *MemStore) DeleteReview(_ context.Context, productID, reviewID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[productID]
	if !ok {
		return store.ErrNotFound
	}
	p = copyProduct(p)

	for i, r := range p.Reviews {
		if r.ID == reviewID {
			p.Reviews = append(p.Reviews[:i], p.Reviews[i+1:]...)
			recomputeRatings(&p)
			m.products[productID] = p
			return nil
		}
	}
	return store.ErrNotFound
}

func copyOrder(o models.Order) models.Order {
	o.OrderItems = append([]models.OrderItem{}, o.OrderItems...)
	return o
}

func (m *MemStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.CreatedAt = time.Now()
	stored := copyOrder(*order)
	stored.User = models.UserRef{ID: order.User.ID}
	m.orders[order.ID] = stored
	m.orderOrder = append(m.orderOrder, order.ID)
	return nil
}

func (m *MemStore) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	o = copyOrder(o)
	if u, ok := m.users[o.User.ID]; ok {
		o.User.Name = u.Name
		o.User.Email = u.Email
	}
	return &o, nil
}

func (m *MemStore) selectOrders(keep func(models.Order) bool) []models.Order {
	orders := []models.Order{}
	for i := len(m.orderOrder) - 1; i >= 0; i-- {
		o, ok := m.orders[m.orderOrder[i]]
		if ok && keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	return orders
}

func (m *MemStore) GetOrdersByUserID(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectOrders(func(o models.Order) bool { return o.User.ID == userID }), nil
}

func (m *MemStore) ListOrders(_ context.Context) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selectOrders(func(models.Order) bool { return true }), nil
}

func (m *MemStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, from, to models.OrderStatus, deliveredAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return store.ErrNotFound
	}
	if o.OrderStatus != from {
		return store.ErrConflict
	}
	o.OrderStatus = to
	if deliveredAt != nil {
		t := *deliveredAt
		o.DeliveredAt = &t
	}
	m.orders[id] = o
	return nil
}

func (m *MemStore) DeleteOrder(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}
