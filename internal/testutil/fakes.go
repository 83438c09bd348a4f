package testutil

import (
	"context"
	"strings"
	"sync"
	"time"

	"ecommerce-service/internal/models"
	"ecommerce-service/internal/objstore"

	"github.com/google/uuid"
)

// Publisher records published events; set Err to make every publish fail
type Publisher struct {
	mu            sync.Mutex
	Err           error
	Resets        []models.PasswordResetRequestedEvent
	Placed        []models.OrderPlacedEvent
	StatusChanged []models.OrderStatusChangedEvent
}

func (p *Publisher) PublishPasswordResetRequested(_ context.Context, e *models.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Resets = append(p.Resets, *e)
	return nil
}

func (p *Publisher) PublishOrderPlaced(_ context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Placed = append(p.Placed, *e)
	return nil
}

func (p *Publisher) PublishOrderStatusChanged(_ context.Context, e *models.OrderStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.StatusChanged = append(p.StatusChanged, *e)
	return nil
}

// LastResetToken returns the plaintext token of the latest reset link
func (p *Publisher) LastResetToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Resets) == 0 {
		return ""
	}
	url := p.Resets[len(p.Resets)-1].ResetURL
	return url[strings.LastIndex(url, "/")+1:]
}

// Images stores uploads in memory
type Images struct {
	mu      sync.Mutex
	Stored  map[string]string
	Deleted []string
}

func NewImages() *Images {
	return &Images{Stored: make(map[string]string)}
}

func (i *Images) UploadDataURL(_ context.Context, folder, dataURL string) (models.Image, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return models.Image{}, objstore.ErrInvalidImage
	}
	i.mu.Lock()
	defer i.mu.Unlock()

	id := folder + "/" + uuid.NewString()
	i.Stored[id] = dataURL
	return models.Image{PublicID: id, URL: "http://images.test/" + id}, nil
}

func (i *Images) Delete(_ context.Context, publicID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.Stored, publicID)
	i.Deleted = append(i.Deleted, publicID)
	return nil
}

// Idempotency keeps idempotency keys and locks in maps
type Idempotency struct {
	mu    sync.Mutex
	keys  map[string]uuid.UUID
	locks map[string]bool
}

func NewIdempotency() *Idempotency {
	return &Idempotency{keys: make(map[string]uuid.UUID), locks: make(map[string]bool)}
}

func (f *Idempotency) GetOrderForKey(_ context.Context, key string) (uuid.UUID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.keys[key]
	return id, ok, nil
}

func (f *Idempotency) SetOrderForKey(_ context.Context, key string, orderID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = orderID
	return nil
}

func (f *Idempotency) AcquireLock(_ context.Context, lockKey string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[lockKey] {
		return false, nil
	}
	f.locks[lockKey] = true
	return true, nil
}

// ReleaseLock fails on a done context, as a network call would
func (f *Idempotency) ReleaseLock(ctx context.Context, lockKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, lockKey)
	return nil
}

// Locked reports whether lockKey is currently held
func (f *Idempotency) Locked(lockKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.locks[lockKey]
}

// Gateway is a payment gateway that answers with a fixed secret
type Gateway struct {
	Secret  string
	Key     string
	Err     error
	Amounts []int64
}

func (g *Gateway) CreatePaymentIntent(_ context.Context, amount int64) (string, error) {
	g.Amounts = append(g.Amounts, amount)
	if g.Err != nil {
		return "", g.Err
	}
	return g.Secret, nil
}

func (g *Gateway) PublishableKey() string {
	return g.Key
}
