package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Image references an object in image storage
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// DefaultAvatar is assigned to users who register without an avatar
var DefaultAvatar = Image{PublicID: "default_avatar", URL: "default_avatar_url"}

// User represents an account
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"`
	Avatar              Image      `json:"avatar"`
	Role                Role       `json:"role"`
	CreatedAt           time.Time  `json:"createdAt"`
	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
}

// Product represents a catalog item
type Product struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Ratings      float64         `json:"ratings"`
	Images       []Image         `json:"images"`
	Category     string          `json:"category"`
	Stock        int             `json:"stock"`
	NumOfReviews int             `json:"numOfReviews"`
	Reviews      []Review        `json:"reviews"`
	UserID       uuid.UUID       `json:"user"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Review is a user's rating of a product
type Review struct {
	ID      uuid.UUID `json:"id"`
	UserID  uuid.UUID `json:"user"`
	Name    string    `json:"name"`
	Rating  float64   `json:"rating"`
	Comment string    `json:"comment"`
}

// ShippingInfo is the delivery address of an order
type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
	PinCode int64  `json:"pinCode"`
	PhoneNo int64  `json:"phoneNo"`
}

// OrderItem is a snapshot of a purchased product
type OrderItem struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image"`
	ProductID uuid.UUID       `json:"product"`
}

// PaymentInfo records the processor's payment reference
type PaymentInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// UserRef points at the purchasing user. Name and Email are filled only when
// the order is read together with its user.
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name,omitempty"`
	Email string    `json:"email,omitempty"`
}

// Order represents a customer order
type Order struct {
	ID            uuid.UUID       `json:"id"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	OrderItems    []OrderItem     `json:"orderItems"`
	User          UserRef         `json:"user"`
	PaymentInfo   PaymentInfo     `json:"paymentInfo"`
	PaidAt        time.Time       `json:"paidAt"`
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	OrderStatus   OrderStatus     `json:"orderStatus"`
	DeliveredAt   *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ProductFilter narrows the public catalog listing
type ProductFilter struct {
	Keyword    string
	Category   string
	PriceGTE   *decimal.Decimal
	PriceLTE   *decimal.Decimal
	RatingsGTE *float64
	Limit      int
	Offset     int
}
