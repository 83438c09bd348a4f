package models

import (
	"strings"
	"unicode/utf8"

	"ecommerce-service/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

var maxPrice = decimal.New(1, 8)

const (
	minNameLen     = 4
	maxNameLen     = 30
	minPasswordLen = 8
	maxStock       = 9999
)

// ValidateName checks a user's display name
func ValidateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return apperr.Validation("Please Enter Your Name")
	case n < minNameLen:
		return apperr.Validation("Name should have more than 4 characters")
	case n > maxNameLen:
		return apperr.Validation("Name cannot exceed 30 characters")
	}
	return nil
}

// ValidateEmail checks an email address
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return apperr.Validation("Please Enter Your Email")
	}
	if err := validate.Var(email, "email"); err != nil {
		return apperr.Validation("Please Enter a valid Email")
	}
	return nil
}

// ValidatePassword checks a new plaintext password
func ValidatePassword(password string) error {
	if password == "" {
		return apperr.Validation("Please Enter Your Password")
	}
	if len(password) < minPasswordLen {
		return apperr.Validation("Password should be greater than 8 characters")
	}
	return nil
}

// Validate checks the user fields a client may set
func (u *User) Validate() error {
	if err := ValidateName(u.Name); err != nil {
		return err
	}
	return ValidateEmail(u.Email)
}

// Validate checks the product fields an admin may set
func (p *Product) Validate() error {
	if err := p.ValidateDetails(); err != nil {
		return err
	}
	return ValidateStock(p.Stock)
}

// ValidateDetails checks every product field except stock
func (p *Product) ValidateDetails() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperr.Validation("Please Enter product Name")
	case strings.TrimSpace(p.Description) == "":
		return apperr.Validation("Please Enter product Description")
	case strings.TrimSpace(p.Category) == "":
		return apperr.Validation("Please Enter Product Category")
	case !p.Price.IsPositive():
		return apperr.Validation("Please Enter product Price")
	case p.Price.GreaterThanOrEqual(maxPrice):
		return apperr.Validation("Price cannot exceed 8 characters")
	}
	return nil
}

// ValidateStock checks a stock level set by an admin. Shipping may push the
// stored stock below zero, so this only applies to submitted values.
func ValidateStock(stock int) error {
	switch {
	case stock < 0:
		return apperr.Validation("Stock cannot be negative")
	case stock > maxStock:
		return apperr.Validation("Stock cannot exceed 4 characters")
	}
	return nil
}

// Validate checks a review before it is stored
func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return apperr.Validation("Rating must be between 1 and 5")
	}
	if strings.TrimSpace(r.Comment) == "" {
		return apperr.Validation("Please Enter a comment")
	}
	return nil
}

// Validate checks a new order before it is stored
func (o *Order) Validate() error {
	si := o.ShippingInfo
	if strings.TrimSpace(si.Address) == "" || strings.TrimSpace(si.City) == "" ||
		strings.TrimSpace(si.State) == "" || strings.TrimSpace(si.Country) == "" ||
		si.PinCode == 0 || si.PhoneNo == 0 {
		return apperr.Validation("Please Enter complete shipping info")
	}
	if len(o.OrderItems) == 0 {
		return apperr.Validation("Order must contain at least one item")
	}
	for _, item := range o.OrderItems {
		if strings.TrimSpace(item.Name) == "" || item.Quantity <= 0 || item.Price.IsNegative() {
			return apperr.Validation("Invalid order item")
		}
		if item.ProductID == uuid.Nil {
			return apperr.Validation("Order item must reference a product")
		}
	}
	if o.PaymentInfo.ID == "" || o.PaymentInfo.Status == "" {
		return apperr.Validation("Please Enter payment info")
	}
	if o.TotalPrice.IsNegative() {
		return apperr.Validation("Total price cannot be negative")
	}
	return nil
}
