package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ProductID   int             `json:"productID"`
	ProductName string          `json:"productName"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsAvailable bool            `json:"isAvailable"`
	CategoryID  int             `json:"categoryID,omitempty"`
	ImagePath   string          `json:"imagePath,omitempty"`
}

// InStock reports whether the product can be added to a cart.
func (p Product) InStock() bool {
	return p.IsAvailable && p.Quantity > 0
}

type Category struct {
	CategoryID   int    `json:"categoryID"`
	CategoryName string `json:"categoryName"`
}

type User struct {
	UserID int    `json:"userID,omitempty"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
}

// Credentials is the login payload.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the backend.
type LoginResponse struct {
	Token string `json:"token"`
}

// ProductInput is the multipart form the backend accepts for product create
// and update. Image is optional on update.
type ProductInput struct {
	ProductName string
	Price       decimal.Decimal
	Description string
	CategoryID  int
	Quantity    int
	IsAvailable bool
	Image       []byte
	ImageName   string
}
