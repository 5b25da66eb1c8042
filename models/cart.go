package models

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects plain JSON numbers for money.
	decimal.MarshalJSONWithoutQuotes = true
}

// CartItem is one line of a user's cart. Price is the line total
// (unit price × quantity), not the unit price.
type CartItem struct {
	CartItemID  int             `json:"cartItemID"`
	UserID      int             `json:"userID"`
	Products    []Product       `json:"products,omitempty"`
	ProductName string          `json:"productName,omitempty"`
	ImagePath   string          `json:"imagePath,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Product returns the referenced product, or a zero Product.
func (c CartItem) Product() Product {
	if len(c.Products) > 0 {
		return c.Products[0]
	}
	return Product{}
}

// Name prefers the referenced product's name.
func (c CartItem) Name() string {
	if p := c.Product(); p.ProductName != "" {
		return p.ProductName
	}
	if c.ProductName != "" {
		return c.ProductName
	}
	return "No product name"
}

// Image prefers the referenced product's image path.
func (c CartItem) Image() string {
	if p := c.Product(); p.ImagePath != "" {
		return p.ImagePath
	}
	return c.ImagePath
}

// UnitPrice derives the per-unit price from the line total.
func (c CartItem) UnitPrice() decimal.Decimal {
	if c.Quantity <= 0 {
		return c.Price
	}
	return c.Price.Div(decimal.NewFromInt(int64(c.Quantity)))
}

// CountItems sums quantities across the cart.
func CountItems(items []CartItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Subtotal sums line totals across the cart.
func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price)
	}
	return sum
}

// NewCartItem is the add-to-cart payload.
type NewCartItem struct {
	UserID    int `json:"userId"`
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// CheckoutLine is the normalized cart snapshot sent at checkout.
type CheckoutLine struct {
	CartItemID int             `json:"cartItemID"`
	ProductID  int             `json:"productId"`
	Quantity   int             `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
}

// CheckoutRequest is the body of POST /api/CartItem/checkout.
type CheckoutRequest struct {
	UserID               int             `json:"userId"`
	DeliveryOrCollection string          `json:"deliveryOrCollection"`
	DeliveryFee          decimal.Decimal `json:"deliveryFee"`
	CartItems            []CheckoutLine  `json:"cartItems"`
}

// CheckoutResponse is the backend's answer to a checkout.
type CheckoutResponse struct {
	OrderID       int              `json:"orderId"`
	Order         *Order           `json:"order,omitempty"`
	WalletBalance *decimal.Decimal `json:"walletBalance,omitempty"`
}
