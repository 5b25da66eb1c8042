// Package backendtest provides a hand-written fake of the REST API for flow
// tests. Unset functions fail with a 500 so a test notices unexpected calls.
package backendtest

import (
	"context"
	"net/http"
	"sync"

	"kiosk/backend"
	"kiosk/models"
)

// Fake implements every API method the flows use.
type Fake struct {
	LoginFn          func(models.Credentials) (string, error)
	RegisterFn       func(models.Registration) error
	UserFn           func(int) (models.User, error)
	CategoriesFn     func() ([]models.Category, error)
	ProductsFn       func() ([]models.Product, error)
	CreateProductFn  func(models.ProductInput) (models.Product, error)
	UpdateProductFn  func(int, models.ProductInput) error
	DeleteProductFn  func(int) error
	CartItemsFn      func(int) ([]models.CartItem, error)
	AddCartItemFn    func(models.NewCartItem) error
	UpdateCartItemFn func(id, quantity int) error
	DeleteCartItemFn func(int) error
	ClearCartFn      func(int) (string, error)
	CheckoutFn       func(models.CheckoutRequest) (models.CheckoutResponse, error)
	AllOrdersFn      func() ([]models.Order, error)
	UserOrdersFn     func(int) ([]models.Order, error)
	WalletsFn        func() ([]models.Wallet, error)
	WalletFn         func(int) (models.Wallet, error)
	MyWalletFn       func() (models.Wallet, error)
	DepositFn        func(int, models.DepositRequest) error

	mu    sync.Mutex
	calls []string
}

// Status returns a backend error with the given status and message.
func Status(code int, msg string) error {
	return &backend.Error{Status: code, Message: msg}
}

var errUnset = Status(http.StatusInternalServerError, "unexpected call")

func (f *Fake) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

// Calls lists the methods invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Count reports how often name was called.
func (f *Fake) Count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *Fake) Login(_ context.Context, c models.Credentials) (string, error) {
	f.record("Login")
	if f.LoginFn == nil {
		return "", errUnset
	}
	return f.LoginFn(c)
}

func (f *Fake) Register(_ context.Context, r models.Registration) error {
	f.record("Register")
	if f.RegisterFn == nil {
		return errUnset
	}
	return f.RegisterFn(r)
}

func (f *Fake) User(_ context.Context, id int) (models.User, error) {
	f.record("User")
	if f.UserFn == nil {
		return models.User{}, errUnset
	}
	return f.UserFn(id)
}

func (f *Fake) Categories(context.Context) ([]models.Category, error) {
	f.record("Categories")
	if f.CategoriesFn == nil {
		return nil, errUnset
	}
	return f.CategoriesFn()
}

func (f *Fake) Products(context.Context) ([]models.Product, error) {
	f.record("Products")
	if f.ProductsFn == nil {
		return nil, errUnset
	}
	return f.ProductsFn()
}

func (f *Fake) CreateProduct(_ context.Context, in models.ProductInput) (models.Product, error) {
	f.record("CreateProduct")
	if f.CreateProductFn == nil {
		return models.Product{}, errUnset
	}
	return f.CreateProductFn(in)
}

func (f *Fake) UpdateProduct(_ context.Context, id int, in models.ProductInput) error {
	f.record("UpdateProduct")
	if f.UpdateProductFn == nil {
		return errUnset
	}
	return f.UpdateProductFn(id, in)
}

func (f *Fake) DeleteProduct(_ context.Context, id int) error {
	f.record("DeleteProduct")
	if f.DeleteProductFn == nil {
		return errUnset
	}
	return f.DeleteProductFn(id)
}

func (f *Fake) CartItems(_ context.Context, userID int) ([]models.CartItem, error) {
	f.record("CartItems")
	if f.CartItemsFn == nil {
		return nil, errUnset
	}
	return f.CartItemsFn(userID)
}

func (f *Fake) AddCartItem(_ context.Context, item models.NewCartItem) error {
	f.record("AddCartItem")
	if f.AddCartItemFn == nil {
		return errUnset
	}
	return f.AddCartItemFn(item)
}

func (f *Fake) UpdateCartItem(_ context.Context, id, quantity int) error {
	f.record("UpdateCartItem")
	if f.UpdateCartItemFn == nil {
		return errUnset
	}
	return f.UpdateCartItemFn(id, quantity)
}

func (f *Fake) DeleteCartItem(_ context.Context, id int) error {
	f.record("DeleteCartItem")
	if f.DeleteCartItemFn == nil {
		return errUnset
	}
	return f.DeleteCartItemFn(id)
}

func (f *Fake) ClearCart(_ context.Context, userID int) (string, error) {
	f.record("ClearCart")
	if f.ClearCartFn == nil {
		return "", errUnset
	}
	return f.ClearCartFn(userID)
}

func (f *Fake) Checkout(_ context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error) {
	f.record("Checkout")
	if f.CheckoutFn == nil {
		return models.CheckoutResponse{}, errUnset
	}
	return f.CheckoutFn(req)
}

func (f *Fake) AllOrders(context.Context) ([]models.Order, error) {
	f.record("AllOrders")
	if f.AllOrdersFn == nil {
		return nil, errUnset
	}
	return f.AllOrdersFn()
}

func (f *Fake) UserOrders(_ context.Context, userID int) ([]models.Order, error) {
	f.record("UserOrders")
	if f.UserOrdersFn == nil {
		return nil, errUnset
	}
	return f.UserOrdersFn(userID)
}

func (f *Fake) Wallets(context.Context) ([]models.Wallet, error) {
	f.record("Wallets")
	if f.WalletsFn == nil {
		return nil, errUnset
	}
	return f.WalletsFn()
}

func (f *Fake) Wallet(_ context.Context, id int) (models.Wallet, error) {
	f.record("Wallet")
	if f.WalletFn == nil {
		return models.Wallet{}, errUnset
	}
	return f.WalletFn(id)
}

func (f *Fake) MyWallet(context.Context) (models.Wallet, error) {
	f.record("MyWallet")
	if f.MyWalletFn == nil {
		return models.Wallet{}, errUnset
	}
	return f.MyWalletFn()
}

func (f *Fake) Deposit(_ context.Context, id int, req models.DepositRequest) error {
	f.record("Deposit")
	if f.DepositFn == nil {
		return errUnset
	}
	return f.DepositFn(id, req)
}
