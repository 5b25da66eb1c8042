// Package cart runs one terminal's cart: quantity changes, removal, clearing,
// delivery selection and checkout. Every write is followed by a full cart
// refetch; the held items are never patched in place.
package cart

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"kiosk/apperr"
	"kiosk/audit"
	"kiosk/backend"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/notify"
	"kiosk/session"

	"github.com/shopspring/decimal"
)

// Backend is the slice of the REST API the cart uses.
type Backend interface {
	CartItems(ctx context.Context, userID int) ([]models.CartItem, error)
	AddCartItem(ctx context.Context, item models.NewCartItem) error
	UpdateCartItem(ctx context.Context, cartItemID, quantity int) error
	DeleteCartItem(ctx context.Context, cartItemID int) error
	Checkout(ctx context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error)
	Wallet(ctx context.Context, walletID int) (models.Wallet, error)
}

// Clearer empties the cart on the flow's behalf.
type Clearer interface {
	ClearCart(ctx context.Context) (string, error)
}

// Flow is one terminal's cart state.
type Flow struct {
	sess    *session.Handle
	api     Backend
	clearer Clearer
	audit   audit.Recorder
	notify  notify.Notifier

	logoutDelay    time.Duration
	onCartChanged  func(ctx context.Context)
	onProductAdded func(productID int)

	mu        sync.Mutex
	items     []models.CartItem
	delivery  string
	busy      bool
	lastError string
	confirmed *Confirmation
}

type Option func(*Flow)

func WithLogoutDelay(d time.Duration) Option {
	return func(f *Flow) { f.logoutDelay = d }
}

// WithCartChanged registers a callback fired after the cart changes.
func WithCartChanged(fn func(ctx context.Context)) Option {
	return func(f *Flow) { f.onCartChanged = fn }
}

// WithProductAdded registers the optimistic stock decrement run after an
// add-to-cart succeeds.
func WithProductAdded(fn func(productID int)) Option {
	return func(f *Flow) { f.onProductAdded = fn }
}

func WithNotifier(n notify.Notifier) Option {
	return func(f *Flow) { f.notify = n }
}

func New(sess *session.Handle, api Backend, clearer Clearer, rec audit.Recorder, opts ...Option) *Flow {
	f := &Flow{
		sess:        sess,
		api:         api,
		clearer:     clearer,
		audit:       rec,
		notify:      notify.Log{},
		logoutDelay: globals.LogoutDelay,
		items:       []models.CartItem{},
	}
	if f.audit == nil {
		f.audit = audit.LogRecorder{}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State is what the cart view renders.
type State struct {
	Items        []models.CartItem `json:"items"`
	Count        int               `json:"count"`
	Delivery     string            `json:"delivery"`
	Subtotal     decimal.Decimal   `json:"subtotal"`
	DeliveryFee  decimal.Decimal   `json:"deliveryFee"`
	Total        decimal.Decimal   `json:"total"`
	Loading      bool              `json:"loading"`
	Error        string            `json:"error,omitempty"`
	Confirmation *Confirmation     `json:"confirmation,omitempty"`
}

// Totals is the client-side price breakdown.
type Totals struct {
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Total       decimal.Decimal
}

// ComputeTotals sums the line prices and adds the fee for delivery.
func ComputeTotals(items []models.CartItem, delivery string) Totals {
	sub := models.Subtotal(items)
	fee := DeliveryFee(delivery)
	return Totals{Subtotal: sub, DeliveryFee: fee, Total: sub.Add(fee)}
}

func DeliveryFee(delivery string) decimal.Decimal {
	if delivery == globals.DeliveryDelivery {
		return globals.DeliveryFee
	}
	return decimal.Zero
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := ComputeTotals(f.items, f.delivery)
	return State{
		Items:        append([]models.CartItem{}, f.items...),
		Count:        models.CountItems(f.items),
		Delivery:     f.delivery,
		Subtotal:     t.Subtotal,
		DeliveryFee:  t.DeliveryFee,
		Total:        t.Total,
		Loading:      f.busy,
		Error:        f.lastError,
		Confirmation: f.confirmed,
	}
}

// Totals returns the breakdown for the held items and selection.
func (f *Flow) Totals() Totals {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ComputeTotals(f.items, f.delivery)
}

// SetItems seeds the held copy, as when the cart view opens on the home
// page's items.
func (f *Flow) SetItems(items []models.CartItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if items == nil {
		items = []models.CartItem{}
	}
	f.items = items
}

// SelectDelivery sets Pickup, Delivery, or clears the selection with "".
func (f *Flow) SelectDelivery(option string) error {
	switch option {
	case "", globals.DeliveryPickup, globals.DeliveryDelivery:
	default:
		return apperr.Validation("select delivery", "Please select Pickup or Delivery.")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivery = option
	return nil
}

// Dismiss clears the error and confirmation and resets the selection, as
// closing the cart view does.
func (f *Flow) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastError = ""
	f.confirmed = nil
	f.delivery = ""
}

// Reset drops the held items along with the error, confirmation and
// selection.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = []models.CartItem{}
	f.lastError = ""
	f.confirmed = nil
	f.delivery = ""
}

func (f *Flow) begin(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return apperr.Busy(op)
	}
	f.busy = true
	return nil
}

func (f *Flow) end() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.busy = false
}

func (f *Flow) setError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastError = msg
}

// fail records e as the visible error and returns it.
func (f *Flow) fail(e *apperr.Error) error {
	f.setError(e.Message)
	return e
}

func (f *Flow) userID(ctx context.Context) int {
	res := f.sess.Current(ctx)
	if !res.HasIdentity() {
		return 0
	}
	return res.Session.UserID
}

// refresh refetches the whole cart for the session user. On failure the held
// copy stays and is returned alongside the error.
func (f *Flow) refresh(ctx context.Context) ([]models.CartItem, error) {
	userID := f.userID(ctx)
	items, err := f.api.CartItems(ctx, userID)
	if err != nil {
		log.Printf("[cart] refresh for user %d: %v", userID, err)
		f.mu.Lock()
		held := append([]models.CartItem{}, f.items...)
		f.lastError = "Failed to refresh cart. Using local data."
		f.mu.Unlock()
		return held, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return items, nil
}

func (f *Flow) cartChanged(ctx context.Context) {
	if f.onCartChanged != nil {
		f.onCartChanged(ctx)
	}
}

// Refresh reloads the held cart from the backend.
func (f *Flow) Refresh(ctx context.Context) error {
	if err := f.begin("refresh cart"); err != nil {
		return err
	}
	defer f.end()
	_, err := f.refresh(ctx)
	return err
}

// UpdateQuantity sets an item's quantity. Quantities below 1 are ignored
// without a request.
func (f *Flow) UpdateQuantity(ctx context.Context, cartItemID, quantity int) error {
	if quantity < 1 {
		return nil
	}
	const op = "update quantity"
	if err := f.begin(op); err != nil {
		return err
	}
	defer f.end()

	if err := f.api.UpdateCartItem(ctx, cartItemID, quantity); err != nil {
		log.Printf("[cart] update item %d to %d: %v", cartItemID, quantity, err)
		switch backend.StatusOf(err) {
		case http.StatusBadRequest:
			return f.fail(apperr.New(op, apperr.KindDomain,
				backend.MessageOf(err, "Invalid quantity or insufficient stock."), err))
		case http.StatusNotFound:
			return f.fail(apperr.New(op, apperr.KindNotFound, "Cart item not found.", err))
		default:
			return f.fail(apperr.New(op, apperr.KindGeneric, "Failed to update quantity.", err))
		}
	}

	f.setError("")
	f.refresh(ctx)
	f.cartChanged(ctx)
	return nil
}

// Remove deletes an item. A 401 logs the terminal out after the delay.
func (f *Flow) Remove(ctx context.Context, cartItemID int) error {
	const op = "remove item"
	if err := f.begin(op); err != nil {
		return err
	}
	defer f.end()

	if err := f.api.DeleteCartItem(ctx, cartItemID); err != nil {
		log.Printf("[cart] remove item %d: %v", cartItemID, err)
		switch backend.StatusOf(err) {
		case http.StatusNotFound:
			return f.fail(apperr.New(op, apperr.KindNotFound, "Cart item not found.", err))
		case http.StatusUnauthorized:
			f.sess.LogoutAfter(f.logoutDelay)
			return f.fail(apperr.New(op, apperr.KindUnauthorized, "Unauthorized. Please log in again.", err))
		default:
			return f.fail(apperr.New(op, apperr.KindGeneric, "Failed to remove item.", err))
		}
	}

	f.setError("")
	f.refresh(ctx)
	f.cartChanged(ctx)
	return nil
}

// Clear empties the cart through the clearer and returns its message.
func (f *Flow) Clear(ctx context.Context) (string, error) {
	const op = "clear cart"
	if err := f.begin(op); err != nil {
		return "", err
	}
	defer f.end()

	msg, err := f.clearer.ClearCart(ctx)
	if err != nil {
		if backend.StatusOf(err) == http.StatusUnauthorized {
			f.sess.LogoutAfter(f.logoutDelay)
			return "", f.fail(apperr.New(op, apperr.KindUnauthorized, "Unauthorized. Please log in again.", err))
		}
		return "", f.fail(apperr.New(op, apperr.KindGeneric,
			backend.MessageOf(err, "Failed to clear cart."), err))
	}

	f.setError("")
	f.refresh(ctx)
	f.cartChanged(ctx)
	return msg, nil
}
