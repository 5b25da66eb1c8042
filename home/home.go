// Package home aggregates what the kiosk home page shows for the signed-in
// identity: name, wallet, cart, categories and orders.
package home

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"kiosk/apperr"
	"kiosk/backend"
	"kiosk/models"
	"kiosk/notify"
	"kiosk/session"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	guestName   = "Guest"
	loadingName = "Loading..."
	defaultName = "User"
)

// Backend is the slice of the REST API the aggregator reads.
type Backend interface {
	User(ctx context.Context, userID int) (models.User, error)
	Categories(ctx context.Context) ([]models.Category, error)
	MyWallet(ctx context.Context) (models.Wallet, error)
	Wallet(ctx context.Context, walletID int) (models.Wallet, error)
	CartItems(ctx context.Context, userID int) ([]models.CartItem, error)
	AllOrders(ctx context.Context) ([]models.Order, error)
	UserOrders(ctx context.Context, userID int) ([]models.Order, error)
	ClearCart(ctx context.Context, userID int) (string, error)
}

// View is a snapshot of the home page state.
type View struct {
	Role          string            `json:"role,omitempty"`
	UserID        int               `json:"userId,omitempty"`
	UserName      string            `json:"userName"`
	Balance       decimal.Decimal   `json:"balance"`
	WalletID      int               `json:"walletId,omitempty"`
	CartItems     []models.CartItem `json:"cartItems"`
	CartCount     int               `json:"cartCount"`
	Categories    []models.Category `json:"categories"`
	Orders        []models.Order    `json:"orders"`
	OrdersLoading bool              `json:"ordersLoading"`
	OrdersError   string            `json:"ordersError,omitempty"`
	OrdersErrKind apperr.Kind       `json:"-"`
}

// Aggregator owns one terminal's home state.
type Aggregator struct {
	sess   *session.Handle
	api    Backend
	guest  Backend
	notify notify.Notifier

	mu   sync.Mutex
	view View
}

// New returns an aggregator. api carries the session's credentials; guest is
// used for the categories a signed-out terminal still shows.
func New(sess *session.Handle, api, guest Backend, n notify.Notifier) *Aggregator {
	return &Aggregator{
		sess:   sess,
		api:    api,
		guest:  guest,
		notify: n,
		view:   View{UserName: guestName, CartItems: []models.CartItem{}, Categories: []models.Category{}, Orders: []models.Order{}},
	}
}

// View returns a copy of the current state.
func (a *Aggregator) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.view
	v.CartItems = append([]models.CartItem(nil), a.view.CartItems...)
	v.Categories = append([]models.Category(nil), a.view.Categories...)
	v.Orders = append([]models.Order(nil), a.view.Orders...)
	return v
}

// Identity returns the role and user id decoded by the last Load.
func (a *Aggregator) Identity() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view.Role, a.view.UserID
}

func (a *Aggregator) update(f func(v *View)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	f(&a.view)
}

// Load decodes the token once and fetches everything the page shows.
func (a *Aggregator) Load(ctx context.Context) View {
	res := a.sess.Current(ctx)

	switch {
	case res.Status == session.Invalid:
		a.sess.ForgetUserID(ctx)
		a.resetToGuest()
		a.notify.Error("Invalid session. Please log in again.")
		a.loadCategories(ctx, a.guest)
		return a.View()
	case !res.HasIdentity():
		a.sess.ForgetUserID(ctx)
		a.resetToGuest()
		a.loadCategories(ctx, a.guest)
		return a.View()
	}

	s := res.Session
	a.sess.RememberUserID(ctx, s.UserID)
	a.update(func(v *View) {
		v.Role = s.Role
		v.UserID = s.UserID
		v.UserName = loadingName
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.loadUserName(gctx, s.UserID)
		return nil
	})
	g.Go(func() error {
		a.loadCategories(gctx, a.api)
		return nil
	})
	g.Go(func() error {
		a.RefreshWallet(gctx)
		return nil
	})
	g.Go(func() error {
		a.RefreshCart(gctx)
		return nil
	})
	g.Go(func() error {
		a.FetchOrders(gctx)
		return nil
	})
	_ = g.Wait()

	return a.View()
}

func (a *Aggregator) resetToGuest() {
	a.update(func(v *View) {
		*v = View{
			UserName:   guestName,
			CartItems:  []models.CartItem{},
			Categories: v.Categories,
			Orders:     []models.Order{},
		}
	})
}

func (a *Aggregator) loadUserName(ctx context.Context, userID int) {
	name := defaultName
	u, err := a.api.User(ctx, userID)
	if err != nil {
		log.Printf("[home] fetch user %d: %v", userID, err)
		a.notify.Error("Failed to fetch user details.")
	} else if u.Name != "" {
		name = u.Name
	}
	a.update(func(v *View) { v.UserName = name })
}

func (a *Aggregator) loadCategories(ctx context.Context, api Backend) {
	cats, err := api.Categories(ctx)
	if err != nil {
		log.Printf("[home] fetch categories: %v", err)
		return
	}
	if cats == nil {
		cats = []models.Category{}
	}
	a.update(func(v *View) { v.Categories = cats })
}

// RefreshWallet reloads the caller's own wallet. Failure shows a zero balance.
func (a *Aggregator) RefreshWallet(ctx context.Context) {
	w, err := a.api.MyWallet(ctx)
	if err != nil {
		log.Printf("[home] fetch wallet: %v", err)
		a.update(func(v *View) {
			v.Balance = decimal.Zero
			v.WalletID = 0
		})
		return
	}
	a.update(func(v *View) {
		v.Balance = w.Balance
		v.WalletID = w.WalletID
	})
}

// RefreshCart reloads the cart and its item count. Failure empties both.
func (a *Aggregator) RefreshCart(ctx context.Context) []models.CartItem {
	_, userID := a.Identity()
	items, err := a.api.CartItems(ctx, userID)
	if err != nil {
		log.Printf("[home] fetch cart for user %d: %v", userID, err)
		items = nil
	}
	if items == nil {
		items = []models.CartItem{}
	}
	a.update(func(v *View) {
		v.CartItems = items
		v.CartCount = models.CountItems(items)
	})
	return items
}

// FetchOrders loads orders for the role: one user's orders for a standard
// user, every order with resolved names for a super user.
func (a *Aggregator) FetchOrders(ctx context.Context) {
	role, userID := a.Identity()
	elevated := session.Session{Role: role}.Elevated()

	a.update(func(v *View) {
		v.OrdersLoading = true
		v.OrdersError = ""
		v.OrdersErrKind = ""
	})

	var orders []models.Order
	var err error
	if elevated {
		orders, err = a.api.AllOrders(ctx)
		if err == nil {
			a.resolveNames(ctx, orders)
		}
	} else {
		orders, err = a.api.UserOrders(ctx, userID)
		orders = ownOrders(orders, userID)
	}

	if err != nil {
		msg := ordersErrorMessage(err)
		log.Printf("[home] fetch orders (role=%s user=%d): %v", role, userID, err)
		a.notify.Error(msg)
		a.update(func(v *View) {
			v.OrdersLoading = false
			v.OrdersError = msg
			v.OrdersErrKind = apperr.KindForStatus(backend.StatusOf(err))
		})
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	a.update(func(v *View) {
		v.Orders = orders
		v.OrdersLoading = false
	})
}

// resolveNames looks up each order's owner one call at a time.
func (a *Aggregator) resolveNames(ctx context.Context, orders []models.Order) {
	for i := range orders {
		fallback := fmt.Sprintf("User %d", orders[i].UserID)
		u, err := a.api.User(ctx, orders[i].UserID)
		switch {
		case err != nil:
			log.Printf("[home] resolve name for user %d: %v", orders[i].UserID, err)
			orders[i].UserName = fallback
		case u.Name == "":
			orders[i].UserName = fallback
		default:
			orders[i].UserName = u.Name
		}
	}
}

func ownOrders(orders []models.Order, userID int) []models.Order {
	out := orders[:0:0]
	for _, o := range orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}

func ordersErrorMessage(err error) string {
	switch backend.StatusOf(err) {
	case http.StatusUnauthorized:
		return "Unauthorized. Please log in again."
	case http.StatusForbidden:
		return "Access denied. Superuser privileges required."
	case http.StatusNotFound:
		return "Orders endpoint not found. Please contact support."
	default:
		return "Failed to fetch orders. Please try again."
	}
}

// SpecificWallet fetches one wallet by id and returns the failure to the
// caller.
func (a *Aggregator) SpecificWallet(ctx context.Context, walletID int) (models.Wallet, error) {
	w, err := a.api.Wallet(ctx, walletID)
	if err != nil {
		log.Printf("[home] fetch wallet %d: %v", walletID, err)
		return models.Wallet{}, err
	}
	if w.WalletID == 0 || w.UserName == "" {
		log.Printf("[home] WARN wallet %d came back incomplete: %+v", walletID, w)
	}
	return w, nil
}

// ClearCart empties the caller's cart on the backend and reloads it.
func (a *Aggregator) ClearCart(ctx context.Context) (string, error) {
	_, userID := a.Identity()
	if userID == 0 {
		if res := a.sess.Current(ctx); res.HasIdentity() {
			userID = res.Session.UserID
		}
	}
	msg, err := a.api.ClearCart(ctx, userID)
	if err != nil {
		log.Printf("[home] clear cart for user %d: %v", userID, err)
		return "", err
	}
	a.RefreshCart(ctx)
	return msg, nil
}
