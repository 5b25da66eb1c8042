package cart

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"kiosk/apperr"
	"kiosk/audit"
	"kiosk/backend/backendtest"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/notify"
	"kiosk/session/sessiontest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClearer struct {
	calls int
	err   error
}

func (c *fakeClearer) ClearCart(context.Context) (string, error) {
	c.calls++
	return "Cart cleared.", c.err
}

type recorder struct {
	mu   sync.Mutex
	recs []audit.Reconciliation
}

func (r *recorder) Record(_ context.Context, rec audit.Reconciliation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recs = append(r.recs, rec)
	return nil
}

func line(id, userID, productID, qty int, price int64) models.CartItem {
	return models.CartItem{
		CartItemID: id,
		UserID:     userID,
		Quantity:   qty,
		Price:      decimal.NewFromInt(price),
		Products:   []models.Product{{ProductID: productID, ProductName: "Item"}},
	}
}

type harness struct {
	fx      *sessiontest.Fixture
	api     *backendtest.Fake
	clearer *fakeClearer
	rec     *recorder
	toasts  *notify.Toasts
	changed int
	flow    *Flow
}

func newHarness(fx *sessiontest.Fixture, items []models.CartItem) *harness {
	h := &harness{
		fx:      fx,
		clearer: &fakeClearer{},
		rec:     &recorder{},
		toasts:  &notify.Toasts{},
	}
	h.api = &backendtest.Fake{
		CartItemsFn: func(int) ([]models.CartItem, error) { return items, nil },
	}
	h.flow = New(fx.Handle, h.api, h.clearer, h.rec,
		WithNotifier(h.toasts),
		WithCartChanged(func(context.Context) { h.changed++ }))
	h.flow.SetItems(items)
	return h
}

func TestUpdateQuantityBelowOneIsNoop(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 2, 100)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)
	before := h.flow.State()

	for _, q := range []int{0, -1, -50} {
		require.NoError(t, h.flow.UpdateQuantity(context.Background(), 1, q))
	}

	assert.Empty(t, h.api.Calls())
	assert.Equal(t, before, h.flow.State())
}

func TestUpdateQuantityRefetches(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), nil)
	h.api.UpdateCartItemFn = func(id, q int) error {
		assert.Equal(t, 1, id)
		assert.Equal(t, 3, q)
		return nil
	}
	h.api.CartItemsFn = func(userID int) ([]models.CartItem, error) {
		assert.Equal(t, 7, userID)
		return []models.CartItem{line(1, 7, 9, 3, 300)}, nil
	}

	require.NoError(t, h.flow.UpdateQuantity(context.Background(), 1, 3))
	assert.Equal(t, []string{"UpdateCartItem", "CartItems"}, h.api.Calls())
	assert.Equal(t, 3, h.flow.State().Count)
	assert.Equal(t, 1, h.changed)
}

func TestUpdateQuantityErrors(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{backendtest.Status(http.StatusBadRequest, "Only 2 left."), "Only 2 left."},
		{backendtest.Status(http.StatusBadRequest, ""), "Invalid quantity or insufficient stock."},
		{backendtest.Status(http.StatusNotFound, ""), "Cart item not found."},
		{backendtest.Status(http.StatusInternalServerError, "db down"), "Failed to update quantity."},
	}
	for _, tc := range cases {
		h := newHarness(sessiontest.LoggedIn(7, ""), nil)
		h.api.UpdateCartItemFn = func(int, int) error { return tc.err }

		err := h.flow.UpdateQuantity(context.Background(), 1, 2)
		require.Error(t, err)
		assert.Equal(t, tc.want, apperr.Message(err, ""))
		assert.Equal(t, tc.want, h.flow.State().Error)
		assert.Zero(t, h.api.Count("CartItems"))
	}
}

func TestRemoveUnauthorizedLogsOutAfterDelay(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), nil)
	h.api.DeleteCartItemFn = func(int) error { return backendtest.Status(http.StatusUnauthorized, "") }

	err := h.flow.Remove(context.Background(), 1)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	assert.Equal(t, "Unauthorized. Please log in again.", h.flow.State().Error)

	assert.Zero(t, h.fx.Nav.Count(), "logout waits for the timer")
	assert.Equal(t, []time.Duration{globals.LogoutDelay}, h.fx.Timer.Delays)
	h.fx.Timer.Fire()
	assert.Equal(t, 1, h.fx.Nav.Count())
}

func TestRemoveNotFound(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), nil)
	h.api.DeleteCartItemFn = func(int) error { return backendtest.Status(http.StatusNotFound, "") }

	err := h.flow.Remove(context.Background(), 1)
	assert.Equal(t, "Cart item not found.", apperr.Message(err, ""))
	assert.Empty(t, h.fx.Timer.Delays)
}

func TestTotals(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 1, 100), line(2, 7, 10, 2, 250)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)

	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))
	assert.Equal(t, "350.00", h.flow.Totals().Total.StringFixed(2))

	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryDelivery))
	assert.Equal(t, "410.00", h.flow.Totals().Total.StringFixed(2))
	assert.True(t, decimal.NewFromInt(350).Equal(h.flow.Totals().Subtotal))

	assert.Error(t, h.flow.SelectDelivery("Drone"))
}

func TestCheckoutRequiresDelivery(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), []models.CartItem{line(1, 7, 9, 1, 100)})

	_, err := h.flow.Checkout(context.Background())
	assert.Equal(t, "Please select Pickup or Delivery.", apperr.Message(err, ""))
	assert.Empty(t, h.api.Calls())
}

func TestCheckoutExpiredSession(t *testing.T) {
	fx := sessiontest.New(sessiontest.Token(7, "", time.Now().Add(-time.Minute)))
	h := newHarness(fx, []models.CartItem{line(1, 7, 9, 1, 100)})
	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))

	_, err := h.flow.Checkout(context.Background())
	assert.Equal(t, "Your session has expired. Please log in again.", apperr.Message(err, ""))
	assert.Empty(t, h.api.Calls())
	assert.Equal(t, []time.Duration{globals.LogoutDelay}, fx.Timer.Delays)
}

func TestCheckoutRejectsForeignItems(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 1, 100), line(2, 8, 10, 1, 250)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)
	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))

	_, err := h.flow.Checkout(context.Background())
	assert.Equal(t, "Cart contains items for another user.", apperr.Message(err, ""))
	assert.Zero(t, h.api.Count("Checkout"))
	assert.Zero(t, h.clearer.calls)
}

func TestCheckoutSuccess(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 1, 100), line(2, 7, 10, 2, 250)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)
	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryDelivery))

	var sent models.CheckoutRequest
	h.api.CheckoutFn = func(req models.CheckoutRequest) (models.CheckoutResponse, error) {
		sent = req
		bal := decimal.NewFromInt(90)
		return models.CheckoutResponse{
			OrderID:       55,
			Order:         &models.Order{OrderID: 55, TotalAmount: decimal.NewFromInt(410), WalletID: 3},
			WalletBalance: &bal,
		}, nil
	}

	conf, err := h.flow.Checkout(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 7, sent.UserID)
	assert.Equal(t, globals.DeliveryDelivery, sent.DeliveryOrCollection)
	assert.True(t, decimal.NewFromInt(60).Equal(sent.DeliveryFee))
	require.Len(t, sent.CartItems, 2)
	assert.Equal(t, models.CheckoutLine{CartItemID: 2, ProductID: 10, Quantity: 2, Price: decimal.NewFromInt(250)}, sent.CartItems[1])

	assert.Equal(t, 55, conf.OrderID)
	assert.Equal(t, "410.00", conf.Total.StringFixed(2))
	assert.False(t, conf.Mismatch)
	require.NotNil(t, conf.WalletBalance)
	assert.True(t, decimal.NewFromInt(90).Equal(*conf.WalletBalance))
	assert.Zero(t, h.api.Count("Wallet"))

	assert.Equal(t, 1, h.clearer.calls)
	assert.Equal(t, 1, h.changed)
	assert.Empty(t, h.flow.State().Delivery, "delivery selection resets")
	require.Len(t, h.rec.recs, 1)
	assert.False(t, h.rec.recs[0].Mismatch)
	assert.Equal(t, "t1", h.rec.recs[0].Terminal)
}

func TestCheckoutMismatchUsesBackendTotal(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 1, 100)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)
	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))
	h.api.CheckoutFn = func(models.CheckoutRequest) (models.CheckoutResponse, error) {
		return models.CheckoutResponse{OrderID: 5, Order: &models.Order{TotalAmount: decimal.NewFromInt(95), WalletID: 3}}, nil
	}
	h.api.WalletFn = func(id int) (models.Wallet, error) {
		assert.Equal(t, 3, id)
		return models.Wallet{WalletID: 3, Balance: decimal.NewFromInt(5)}, nil
	}

	conf, err := h.flow.Checkout(context.Background())
	require.NoError(t, err)
	assert.True(t, conf.Mismatch)
	assert.True(t, decimal.NewFromInt(95).Equal(conf.Total))
	assert.True(t, decimal.NewFromInt(100).Equal(conf.ClientTotal))
	require.NotNil(t, conf.WalletBalance)
	assert.True(t, decimal.NewFromInt(5).Equal(*conf.WalletBalance))
	require.Len(t, h.rec.recs, 1)
	assert.True(t, h.rec.recs[0].Mismatch)
}

func TestCheckoutErrors(t *testing.T) {
	cases := []struct {
		err    error
		want   string
		logout bool
	}{
		{backendtest.Status(http.StatusUnauthorized, ""), "Unauthorized. Please log in again.", true},
		{backendtest.Status(http.StatusBadRequest, "Insufficient balance in wallet."), "Insufficient wallet balance.", false},
		{backendtest.Status(http.StatusBadRequest, "Product out of stock."), "Product out of stock.", false},
		{backendtest.Status(http.StatusNotFound, ""), "Checkout endpoint not found. Please contact support.", false},
		{backendtest.Status(http.StatusInternalServerError, ""), "Checkout failed. Please try again.", false},
	}
	for _, tc := range cases {
		fx := sessiontest.LoggedIn(7, "")
		h := newHarness(fx, []models.CartItem{line(1, 7, 9, 1, 100)})
		require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))
		h.api.CheckoutFn = func(models.CheckoutRequest) (models.CheckoutResponse, error) {
			return models.CheckoutResponse{}, tc.err
		}

		_, err := h.flow.Checkout(context.Background())
		assert.Equal(t, tc.want, apperr.Message(err, ""))
		assert.Equal(t, tc.logout, len(fx.Timer.Delays) == 1, tc.want)
		assert.Zero(t, h.clearer.calls)
		assert.Equal(t, globals.DeliveryPickup, h.flow.State().Delivery, "selection kept on failure")
	}
}

func TestCheckoutFallsBackToHeldCart(t *testing.T) {
	items := []models.CartItem{line(1, 7, 9, 1, 100)}
	h := newHarness(sessiontest.LoggedIn(7, ""), items)
	require.NoError(t, h.flow.SelectDelivery(globals.DeliveryPickup))
	h.api.CartItemsFn = func(int) ([]models.CartItem, error) {
		return nil, backendtest.Status(http.StatusInternalServerError, "")
	}
	var sent models.CheckoutRequest
	h.api.CheckoutFn = func(req models.CheckoutRequest) (models.CheckoutResponse, error) {
		sent = req
		return models.CheckoutResponse{OrderID: 1}, nil
	}

	_, err := h.flow.Checkout(context.Background())
	require.NoError(t, err)
	require.Len(t, sent.CartItems, 1)
	assert.Equal(t, "Failed to refresh cart. Using local data.", h.flow.State().Error)
}

func TestBusyRejectsSecondSubmission(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), nil)
	started := make(chan struct{})
	release := make(chan struct{})
	h.api.UpdateCartItemFn = func(int, int) error {
		close(started)
		<-release
		return nil
	}

	done := make(chan error)
	go func() { done <- h.flow.UpdateQuantity(context.Background(), 1, 2) }()
	<-started

	err := h.flow.Remove(context.Background(), 1)
	assert.Equal(t, apperr.KindBusy, apperr.KindOf(err))
	assert.True(t, h.flow.State().Loading)

	close(release)
	require.NoError(t, <-done)
	assert.Zero(t, h.api.Count("DeleteCartItem"))
}

func TestAddToCart(t *testing.T) {
	h := newHarness(sessiontest.LoggedIn(7, ""), nil)
	var decremented []int
	h.flow.onProductAdded = func(id int) { decremented = append(decremented, id) }
	h.api.AddCartItemFn = func(item models.NewCartItem) error {
		assert.Equal(t, models.NewCartItem{UserID: 7, ProductID: 9, Quantity: 1}, item)
		return nil
	}

	require.NoError(t, h.flow.AddToCart(context.Background(), models.Product{ProductID: 9, ProductName: "Muffin"}))
	assert.Equal(t, []int{9}, decremented)
	assert.Equal(t, 1, h.changed)
	got := h.toasts.Drain()
	require.Len(t, got, 1)
	assert.Equal(t, "Muffin added to cart.", got[0].Message)
}

func TestAddToCartNeedsSession(t *testing.T) {
	h := newHarness(sessiontest.New(""), nil)

	err := h.flow.AddToCart(context.Background(), models.Product{ProductID: 9})
	assert.Equal(t, "Please log in to add items to cart.", apperr.Message(err, ""))
	assert.Empty(t, h.api.Calls())
}
