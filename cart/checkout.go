package cart

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"kiosk/apperr"
	"kiosk/audit"
	"kiosk/backend"
	"kiosk/models"

	"github.com/shopspring/decimal"
)

// Confirmation is what the order confirmation view shows after checkout.
type Confirmation struct {
	OrderID       int               `json:"orderId"`
	Order         *models.Order     `json:"order,omitempty"`
	Lines         []models.CartItem `json:"lines"`
	Delivery      string            `json:"delivery"`
	DeliveryFee   decimal.Decimal   `json:"deliveryFee"`
	ClientTotal   decimal.Decimal   `json:"clientTotal"`
	Total         decimal.Decimal   `json:"total"`
	WalletBalance *decimal.Decimal  `json:"walletBalance,omitempty"`
	Mismatch      bool              `json:"-"`
	UserID        int               `json:"-"`
}

var errForeignItems = errors.New("cart holds another user's items")

// Checkout converts the cart into an order. The cart is refetched first and
// rejected if any item belongs to someone other than the session user. The
// backend's total is the one displayed; a disagreement with the client total
// is logged and audited.
func (f *Flow) Checkout(ctx context.Context) (*Confirmation, error) {
	const op = "checkout"

	f.mu.Lock()
	delivery := f.delivery
	f.mu.Unlock()
	if delivery == "" {
		return nil, f.fail(apperr.Validation(op, "Please select Pickup or Delivery."))
	}

	if !f.sess.IsValid(ctx) {
		f.sess.LogoutAfter(f.logoutDelay)
		return nil, f.fail(apperr.New(op, apperr.KindUnauthorized, "Your session has expired. Please log in again.", nil))
	}

	if err := f.begin(op); err != nil {
		return nil, err
	}
	defer f.end()
	f.setError("")

	userID := f.userID(ctx)
	if userID <= 0 {
		return nil, f.fail(apperr.Validation(op, "User ID not found in session. Please log in again."))
	}

	items, _ := f.refresh(ctx)
	for _, it := range items {
		if it.UserID != userID {
			log.Printf("[checkout] item %d belongs to user %d, session user %d", it.CartItemID, it.UserID, userID)
			return nil, f.fail(apperr.New(op, apperr.KindDomain, "Cart contains items for another user.", errForeignItems))
		}
	}

	totals := ComputeTotals(items, delivery)
	req := models.CheckoutRequest{
		UserID:               userID,
		DeliveryOrCollection: delivery,
		DeliveryFee:          totals.DeliveryFee,
		CartItems:            make([]models.CheckoutLine, 0, len(items)),
	}
	for _, it := range items {
		req.CartItems = append(req.CartItems, models.CheckoutLine{
			CartItemID: it.CartItemID,
			ProductID:  it.Product().ProductID,
			Quantity:   it.Quantity,
			Price:      it.Price,
		})
	}
	log.Printf("[checkout] user=%d items=%d subtotal=%s fee=%s total=%s",
		userID, len(items), totals.Subtotal.StringFixed(2), totals.DeliveryFee.StringFixed(2), totals.Total.StringFixed(2))

	resp, err := f.api.Checkout(ctx, req)
	if err != nil {
		log.Printf("[checkout] user=%d: %v", userID, err)
		return nil, f.fail(f.checkoutError(err))
	}

	conf := &Confirmation{
		OrderID:     resp.OrderID,
		Order:       resp.Order,
		Lines:       items,
		Delivery:    delivery,
		DeliveryFee: totals.DeliveryFee,
		ClientTotal: totals.Total,
		Total:       totals.Total,
		UserID:      userID,
	}
	if resp.Order != nil && !resp.Order.TotalAmount.IsZero() {
		conf.Total = resp.Order.TotalAmount
		if audit.Mismatch(totals.Total, conf.Total) {
			conf.Mismatch = true
			log.Printf("[checkout] WARN total mismatch on order %d: client %s vs backend %s",
				resp.OrderID, totals.Total.StringFixed(2), conf.Total.StringFixed(2))
		}
	}
	if conf.OrderID == 0 && resp.Order != nil {
		conf.OrderID = resp.Order.OrderID
	}

	conf.WalletBalance = resp.WalletBalance
	if conf.WalletBalance == nil && resp.Order != nil && resp.Order.WalletID != 0 {
		w, err := f.api.Wallet(ctx, resp.Order.WalletID)
		if err != nil {
			log.Printf("[checkout] fetch wallet %d: %v", resp.Order.WalletID, err)
			f.setError("Failed to fetch updated wallet balance.")
		} else {
			bal := w.Balance
			conf.WalletBalance = &bal
		}
	}

	rec := audit.NewReconciliation(f.sess.Terminal(), userID, conf.OrderID, delivery, totals.Total, conf.Total)
	if err := f.audit.Record(ctx, rec); err != nil {
		log.Printf("[checkout] record reconciliation for order %d: %v", conf.OrderID, err)
	}

	if _, err := f.clearer.ClearCart(ctx); err != nil {
		log.Printf("[checkout] clear cart after order %d: %v", conf.OrderID, err)
	}
	f.refresh(ctx)
	f.cartChanged(ctx)

	f.mu.Lock()
	f.delivery = ""
	f.confirmed = conf
	f.mu.Unlock()
	return conf, nil
}

func (f *Flow) checkoutError(err error) *apperr.Error {
	const op = "checkout"
	status := backend.StatusOf(err)
	msg := backend.MessageOf(err, "")
	switch {
	case status == http.StatusUnauthorized:
		f.sess.LogoutAfter(f.logoutDelay)
		return apperr.New(op, apperr.KindUnauthorized, "Unauthorized. Please log in again.", err)
	case status == http.StatusBadRequest && strings.Contains(strings.ToLower(msg), "balance"):
		return apperr.New(op, apperr.KindDomain, "Insufficient wallet balance.", err)
	case status == http.StatusNotFound:
		return apperr.New(op, apperr.KindNotFound, "Checkout endpoint not found. Please contact support.", err)
	case msg != "":
		return apperr.New(op, apperr.KindForStatus(status), msg, err)
	default:
		return apperr.New(op, apperr.KindGeneric, "Checkout failed. Please try again.", err)
	}
}

// Confirmation returns the last confirmed order, if any.
func (f *Flow) Confirmation() *Confirmation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmed
}
