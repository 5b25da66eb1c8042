package routes

import (
	"net/http"

	"kiosk/apperr"
	"kiosk/receipt"
	"kiosk/utils"

	"github.com/julienschmidt/httprouter"
)

func (h *Handlers) Cart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	if err := t.Cart.Refresh(r.Context()); err != nil && apperr.KindOf(err) != apperr.KindGeneric {
		fail(w, t, err, "Failed to refresh cart. Using local data.")
		return
	}
	respond(w, t, http.StatusOK, t.Cart.State())
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	var body struct {
		ProductID int `json:"productId"`
	}
	if err := decode(r, &body); err != nil || body.ProductID <= 0 {
		badRequest(w, t, "Invalid product id.")
		return
	}
	p, ok := t.Catalog.Find(body.ProductID)
	if !ok {
		_ = t.Catalog.Load(r.Context())
		p, ok = t.Catalog.Find(body.ProductID)
	}
	if !ok {
		fail(w, t, apperr.New("add to cart", apperr.KindNotFound, "Product not found.", nil), "Product not found.")
		return
	}
	if !p.InStock() {
		fail(w, t, apperr.New("add to cart", apperr.KindDomain, "This product is out of stock.", nil), "This product is out of stock.")
		return
	}
	if err := t.Cart.AddToCart(r.Context(), p); err != nil {
		fail(w, t, err, "Failed to add item to cart.")
		return
	}
	respond(w, t, http.StatusCreated, t.Cart.State())
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t := h.terminal(r)
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, t, "Invalid cart item id.")
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, t, "Invalid input")
		return
	}
	if err := t.Cart.UpdateQuantity(r.Context(), id, body.Quantity); err != nil {
		fail(w, t, err, "Failed to update quantity.")
		return
	}
	respond(w, t, http.StatusOK, t.Cart.State())
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t := h.terminal(r)
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, t, "Invalid cart item id.")
		return
	}
	if err := t.Cart.Remove(r.Context(), id); err != nil {
		fail(w, t, err, "Failed to remove item.")
		return
	}
	respond(w, t, http.StatusOK, t.Cart.State())
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	ensureHome(r.Context(), t)
	msg, err := t.Cart.Clear(r.Context())
	if err != nil {
		fail(w, t, err, "Failed to clear cart.")
		return
	}
	respond(w, t, http.StatusOK, map[string]any{"message": msg, "cart": t.Cart.State()})
}

func (h *Handlers) SelectDelivery(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	var body struct {
		Option string `json:"option"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, t, "Invalid input")
		return
	}
	if err := t.Cart.SelectDelivery(body.Option); err != nil {
		fail(w, t, err, "Please select Pickup or Delivery.")
		return
	}
	respond(w, t, http.StatusOK, t.Cart.State())
}

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	ensureHome(r.Context(), t)
	conf, err := t.Cart.Checkout(r.Context())
	if err != nil {
		fail(w, t, err, "Checkout failed. Please try again.")
		return
	}
	respond(w, t, http.StatusOK, conf)
}

// DismissCart closes the cart view, clearing its error and confirmation.
func (h *Handlers) DismissCart(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	t.Cart.Dismiss()
	respond(w, t, http.StatusOK, t.Cart.State())
}

// ConfirmationReceipt renders the receipt for the last checkout.
func (h *Handlers) ConfirmationReceipt(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	conf := t.Cart.Confirmation()
	if conf == nil || conf.UserID != t.Session.Current(r.Context()).Session.UserID {
		fail(w, t, apperr.New("receipt", apperr.KindNotFound, "No order to print.", nil), "No order to print.")
		return
	}
	writeReceipt(w, r, t, receipt.FromConfirmation(conf))
}
