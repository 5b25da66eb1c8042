package routes

import (
	"fmt"
	"net/http"

	"kiosk/apperr"
	"kiosk/orders"
	"kiosk/receipt"
	"kiosk/terminal"
	"kiosk/utils"

	"github.com/julienschmidt/httprouter"
)

// Orders renders the history with the filters, sort and reveal in the query.
// sort names a column click; more=1 reveals another step.
func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	q := r.URL.Query()

	from, err := orders.ParseDate(q.Get("from"), false)
	if err != nil {
		badRequest(w, t, "Invalid start date.")
		return
	}
	to, err := orders.ParseDate(q.Get("to"), true)
	if err != nil {
		badRequest(w, t, "Invalid end date.")
		return
	}

	ensureHome(r.Context(), t)
	t.Home.FetchOrders(r.Context())
	v := t.Home.View()
	if v.OrdersError != "" {
		fail(w, t, apperr.New("fetch orders", v.OrdersErrKind, v.OrdersError, nil), v.OrdersError)
		return
	}

	t.Orders.SetFilters(orders.Filters{Status: q.Get("status"), UserSearch: q.Get("user"), From: from, To: to})
	if key := q.Get("sort"); key != "" {
		t.Orders.SortBy(key)
	}
	if q.Get("more") == "1" {
		t.Orders.ShowMore()
	}
	respond(w, t, http.StatusOK, t.Orders.Apply(v.Orders, v.Role))
}

func (h *Handlers) ToggleOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t := h.terminal(r)
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, t, "Invalid order id.")
		return
	}
	respond(w, t, http.StatusOK, map[string]any{"orderId": id, "expanded": t.Orders.Toggle(id)})
}

func (h *Handlers) OrderReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, t, "Invalid order id.")
		return
	}
	ensureHome(r.Context(), t)
	for _, o := range t.Home.View().Orders {
		if o.OrderID == id {
			writeReceipt(w, r, t, receipt.FromOrder(o))
			return
		}
	}
	fail(w, t, apperr.New("receipt", apperr.KindNotFound, "Order not found.", nil), "Order not found.")
}

func writeReceipt(w http.ResponseWriter, r *http.Request, t *terminal.Terminal, rc receipt.Receipt) {
	pdf, err := receipt.Render(r.Context(), rc, t.Backend)
	if err != nil {
		fail(w, t, apperr.New("receipt", apperr.KindGeneric, "Failed to generate receipt.", err), "Failed to generate receipt.")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", rc.Filename()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
