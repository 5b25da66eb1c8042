package routes

import (
	"net/http"

	"kiosk/globals"

	"github.com/julienschmidt/httprouter"
)

func (h *Handlers) Wallet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	ensureHome(r.Context(), t)
	t.Home.RefreshWallet(r.Context())
	v := t.Home.View()
	respond(w, t, http.StatusOK, map[string]any{"walletId": v.WalletID, "balance": v.Balance})
}

// WalletOptions opens the funding form and lists the wallets a super user
// may fund, narrowed by ?q=.
func (h *Handlers) WalletOptions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	ensureHome(r.Context(), t)
	if err := t.Funding.Open(r.Context(), t.Home.View().WalletID); err != nil {
		fail(w, t, err, "Failed to load wallets. Try again later.")
		return
	}
	t.Funding.Search(r.URL.Query().Get("q"))
	respond(w, t, http.StatusOK, t.Funding.State())
}

func (h *Handlers) FundWallet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	if !requireSession(w, r, t) {
		return
	}
	var body struct {
		WalletID int    `json:"walletId"`
		Amount   string `json:"amount"`
	}
	if err := decode(r, &body); err != nil {
		badRequest(w, t, "Invalid input")
		return
	}
	if !t.Funding.OpenedFor(r.Context()) {
		ensureHome(r.Context(), t)
		if err := t.Funding.Open(r.Context(), t.Home.View().WalletID); err != nil {
			fail(w, t, err, "Failed to load wallets. Try again later.")
			return
		}
	}
	if body.WalletID != 0 && t.Funding.State().Role == globals.RoleSuper {
		if err := t.Funding.Select(body.WalletID); err != nil {
			fail(w, t, err, "Only a super user can choose a wallet.")
			return
		}
	}
	msg, err := t.Funding.Fund(r.Context(), body.Amount)
	if err != nil {
		fail(w, t, err, "Failed to fund wallet. Please try again.")
		return
	}
	t.Toasts.Success(msg)
	respond(w, t, http.StatusOK, map[string]any{"message": msg, "balance": t.Home.View().Balance})
}
