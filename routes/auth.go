package routes

import (
	"net/http"

	"kiosk/models"

	"github.com/julienschmidt/httprouter"
)

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	var creds models.Credentials
	if err := decode(r, &creds); err != nil {
		badRequest(w, t, "Invalid input")
		return
	}
	s, err := t.Auth.Login(r.Context(), creds)
	if err != nil {
		fail(w, t, err, "Something went wrong. Please try again.")
		return
	}
	t.Reset()
	view := t.Home.Load(r.Context())
	respond(w, t, http.StatusOK, map[string]any{
		"userId": s.UserID,
		"role":   s.Role,
		"home":   view,
	})
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	var reg models.Registration
	if err := decode(r, &reg); err != nil {
		badRequest(w, t, "Invalid input")
		return
	}
	msg, err := t.Auth.Register(r.Context(), reg)
	if err != nil {
		fail(w, t, err, "Something went wrong. Please try again.")
		return
	}
	respond(w, t, http.StatusCreated, map[string]string{"message": msg})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	t.Auth.Logout(r.Context())
	t.Home.Load(r.Context())
	respond(w, t, http.StatusOK, map[string]string{"message": "Logged out."})
}
