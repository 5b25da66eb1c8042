package routes

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"kiosk/apperr"
	"kiosk/middleware"
	"kiosk/notify"
	"kiosk/terminal"
	"kiosk/utils"
)

// Handlers serves the kiosk pages. Every handler works on the terminal named
// by the request's terminal cookie.
type Handlers struct {
	reg *terminal.Registry
}

func NewHandlers(reg *terminal.Registry) *Handlers {
	return &Handlers{reg: reg}
}

func (h *Handlers) terminal(r *http.Request) *terminal.Terminal {
	return h.reg.Get(middleware.TerminalFrom(r.Context()))
}

// envelope carries the payload together with the terminal's pending toasts.
type envelope struct {
	Data   any            `json:"data,omitempty"`
	Error  string         `json:"error,omitempty"`
	Toasts []notify.Toast `json:"toasts"`
}

func respond(w http.ResponseWriter, t *terminal.Terminal, status int, data any) {
	utils.RespondWithJSON(w, status, envelope{Data: data, Toasts: t.Toasts.Drain()})
}

// fail answers with the status for err's kind and its user-facing message.
func fail(w http.ResponseWriter, t *terminal.Terminal, err error, fallback string) {
	status := apperr.HTTPStatus(apperr.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Printf("[routes] %s: %v", t.ID, err)
	}
	utils.RespondWithJSON(w, status, envelope{Error: apperr.Message(err, fallback), Toasts: t.Toasts.Drain()})
}

func badRequest(w http.ResponseWriter, t *terminal.Terminal, msg string) {
	fail(w, t, apperr.Validation("decode request", msg), msg)
}

func decode(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(v)
}

// role is the role of a valid session, or "" for guests.
func role(ctx context.Context, t *terminal.Terminal) string {
	res := t.Session.Current(ctx)
	if !res.Valid() {
		return ""
	}
	return res.Session.Role
}

// ensureHome loads the home state once so flows that read the caller's
// identity and wallet have it.
func ensureHome(ctx context.Context, t *terminal.Terminal) {
	if _, userID := t.Home.Identity(); userID == 0 {
		t.Home.Load(ctx)
	}
}

// requireSession answers 401 and sends the terminal to login when it has no
// valid session.
func requireSession(w http.ResponseWriter, r *http.Request, t *terminal.Terminal) bool {
	if t.Session.IsValid(r.Context()) {
		return true
	}
	t.Session.Logout(r.Context())
	fail(w, t, apperr.New("session", apperr.KindUnauthorized, "Please log in to continue.", nil), "Please log in to continue.")
	return false
}
