package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (h *Handlers) Home(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	respond(w, t, http.StatusOK, t.Home.Load(r.Context()))
}
