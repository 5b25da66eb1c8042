package routes

import (
	"io"
	"net/http"
	"strconv"

	"kiosk/apperr"
	"kiosk/products"
	"kiosk/utils"

	"github.com/julienschmidt/httprouter"
)

const maxUpload = 3 << 20

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	t := h.terminal(r)
	q := r.URL.Query()
	category, _ := strconv.Atoi(q.Get("category"))
	page, _ := strconv.Atoi(q.Get("page"))

	if err := t.Catalog.Load(r.Context()); err != nil {
		fail(w, t, apperr.New("list products", apperr.KindGeneric, "Failed to fetch data.", err), "Failed to fetch data.")
		return
	}
	t.Catalog.SetFilter(category, q.Get("search"))
	if page > 0 {
		t.Catalog.SetPage(page)
	}
	respond(w, t, http.StatusOK, t.Catalog.Listing(role(r.Context(), t)))
}

func productForm(r *http.Request) (products.Form, error) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		return products.Form{}, err
	}
	f := products.Form{
		ProductName: r.FormValue("ProductName"),
		Price:       r.FormValue("Price"),
		Description: r.FormValue("Description"),
		CategoryID:  r.FormValue("CategoryID"),
		Quantity:    r.FormValue("Quantity"),
	}
	if raw := r.FormValue("IsAvailable"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.IsAvailable = &v
		}
	}
	file, header, err := r.FormFile("Image")
	if err == http.ErrMissingFile {
		return f, nil
	}
	if err != nil {
		return f, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUpload))
	if err != nil {
		return f, err
	}
	f.Image = data
	f.ImageName = header.Filename
	return f, nil
}

func (h *Handlers) saveProduct(w http.ResponseWriter, r *http.Request, productID int) {
	t := h.terminal(r)
	form, err := productForm(r)
	if err != nil {
		badRequest(w, t, "Invalid product form.")
		return
	}
	msg, err := t.Catalog.Save(r.Context(), form, productID)
	if err != nil {
		fail(w, t, err, "An error occurred")
		return
	}
	status := http.StatusOK
	if productID == 0 {
		status = http.StatusCreated
	}
	respond(w, t, status, map[string]string{"message": msg})
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.saveProduct(w, r, 0)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, h.terminal(r), "Invalid product id.")
		return
	}
	h.saveProduct(w, r, id)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	t := h.terminal(r)
	id, err := utils.IntParam(ps, "id")
	if err != nil {
		badRequest(w, t, "Invalid product id.")
		return
	}
	if err := t.Catalog.Delete(r.Context(), id); err != nil {
		fail(w, t, err, "Failed to delete product.")
		return
	}
	respond(w, t, http.StatusOK, map[string]string{"message": "Product deleted successfully."})
}
