package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"kiosk/models"
)

func (a *API) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := a.get(ctx, "/api/category", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (a *API) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := a.get(ctx, "/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (a *API) CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error) {
	var p models.Product
	err := a.sendForm(ctx, http.MethodPost, "/api/products", in, &p)
	return p, err
}

func (a *API) UpdateProduct(ctx context.Context, productID int, in models.ProductInput) error {
	return a.sendForm(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", productID), in, nil)
}

func (a *API) DeleteProduct(ctx context.Context, productID int) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", productID), nil, "", nil)
}

func (a *API) sendForm(ctx context.Context, method, path string, in models.ProductInput, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"ProductName", in.ProductName},
		{"Price", in.Price.String()},
		{"Description", in.Description},
		{"CategoryID", strconv.Itoa(in.CategoryID)},
		{"Quantity", strconv.Itoa(in.Quantity)},
		{"IsAvailable", strconv.FormatBool(in.IsAvailable)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	if len(in.Image) > 0 {
		name := in.ImageName
		if name == "" {
			name = "image"
		}
		part, err := mw.CreateFormFile("Image", name)
		if err != nil {
			return err
		}
		if _, err := part.Write(in.Image); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}
	return a.do(ctx, method, path, &buf, mw.FormDataContentType(), out)
}

// Asset downloads a file the backend serves, such as a product image path.
func (a *API) Asset(ctx context.Context, path string) ([]byte, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.url(path), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(resp.StatusCode, raw)
	}
	return raw, nil
}
