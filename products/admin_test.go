package products

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"testing"

	"kiosk/apperr"
	"kiosk/backend/backendtest"
	"kiosk/globals"
	"kiosk/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func validForm(t *testing.T) Form {
	return Form{
		ProductName: "Rooibos Tea",
		Price:       "24,50",
		Description: "Loose leaf",
		CategoryID:  "1",
		Quantity:    "10",
		Image:       pngBytes(t),
		ImageName:   "tea.png",
	}
}

func TestValidate(t *testing.T) {
	c, _, _ := newCatalog(t, 1, globals.RoleSuper, stock())

	in, err := c.Validate(validForm(t), 0)
	require.NoError(t, err)
	assert.Equal(t, "24.5", in.Price.String())
	assert.Equal(t, 10, in.Quantity)
	assert.True(t, in.IsAvailable)

	tests := []struct {
		name    string
		mutate  func(*Form)
		editing int
		want    string
	}{
		{"missing field", func(f *Form) { f.Description = " " }, 0, "Please fill in all required fields."},
		{"bad quantity", func(f *Form) { f.Quantity = "-2" }, 0, "Please enter a valid quantity."},
		{"duplicate name", func(f *Form) { f.ProductName = "FANTA" }, 0, "Product name already exists. Please choose a different name."},
		{"no image on create", func(f *Form) { f.Image = nil }, 0, "Please upload a product image."},
		{"wrong type", func(f *Form) { f.Image = []byte("GIF89a not really") }, 0, "Invalid file type. Please upload a JPEG or PNG image."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm(t)
			tt.mutate(&f)
			_, err := c.Validate(f, tt.editing)
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, tt.want, apperr.Message(err, ""))
		})
	}
}

func TestValidateEditKeepsOwnNameAndOptionalImage(t *testing.T) {
	c, _, _ := newCatalog(t, 1, globals.RoleSuper, stock())

	off := false
	f := validForm(t)
	f.ProductName = "fanta"
	f.Image = nil
	f.IsAvailable = &off

	in, err := c.Validate(f, 2)
	require.NoError(t, err)
	assert.False(t, in.IsAvailable)
	assert.Nil(t, in.Image)
}

func TestCheckImageSize(t *testing.T) {
	big := append(pngBytes(t), make([]byte, maxImageBytes)...)
	err := CheckImage(big)
	require.Error(t, err)
	assert.Equal(t, "File size exceeds 2MB.", apperr.Message(err, ""))

	require.NoError(t, CheckImage(pngBytes(t)))
}

func TestSaveCreatesAndReloads(t *testing.T) {
	c, api, toasts := newCatalog(t, 1, globals.RoleSuper, stock())
	var sent models.ProductInput
	api.CreateProductFn = func(in models.ProductInput) (models.Product, error) {
		sent = in
		return models.Product{ProductID: 9}, nil
	}

	msg, err := c.Save(context.Background(), validForm(t), 0)
	require.NoError(t, err)
	assert.Equal(t, "Product added successfully.", msg)
	assert.Equal(t, "Rooibos Tea", sent.ProductName)
	assert.Equal(t, 2, api.Count("Products"))
	assert.Equal(t, "Product added successfully.", toasts.Drain()[0].Message)
}

func TestSaveSurfacesBackendMessage(t *testing.T) {
	c, api, toasts := newCatalog(t, 1, globals.RoleSuper, stock())
	api.UpdateProductFn = func(int, models.ProductInput) error {
		return backendtest.Status(http.StatusBadRequest, "Category does not exist")
	}

	f := validForm(t)
	f.ProductName = "coca cola"
	_, err := c.Save(context.Background(), f, 1)
	require.Error(t, err)
	assert.Equal(t, "Category does not exist", apperr.Message(err, ""))
	assert.Equal(t, "Category does not exist", toasts.Drain()[0].Message)
}

func TestMaintenanceRequiresSuperUser(t *testing.T) {
	c, api, _ := newCatalog(t, 7, globals.RoleUser, stock())

	_, err := c.Save(context.Background(), validForm(t), 0)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(c.Delete(context.Background(), 1)))
	assert.Zero(t, api.Count("CreateProduct"))
	assert.Zero(t, api.Count("DeleteProduct"))
}

func TestDeleteRemovesLocally(t *testing.T) {
	c, api, toasts := newCatalog(t, 1, globals.RoleSuper, stock())
	api.DeleteProductFn = func(int) error { return nil }

	require.NoError(t, c.Delete(context.Background(), 3))
	_, ok := c.Find(3)
	assert.False(t, ok)
	assert.Equal(t, "Product deleted successfully.", toasts.Drain()[0].Message)

	api.DeleteProductFn = func(int) error { return backendtest.Status(http.StatusInternalServerError, "boom") }
	err := c.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, "Failed to delete product.", apperr.Message(err, ""))
	_, ok = c.Find(1)
	assert.True(t, ok)
}
