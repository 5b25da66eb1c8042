package products

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"

	"kiosk/apperr"
	"kiosk/backend"
	"kiosk/models"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
)

const maxImageBytes = 2 << 20

// Form is the product maintenance form as submitted by the browser.
type Form struct {
	ProductName string
	Price       string
	Description string
	CategoryID  string
	Quantity    string
	IsAvailable *bool
	Image       []byte
	ImageName   string
}

// CheckImage accepts JPEG or PNG files up to 2 MiB that actually decode.
func CheckImage(data []byte) error {
	const op = "check image"
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
	default:
		return apperr.Validation(op, "Invalid file type. Please upload a JPEG or PNG image.")
	}
	if len(data) > maxImageBytes {
		return apperr.Validation(op, "File size exceeds 2MB.")
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return apperr.New(op, apperr.KindValidation, "Invalid file type. Please upload a JPEG or PNG image.", err)
	}
	return nil
}

// Validate checks f against the held products and builds the backend input.
// editingID is 0 when creating.
func (c *Catalog) Validate(f Form, editingID int) (models.ProductInput, error) {
	const op = "validate product"

	name := strings.TrimSpace(f.ProductName)
	if name == "" || strings.TrimSpace(f.Price) == "" || strings.TrimSpace(f.Description) == "" ||
		strings.TrimSpace(f.CategoryID) == "" || strings.TrimSpace(f.Quantity) == "" {
		return models.ProductInput{}, apperr.Validation(op, "Please fill in all required fields.")
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(f.Quantity))
	if err != nil || quantity < 0 {
		return models.ProductInput{}, apperr.Validation(op, "Please enter a valid quantity.")
	}
	price, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(f.Price), ",", "."))
	if err != nil || price.IsNegative() {
		return models.ProductInput{}, apperr.Validation(op, "Please enter a valid price.")
	}
	categoryID, err := strconv.Atoi(strings.TrimSpace(f.CategoryID))
	if err != nil || categoryID <= 0 {
		return models.ProductInput{}, apperr.Validation(op, "Please fill in all required fields.")
	}

	c.mu.Lock()
	duplicate := false
	for _, p := range c.products {
		if strings.EqualFold(strings.TrimSpace(p.ProductName), name) && p.ProductID != editingID {
			duplicate = true
			break
		}
	}
	c.mu.Unlock()
	if duplicate {
		return models.ProductInput{}, apperr.Validation(op, "Product name already exists. Please choose a different name.")
	}

	if len(f.Image) == 0 {
		if editingID == 0 {
			return models.ProductInput{}, apperr.Validation(op, "Please upload a product image.")
		}
	} else if err := CheckImage(f.Image); err != nil {
		return models.ProductInput{}, err
	}

	available := true
	if editingID != 0 && f.IsAvailable != nil {
		available = *f.IsAvailable
	}
	return models.ProductInput{
		ProductName: f.ProductName,
		Price:       price,
		Description: f.Description,
		CategoryID:  categoryID,
		Quantity:    quantity,
		IsAvailable: available,
		Image:       f.Image,
		ImageName:   f.ImageName,
	}, nil
}

func (c *Catalog) requireElevated(ctx context.Context, op string) error {
	res := c.sess.Current(ctx)
	if !res.Valid() || !res.Session.Elevated() {
		return apperr.New(op, apperr.KindForbidden, "Access denied. Superuser privileges required.", nil)
	}
	return nil
}

func productError(op string, err error, fallback string) error {
	return apperr.New(op, apperr.KindForStatus(backend.StatusOf(err)), backend.MessageOf(err, fallback), err)
}

// Save creates the product when editingID is 0 and updates it otherwise,
// then reloads the catalog.
func (c *Catalog) Save(ctx context.Context, f Form, editingID int) (string, error) {
	const op = "save product"
	if err := c.requireElevated(ctx, op); err != nil {
		return "", err
	}
	in, err := c.Validate(f, editingID)
	if err != nil {
		c.notify.Error(apperr.Message(err, "An error occurred"))
		return "", err
	}

	msg := "Product added successfully."
	if editingID == 0 {
		_, err = c.api.CreateProduct(ctx, in)
	} else {
		err = c.api.UpdateProduct(ctx, editingID, in)
		msg = "Product updated successfully."
	}
	if err != nil {
		log.Printf("[products] save product %d: %v", editingID, err)
		e := productError(op, err, "An error occurred")
		c.notify.Error(apperr.Message(e, "An error occurred"))
		return "", e
	}

	c.notify.Success(msg)
	if err := c.Load(ctx); err != nil {
		log.Printf("[products] reload after save: %v", err)
	}
	return msg, nil
}

// Delete removes the product on the backend and from the held list.
func (c *Catalog) Delete(ctx context.Context, productID int) error {
	const op = "delete product"
	if err := c.requireElevated(ctx, op); err != nil {
		return err
	}
	if err := c.api.DeleteProduct(ctx, productID); err != nil {
		log.Printf("[products] delete product %d: %v", productID, err)
		c.notify.Error("Failed to delete product.")
		return apperr.New(op, apperr.KindForStatus(backend.StatusOf(err)), "Failed to delete product.", err)
	}
	c.remove(productID)
	c.notify.Success("Product deleted successfully.")
	return nil
}
