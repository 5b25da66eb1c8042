package cart

import (
	"context"
	"fmt"
	"log"

	"kiosk/apperr"
	"kiosk/backend"
	"kiosk/models"
)

// AddToCart puts one unit of p in the session user's cart.
func (f *Flow) AddToCart(ctx context.Context, p models.Product) error {
	const op = "add to cart"

	userID := f.userID(ctx)
	if userID <= 0 {
		f.notify.Error("Please log in to add items to cart.")
		return apperr.Validation(op, "Please log in to add items to cart.")
	}
	if err := f.begin(op); err != nil {
		return err
	}
	defer f.end()

	err := f.api.AddCartItem(ctx, models.NewCartItem{UserID: userID, ProductID: p.ProductID, Quantity: 1})
	if err != nil {
		log.Printf("[cart] add product %d for user %d: %v", p.ProductID, userID, err)
		msg := backend.MessageOf(err, "Failed to add item to cart.")
		f.notify.Error(msg)
		return apperr.New(op, apperr.KindForStatus(backend.StatusOf(err)), msg, err)
	}

	if f.onProductAdded != nil {
		f.onProductAdded(p.ProductID)
	}
	f.refresh(ctx)
	f.cartChanged(ctx)
	f.notify.Success(fmt.Sprintf("%s added to cart.", p.ProductName))
	return nil
}
