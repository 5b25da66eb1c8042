package backend

import (
	"context"
	"fmt"
	"net/http"

	"kiosk/models"
)

func (a *API) CartItems(ctx context.Context, userID int) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := a.get(ctx, fmt.Sprintf("/api/CartItem/user/%d", userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *API) AddCartItem(ctx context.Context, item models.NewCartItem) error {
	return a.sendJSON(ctx, http.MethodPost, "/api/CartItem", item, nil)
}

func (a *API) UpdateCartItem(ctx context.Context, cartItemID, quantity int) error {
	body := struct {
		Quantity int `json:"Quantity"`
	}{quantity}
	return a.sendJSON(ctx, http.MethodPut, fmt.Sprintf("/api/CartItem/%d", cartItemID), body, nil)
}

func (a *API) DeleteCartItem(ctx context.Context, cartItemID int) error {
	return a.do(ctx, http.MethodDelete, fmt.Sprintf("/api/CartItem/%d", cartItemID), nil, "", nil)
}

// ClearCart empties the user's cart and returns the backend's message.
func (a *API) ClearCart(ctx context.Context, userID int) (string, error) {
	raw, err := a.send(ctx, http.MethodDelete, fmt.Sprintf("/api/CartItem/clear/%d", userID), nil, "")
	if err != nil {
		return "", err
	}
	return extractMessage(raw), nil
}

func (a *API) Checkout(ctx context.Context, req models.CheckoutRequest) (models.CheckoutResponse, error) {
	var resp models.CheckoutResponse
	err := a.sendJSON(ctx, http.MethodPost, "/api/CartItem/checkout", req, &resp)
	return resp, err
}

func (a *API) AllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := a.get(ctx, "/api/CartItem/all-orders", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (a *API) UserOrders(ctx context.Context, userID int) ([]models.Order, error) {
	var orders []models.Order
	if err := a.get(ctx, fmt.Sprintf("/api/CartItem/orders/%d", userID), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
