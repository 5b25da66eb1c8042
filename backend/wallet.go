package backend

import (
	"context"
	"fmt"
	"net/http"

	"kiosk/models"
)

func (a *API) Wallets(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	if err := a.get(ctx, "/api/wallet", &wallets); err != nil {
		return nil, err
	}
	return wallets, nil
}

func (a *API) Wallet(ctx context.Context, walletID int) (models.Wallet, error) {
	var w models.Wallet
	err := a.get(ctx, fmt.Sprintf("/api/wallet/%d", walletID), &w)
	return w, err
}

// MyWallet returns the wallet of the session user.
func (a *API) MyWallet(ctx context.Context) (models.Wallet, error) {
	var w models.Wallet
	err := a.get(ctx, "/api/wallet/me", &w)
	return w, err
}

func (a *API) Deposit(ctx context.Context, walletID int, req models.DepositRequest) error {
	return a.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/api/wallet/%d/deposit", walletID), req, nil)
}
