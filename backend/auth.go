package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"kiosk/models"
)

// Login exchanges credentials for a bearer token.
func (a *API) Login(ctx context.Context, creds models.Credentials) (string, error) {
	var resp models.LoginResponse
	if err := a.sendJSON(ctx, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login response carried no token")
	}
	return resp.Token, nil
}

func (a *API) Register(ctx context.Context, reg models.Registration) error {
	return a.sendJSON(ctx, http.MethodPost, "/api/user/register", reg, nil)
}

func (a *API) User(ctx context.Context, userID int) (models.User, error) {
	var u models.User
	err := a.get(ctx, fmt.Sprintf("/api/user/%d", userID), &u)
	return u, err
}
