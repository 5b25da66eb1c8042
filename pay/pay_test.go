package pay

import (
	"context"
	"net/http"
	"testing"
	"time"

	"kiosk/apperr"
	"kiosk/backend/backendtest"
	"kiosk/globals"
	"kiosk/home"
	"kiosk/models"
	"kiosk/notify"
	"kiosk/session/sessiontest"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allWallets() ([]models.Wallet, error) {
	return []models.Wallet{
		{WalletID: 1, UserID: 1, UserName: "Kiosk", Email: "kiosk@singular.co.za"},
		{WalletID: 2, UserID: 5, UserName: "Thandi Mokoena", Email: "thandi@singular.co.za"},
		{WalletID: 3, UserID: 6, UserName: "Sipho Dlamini", Email: "sipho@singular.co.za"},
		{WalletID: 4, UserID: 0, UserName: "Orphan", Email: "orphan@singular.co.za"},
	}, nil
}

func TestOpenExcludesReservedWallet(t *testing.T) {
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	api := &backendtest.Fake{WalletsFn: allWallets}
	f := New(fx.Handle, api, nil)

	require.NoError(t, f.Open(context.Background(), 1))
	st := f.State()
	require.Len(t, st.Wallets, 3)
	for _, w := range st.Wallets {
		assert.NotEqual(t, globals.ReservedWalletID, w.WalletID)
	}
	assert.Zero(t, st.Selected)
}

func TestOpenFailure(t *testing.T) {
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	api := &backendtest.Fake{WalletsFn: func() ([]models.Wallet, error) {
		return nil, backendtest.Status(http.StatusInternalServerError, "")
	}}
	f := New(fx.Handle, api, nil)

	err := f.Open(context.Background(), 1)
	assert.Equal(t, "Failed to load wallets. Try again later.", apperr.Message(err, ""))
}

func TestStandardUserSelectsOwnWallet(t *testing.T) {
	fx := sessiontest.LoggedIn(5, "")
	api := &backendtest.Fake{}
	f := New(fx.Handle, api, nil)

	require.NoError(t, f.Open(context.Background(), 2))
	assert.Equal(t, 2, f.State().Selected)
	assert.Empty(t, api.Calls())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.Select(3)))
}

func TestSearch(t *testing.T) {
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	f := New(fx.Handle, &backendtest.Fake{WalletsFn: allWallets}, nil)
	require.NoError(t, f.Open(context.Background(), 1))

	got := f.Search("SIPHO@")
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].WalletID)
	assert.Len(t, f.Search("mokoena"), 1)
	assert.Empty(t, f.Search("nobody"))
	assert.Len(t, f.Search(""), 3)
}

func TestRejectsBadAmountsWithoutRequest(t *testing.T) {
	fx := sessiontest.LoggedIn(5, "")
	api := &backendtest.Fake{}
	f := New(fx.Handle, api, nil)
	require.NoError(t, f.Open(context.Background(), 2))

	for _, amount := range []string{"0", "-5", "abc", "", "0.00", "1e"} {
		_, err := f.Fund(context.Background(), amount)
		assert.Equal(t, "Please enter a valid amount greater than zero.", apperr.Message(err, ""), amount)
	}
	assert.Empty(t, api.Calls())
}

func TestSuperUserTargetValidation(t *testing.T) {
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	api := &backendtest.Fake{WalletsFn: allWallets}
	f := New(fx.Handle, api, nil)
	require.NoError(t, f.Open(context.Background(), 1))

	_, err := f.Fund(context.Background(), "10")
	assert.Equal(t, "Please select a valid wallet.", apperr.Message(err, ""))

	require.NoError(t, f.Select(4))
	_, err = f.Fund(context.Background(), "10")
	assert.Equal(t, "Invalid wallet or user ID.", apperr.Message(err, ""))

	require.NoError(t, f.Select(99))
	_, err = f.Fund(context.Background(), "10")
	assert.Equal(t, "Invalid wallet or user ID.", apperr.Message(err, ""))

	assert.Zero(t, api.Count("Deposit"))
}

func TestSuperUserFundsOtherWallet(t *testing.T) {
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	var got models.DepositRequest
	api := &backendtest.Fake{
		WalletsFn: allWallets,
		DepositFn: func(id int, req models.DepositRequest) error {
			assert.Equal(t, 3, id)
			got = req
			return nil
		},
	}
	var called []int
	f := New(fx.Handle, api, func(_ context.Context, amount decimal.Decimal, walletID int, role string) {
		called = append(called, walletID)
		assert.Equal(t, globals.RoleSuper, role)
		assert.False(t, ShouldRefreshOwn(role, 1, walletID))
	})
	require.NoError(t, f.Open(context.Background(), 1))
	f.Search("sipho")
	require.NoError(t, f.Select(3))

	msg, err := f.Fund(context.Background(), "25")
	require.NoError(t, err)
	assert.Equal(t, "Successfully funded R25.00 to Sipho Dlamini's wallet!", msg)
	assert.Equal(t, 6, got.UserID)
	assert.True(t, decimal.NewFromInt(25).Equal(got.Amount))
	assert.Equal(t, []int{3}, called)

	st := f.State()
	assert.Zero(t, st.Selected)
	assert.Empty(t, st.Query)
	assert.Equal(t, msg, st.Confirmation)
}

func TestDepositFailureMessage(t *testing.T) {
	fx := sessiontest.LoggedIn(5, "")
	api := &backendtest.Fake{DepositFn: func(int, models.DepositRequest) error {
		return backendtest.Status(http.StatusBadRequest, "Deposit limit exceeded.")
	}}
	f := New(fx.Handle, api, nil)
	require.NoError(t, f.Open(context.Background(), 2))

	_, err := f.Fund(context.Background(), "10")
	assert.Equal(t, "Deposit limit exceeded.", apperr.Message(err, ""))

	api.DepositFn = func(int, models.DepositRequest) error {
		return backendtest.Status(http.StatusInternalServerError, "")
	}
	_, err = f.Fund(context.Background(), "10")
	assert.Equal(t, "Failed to fund wallet. Please try again.", apperr.Message(err, ""))
}

func TestDepositBalanceIsRefetched(t *testing.T) {
	fx := sessiontest.LoggedIn(5, "")
	balance := decimal.Zero
	api := &backendtest.Fake{
		DepositFn: func(id int, req models.DepositRequest) error {
			assert.Equal(t, 2, id)
			assert.Equal(t, 5, req.UserID)
			balance = balance.Add(req.Amount)
			return nil
		},
		MyWalletFn: func() (models.Wallet, error) {
			return models.Wallet{WalletID: 2, UserID: 5, Balance: balance}, nil
		},
	}
	agg := home.New(fx.Handle, api, api, &notify.Toasts{})
	agg.RefreshWallet(context.Background())
	require.True(t, agg.View().Balance.IsZero())

	f := New(fx.Handle, api, func(ctx context.Context, _ decimal.Decimal, walletID int, role string) {
		if ShouldRefreshOwn(role, 2, walletID) {
			agg.RefreshWallet(ctx)
		}
	})
	require.NoError(t, f.Open(context.Background(), 2))

	msg, err := f.Fund(context.Background(), "100.50")
	require.NoError(t, err)
	assert.Equal(t, "Successfully funded R100.50 to your wallet!", msg)
	assert.Equal(t, "100.50", agg.View().Balance.StringFixed(2))
	assert.Equal(t, 2, api.Count("MyWallet"))
}

func TestFundRefusesFormOpenedByAnotherUser(t *testing.T) {
	ctx := context.Background()
	fx := sessiontest.LoggedIn(7, "")
	api := &backendtest.Fake{}
	f := New(fx.Handle, api, nil)
	require.NoError(t, f.Open(ctx, 3))

	_, err := fx.Handle.Begin(ctx, sessiontest.Token(9, "", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.False(t, f.OpenedFor(ctx))

	_, err = f.Fund(ctx, "10")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "Please reopen the funding form.", apperr.Message(err, ""))
	assert.Zero(t, api.Count("Deposit"))
}

func TestFundWithoutSessionOrOpen(t *testing.T) {
	ctx := context.Background()
	api := &backendtest.Fake{}

	f := New(sessiontest.New("").Handle, api, nil)
	_, err := f.Fund(ctx, "10")
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	f = New(sessiontest.LoggedIn(5, "").Handle, api, nil)
	_, err = f.Fund(ctx, "10")
	assert.Equal(t, "Please reopen the funding form.", apperr.Message(err, ""))
	assert.Empty(t, api.Calls())
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	fx := sessiontest.LoggedIn(1, globals.RoleSuper)
	f := New(fx.Handle, &backendtest.Fake{WalletsFn: allWallets}, nil)
	require.NoError(t, f.Open(ctx, 1))
	f.Search("sipho")
	require.NoError(t, f.Select(3))
	require.True(t, f.OpenedFor(ctx))

	f.Reset()
	assert.False(t, f.OpenedFor(ctx))
	assert.Equal(t, State{}, f.State())
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(f.Select(3)))
}

func TestShouldRefreshOwn(t *testing.T) {
	assert.True(t, ShouldRefreshOwn(globals.RoleUser, 2, 2))
	assert.True(t, ShouldRefreshOwn(globals.RoleUser, 2, 9))
	assert.True(t, ShouldRefreshOwn(globals.RoleSuper, 2, 2))
	assert.False(t, ShouldRefreshOwn(globals.RoleSuper, 2, 9))
}
