// Package pay runs the wallet funding flow. A standard user funds their own
// wallet; a super user picks any wallet except the reserved one. The flow
// never computes balances: callers refetch after a deposit.
package pay

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"kiosk/apperr"
	"kiosk/backend"
	"kiosk/globals"
	"kiosk/models"
	"kiosk/session"
	"kiosk/utils"

	"github.com/shopspring/decimal"
)

// Backend is the slice of the REST API funding needs.
type Backend interface {
	Wallets(ctx context.Context) ([]models.Wallet, error)
	Deposit(ctx context.Context, walletID int, req models.DepositRequest) error
}

// SuccessFunc is told what was funded so the caller can decide whether to
// refresh its own balance.
type SuccessFunc func(ctx context.Context, amount decimal.Decimal, walletID int, role string)

// Funding is one terminal's funding form.
type Funding struct {
	sess      *session.Handle
	api       Backend
	onSuccess SuccessFunc

	mu           sync.Mutex
	opened       bool
	role         string
	userID       int
	ownWalletID  int
	wallets      []models.Wallet
	query        string
	selected     int
	busy         bool
	lastError    string
	confirmation string
}

func New(sess *session.Handle, api Backend, onSuccess SuccessFunc) *Funding {
	return &Funding{sess: sess, api: api, onSuccess: onSuccess}
}

// State is what the funding form renders.
type State struct {
	Role         string          `json:"role"`
	Wallets      []models.Wallet `json:"wallets,omitempty"`
	Query        string          `json:"query,omitempty"`
	Selected     int             `json:"selected,omitempty"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	Confirmation string          `json:"confirmation,omitempty"`
}

func (f *Funding) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return State{
		Role:         f.role,
		Wallets:      f.filtered(),
		Query:        f.query,
		Selected:     f.selected,
		Loading:      f.busy,
		Error:        f.lastError,
		Confirmation: f.confirmation,
	}
}

func (f *Funding) elevated() bool {
	return f.role == globals.RoleSuper
}

// Open prepares the form. ownWalletID is the caller's wallet as shown on the
// home page.
func (f *Funding) Open(ctx context.Context, ownWalletID int) error {
	res := f.sess.Current(ctx)

	f.mu.Lock()
	f.opened = true
	f.role = res.Session.Role
	f.userID = res.Session.UserID
	f.ownWalletID = ownWalletID
	f.query = ""
	f.lastError = ""
	f.confirmation = ""
	f.wallets = nil
	if f.elevated() {
		f.selected = 0
	} else {
		f.selected = ownWalletID
	}
	elevated := f.elevated()
	f.mu.Unlock()

	if !elevated {
		return nil
	}

	wallets, err := f.api.Wallets(ctx)
	if err != nil {
		log.Printf("[pay] fetch wallets: %v", err)
		e := apperr.New("open funding", apperr.KindGeneric, "Failed to load wallets. Try again later.", err)
		f.setError(e.Message)
		return e
	}
	options := make([]models.Wallet, 0, len(wallets))
	for _, w := range wallets {
		if w.WalletID != globals.ReservedWalletID {
			options = append(options, w)
		}
	}
	f.mu.Lock()
	f.wallets = options
	f.mu.Unlock()
	return nil
}

// Reset drops everything the form holds, as when the terminal changes hands.
func (f *Funding) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = false
	f.role = ""
	f.userID = 0
	f.ownWalletID = 0
	f.wallets = nil
	f.query = ""
	f.selected = 0
	f.lastError = ""
	f.confirmation = ""
}

// OpenedFor reports whether the form was opened by the session now on the
// terminal.
func (f *Funding) OpenedFor(ctx context.Context) bool {
	res := f.sess.Current(ctx)
	if !res.Valid() {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened && f.role == res.Session.Role && f.userID == res.Session.UserID
}

// Search narrows the wallet list by user name or email.
func (f *Funding) Search(q string) []models.Wallet {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = q
	return f.filtered()
}

func (f *Funding) filtered() []models.Wallet {
	if f.query == "" {
		return append([]models.Wallet(nil), f.wallets...)
	}
	var out []models.Wallet
	for _, w := range f.wallets {
		if utils.ContainsFold(w.UserName, f.query) || utils.ContainsFold(w.Email, f.query) {
			out = append(out, w)
		}
	}
	return out
}

// Select sets the target wallet. Only a super user may choose.
func (f *Funding) Select(walletID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.elevated() {
		return apperr.New("select wallet", apperr.KindForbidden, "Only a super user can choose a wallet.", nil)
	}
	f.selected = walletID
	return nil
}

func (f *Funding) setError(msg string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastError = msg
}

func (f *Funding) fail(e *apperr.Error) error {
	f.setError(e.Message)
	return e
}

// ParseAmount accepts a positive decimal amount.
func ParseAmount(text string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// Fund deposits amountText into the selected wallet and returns the
// confirmation message.
func (f *Funding) Fund(ctx context.Context, amountText string) (string, error) {
	const op = "fund wallet"

	amount, ok := ParseAmount(amountText)
	if !ok {
		return "", f.fail(apperr.Validation(op, "Please enter a valid amount greater than zero."))
	}

	res := f.sess.Current(ctx)
	if !res.Valid() {
		return "", f.fail(apperr.New(op, apperr.KindUnauthorized, "Please log in to continue.", nil))
	}

	f.mu.Lock()
	if f.busy {
		f.mu.Unlock()
		return "", apperr.Busy(op)
	}
	if !f.opened || f.role != res.Session.Role || f.userID != res.Session.UserID {
		f.mu.Unlock()
		return "", f.fail(apperr.Validation(op, "Please reopen the funding form."))
	}
	role, target := f.role, f.selected
	var owner models.Wallet
	found := false
	if f.elevated() {
		for _, w := range f.wallets {
			if w.WalletID == target {
				owner, found = w, true
				break
			}
		}
	} else {
		owner, found = models.Wallet{WalletID: target, UserID: f.userID}, true
	}
	f.mu.Unlock()

	if target <= 0 {
		return "", f.fail(apperr.Validation(op, "Please select a valid wallet."))
	}
	if !found || owner.UserID == 0 {
		return "", f.fail(apperr.Validation(op, "Invalid wallet or user ID."))
	}

	f.mu.Lock()
	f.busy = true
	f.lastError = ""
	f.confirmation = ""
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.busy = false
		f.mu.Unlock()
	}()

	log.Printf("[pay] deposit %s into wallet %d for user %d", amount.StringFixed(2), target, owner.UserID)
	if err := f.api.Deposit(ctx, target, models.DepositRequest{Amount: amount, UserID: owner.UserID}); err != nil {
		log.Printf("[pay] deposit into wallet %d: %v", target, err)
		return "", f.fail(apperr.New(op, apperr.KindForStatus(backend.StatusOf(err)),
			backend.MessageOf(err, "Failed to fund wallet. Please try again."), err))
	}

	msg := fmt.Sprintf("Successfully funded %s to your wallet!", utils.FormatRand(amount))
	if role == globals.RoleSuper {
		msg = fmt.Sprintf("Successfully funded %s to %s's wallet!", utils.FormatRand(amount), owner.UserName)
	}

	f.mu.Lock()
	f.confirmation = msg
	f.query = ""
	if f.elevated() {
		f.selected = 0
	} else {
		f.selected = f.ownWalletID
	}
	f.mu.Unlock()

	if f.onSuccess != nil {
		f.onSuccess(ctx, amount, target, role)
	}
	return msg, nil
}

// ShouldRefreshOwn reports whether the caller's displayed balance changed:
// always for a standard user, and for a super user only when funding their
// own wallet.
func ShouldRefreshOwn(role string, ownWalletID, fundedWalletID int) bool {
	return role != globals.RoleSuper || ownWalletID == fundedWalletID
}
