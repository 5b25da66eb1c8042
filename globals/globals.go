package globals

import (
	"time"

	"github.com/shopspring/decimal"
)

// Claim URIs issued by the backend. Changing either is a breaking change.
const (
	UserIDClaim = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	RoleClaim   = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

// Roles
const (
	RoleUser  = "User"
	RoleSuper = "SuperUser"
)

// Delivery modes
const (
	DeliveryPickup   = "Pickup"
	DeliveryDelivery = "Delivery"
)

var (
	// DeliveryFee is charged only when Delivery is selected.
	DeliveryFee = decimal.NewFromInt(60)

	// TotalTolerance is the largest client/backend total difference accepted silently.
	TotalTolerance = decimal.NewFromFloat(0.01)
)

// ReservedWalletID is never offered as a funding target.
const ReservedWalletID = 1

const (
	OrdersRevealStep = 10
	ProductPageSize  = 12
	LogoutDelay      = 2 * time.Second
	LoginPath        = "/login"
)

// Context keys
type ContextKey string

const TerminalKey ContextKey = "terminal"
