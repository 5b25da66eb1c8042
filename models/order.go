package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Order is created by the backend at checkout and never mutated by the kiosk.
type Order struct {
	OrderID              int             `json:"orderID"`
	UserID               int             `json:"userID"`
	UserName             string          `json:"userName,omitempty"`
	OrderDate            Timestamp       `json:"orderDate"`
	OrderStatus          string          `json:"orderStatus"`
	DeliveryOrCollection string          `json:"deliveryOrCollection"`
	DeliveryFee          decimal.Decimal `json:"deliveryFee"`
	TotalAmount          decimal.Decimal `json:"totalAmount"`
	WalletID             int             `json:"walletID,omitempty"`
	CartItems            []CartItem      `json:"cartItems,omitempty"`
}

// Timestamp accepts RFC 3339 and the zone-less layouts the backend emits.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses any of the accepted layouts.
func ParseTimestamp(raw string) (Timestamp, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognised timestamp %q", raw)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}
