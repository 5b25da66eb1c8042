// Package orders is the order history view: a client-side transform over an
// already fetched order list. Nothing here calls the backend.
package orders

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"kiosk/globals"
	"kiosk/models"
	"kiosk/utils"
)

// Sortable columns.
const (
	ColOrderID  = "orderID"
	ColUser     = "userName"
	ColUserID   = "userID"
	ColDate     = "orderDate"
	ColStatus   = "orderStatus"
	ColDelivery = "deliveryOrCollection"
	ColTotal    = "totalAmount"
)

var columns = map[string]bool{
	ColOrderID: true, ColUser: true, ColUserID: true, ColDate: true,
	ColStatus: true, ColDelivery: true, ColTotal: true,
}

// Display returns a copy with Pending shown as Completed. The backend record
// is left alone.
func Display(in []models.Order) []models.Order {
	out := make([]models.Order, len(in))
	copy(out, in)
	for i := range out {
		if out[i].OrderStatus == models.StatusPending {
			out[i].OrderStatus = models.StatusCompleted
		}
	}
	return out
}

type Filters struct {
	Status     string    `json:"status,omitempty"`
	UserSearch string    `json:"user,omitempty"`
	From       time.Time `json:"from,omitempty"`
	To         time.Time `json:"to,omitempty"`
}

// ParseDate reads a filter bound. A bare date used as an upper bound covers
// the whole day.
func ParseDate(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		if upper {
			return d.Add(24*time.Hour - time.Nanosecond), nil
		}
		return d, nil
	}
	ts, err := models.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", raw)
	}
	return ts.Time, nil
}

// Filter keeps orders matching every set filter. The user search applies to
// super users only.
func Filter(in []models.Order, f Filters, elevated bool) []models.Order {
	out := make([]models.Order, 0, len(in))
	for _, o := range in {
		if f.Status != "" && !strings.EqualFold(o.OrderStatus, f.Status) {
			continue
		}
		if elevated && f.UserSearch != "" &&
			!utils.ContainsFold(o.UserName, f.UserSearch) &&
			!strings.Contains(strconv.Itoa(o.UserID), f.UserSearch) {
			continue
		}
		if !f.From.IsZero() && o.OrderDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && o.OrderDate.After(f.To) {
			continue
		}
		out = append(out, o)
	}
	return out
}

type Sort struct {
	Key  string `json:"key"`
	Desc bool   `json:"desc"`
}

var DefaultSort = Sort{Key: ColDate, Desc: true}

// Next is the sort after clicking key: the same column flips direction, a
// new column starts ascending.
func (s Sort) Next(key string) Sort {
	if key == s.Key {
		return Sort{Key: key, Desc: !s.Desc}
	}
	return Sort{Key: key}
}

func compare(a, b models.Order, key string) int {
	switch key {
	case ColTotal:
		return a.TotalAmount.Cmp(b.TotalAmount)
	case ColOrderID:
		return a.OrderID - b.OrderID
	case ColUserID:
		return a.UserID - b.UserID
	case ColDate:
		return a.OrderDate.Compare(b.OrderDate.Time)
	case ColUser:
		return strings.Compare(strings.ToLower(a.UserName), strings.ToLower(b.UserName))
	case ColStatus:
		return strings.Compare(strings.ToLower(a.OrderStatus), strings.ToLower(b.OrderStatus))
	case ColDelivery:
		return strings.Compare(strings.ToLower(a.DeliveryOrCollection), strings.ToLower(b.DeliveryOrCollection))
	}
	return 0
}

// SortOrders sorts in place; ties keep their input order.
func SortOrders(list []models.Order, s Sort) {
	sort.SliceStable(list, func(i, j int) bool {
		c := compare(list[i], list[j], s.Key)
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

// View holds one terminal's history controls.
type View struct {
	mu       sync.Mutex
	filters  Filters
	sort     Sort
	visible  int
	expanded map[int]bool
}

func NewView() *View {
	return &View{
		sort:     DefaultSort,
		visible:  globals.OrdersRevealStep,
		expanded: make(map[int]bool),
	}
}

// Reset restores the default filters, sort and reveal.
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = Filters{}
	v.sort = DefaultSort
	v.visible = globals.OrdersRevealStep
	v.expanded = make(map[int]bool)
}

func (v *View) SetFilters(f Filters) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = f
}

// SortBy applies a column click. Unknown columns are ignored.
func (v *View) SortBy(key string) Sort {
	v.mu.Lock()
	defer v.mu.Unlock()
	if columns[key] {
		v.sort = v.sort.Next(key)
	}
	return v.sort
}

// ShowMore reveals another step of rows.
func (v *View) ShowMore() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.visible += globals.OrdersRevealStep
	return v.visible
}

// Toggle expands or collapses one order's details.
func (v *View) Toggle(orderID int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.expanded[orderID] = !v.expanded[orderID]
	return v.expanded[orderID]
}

// Page is the rendered history.
type Page struct {
	Rows     []models.Order `json:"rows"`
	Matching int            `json:"matching"`
	HasMore  bool           `json:"hasMore"`
	Sort     Sort           `json:"sort"`
	Filters  Filters        `json:"filters"`
	Expanded []int          `json:"expanded"`
}

// Apply runs display coercion, filters, sort and reveal over orders.
func (v *View) Apply(orders []models.Order, role string) Page {
	v.mu.Lock()
	f, s, visible := v.filters, v.sort, v.visible
	expanded := make([]int, 0, len(v.expanded))
	for id, open := range v.expanded {
		if open {
			expanded = append(expanded, id)
		}
	}
	v.mu.Unlock()
	sort.Ints(expanded)

	rows := Filter(Display(orders), f, role == globals.RoleSuper)
	SortOrders(rows, s)
	matching := len(rows)
	if len(rows) > visible {
		rows = rows[:visible]
	}
	return Page{
		Rows:     rows,
		Matching: matching,
		HasMore:  matching > len(rows),
		Sort:     s,
		Filters:  f,
		Expanded: expanded,
	}
}
