// Package products is the product browsing view and the super user's product
// maintenance form.
package products

import (
	"context"
	"log"
	"strings"
	"sync"
	"unicode"

	"kiosk/globals"
	"kiosk/models"
	"kiosk/notify"
	"kiosk/session"
	"kiosk/utils"

	"golang.org/x/sync/errgroup"
)

const displayNameMax = 40

// Backend is the slice of the REST API the catalog uses.
type Backend interface {
	Products(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (models.Product, error)
	UpdateProduct(ctx context.Context, productID int, in models.ProductInput) error
	DeleteProduct(ctx context.Context, productID int) error
}

// Catalog holds one terminal's product list and browsing controls.
type Catalog struct {
	sess   *session.Handle
	api    Backend
	notify notify.Notifier

	mu         sync.Mutex
	products   []models.Product
	categories []models.Category
	category   int
	search     string
	page       int
}

func NewCatalog(sess *session.Handle, api Backend, n notify.Notifier) *Catalog {
	return &Catalog{sess: sess, api: api, notify: n, page: 1}
}

// Card is one product as the grid shows it.
type Card struct {
	models.Product
	DisplayName string `json:"displayName"`
	InStock     bool   `json:"inStock"`
}

// Listing is one page of the filtered catalog.
type Listing struct {
	Cards      []Card            `json:"cards"`
	Categories []models.Category `json:"categories"`
	Category   int               `json:"category,omitempty"`
	Search     string            `json:"search,omitempty"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	Total      int               `json:"total"`
}

// DisplayName capitalises each word and truncates long names.
func DisplayName(name string) string {
	runes := []rune(name)
	prevWord := false
	for i, r := range runes {
		word := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
		if word && !prevWord {
			runes[i] = unicode.ToUpper(r)
		}
		prevWord = word
	}
	if len(runes) > displayNameMax {
		return string(runes[:displayNameMax]) + "..."
	}
	return string(runes)
}

// Visible reports whether role may see p: standard users only see products
// that are available and in stock.
func Visible(p models.Product, role string) bool {
	return role == globals.RoleSuper || p.InStock()
}

// Load fetches products and categories together.
func (c *Catalog) Load(ctx context.Context) error {
	var products []models.Product
	var categories []models.Category

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = c.api.Products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = c.api.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("[products] load catalog: %v", err)
		c.notify.Error("Failed to fetch data.")
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = products
	c.categories = categories
	return nil
}

// SetFilter changes the category and search text. The page resets to 1 when
// either changes.
func (c *Catalog) SetFilter(category int, search string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	search = strings.TrimSpace(search)
	if category != c.category || search != c.search {
		c.page = 1
	}
	c.category = category
	c.search = search
}

func (c *Catalog) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.page = page
}

// Listing filters, hides what the role may not see and pages the result.
func (c *Catalog) Listing(role string) Listing {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cards []Card
	for _, p := range c.products {
		if c.category != 0 && p.CategoryID != c.category {
			continue
		}
		if c.search != "" && !utils.ContainsFold(p.ProductName, c.search) {
			continue
		}
		if !Visible(p, role) {
			continue
		}
		cards = append(cards, Card{Product: p, DisplayName: DisplayName(p.ProductName), InStock: p.InStock()})
	}

	total := len(cards)
	start := (c.page - 1) * globals.ProductPageSize
	if start > total {
		start = total
	}
	end := start + globals.ProductPageSize
	if end > total {
		end = total
	}
	page := cards[start:end]
	if page == nil {
		page = []Card{}
	}
	return Listing{
		Cards:      page,
		Categories: append([]models.Category{}, c.categories...),
		Category:   c.category,
		Search:     c.search,
		Page:       c.page,
		PageSize:   globals.ProductPageSize,
		Total:      total,
	}
}

// Find returns the held product with id.
func (c *Catalog) Find(productID int) (models.Product, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.products {
		if p.ProductID == productID {
			return p, true
		}
	}
	return models.Product{}, false
}

// Decrement lowers a product's quantity on hand after it went into a cart,
// ahead of the backend's own count.
func (c *Catalog) Decrement(productID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		if c.products[i].ProductID == productID {
			c.products[i].Quantity--
			return
		}
	}
}

func (c *Catalog) remove(productID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.products[:0]
	for _, p := range c.products {
		if p.ProductID != productID {
			kept = append(kept, p)
		}
	}
	c.products = kept
}
