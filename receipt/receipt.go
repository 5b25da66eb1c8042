// Package receipt renders order receipts as PDF.
package receipt

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"kiosk/cart"
	"kiosk/models"
	"kiosk/utils"

	"github.com/disintegration/imaging"
	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const thumbPx = 48

// Assets fetches product images by their backend path.
type Assets interface {
	Asset(ctx context.Context, path string) ([]byte, error)
}

// Receipt is everything printed on one receipt.
type Receipt struct {
	OrderID     int
	Date        time.Time
	Delivery    string
	DeliveryFee decimal.Decimal
	Lines       []models.CartItem
	Total       decimal.Decimal
	Balance     *decimal.Decimal
}

// FromConfirmation builds the receipt shown straight after checkout.
func FromConfirmation(c *cart.Confirmation) Receipt {
	r := Receipt{
		OrderID:     c.OrderID,
		Date:        time.Now(),
		Delivery:    c.Delivery,
		DeliveryFee: c.DeliveryFee,
		Lines:       c.Lines,
		Total:       c.Total,
		Balance:     c.WalletBalance,
	}
	if c.Order != nil && !c.Order.OrderDate.IsZero() {
		r.Date = c.Order.OrderDate.Time
	}
	return r
}

// FromOrder builds a receipt for an order from history.
func FromOrder(o models.Order) Receipt {
	return Receipt{
		OrderID:     o.OrderID,
		Date:        o.OrderDate.Time,
		Delivery:    o.DeliveryOrCollection,
		DeliveryFee: o.DeliveryFee,
		Lines:       o.CartItems,
		Total:       o.TotalAmount,
	}
}

// Filename is the attachment name for the receipt.
func (r Receipt) Filename() string {
	return "receipt-" + strconv.Itoa(r.OrderID) + ".pdf"
}

// Render lays out r on an A4 page. Thumbnails that cannot be fetched or
// decoded are left out. assets may be nil.
func Render(ctx context.Context, r Receipt, assets Assets) ([]byte, error) {
	qrPNG, err := qrcode.Encode(fmt.Sprintf("order:%d", r.OrderID), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Order Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Order ID: %d", r.OrderID))
	pdf.Ln(8)
	if !r.Date.IsZero() {
		pdf.Cell(0, 8, "Date: "+r.Date.Format("2006-01-02 15:04"))
		pdf.Ln(8)
	}
	pdf.Cell(0, 8, "Delivery: "+tr(r.Delivery))
	pdf.Ln(12)

	qrOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 150, 20, 40, 40, false, qrOpts, 0, "")

	for i, line := range r.Lines {
		y := pdf.GetY()
		x := 10.0
		if name, ok := thumbnail(ctx, pdf, assets, i, line.Image()); ok {
			pdf.ImageOptions(name, x, y, 12, 12, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		}
		pdf.SetX(x + 15)
		pdf.Cell(90, 12, tr(line.Name()))
		pdf.Cell(0, 12, fmt.Sprintf("%d x %s = %s",
			line.Quantity, utils.FormatRand(line.UnitPrice()), utils.FormatRand(line.Price)))
		pdf.Ln(14)
	}

	pdf.Ln(4)
	if r.DeliveryFee.IsPositive() {
		pdf.Cell(0, 8, "Delivery fee: "+utils.FormatRand(r.DeliveryFee))
		pdf.Ln(8)
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 10, "Total: "+utils.FormatRand(r.Total))
	pdf.Ln(10)
	if r.Balance != nil {
		pdf.SetFont("Arial", "", 12)
		pdf.Cell(0, 8, "New wallet balance: "+utils.FormatRand(*r.Balance))
		pdf.Ln(8)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func thumbnail(ctx context.Context, pdf *gofpdf.Fpdf, assets Assets, i int, path string) (string, bool) {
	if assets == nil || path == "" {
		return "", false
	}
	raw, err := assets.Asset(ctx, path)
	if err != nil {
		log.Printf("[receipt] fetch %s: %v", path, err)
		return "", false
	}
	img, err := imaging.Decode(bytes.NewReader(raw))
	if err != nil {
		log.Printf("[receipt] decode %s: %v", path, err)
		return "", false
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Thumbnail(img, thumbPx, thumbPx, imaging.Lanczos), imaging.PNG); err != nil {
		return "", false
	}
	name := "thumb-" + strconv.Itoa(i)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, &buf)
	return name, true
}
