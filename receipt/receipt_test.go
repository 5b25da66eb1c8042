package receipt

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"kiosk/cart"
	"kiosk/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAssets struct {
	files   map[string][]byte
	fetched []string
}

func (f *fakeAssets) Asset(_ context.Context, path string) ([]byte, error) {
	f.fetched = append(f.fetched, path)
	if b, ok := f.files[path]; ok {
		return b, nil
	}
	return nil, errors.New("not found")
}

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestRenderProducesPDF(t *testing.T) {
	balance := decimal.NewFromInt(90)
	conf := &cart.Confirmation{
		OrderID:     42,
		Delivery:    "Delivery",
		DeliveryFee: decimal.NewFromInt(60),
		Total:       decimal.NewFromInt(410),
		Lines: []models.CartItem{
			{CartItemID: 1, Quantity: 2, Price: decimal.NewFromInt(200), Products: []models.Product{{ProductID: 5, ProductName: "Café latte", ImagePath: "/img/latte.png"}}},
			{CartItemID: 2, Quantity: 1, Price: decimal.NewFromInt(150), ImagePath: "/img/missing.png"},
		},
		WalletBalance: &balance,
	}
	assets := &fakeAssets{files: map[string][]byte{"/img/latte.png": pngOf(t, 300, 200)}}

	r := FromConfirmation(conf)
	out, err := Render(context.Background(), r, assets)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.Equal(t, []string{"/img/latte.png", "/img/missing.png"}, assets.fetched)
	assert.Equal(t, "receipt-42.pdf", r.Filename())
}

func TestRenderWithoutAssets(t *testing.T) {
	o := models.Order{OrderID: 7, DeliveryOrCollection: "Pickup", TotalAmount: decimal.NewFromInt(15),
		CartItems: []models.CartItem{{Quantity: 1, Price: decimal.NewFromInt(15), ImagePath: "/x.png"}}}

	out, err := Render(context.Background(), FromOrder(o), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
