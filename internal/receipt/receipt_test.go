package receipt

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/order"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.SetGray(x, x, color.Gray{Y: 200})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeFetcher struct {
	mu    sync.Mutex
	data  []byte
	fail  map[string]bool
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	f.mu.Unlock()
	if f.fail[rawURL] {
		return Image{}, errors.New("connection refused")
	}
	return Detect(f.data)
}

func sampleOrder(n int) order.Order {
	o := order.Order{
		ID:        12,
		UserID:    42,
		CreatedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		Customer:  &order.Customer{ID: 42, Name: "Asha", Phone: "9999999999"},
	}
	for i := 0; i < n; i++ {
		o.Items = append(o.Items, order.Item{
			ID:              i + 1,
			ProductID:       i + 1,
			ProductName:     "Ring " + strconv.Itoa(i+1),
			CategoryName:    "Rings",
			Quantity:        "1",
			Weight:          "5g",
			Price:           decimal.NewFromInt(50),
			ProductImageURL: "https://cdn.test/ring-" + strconv.Itoa(i+1) + ".png",
		})
	}
	o.TotalItem = n
	return o
}

func TestRenderWritesPDF(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t)}
	r := NewRenderer("AT Plus Jewellers", fetcher, time.UTC, logger.Nop())

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), sampleOrder(2), &buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.ElementsMatch(t, []string{"https://cdn.test/ring-1.png", "https://cdn.test/ring-2.png"}, fetcher.calls)
}

func TestRenderDrawsPlaceholderWhenImageFails(t *testing.T) {
	fetcher := &fakeFetcher{data: pngBytes(t), fail: map[string]bool{"https://cdn.test/ring-1.png": true}}
	r := NewRenderer("AT Plus Jewellers", fetcher, time.UTC, logger.Nop())

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), sampleOrder(2), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderUnsupportedImageFallsBack(t *testing.T) {
	fetcher := &fakeFetcher{data: []byte("<html>not an image</html>")}
	r := NewRenderer("Shop", fetcher, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), sampleOrder(1), &buf))
	assert.NotZero(t, buf.Len())
}

func TestRenderEmptyOrder(t *testing.T) {
	r := NewRenderer("Shop", nil, time.UTC, logger.Nop())
	o := sampleOrder(0)
	o.Customer = nil

	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), o, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderBreaksPages(t *testing.T) {
	r := NewRenderer("Shop", nil, time.UTC, logger.Nop())

	pdf, err := r.build(context.Background(), sampleOrder(3))
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())

	pdf, err = r.build(context.Background(), sampleOrder(12))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pdf.PageCount(), 2)
}

func TestDetect(t *testing.T) {
	img, err := Detect(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "PNG", img.Type)

	_, err = Detect([]byte("plain text"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}

func TestHTTPFetcher(t *testing.T) {
	data := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/uploads/product_image/rings/a.png" {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(time.Second, WithBaseURL(srv.URL+"/"))
	img, err := f.Fetch(context.Background(), "/uploads/product_image/rings/a.png")
	require.NoError(t, err)
	assert.Equal(t, "PNG", img.Type)
	assert.Equal(t, data, img.Data)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.Error(t, err)

	_, err = NewHTTPFetcher(time.Second).Fetch(context.Background(), "/uploads/a.png")
	assert.Error(t, err, "relative url needs a base")
}
