package receipt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const maxImageBytes = 5 << 20

var ErrUnsupportedImage = errors.New("unsupported image type")

// Image is a fetched product photo ready to embed.
type Image struct {
	Data []byte
	Type string // gofpdf image type: JPG, PNG or GIF
}

// ImageFetcher loads the photo behind a product image URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Image, error)
}

type HTTPFetcher struct {
	client  *http.Client
	baseURL string
}

type FetcherOption func(*HTTPFetcher)

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithBaseURL resolves relative image paths such as /uploads/... against base.
func WithBaseURL(base string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.baseURL = strings.TrimRight(base, "/")
	}
}

func NewHTTPFetcher(timeout time.Duration, opts ...FetcherOption) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	f := &HTTPFetcher{client: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Image, error) {
	target, err := f.resolve(rawURL)
	if err != nil {
		return Image{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return Detect(data)
}

func (f *HTTPFetcher) resolve(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || rawURL == "" {
		return "", fmt.Errorf("invalid image url %q", rawURL)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("relative image url %q without base url", rawURL)
	}
	return f.baseURL + "/" + strings.TrimLeft(u.String(), "/"), nil
}

// Detect sniffs the content type and maps it to a type gofpdf can embed.
func Detect(data []byte) (Image, error) {
	switch mimetype.Detect(data).String() {
	case "image/jpeg":
		return Image{Data: data, Type: "JPG"}, nil
	case "image/png":
		return Image{Data: data, Type: "PNG"}, nil
	case "image/gif":
		return Image{Data: data, Type: "GIF"}, nil
	default:
		return Image{}, ErrUnsupportedImage
	}
}
