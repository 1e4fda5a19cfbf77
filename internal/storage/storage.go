package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
)

const (
	BucketCategoryImages = "category_image"
	BucketProductImages  = "product_image"
)

var (
	ErrEmptyFile   = apperr.New(apperr.KindValidation, "image file is empty")
	ErrNotAnImage  = apperr.New(apperr.KindValidation, "uploaded file is not an image")
	ErrInvalidPath = apperr.New(apperr.KindValidation, "invalid storage path")
)

// Store uploads bytes under bucket/objectPath and returns a URL the browser
// can load directly.
type Store interface {
	Upload(ctx context.Context, bucket, objectPath string, data []byte) (string, error)
}

// DiskStore keeps uploads on the local filesystem; the HTTP server exposes
// Root under PublicPrefix.
type DiskStore struct {
	root    string
	baseURL string
}

// NewDiskStore builds a store rooted at root. baseURL is the public prefix
// (for example "/uploads" or "https://cdn.example.com/uploads").
func NewDiskStore(root, baseURL string) *DiskStore {
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *DiskStore) Upload(ctx context.Context, bucket, objectPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if !IsImage(data) {
		return "", ErrNotAnImage
	}
	rel, err := cleanObjectPath(bucket, objectPath)
	if err != nil {
		return "", err
	}

	full := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write %q: %w", full, err)
	}
	return s.publicURL(rel), nil
}

func (s *DiskStore) publicURL(rel string) string {
	segments := strings.Split(rel, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/")
}

func cleanObjectPath(bucket, objectPath string) (string, error) {
	if bucket == "" || objectPath == "" {
		return "", ErrInvalidPath
	}
	joined := path.Clean(bucket + "/" + strings.TrimLeft(objectPath, "/"))
	if strings.HasPrefix(joined, "../") || joined == ".." || !strings.HasPrefix(joined, bucket+"/") {
		return "", ErrInvalidPath
	}
	return joined, nil
}

// IsImage sniffs the content rather than trusting the client's header.
func IsImage(data []byte) bool {
	return strings.HasPrefix(mimetype.Detect(data).String(), "image/")
}

// ObjectName returns "<prefix>/<unix>-<uuid><ext>" with the extension taken
// from the sniffed content type.
func ObjectName(prefix string, unix int64, data []byte) string {
	name := fmt.Sprintf("%d-%s%s", unix, uuid.NewString(), mimetype.Detect(data).Extension())
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// ReadFormFile loads a multipart file into memory, capped at maxBytes.
func ReadFormFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if fh == nil {
		return nil, ErrEmptyFile
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, apperr.New(apperr.KindValidation, fmt.Sprintf("image exceeds %d bytes", maxBytes))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	return data, nil
}
