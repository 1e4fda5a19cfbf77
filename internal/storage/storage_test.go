package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDiskStoreUpload(t *testing.T) {
	root := t.TempDir()
	store := NewDiskStore(root, "/uploads/")
	data := pngBytes(t)

	url, err := store.Upload(context.Background(), BucketProductImages, "Gold Rings/1700000000-ring.png", data)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/product_image/Gold%20Rings/1700000000-ring.png", url)

	written, err := os.ReadFile(filepath.Join(root, "product_image", "Gold Rings", "1700000000-ring.png"))
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestDiskStoreRejectsNonImages(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads")

	_, err := store.Upload(context.Background(), BucketCategoryImages, "a.txt", []byte("hello world"))
	assert.True(t, errors.Is(err, ErrNotAnImage))

	_, err = store.Upload(context.Background(), BucketCategoryImages, "a.png", nil)
	assert.True(t, errors.Is(err, ErrEmptyFile))
}

func TestDiskStoreRejectsTraversal(t *testing.T) {
	store := NewDiskStore(t.TempDir(), "/uploads")
	_, err := store.Upload(context.Background(), BucketCategoryImages, "../../etc/passwd.png", pngBytes(t))
	assert.True(t, errors.Is(err, ErrInvalidPath))
}

func TestObjectName(t *testing.T) {
	name := ObjectName("/Necklaces/", 1700000000, pngBytes(t))
	assert.True(t, strings.HasPrefix(name, "Necklaces/1700000000-"), name)
	assert.True(t, strings.HasSuffix(name, ".png"), name)

	bare := ObjectName("", 1, pngBytes(t))
	assert.False(t, strings.Contains(bare, "/"))
}
