package order

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"github.com/wichananm65/jewel-shop-backend/internal/cart"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

func TestParseQuantity(t *testing.T) {
	cases := map[string]int{
		"1":   1,
		"3":   3,
		" 2 ": 2,
		"4pc": 4,
		"+5":  5,
		"":    1,
		"abc": 1,
		"0":   1,
		"-2":  1,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseQuantity(in), "ParseQuantity(%q)", in)
	}
}

func TestSummarizeMultipliesByQuantity(t *testing.T) {
	o := Order{Items: []Item{
		{Quantity: "2", Weight: "5.25g", Price: decimal.NewFromInt(100)},
		{Quantity: "1", Weight: "10g", Price: decimal.NewFromInt(40)},
		{Quantity: "x", Weight: "", Price: decimal.Zero},
	}}

	sum := Summarize(o)
	assert.Equal(t, 20.5, sum.TotalWeight)
	assert.True(t, sum.TotalPrice.Equal(decimal.NewFromInt(240)), "got %s", sum.TotalPrice)
	assert.Equal(t, 4, TotalItems(o.Items))
}

func TestSnapshotFillsMissingProduct(t *testing.T) {
	created := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	items := Snapshot([]cart.Item{
		{ID: 5, ProductID: 7, Quantity: "1", CreatedAt: created, Product: &product.Product{
			Name: "Ruby Ring", CategoryName: "Rings", Weight: "5g", ImageURL: "/r.png",
			Price: decimal.NullDecimal{Decimal: decimal.NewFromInt(50), Valid: true},
		}},
		{ID: 6, ProductID: 8, CategoryName: "Chains", Quantity: "1"},
	})

	require.Len(t, items, 2)
	assert.Equal(t, "Ruby Ring", items[0].ProductName)
	assert.Equal(t, "Rings", items[0].CategoryName, "category falls back to the product's")
	assert.Equal(t, "/r.png", items[0].ProductImageURL)
	assert.Equal(t, created, items[0].CreatedAt)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(50)))

	assert.Equal(t, UnknownProductName, items[1].ProductName)
	assert.Equal(t, "Chains", items[1].CategoryName)
	assert.True(t, items[1].Price.IsZero())
}

func TestWriteXLSX(t *testing.T) {
	orders := []Order{{
		ID:        3,
		UserID:    1,
		TotalItem: 2,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Customer:  &Customer{ID: 1, Name: "Asha", Phone: "99999"},
		Items: []Item{
			{ProductName: "Ruby Ring", Quantity: "1", Weight: "5g", Price: decimal.NewFromInt(50)},
			{ProductName: "Gold Chain", Quantity: "1", Weight: "10g", Price: decimal.NewFromInt(100)},
		},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(orders, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 2)

	ordersSheet := file.Sheets[0]
	require.Len(t, ordersSheet.Rows, 2)
	assert.Equal(t, "Order ID", ordersSheet.Rows[0].Cells[0].String())
	assert.Equal(t, "Asha", ordersSheet.Rows[1].Cells[1].String())
	assert.Equal(t, "150.00", ordersSheet.Rows[1].Cells[5].String())
	assert.Equal(t, "2026-01-02 03:04:05", ordersSheet.Rows[1].Cells[6].String())

	assert.Len(t, file.Sheets[1].Rows, 3)
}
