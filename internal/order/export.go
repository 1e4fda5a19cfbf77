package order

import (
	"io"
	"strconv"

	"github.com/tealeg/xlsx"
)

const (
	exportTimeLayout = "2006-01-02 15:04:05"
	XLSXContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteXLSX writes a workbook with an "Orders" sheet (one row per order) and
// an "Items" sheet (one row per booked piece).
func WriteXLSX(orders []Order, w io.Writer) error {
	file := xlsx.NewFile()
	ordersSheet, err := file.AddSheet("Orders")
	if err != nil {
		return err
	}
	itemsSheet, err := file.AddSheet("Items")
	if err != nil {
		return err
	}

	addHeader(ordersSheet, "Order ID", "Customer", "Phone", "Items", "Total Weight (g)", "Total Price", "Date")
	addHeader(itemsSheet, "Order ID", "Product", "Category", "Quantity", "Weight", "Price", "Image")

	for _, o := range orders {
		sum := Summarize(o)
		customer, phone := "", ""
		if o.Customer != nil {
			customer, phone = o.Customer.Name, o.Customer.Phone
		}

		row := ordersSheet.AddRow()
		row.AddCell().SetValue(o.ID)
		row.AddCell().SetValue(customer)
		row.AddCell().SetValue(phone)
		row.AddCell().SetValue(o.TotalItem)
		row.AddCell().SetValue(sum.TotalWeight)
		row.AddCell().SetValue(sum.TotalPrice.StringFixed(2))
		row.AddCell().SetValue(o.CreatedAt.Format(exportTimeLayout))

		for _, it := range o.Items {
			row := itemsSheet.AddRow()
			row.AddCell().SetValue(o.ID)
			row.AddCell().SetValue(it.ProductName)
			row.AddCell().SetValue(it.CategoryName)
			row.AddCell().SetValue(strconv.Itoa(it.Qty()))
			row.AddCell().SetValue(it.Weight)
			row.AddCell().SetValue(it.Price.StringFixed(2))
			row.AddCell().SetValue(it.ProductImageURL)
		}
	}

	return file.Write(w)
}

func addHeader(sheet *xlsx.Sheet, headers ...string) {
	row := sheet.AddRow()
	for _, h := range headers {
		row.AddCell().SetValue(h)
	}
}
