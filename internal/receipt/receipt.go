package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/order"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
	"golang.org/x/sync/errgroup"
)

const (
	margin       = 15.0
	headerHeight = 50.0
	rowHeight    = 25.0
	imageSize    = 15.0
	// rows start on a new page once the cursor passes this line
	pageBreakY = 250.0

	fetchConcurrency = 4
)

// Renderer draws an A4 receipt for one order.
type Renderer struct {
	shopName string
	images   ImageFetcher
	loc      *time.Location
	log      *logger.Logger
	now      func() time.Time
}

func NewRenderer(shopName string, images ImageFetcher, loc *time.Location, log *logger.Logger) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Renderer{shopName: shopName, images: images, loc: loc, log: log, now: time.Now}
}

// Render writes the PDF to w. Photos that cannot be loaded are drawn as an
// empty box so one bad URL never fails the receipt.
func (r *Renderer) Render(ctx context.Context, o order.Order, w io.Writer) error {
	pdf, err := r.build(ctx, o)
	if err != nil {
		return err
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write receipt pdf: %w", err)
	}
	return nil
}

func (r *Renderer) build(ctx context.Context, o order.Order) (*gofpdf.Fpdf, error) {
	images := r.fetchAll(ctx, o)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(r.now())
	pdf.SetTitle(fmt.Sprintf("Order #%d", o.ID), true)
	pdf.SetAutoPageBreak(false, margin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, pageHeight := pdf.GetPageSize()

	pdf.AddPage()
	r.drawHeader(pdf, tr, pageWidth)
	y := r.drawSummary(pdf, tr, o, pageWidth)
	y = drawTableHeader(pdf, pageWidth, y)

	if len(o.Items) == 0 {
		pdf.SetFont("Helvetica", "", 9)
		pdf.Text(margin+5, y+5, "No items in this order")
	}
	for i, item := range o.Items {
		if y > pageBreakY {
			pdf.AddPage()
			y = margin
		}
		r.drawItem(pdf, tr, i, item, images[i], pageWidth, y)
		y += rowHeight
	}
	if len(o.Items) > 0 {
		if y > pageBreakY {
			pdf.AddPage()
			y = margin
		}
		drawTotal(pdf, o, pageWidth, y+5)
	}
	r.drawFooter(pdf, pageWidth, pageHeight)

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return pdf, nil
}

// fetchAll loads item photos in parallel. A nil entry means no photo.
func (r *Renderer) fetchAll(ctx context.Context, o order.Order) []*Image {
	out := make([]*Image, len(o.Items))
	if r.images == nil {
		return out
	}
	var g errgroup.Group
	g.SetLimit(fetchConcurrency)
	for i, item := range o.Items {
		if item.ProductImageURL == "" {
			continue
		}
		g.Go(func() error {
			img, err := r.images.Fetch(ctx, item.ProductImageURL)
			if err != nil {
				r.log.Warn(r.log.WithFields(ctx, map[string]any{
					"order_id":  o.ID,
					"image_url": item.ProductImageURL,
					"error":     err.Error(),
				}), "receipt image unavailable")
				return nil
			}
			out[i] = &img
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Renderer) drawHeader(pdf *gofpdf.Fpdf, tr func(string) string, pageWidth float64) {
	pdf.SetFillColor(59, 130, 246)
	pdf.Rect(0, 0, pageWidth, headerHeight, "F")
	pdf.SetTextColor(255, 255, 255)

	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(0, margin+4)
	pdf.CellFormat(pageWidth, 10, tr(r.shopName), "", 0, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 14)
	pdf.SetXY(0, margin+19)
	pdf.CellFormat(pageWidth, 10, "Order Receipt", "", 0, "C", false, 0, "")
}

func (r *Renderer) drawSummary(pdf *gofpdf.Fpdf, tr func(string) string, o order.Order, pageWidth float64) float64 {
	y := headerHeight + 10
	half := pageWidth / 2
	sum := order.Summarize(o)

	pdf.SetFillColor(249, 250, 251)
	pdf.Rect(margin, y, pageWidth-2*margin, 40, "F")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin+5, y+8, "ORDER SUMMARY")
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(margin+5, y+16, fmt.Sprintf("Order ID: #%d", o.ID))
	pdf.Text(half, y+16, "Date: "+o.CreatedAt.In(r.loc).Format("2/1/2006"))

	name, phone := "Unknown Customer", "No phone"
	if o.Customer != nil {
		if o.Customer.Name != "" {
			name = o.Customer.Name
		}
		if o.Customer.Phone != "" {
			phone = o.Customer.Phone
		}
	}
	pdf.Text(margin+5, y+24, tr("Customer: "+name))
	pdf.Text(half, y+24, tr("Phone: "+phone))

	pdf.Text(margin+5, y+32, "Total Weight: "+formatGrams(sum.TotalWeight))
	pdf.Text(half, y+32, fmt.Sprintf("Items: %d", len(o.Items)))
	pdf.Text(half+45, y+32, "Total: "+sum.TotalPrice.StringFixed(2))

	return y + 50
}

func drawTableHeader(pdf *gofpdf.Fpdf, pageWidth, y float64) float64 {
	pdf.SetFillColor(59, 130, 246)
	pdf.Rect(margin, y, pageWidth-2*margin, 8, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Text(margin+5, y+5, "ITEM")
	pdf.Text(pageWidth-70, y+5, "QTY")
	pdf.Text(pageWidth-50, y+5, "WEIGHT")
	pdf.Text(pageWidth-30, y+5, "IMAGE")
	pdf.SetTextColor(0, 0, 0)
	return y + 12
}

func (r *Renderer) drawItem(pdf *gofpdf.Fpdf, tr func(string) string, idx int, item order.Item, img *Image, pageWidth, y float64) {
	if idx%2 == 0 {
		pdf.SetFillColor(249, 250, 251)
		pdf.Rect(margin, y, pageWidth-2*margin, rowHeight, "F")
	}

	pdf.SetFont("Helvetica", "", 9)
	name := item.ProductName
	if name == "" {
		name = "Unnamed Item"
	}
	lines := pdf.SplitLines([]byte(tr(name)), 80)
	for i, line := range lines {
		if i == 2 {
			break
		}
		pdf.Text(margin+5, y+5+float64(i)*4, string(line))
	}
	if item.CategoryName != "" {
		pdf.SetTextColor(100, 100, 100)
		pdf.Text(margin+5, y+14, tr(item.CategoryName))
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Text(pageWidth-70, y+8, strconv.Itoa(item.Qty()))
	if item.Weight != "" {
		pdf.Text(pageWidth-50, y+8, formatGrams(product.ParseWeight(item.Weight)))
	}

	x, imgY := pageWidth-30, y+2
	if img != nil && embed(pdf, fmt.Sprintf("item-%d", idx), *img, x, imgY) {
		return
	}
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(x, imgY, imageSize, imageSize, "D")
}

// embed draws img and reports whether gofpdf accepted it. A rejected image
// clears the document error so rendering can continue.
func embed(pdf *gofpdf.Fpdf, name string, img Image, x, y float64) bool {
	opts := gofpdf.ImageOptions{ImageType: img.Type}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if !pdf.Ok() {
		pdf.ClearError()
		return false
	}
	pdf.ImageOptions(name, x, y, imageSize, imageSize, false, opts, 0, "")
	if !pdf.Ok() {
		pdf.ClearError()
		return false
	}
	return true
}

func drawTotal(pdf *gofpdf.Fpdf, o order.Order, pageWidth, y float64) {
	sum := order.Summarize(o)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(margin, y, pageWidth-margin, y)
	y += 10

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(margin, y, "ORDER TOTAL")
	pdf.SetXY(margin, y-4)
	text := fmt.Sprintf("%d Items - %s Total Weight - %s", order.TotalItems(o.Items), formatGrams(sum.TotalWeight), sum.TotalPrice.StringFixed(2))
	pdf.CellFormat(pageWidth-2*margin, 5, text, "", 0, "R", false, 0, "")
}

func (r *Renderer) drawFooter(pdf *gofpdf.Fpdf, pageWidth, pageHeight float64) {
	y := pageHeight - 30
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(0, y)
	pdf.CellFormat(pageWidth, 4, "Generated on "+r.now().In(r.loc).Format("2/1/2006, 3:04:05 pm"), "", 0, "C", false, 0, "")
}

func formatGrams(g float64) string {
	return strconv.FormatFloat(g, 'f', -1, 64) + "g"
}
