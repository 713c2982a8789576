// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
)

// Service renders order receipts
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		tmpl: template.Must(template.New("receipt").Funcs(template.FuncMap{
			"inr": FormatINR,
		}).Parse(receiptTemplate)),
	}
}

// CompanyInfo is printed in the receipt header
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	GSTIN   string `json:"gstin,omitempty"`
}

// ReceiptLine is one row of the receipt table
type ReceiptLine struct {
	Name         string `json:"name"`
	Units        int    `json:"units"`
	PricePerUnit int64  `json:"price_per_unit"`
	Total        int64  `json:"total"`
}

// ReceiptData is everything the receipt shows. It is also served as JSON.
type ReceiptData struct {
	ReceiptNumber   string                `json:"receipt_number"`
	OrderNumber     string                `json:"order_number"`
	OrderDate       string                `json:"order_date"`
	Status          order.OrderStatus     `json:"status"`
	Company         CompanyInfo           `json:"company"`
	ShipTo          order.ShippingAddress `json:"ship_to"`
	Lines           []ReceiptLine         `json:"lines"`
	Subtotal        int64                 `json:"subtotal"`
	DiscountPercent int64                 `json:"discount_percent"`
	DiscountAmount  int64                 `json:"discount_amount"`
	ShippingCharge  int64                 `json:"shipping_charge"`
	NetBill         int64                 `json:"net_bill"`
	Currency        string                `json:"currency"`
	PaymentMode     order.PaymentMode     `json:"payment_mode"`
	PaymentStatus   order.PaymentStatus   `json:"payment_status"`
	PaymentDate     string                `json:"payment_date"`
}

// BuildReceipt assembles receipt data from a finalized order and its payment
func BuildReceipt(o *order.Order, p *order.Payment, company config.CompanyConfig) *ReceiptData {
	lines := make([]ReceiptLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, ReceiptLine{
			Name:         it.ProductName,
			Units:        it.Units,
			PricePerUnit: it.PricePerUnit,
			Total:        it.TotalAmount,
		})
	}

	return &ReceiptData{
		ReceiptNumber: "RCPT-" + strings.TrimPrefix(o.OrderNumber, "FLR-"),
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("02 Jan 2006"),
		Status:        o.Status,
		Company: CompanyInfo{
			Name:    company.Name,
			Address: company.Address,
			Phone:   company.Phone,
			Email:   company.Email,
			GSTIN:   company.GSTIN,
		},
		ShipTo:          o.ShippingAddress,
		Lines:           lines,
		Subtotal:        o.Subtotal,
		DiscountPercent: o.DiscountPercent,
		DiscountAmount:  o.DiscountAmount,
		ShippingCharge:  o.ShippingCharge,
		NetBill:         o.NetBill,
		Currency:        o.Currency,
		PaymentMode:     p.PaymentMode,
		PaymentStatus:   p.Status,
		PaymentDate:     p.PaymentDate.Format(time.RFC1123),
	}
}

// Receipt builds the receipt data using the configured company details
func (s *Service) Receipt(o *order.Order, p *order.Payment) *ReceiptData {
	return BuildReceipt(o, p, s.config.Company)
}

// RenderHTML executes the receipt template
func (s *Service) RenderHTML(data *ReceiptData) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute receipt template: %w", err)
	}
	return buf.Bytes(), nil
}

// GeneratePDF renders the receipt and converts it with wkhtmltopdf
func (s *Service) GeneratePDF(data *ReceiptData) (*bytes.Buffer, error) {
	html, err := s.RenderHTML(data)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Title.Set(data.ReceiptNumber)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.Encoding.Set("UTF-8")
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}
	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// FormatINR formats whole rupees with Indian digit grouping, e.g. ₹1,23,456
func FormatINR(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	if len(digits) <= 3 {
		return sign + "₹" + digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return sign + "₹" + strings.Join(groups, ",") + "," + tail
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
body { font-family: Arial, sans-serif; color: #333; margin: 0; padding: 24px; }
.header { border-bottom: 2px solid #eee; padding-bottom: 16px; margin-bottom: 24px; }
.title { font-size: 26px; font-weight: bold; color: #7c4a1e; }
table { width: 100%; border-collapse: collapse; margin-top: 16px; }
th, td { padding: 8px; border-bottom: 1px solid #eee; text-align: left; }
td.num, th.num { text-align: right; }
.totals td { border: none; }
.net td { font-weight: bold; font-size: 16px; border-top: 2px solid #333; }
.muted { color: #777; font-size: 12px; }
</style>
</head>
<body>
<div class="header">
  <div class="title">{{.Company.Name}}</div>
  <div class="muted">{{.Company.Address}}<br>{{.Company.Phone}} | {{.Company.Email}}{{if .Company.GSTIN}}<br>GSTIN: {{.Company.GSTIN}}{{end}}</div>
</div>

<p><strong>Receipt:</strong> {{.ReceiptNumber}}<br>
<strong>Order:</strong> {{.OrderNumber}} ({{.Status}})<br>
<strong>Date:</strong> {{.OrderDate}}</p>

<p><strong>Ship to</strong><br>
{{.ShipTo.FullName}}<br>
{{.ShipTo.Address}}{{if .ShipTo.Landmark}}, {{.ShipTo.Landmark}}{{end}}<br>
PIN {{.ShipTo.Pincode}} | {{.ShipTo.Contact}}</p>

<table>
  <tr><th>Product</th><th class="num">Units</th><th class="num">Price</th><th class="num">Total</th></tr>
  {{range .Lines}}
  <tr><td>{{.Name}}</td><td class="num">{{.Units}}</td><td class="num">{{inr .PricePerUnit}}</td><td class="num">{{inr .Total}}</td></tr>
  {{end}}
</table>

<table class="totals">
  <tr><td>Subtotal</td><td class="num">{{inr .Subtotal}}</td></tr>
  {{if .DiscountAmount}}<tr><td>Discount ({{.DiscountPercent}}%)</td><td class="num">-{{inr .DiscountAmount}}</td></tr>{{end}}
  <tr><td>Shipping</td><td class="num">{{if .ShippingCharge}}{{inr .ShippingCharge}}{{else}}Free{{end}}</td></tr>
  <tr class="net"><td>Net payable</td><td class="num">{{inr .NetBill}}</td></tr>
</table>

<p class="muted">Paid via {{.PaymentMode}} ({{.PaymentStatus}}) on {{.PaymentDate}}</p>
</body>
</html>
`
