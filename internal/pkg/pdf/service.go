// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
)

// Service handles PDF generation
type Service struct {
	config   config.SettlementConfig
	template *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config:   cfg.Settlement,
		template: template.Must(template.New("statement").Funcs(funcs).Parse(statementTemplate)),
	}
}

// StatementData represents the data passed to the statement template
type StatementData struct {
	Title     string
	Issued    string
	Period    string
	Currency  string
	Company   CompanyInfo
	Statement *settlement.Statement
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Email   string
}

// RenderStatement converts a settlement statement into a PDF document
func (s *Service) RenderStatement(ctx context.Context, st *settlement.Statement) ([]byte, error) {
	html, err := s.StatementHTML(st)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationLandscape)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(html))
	page.FooterRight.Set("[page] / [topage]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return pdfg.Bytes(), nil
}

// StatementHTML renders the statement page that is fed to wkhtmltopdf
func (s *Service) StatementHTML(st *settlement.Statement) ([]byte, error) {
	data := StatementData{
		Title:    fmt.Sprintf("Settlement Statement - %s", st.TenantName),
		Issued:   st.GeneratedAt.Format("January 2, 2006"),
		Period:   period(st.From, st.To),
		Currency: s.config.Currency,
		Company: CompanyInfo{
			Name:    s.config.CompanyName,
			Address: s.config.CompanyAddress,
			Email:   s.config.CompanyEmail,
		},
		Statement: st,
	}

	var buf bytes.Buffer
	if err := s.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func period(from, to time.Time) string {
	const layout = "2006-01-02"
	switch {
	case from.IsZero() && to.IsZero():
		return "All time"
	case from.IsZero():
		return "Until " + to.Format(layout)
	case to.IsZero():
		return "From " + from.Format(layout)
	}
	return from.Format(layout) + " ~ " + to.Format(layout)
}

var funcs = template.FuncMap{
	"amount": formatAmount,
	"date": func(t time.Time) string {
		return t.Format("2006-01-02")
	},
}

// formatAmount groups whole currency units by thousands: 1234567 -> 1,234,567
func formatAmount(v int64) string {
	digits := strconv.FormatInt(v, 10)
	sign := ""
	if v < 0 {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

const statementTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { display: flex; justify-content: space-between; margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .statement-title { font-size: 26px; font-weight: bold; color: #2563eb; margin-bottom: 10px; }
        .summary { margin-bottom: 30px; }
        .summary td { padding: 4px 16px 4px 0; }
        table.records { width: 100%; border-collapse: collapse; font-size: 12px; }
        table.records th { background: #f8f9fa; padding: 8px; text-align: left; border-bottom: 2px solid #dee2e6; }
        table.records td { padding: 8px; border-bottom: 1px solid #dee2e6; }
        .num { text-align: right; }
        .status-completed { color: #15803d; }
        .status-pending { color: #b45309; }
        .footer { margin-top: 40px; font-size: 11px; color: #666; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <div>
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            <p>Email: {{.Company.Email}}</p>
        </div>
        <div style="text-align: right;">
            <div class="statement-title">Settlement Statement</div>
            <p><strong>Tenant:</strong> {{.Statement.TenantName}}</p>
            <p><strong>Period:</strong> {{.Period}}</p>
            <p><strong>Issued:</strong> {{.Issued}}</p>
        </div>
    </div>

    <table class="summary">
        <tr><td>Orders</td><td class="num">{{.Statement.Summary.Count}}</td></tr>
        <tr><td>Order amount</td><td class="num">{{amount .Statement.Summary.TotalAmount}} {{.Currency}}</td></tr>
        <tr><td>Commission</td><td class="num">{{amount .Statement.Summary.TotalCommission}} {{.Currency}}</td></tr>
        <tr><td><strong>Net amount</strong></td><td class="num"><strong>{{amount .Statement.Summary.TotalNetAmount}} {{.Currency}}</strong></td></tr>
        <tr><td>Awaiting payment</td><td class="num">{{amount .Statement.Summary.PendingNetAmount}} {{.Currency}}</td></tr>
    </table>

    <table class="records">
        <thead>
            <tr>
                <th>Order #</th>
                <th>Order date</th>
                <th>Method</th>
                <th>Provider</th>
                <th class="num">Amount</th>
                <th class="num">Commission</th>
                <th class="num">Net</th>
                <th>Settles on</th>
                <th>Status</th>
            </tr>
        </thead>
        <tbody>
            {{range .Statement.Records}}
            <tr>
                <td>{{.OrderNumber}}</td>
                <td>{{date .OrderDate}}</td>
                <td>{{.PaymentMethod}}</td>
                <td>{{.PaymentProvider}}</td>
                <td class="num">{{amount .OrderAmount}}</td>
                <td class="num">{{amount .Commission}}</td>
                <td class="num">{{amount .NetAmount}}</td>
                <td>{{date .SettlementDate}}</td>
                <td class="status-{{.Status}}">{{.Status}}</td>
            </tr>
            {{else}}
            <tr><td colspan="9" style="text-align: center;">No orders settle in this period.</td></tr>
            {{end}}
        </tbody>
    </table>

    <div class="footer">
        <p>Questions about this statement can be sent to {{.Company.Email}}.</p>
    </div>
</body>
</html>`
