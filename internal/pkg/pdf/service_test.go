package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/settlement"
)

func TestFormatAmount(t *testing.T) {
	tests := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		96400:   "96,400",
		1234567: "1,234,567",
		-3600:   "-3,600",
		-100000: "-100,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatAmount(in))
	}
}

func TestService_StatementHTML(t *testing.T) {
	svc := NewService(&config.Config{Settlement: config.SettlementConfig{
		CompanyName:  "Storefront HQ",
		CompanyEmail: "settlement@example.com",
		Currency:     "KRW",
	}})

	orderDate := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	record := settlement.NewRecord(settlement.Input{
		OrderNumber:     "ORD-20260401-<B>",
		TenantID:        1,
		Amount:          100000,
		PaymentMethod:   settlement.MethodCreditCard,
		PaymentProvider: settlement.ProviderTossPayments,
		OrderDate:       orderDate,
		Paid:            true,
	}, orderDate.AddDate(0, 0, 10))

	st := &settlement.Statement{
		TenantID:    1,
		TenantName:  "Blue Harbor Goods",
		From:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		GeneratedAt: time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		Records:     []settlement.Record{record},
		Summary:     settlement.Summarize([]settlement.Record{record}),
	}

	html, err := svc.StatementHTML(st)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "Blue Harbor Goods")
	assert.Contains(t, out, "2026-04-01 ~ 2026-04-30")
	assert.Contains(t, out, "May 2, 2026")
	assert.Contains(t, out, "96,400 KRW")
	assert.Contains(t, out, "3,600")
	assert.Contains(t, out, "2026-04-04")
	assert.Contains(t, out, `class="status-completed"`)
	assert.Contains(t, out, "ORD-20260401-&lt;B&gt;")
}

func TestService_StatementHTMLWithoutRecords(t *testing.T) {
	svc := NewService(&config.Config{})

	html, err := svc.StatementHTML(&settlement.Statement{TenantName: "Empty", Summary: settlement.Summarize(nil)})
	require.NoError(t, err)
	assert.Contains(t, string(html), "No orders settle in this period.")
	assert.Contains(t, string(html), "All time")
}
