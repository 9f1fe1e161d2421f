// internal/domain/settlement/csv.go
package settlement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

const csvDateLayout = "2006-01-02"

// CSVHeader is the fixed header row of settlement exports
var CSVHeader = []string{
	"order_number",
	"tenant_id",
	"order_date",
	"payment_method",
	"payment_provider",
	"order_amount",
	"commission",
	"net_amount",
	"settlement_date",
	"status",
}

// WriteCSV writes one row per record under CSVHeader
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.OrderNumber,
			strconv.FormatUint(uint64(r.TenantID), 10),
			r.OrderDate.Format(csvDateLayout),
			r.PaymentMethod,
			r.PaymentProvider,
			strconv.FormatInt(r.OrderAmount, 10),
			strconv.FormatInt(r.Commission, 10),
			strconv.FormatInt(r.NetAmount, 10),
			r.SettlementDate.Format(csvDateLayout),
			string(r.Status),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
