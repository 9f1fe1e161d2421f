// internal/domain/settlement/summary.go
package settlement

// Summary aggregates a list of records
type Summary struct {
	Count            int            `json:"count"`
	TotalAmount      int64          `json:"total_amount"`
	TotalCommission  int64          `json:"total_commission"`
	TotalNetAmount   int64          `json:"total_net_amount"`
	PendingNetAmount int64          `json:"pending_net_amount"`
	StatusCounts     map[Status]int `json:"status_counts"`
}

// Summarize accumulates records in a single pass. Records are not deduplicated.
func Summarize(records []Record) Summary {
	sum := Summary{StatusCounts: make(map[Status]int, len(Statuses))}
	for _, st := range Statuses {
		sum.StatusCounts[st] = 0
	}

	for _, r := range records {
		sum.Count++
		sum.TotalAmount += r.OrderAmount
		sum.TotalCommission += r.Commission
		sum.TotalNetAmount += r.NetAmount
		if r.Status == StatusPending {
			sum.PendingNetAmount += r.NetAmount
		}
		sum.StatusCounts[r.Status]++
	}

	return sum
}
