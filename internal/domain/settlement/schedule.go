// internal/domain/settlement/schedule.go
package settlement

import "time"

// Status is the lifecycle state of a settlement. It is always derived, never stored.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScheduled  Status = "scheduled"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in lifecycle order
var Statuses = []Status{StatusPending, StatusScheduled, StatusProcessing, StatusCompleted}

// IsValid reports whether s is a known status
func (s Status) IsValid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// SettlementDate returns the day funds for an order placed at orderDate are released.
func SettlementDate(orderDate time.Time, method string) time.Time {
	return orderDate.AddDate(0, 0, SettlementDays(method))
}

// DeriveStatus compares calendar days in now's location: before the settlement day is
// scheduled, the day itself is processing and anything after is completed.
func DeriveStatus(settlementDate, now time.Time) Status {
	due := truncateDay(settlementDate.In(now.Location()))
	today := truncateDay(now)

	switch {
	case today.Before(due):
		return StatusScheduled
	case today.Equal(due):
		return StatusProcessing
	default:
		return StatusCompleted
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
