package orders

import (
	"storesync/internal/core/apperror"
)

// Status is the order lifecycle state.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// PaymentStatus tracks how much of the order has been paid.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// transitions is the closed table of allowed status changes. Anything absent
// here is rejected. cancelled and refunded are terminal; completed only
// admits refund.
var transitions = map[Status][]Status{
	StatusDraft:      {StatusPending, StatusCancelled},
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {StatusRefunded},
	StatusCancelled:  {},
	StatusRefunded:   {},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether from → to is an allowed transition.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a typed error for a disallowed transition.
func ValidateTransition(from, to Status) error {
	if !to.IsValid() {
		return apperror.NewValidationField("status", "unknown order status")
	}
	if !CanTransition(from, to) {
		return apperror.NewInvalidTransition(string(from), string(to))
	}
	return nil
}
