package domain

import (
	"time"
)

// TransactionStatus is the merchant-side lifecycle status of an order's
// payment transaction. Transitions are monotonic: waiting -> performed ->
// cancelled_after_perform, or waiting -> cancelled. Nothing ever moves back.
type TransactionStatus string

const (
	StatusWaiting               TransactionStatus = "waiting"
	StatusPerformed             TransactionStatus = "performed"
	StatusCancelled             TransactionStatus = "cancelled"
	StatusCancelledAfterPerform TransactionStatus = "cancelled_after_perform"
)

// Payme gateway state codes as published in the merchant API.
const (
	PaymeStateCreated               int32 = 1
	PaymeStatePerformed             int32 = 2
	PaymeStateCancelled             int32 = -1
	PaymeStateCancelledAfterPerform int32 = -2
)

// TiyinPerSoum converts the stored order price into the gateway's minor
// currency unit (1 soum = 100 tiyin).
const TiyinPerSoum int64 = 100

// Transaction models one merchant order's payment as seen by the Payme
// webhook protocol. The row is created by the merchant's own order flow;
// the webhook only links it to a Payme transaction id and drives its state.
type Transaction struct {
	ID           string            `json:"id"`                 // merchant order id
	PaymeID      *string           `json:"payme_id,omitempty"` // gateway transaction id, assigned once
	Price        int64             `json:"price"`              // order total in soum
	Status       TransactionStatus `json:"status"`
	CancelReason *int32            `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
	CanceledAt   *time.Time        `json:"canceled_at,omitempty"`
}

// Tiyin returns the amount Payme is expected to send for this transaction.
func (t *Transaction) Tiyin() int64 {
	return t.Price * TiyinPerSoum
}

// IsPerformed reports whether the payment capture has happened.
func (t *Transaction) IsPerformed() bool {
	return t.Status == StatusPerformed
}

// IsCancelled reports whether the transaction reached either cancelled state.
func (t *Transaction) IsCancelled() bool {
	return t.Status == StatusCancelled || t.Status == StatusCancelledAfterPerform
}

// PaymeState derives the gateway state code. This is the single source of
// truth for the "state" field of every protocol response.
func (t *Transaction) PaymeState() int32 {
	switch t.Status {
	case StatusPerformed:
		return PaymeStatePerformed
	case StatusCancelled:
		return PaymeStateCancelled
	case StatusCancelledAfterPerform:
		return PaymeStateCancelledAfterPerform
	default:
		return PaymeStateCreated
	}
}

// PaymeTransactionID returns the id the gateway knows this transaction by,
// falling back to the merchant order id when no linkage happened yet.
func (t *Transaction) PaymeTransactionID() string {
	if t.PaymeID != nil && *t.PaymeID != "" {
		return *t.PaymeID
	}
	return t.ID
}
