package repository

import (
	"context"
	"errors"
	"time"

	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
)

// ErrTransactionNotFound is returned when no transaction matches the lookup.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrStateConflict is returned when a guarded state transition finds the row
// in a state the transition does not apply to. Callers are expected to
// re-read the row and decide whether the transition already happened.
var ErrStateConflict = errors.New("transaction state conflict")

// TransactionRepository is the storage seam between the webhook protocol and
// the merchant's order flow. Mutations are conditional updates: the database
// row guard, not this layer's callers, serializes concurrent writers.
type TransactionRepository interface {
	// Create inserts a transaction. Used by the merchant order flow and by
	// test fixtures; the webhook itself never creates rows.
	Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)

	GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error)
	GetByPaymeID(ctx context.Context, paymeID string) (*domain.Transaction, error)

	// LinkPaymeID assigns the gateway transaction id if the row has none yet,
	// then returns the row. An already-linked row is returned unchanged.
	LinkPaymeID(ctx context.Context, orderID, paymeID string) (*domain.Transaction, error)

	// MarkPerformed moves a waiting transaction to performed and stamps
	// confirmed_at. Returns ErrStateConflict if the row is not waiting.
	MarkPerformed(ctx context.Context, orderID string) (*domain.Transaction, error)

	// MarkCancelled moves a waiting or performed transaction to its terminal
	// cancelled status, stamping canceled_at and cancel_reason. The terminal
	// status is derived from the row's status at update time, not from a prior
	// read, so a perform landing concurrently still yields
	// cancelled_after_perform. Returns ErrStateConflict if the row is already
	// cancelled.
	MarkCancelled(ctx context.Context, orderID string, reason int32) (*domain.Transaction, error)

	// ListCreatedBetween returns transactions created within [from, to],
	// newest first.
	ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
}
