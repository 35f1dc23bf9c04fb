package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
	"github.com/uzshop/payme-merchant/internal/payme_service/repository"
	"github.com/uzshop/payme-merchant/internal/platform/messagebroker"
)

// NATS subjects for the fire-and-forget post-transition hooks.
const (
	SubjectTransactionCreated   = "payme.transaction.created"
	SubjectTransactionPerformed = "payme.transaction.performed"
	SubjectTransactionCancelled = "payme.transaction.cancelled"
)

// Params is the decoded "params" object of a webhook call. Only the fields
// the invoked method needs are set; the rest stay at their zero values.
type Params struct {
	ID      string         `json:"id,omitempty"`
	Amount  int64          `json:"amount,omitempty"`
	Account map[string]any `json:"account,omitempty"`
	Reason  *int32         `json:"reason,omitempty"`
	From    *int64         `json:"from,omitempty"`
	To      *int64         `json:"to,omitempty"`
}

type hookEvent struct {
	Params Params `json:"params"`
	Result any    `json:"result"`
}

// WebhookService implements the six Payme merchant protocol methods on top
// of the transaction repository. All state codes come from the domain's
// PaymeState derivation; handlers never compute them ad hoc.
type WebhookService struct {
	repo         repository.TransactionRepository
	publisher    messagebroker.Publisher
	accountField string
	logger       *slog.Logger
}

func NewWebhookService(
	repo repository.TransactionRepository,
	publisher messagebroker.Publisher,
	accountField string,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		repo:         repo,
		publisher:    publisher,
		accountField: accountField,
		logger:       logger.With("service", "payme_webhook"),
	}
}

// CheckPerformTransaction verifies the order exists and the amount matches.
// Never mutates anything.
func (s *WebhookService) CheckPerformTransaction(ctx context.Context, params Params) (*CheckPerformTransactionResult, error) {
	t, err := s.resolveAccount(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(params.Amount, t); err != nil {
		return nil, err
	}
	return &CheckPerformTransactionResult{Allow: true}, nil
}

// CreateTransaction links the Payme transaction id to the merchant order.
// The linkage is set-once: repeated calls keep the stored id and create_time.
func (s *WebhookService) CreateTransaction(ctx context.Context, params Params) (*CreateTransactionResult, error) {
	if params.ID == "" {
		return nil, domain.NewInternalServiceError("Invalid parameters received.")
	}
	t, err := s.resolveAccount(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := validateAmount(params.Amount, t); err != nil {
		return nil, err
	}

	linked, err := s.repo.LinkPaymeID(ctx, t.ID, params.ID)
	if err != nil {
		return nil, err
	}

	result := &CreateTransactionResult{
		Transaction: linked.PaymeTransactionID(),
		State:       linked.PaymeState(),
		CreateTime:  domain.ToPaymeTime(&linked.CreatedAt),
	}
	s.publishHook(ctx, SubjectTransactionCreated, params, result)
	return result, nil
}

// PerformTransaction marks the transaction as captured. Retries on an
// already-performed transaction return the stored result unchanged and fire
// no hook.
func (s *WebhookService) PerformTransaction(ctx context.Context, params Params) (*PerformTransactionResult, error) {
	if params.ID == "" {
		return nil, domain.NewInternalServiceError("Invalid parameters received.")
	}
	t, err := s.repo.GetByPaymeID(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	if t.IsPerformed() {
		return performResult(t), nil
	}
	if t.IsCancelled() {
		return nil, domain.NewInternalServiceError("Cannot perform transaction")
	}

	updated, err := s.repo.MarkPerformed(ctx, t.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			// A concurrent call won the transition; return its result.
			current, rerr := s.repo.GetByPaymeID(ctx, params.ID)
			if rerr == nil && current.IsPerformed() {
				return performResult(current), nil
			}
			return nil, domain.NewInternalServiceError("Cannot perform transaction")
		}
		return nil, err
	}

	transitionsCounter.WithLabelValues("performed").Inc()
	result := performResult(updated)
	s.publishHook(ctx, SubjectTransactionPerformed, params, result)
	return result, nil
}

// CancelTransaction cancels the transaction, recording the gateway's reason.
// The resulting state is -1 before performance, -2 after; the repository
// derives that from the row at update time, so a perform racing this call
// still ends in -2. Retries on an already-cancelled transaction return the
// stored result unchanged.
func (s *WebhookService) CancelTransaction(ctx context.Context, params Params) (*CancelTransactionResult, error) {
	if params.ID == "" || params.Reason == nil {
		return nil, domain.NewInternalServiceError("Invalid parameters received.")
	}
	t, err := s.repo.GetByPaymeID(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	if t.IsCancelled() {
		return cancelResult(t), nil
	}

	updated, err := s.repo.MarkCancelled(ctx, t.ID, *params.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrStateConflict) {
			current, rerr := s.repo.GetByPaymeID(ctx, params.ID)
			if rerr == nil && current.IsCancelled() {
				return cancelResult(current), nil
			}
			return nil, domain.NewInternalServiceError("Cannot cancel transaction")
		}
		return nil, err
	}

	transitionsCounter.WithLabelValues("cancelled").Inc()
	result := cancelResult(updated)
	s.publishHook(ctx, SubjectTransactionCancelled, params, result)
	return result, nil
}

// CheckTransaction returns the full protocol view of a transaction.
func (s *WebhookService) CheckTransaction(ctx context.Context, params Params) (*CheckTransactionResult, error) {
	if params.ID == "" {
		return nil, domain.NewInternalServiceError("Invalid parameters received.")
	}
	t, err := s.repo.GetByPaymeID(ctx, params.ID)
	if err != nil {
		return nil, err
	}
	return &CheckTransactionResult{
		Transaction: t.PaymeTransactionID(),
		State:       t.PaymeState(),
		Reason:      t.CancelReason,
		CreateTime:  domain.ToPaymeTime(&t.CreatedAt),
		PerformTime: domain.ToPaymeTime(t.ConfirmedAt),
		CancelTime:  domain.ToPaymeTime(t.CanceledAt),
	}, nil
}

// GetStatement lists transactions created within [from, to], newest first.
func (s *WebhookService) GetStatement(ctx context.Context, params Params) (*GetStatementResult, error) {
	if params.From == nil || params.To == nil {
		return nil, domain.NewInternalServiceError("Invalid parameters received.")
	}
	from := domain.FromPaymeTime(*params.From)
	to := domain.FromPaymeTime(*params.To)

	transactions, err := s.repo.ListCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	entries := make([]StatementEntry, 0, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		entries = append(entries, StatementEntry{
			Transaction: t.PaymeTransactionID(),
			Amount:      t.Tiyin(),
			Account:     map[string]string{s.accountField: t.ID},
			Reason:      t.CancelReason,
			State:       t.PaymeState(),
			CreateTime:  domain.ToPaymeTime(&t.CreatedAt),
			PerformTime: domain.ToPaymeTime(t.ConfirmedAt),
			CancelTime:  domain.ToPaymeTime(t.CanceledAt),
		})
	}
	return &GetStatementResult{Transactions: entries}, nil
}

func (s *WebhookService) resolveAccount(ctx context.Context, params Params) (*domain.Transaction, error) {
	orderID := accountValue(params.Account, s.accountField)
	if orderID == "" {
		return nil, domain.NewInvalidAccount("Missing account field in parameters.")
	}
	t, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, domain.NewAccountDoesNotExist("No transaction found for account: " + orderID)
		}
		return nil, err
	}
	return t, nil
}

// publishHook emits the post-transition event. Failures are logged and
// swallowed: hook delivery must never affect the protocol response.
func (s *WebhookService) publishHook(ctx context.Context, subject string, params Params, result any) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "Hook publisher not configured, skipping event", "subject", subject)
		return
	}
	payload, err := json.Marshal(hookEvent{Params: params, Result: result})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal hook event", "subject", subject, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, subject, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish hook event", "subject", subject, "error", err)
		hookEventsCounter.WithLabelValues(subject, "error").Inc()
		return
	}
	hookEventsCounter.WithLabelValues(subject, "success").Inc()
}

func performResult(t *domain.Transaction) *PerformTransactionResult {
	return &PerformTransactionResult{
		Transaction: t.PaymeTransactionID(),
		State:       t.PaymeState(),
		PerformTime: domain.ToPaymeTime(t.ConfirmedAt),
	}
}

func cancelResult(t *domain.Transaction) *CancelTransactionResult {
	return &CancelTransactionResult{
		Transaction: t.PaymeTransactionID(),
		State:       t.PaymeState(),
		CancelTime:  domain.ToPaymeTime(t.CanceledAt),
	}
}

func validateAmount(received int64, t *domain.Transaction) error {
	expected := t.Tiyin()
	if received != expected {
		return domain.NewIncorrectAmount(
			fmt.Sprintf("Invalid amount. Expected: %d, received: %d", expected, received))
	}
	return nil
}

// accountValue extracts the configured account field, tolerating Payme
// sending identifiers as either JSON strings or numbers.
func accountValue(account map[string]any, field string) string {
	if account == nil {
		return ""
	}
	v, ok := account[field]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
