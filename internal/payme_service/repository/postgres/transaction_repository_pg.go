package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/uzshop/payme-merchant/internal/payme_service/domain"
	"github.com/uzshop/payme-merchant/internal/payme_service/repository"
)

const transactionColumns = `id, payme_id, price, status, cancel_reason, created_at, confirmed_at, canceled_at`

type pgTransactionRepository struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewPgTransactionRepository creates a new TransactionRepository for PostgreSQL.
func NewPgTransactionRepository(db *pgxpool.Pool, logger *slog.Logger) repository.TransactionRepository {
	return &pgTransactionRepository{db: db, logger: logger.With("component", "transaction_repository_pg")}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}
	err := row.Scan(
		&t.ID, &t.PaymeID, &t.Price, &t.Status, &t.CancelReason,
		&t.CreatedAt, &t.ConfirmedAt, &t.CanceledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *pgTransactionRepository) Create(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.StatusWaiting
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO transactions (id, payme_id, price, status, cancel_reason, created_at, confirmed_at, canceled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.PaymeID, t.Price, t.Status, t.CancelReason,
		t.CreatedAt, t.ConfirmedAt, t.CanceledAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *pgTransactionRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, orderID))
}

func (r *pgTransactionRepository) GetByPaymeID(ctx context.Context, paymeID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE payme_id = $1`
	return scanTransaction(r.db.QueryRow(ctx, query, paymeID))
}

// LinkPaymeID relies on the WHERE payme_id IS NULL guard for set-once
// semantics; losing the race is fine because the follow-up read returns
// whatever id won.
func (r *pgTransactionRepository) LinkPaymeID(ctx context.Context, orderID, paymeID string) (*domain.Transaction, error) {
	query := `
		UPDATE transactions SET payme_id = $2
		WHERE id = $1 AND payme_id IS NULL
	`
	tag, err := r.db.Exec(ctx, query, orderID, paymeID)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		r.logger.DebugContext(ctx, "payme id already linked", "order_id", orderID)
	}
	return r.GetByOrderID(ctx, orderID)
}

func (r *pgTransactionRepository) MarkPerformed(ctx context.Context, orderID string) (*domain.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $2, confirmed_at = $3
		WHERE id = $1 AND status = $4
		RETURNING ` + transactionColumns
	row := r.db.QueryRow(ctx, query,
		orderID, domain.StatusPerformed, time.Now().UTC(), domain.StatusWaiting,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			// Row missing or not waiting; let the caller re-read and decide.
			return nil, repository.ErrStateConflict
		}
		return nil, err
	}
	return t, nil
}

// MarkCancelled derives the terminal status inside the UPDATE so the row's
// status at write time, not the caller's earlier read, decides between
// cancelled and cancelled_after_perform.
func (r *pgTransactionRepository) MarkCancelled(ctx context.Context, orderID string, reason int32) (*domain.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = CASE WHEN status = $4 THEN $5 ELSE $6 END,
		    cancel_reason = $2, canceled_at = $3
		WHERE id = $1 AND status IN ($7, $4)
		RETURNING ` + transactionColumns
	row := r.db.QueryRow(ctx, query,
		orderID, reason, time.Now().UTC(),
		domain.StatusPerformed, domain.StatusCancelledAfterPerform, domain.StatusCancelled,
		domain.StatusWaiting,
	)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, repository.ErrStateConflict
		}
		return nil, err
	}
	return t, nil
}

func (r *pgTransactionRepository) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE created_at BETWEEN $1 AND $2
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(
			&t.ID, &t.PaymeID, &t.Price, &t.Status, &t.CancelReason,
			&t.CreatedAt, &t.ConfirmedAt, &t.CanceledAt,
		)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
