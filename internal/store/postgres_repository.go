/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the payments table.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const paymentColumns = `id, payment_amount, cash_amount, reward_cash_applied, email, credit_card, cvc, initial_time_stamp`

// SavePayment inserts a new payment record and returns the stored copy with
// its generated identifier. The column names predate this service and are
// kept for compatibility with the existing payments schema: cash_amount is
// the discounted amount actually charged, reward_cash_applied the currency
// value of the redeemed points.
func (r *PostgresRepository) SavePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	stored := *payment
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO payments (id, payment_amount, cash_amount, reward_cash_applied, email, credit_card, cvc, initial_time_stamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		stored.ID,
		stored.PaymentAmount,
		stored.DiscountedAmount,
		stored.RedeemedValueAmount,
		stored.Email,
		stored.CreditCard,
		stored.CVC,
		stored.CreatedAt,
	).Scan(&stored.ID)
	if err != nil {
		return nil, err
	}

	return &stored, nil
}

// FindPaymentByID retrieves a single payment record by its identifier.
func (r *PostgresRepository) FindPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	row := r.db.QueryRow(ctx, query, paymentID)

	payment, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// FindPaymentsByEmail retrieves all payments recorded for a customer email,
// newest first.
func (r *PostgresRepository) FindPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE lower(btrim(email)) = lower(btrim($1)) ORDER BY initial_time_stamp DESC`
	rows, err := r.db.Query(ctx, query, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// FindPaymentsByAmount retrieves all payments with a given original amount.
func (r *PostgresRepository) FindPaymentsByAmount(ctx context.Context, amount float64) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_amount = $1 ORDER BY initial_time_stamp DESC`
	rows, err := r.db.Query(ctx, query, amount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// ListPayments retrieves payment records newest first with pagination.
func (r *PostgresRepository) ListPayments(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY initial_time_stamp DESC LIMIT $1 OFFSET $2`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPayments(rows)
}

// DeletePayment removes a payment record by its identifier.
func (r *PostgresRepository) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM payments WHERE id = $1`, paymentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.PaymentAmount,
		&payment.DiscountedAmount,
		&payment.RedeemedValueAmount,
		&payment.Email,
		&payment.CreditCard,
		&payment.CVC,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func collectPayments(rows pgx.Rows) ([]domain.Payment, error) {
	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *payment)
	}
	return payments, rows.Err()
}
