/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the payment-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID generation and handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
	"github.com/google/uuid"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// SavePayment persists a new payment record and returns the stored copy.
	// The returned record carries the generated identifier; a record without
	// an identifier never committed.
	SavePayment(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)

	// Read operations over the payments table.
	FindPaymentByID(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	FindPaymentsByEmail(ctx context.Context, email string) ([]domain.Payment, error)
	FindPaymentsByAmount(ctx context.Context, amount float64) ([]domain.Payment, error)
	ListPayments(ctx context.Context, limit, offset int) ([]domain.Payment, error)

	// DeletePayment removes a payment record. Returns ErrPaymentNotFound when
	// no row matched.
	DeletePayment(ctx context.Context, paymentID uuid.UUID) error
}
