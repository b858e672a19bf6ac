/**
 * @description
 * This file defines the core domain models for the payment-service.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - Using distinct types for API requests, database models, and external service
 *   payloads ensures clear separation of concerns and type safety.
 * - Payment amounts travel as float64 currency units because that is the wire
 *   contract the service orchestrator and gateway already speak. Reward points
 *   are plain integers.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the caller-visible outcome of one payment.
type PaymentStatus string

const (
	StatusSuccessful PaymentStatus = "SUCCESSFUL"
	StatusFailed     PaymentStatus = "FAILED"
)

// PaymentRequest is the inbound topic message for one payment. It is immutable
// once received; the correlation id ties together every downstream message
// derived from it.
type PaymentRequest struct {
	TopicName     string  `json:"topicName"`
	CorrelationID int64   `json:"correlationId"`
	PaymentAmount float64 `json:"paymentAmount"`
	Email         string  `json:"email"`
	CreditCard    string  `json:"creditCard"`
	CVC           string  `json:"cvc"`
}

// PaymentResponse is returned to the caller after the payment has been
// committed (or rejected by the store). The correlation id is echoed unchanged.
type PaymentResponse struct {
	TopicName     string        `json:"topicName"`
	PaymentAmount float64       `json:"paymentAmount"`
	Email         string        `json:"email"`
	CreditCard    string        `json:"creditCard"`
	CorrelationID int64         `json:"correlationId"`
	Status        PaymentStatus `json:"status"`
}

// Payment is the persisted financial record for one processed payment.
// It maps to the `payments` table; a zero ID means the record never committed.
type Payment struct {
	ID                  uuid.UUID `json:"id"`
	PaymentAmount       float64   `json:"payment_amount"`
	DiscountedAmount    float64   `json:"discounted_amount"`
	RedeemedValueAmount float64   `json:"redeemed_value_amount"`
	Email               string    `json:"email"`
	CreditCard          string    `json:"credit_card"`
	CVC                 string    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}

// Committed reports whether the store assigned an identifier to this record.
// The presence of the identifier is the sole success signal for a payment.
func (p *Payment) Committed() bool {
	return p != nil && p.ID != uuid.Nil
}

// AccountInfo is a read-only snapshot of a customer's loyalty profile, owned
// by the user management service. It is valid only for the duration of one
// orchestration run and is never cached across requests.
type AccountInfo struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	RewardPoints int    `json:"rewardPoints"`
	CreditCard   string `json:"creditCard,omitempty"`
}

// DiscountOutcome is the value object produced by the discount calculator.
// Computed once per request, never mutated.
type DiscountOutcome struct {
	Balance          int     // points observed at lookup time
	RedeemedPoints   int     // capped redemption, 0 <= redeemed <= balance
	DiscountedAmount float64 // amount after discount, floored at 0
	RedeemedValue    float64 // currency value of the redeemed points
	ResidualBalance  int     // balance - redeemed
}

// LookupOutcome tags the result of a remote lookup so that "no record" and
// "transport failure" stay distinct from a usable response.
type LookupOutcome int

const (
	LookupPresent LookupOutcome = iota
	LookupAbsent
	LookupTransportError
)

// AccountLookupResult is the tagged result of an account info lookup.
// Account is non-nil only when Outcome is LookupPresent.
type AccountLookupResult struct {
	Outcome LookupOutcome
	Account *AccountInfo
	Reason  string
}

// SessionIdentityResult is the tagged result of a session identity lookup.
// Username is non-empty only when Outcome is LookupPresent.
type SessionIdentityResult struct {
	Outcome  LookupOutcome
	Username string
	Reason   string
}

// RewardReason labels a point-balance update on the user management wire.
type RewardReason string

const (
	PointsRedeemed RewardReason = "POINTS_REDEEMED"
	PointsAdded    RewardReason = "POINTS_ADDED"
)

// AccountInfoRequest is the outbound topic message asking the user management
// service for a customer's loyalty profile.
type AccountInfoRequest struct {
	TopicName     string `json:"topicName"`
	Email         string `json:"email"`
	Username      string `json:"username,omitempty"`
	CorrelationID int64  `json:"correlationId"`
}

// AccountInfoResponse is the user management service's reply to an
// AccountInfoRequest.
type AccountInfoResponse struct {
	TopicName     string `json:"topicName"`
	Name          string `json:"name"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	RewardPoints  int    `json:"rewardPoints"`
	CreditCard    string `json:"creditCard,omitempty"`
	CorrelationID int64  `json:"correlationId"`
}

// RewardsRequest sets a customer's point balance to a new absolute value,
// tagged with the reason for the change.
type RewardsRequest struct {
	TopicName         string       `json:"topicName"`
	CorrelationID     int64        `json:"correlationId"`
	Email             string       `json:"email"`
	Name              string       `json:"name"`
	Username          string       `json:"username"`
	RewardPoints      int          `json:"rewardPoints"`
	ApplicationReason RewardReason `json:"applicationReason"`
}

// RewardsResponse acknowledges a RewardsRequest, echoing the reason applied.
type RewardsResponse struct {
	TopicName         string       `json:"topicName"`
	CorrelationID     int64        `json:"correlationId"`
	ApplicationReason RewardReason `json:"applicationReason"`
}

// PaymentEvent is the message payload published to RabbitMQ after a payment
// has been processed (routing keys payment.processed / payment.failed).
type PaymentEvent struct {
	PaymentID        *uuid.UUID    `json:"payment_id,omitempty"`
	CorrelationID    int64         `json:"correlation_id"`
	Email            string        `json:"email"`
	PaymentAmount    float64       `json:"payment_amount"`
	DiscountedAmount float64       `json:"discounted_amount"`
	Status           PaymentStatus `json:"status"`
	Timestamp        time.Time     `json:"timestamp"`
}
