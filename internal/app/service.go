/**
 * @description
 * This file contains the core business logic for the payment-service. The `Service`
 * struct orchestrates one payment end-to-end: loyalty lookup, discount application,
 * the financial commit, synchronous point redemption, and the fire-and-forget
 * handoff to the reward credit reconciler.
 *
 * Key properties:
 * - Only the persistence step decides the caller-visible outcome. Every other
 *   remote step degrades: a missing loyalty profile means no discount, a failed
 *   ledger update is logged and swallowed. The payment is never rolled back for
 *   loyalty bookkeeping.
 * - The correlation id from the inbound request is propagated unchanged on every
 *   outbound message.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
	"github.com/bryzn-microservice-project/payment-service/internal/store"
	"github.com/bryzn-microservice-project/payment-service/pkg/rabbitmq"
	"github.com/google/uuid"
)

var (
	ErrInvalidPaymentAmount = errors.New("payment amount must be positive")
	ErrMissingEmail         = errors.New("payment email is required")
	ErrRateLimited          = errors.New("payment rate limit exceeded")
)

// AccountService is the boundary to the user management service: loyalty
// profile lookups and absolute point-balance updates.
type AccountService interface {
	LookupAccount(ctx context.Context, email string, correlationID int64) domain.AccountLookupResult
	UpdateRewards(ctx context.Context, req domain.RewardsRequest) (*domain.RewardsResponse, error)
}

// RewardDispatcher accepts reward credit jobs for asynchronous processing.
// Enqueue must never block the payment path; it reports whether the job was
// accepted.
type RewardDispatcher interface {
	Enqueue(job RewardCreditJob) bool
}

// PaymentRateLimiter bounds how often one customer can submit payments.
type PaymentRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// Service provides the core business logic for payments.
type Service struct {
	repo          store.Repository
	accounts      AccountService
	eventProducer rabbitmq.Publisher
	reconciler    RewardDispatcher
	redeemRate    float64

	rateLimiter        PaymentRateLimiter
	rateLimitPerMinute int
}

// NewService creates a new payment service instance.
func NewService(repo store.Repository, accounts AccountService, producer rabbitmq.Publisher, reconciler RewardDispatcher, redeemRate float64) *Service {
	if redeemRate <= 0 {
		redeemRate = DefaultRedeemRate
	}
	return &Service{
		repo:          repo,
		accounts:      accounts,
		eventProducer: producer,
		reconciler:    reconciler,
		redeemRate:    redeemRate,
	}
}

// SetPaymentRateLimiter enables per-email payment rate limiting. A nil limiter
// or non-positive limit leaves the feature disabled.
func (s *Service) SetPaymentRateLimiter(limiter PaymentRateLimiter, limitPerMinute int) {
	s.rateLimiter = limiter
	s.rateLimitPerMinute = limitPerMinute
}

// ProcessPayment processes one payment end-to-end and returns the persisted
// record together with the caller-visible status.
//
// A non-nil error is returned only for rejections that happen before any side
// effect (validation, rate limiting). A store failure is not an error here: it
// comes back as StatusFailed, because the absence of a record identifier is
// the one and only failure signal the caller sees.
func (s *Service) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.Payment, domain.PaymentStatus, error) {
	// 1. Validate before any remote call.
	if req.PaymentAmount <= 0 {
		return nil, domain.StatusFailed, ErrInvalidPaymentAmount
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, domain.StatusFailed, ErrMissingEmail
	}

	if err := s.consumePaymentRateLimit(ctx, req.Email); err != nil {
		return nil, domain.StatusFailed, err
	}

	log.Printf("level=info component=payment_service msg=\"processing payment\" correlation_id=%d email=%s amount=%.2f", req.CorrelationID, req.Email, req.PaymentAmount)

	// 2. Loyalty lookup. Transport failures and unknown accounts degrade to
	// "no loyalty profile"; they never block the payment.
	lookup := s.accounts.LookupAccount(ctx, req.Email, req.CorrelationID)
	balance := 0
	switch lookup.Outcome {
	case domain.LookupPresent:
		balance = lookup.Account.RewardPoints
		log.Printf("level=info component=payment_service msg=\"account found\" correlation_id=%d username=%s reward_points=%d", req.CorrelationID, lookup.Account.Username, balance)
	case domain.LookupAbsent:
		log.Printf("level=info component=payment_service msg=\"no loyalty profile; processing without discount\" correlation_id=%d email=%s", req.CorrelationID, req.Email)
	case domain.LookupTransportError:
		log.Printf("level=warn component=payment_service msg=\"account lookup degraded; processing without discount\" correlation_id=%d reason=%q", req.CorrelationID, lookup.Reason)
	}

	// 3. Discount arithmetic.
	outcome := ComputeDiscount(balance, req.PaymentAmount, s.redeemRate)
	if outcome.RedeemedPoints > 0 {
		log.Printf("level=info component=payment_service msg=\"discount applied\" correlation_id=%d redeemed_points=%d redeemed_value=%.2f discounted_amount=%.2f",
			req.CorrelationID, outcome.RedeemedPoints, outcome.RedeemedValue, outcome.DiscountedAmount)
	}

	// 4. Financial commit. This is the only step whose failure the caller sees.
	record := &domain.Payment{
		PaymentAmount:       req.PaymentAmount,
		DiscountedAmount:    outcome.DiscountedAmount,
		RedeemedValueAmount: outcome.RedeemedValue,
		Email:               req.Email,
		CreditCard:          req.CreditCard,
		CVC:                 req.CVC,
		CreatedAt:           time.Now().UTC(),
	}

	saved, err := s.repo.SavePayment(ctx, record)
	status := domain.StatusSuccessful
	if err != nil || !saved.Committed() {
		status = domain.StatusFailed
		log.Printf("level=error component=payment_service msg=\"payment persistence failed\" correlation_id=%d err=%v", req.CorrelationID, err)
		saved = nil
	} else {
		log.Printf("level=info component=payment_service msg=\"payment committed\" correlation_id=%d payment_id=%s status=%s", req.CorrelationID, saved.ID, status)
	}

	// 5. Redeem the spent points, gated on a successful commit. A ledger
	// failure after the money moved is logged and swallowed: the financial
	// commit takes priority over loyalty bookkeeping.
	if status == domain.StatusSuccessful && lookup.Outcome == domain.LookupPresent && outcome.RedeemedPoints > 0 {
		s.redeemPoints(ctx, req, lookup.Account, outcome)
	}

	s.publishPaymentEvent(ctx, req, saved, outcome, status)

	// 6. Fire-and-forget reward credit. Dispatched, never awaited; a full
	// queue drops the job with a log line.
	if s.reconciler != nil {
		job := RewardCreditJob{Request: req, DiscountedAmount: outcome.DiscountedAmount}
		if !s.reconciler.Enqueue(job) {
			log.Printf("level=warn component=payment_service msg=\"reward credit queue full; job dropped\" correlation_id=%d", req.CorrelationID)
		}
	}

	return saved, status, nil
}

// GetPayment retrieves a persisted payment record by its identifier.
func (s *Service) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	return s.repo.FindPaymentByID(ctx, paymentID)
}

// ListPayments retrieves payment records, optionally filtered by email.
func (s *Service) ListPayments(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error) {
	if strings.TrimSpace(email) != "" {
		return s.repo.FindPaymentsByEmail(ctx, email)
	}
	return s.repo.ListPayments(ctx, limit, offset)
}

// DeletePayment removes a persisted payment record.
func (s *Service) DeletePayment(ctx context.Context, paymentID uuid.UUID) error {
	return s.repo.DeletePayment(ctx, paymentID)
}

// redeemPoints pushes the post-redemption balance to the user management
// service. The new balance is absolute: balance observed at lookup minus the
// points spent on this payment.
func (s *Service) redeemPoints(ctx context.Context, req domain.PaymentRequest, account *domain.AccountInfo, outcome domain.DiscountOutcome) {
	rewardsReq := domain.RewardsRequest{
		CorrelationID:     req.CorrelationID,
		Email:             req.Email,
		Name:              account.Name,
		Username:          account.Username,
		RewardPoints:      outcome.ResidualBalance,
		ApplicationReason: domain.PointsRedeemed,
	}

	resp, err := s.accounts.UpdateRewards(ctx, rewardsReq)
	if err != nil {
		log.Printf("level=warn component=payment_service msg=\"point redemption failed; payment already committed\" correlation_id=%d err=%v", req.CorrelationID, err)
		return
	}
	log.Printf("level=info component=payment_service msg=\"points redeemed\" correlation_id=%d new_balance=%d reason=%s", req.CorrelationID, outcome.ResidualBalance, resp.ApplicationReason)
}

func (s *Service) publishPaymentEvent(ctx context.Context, req domain.PaymentRequest, saved *domain.Payment, outcome domain.DiscountOutcome, status domain.PaymentStatus) {
	if s.eventProducer == nil {
		return
	}

	event := domain.PaymentEvent{
		CorrelationID:    req.CorrelationID,
		Email:            req.Email,
		PaymentAmount:    req.PaymentAmount,
		DiscountedAmount: outcome.DiscountedAmount,
		Status:           status,
		Timestamp:        time.Now().UTC(),
	}
	if saved != nil {
		id := saved.ID
		event.PaymentID = &id
	}

	if err := s.eventProducer.PublishPaymentEvent(ctx, event); err != nil {
		log.Printf("level=warn component=payment_service msg=\"payment event publish failed\" correlation_id=%d err=%v", req.CorrelationID, err)
	}
}

func (s *Service) consumePaymentRateLimit(ctx context.Context, email string) error {
	if s.rateLimiter == nil || s.rateLimitPerMinute <= 0 {
		return nil
	}

	count, retryAfter, err := s.rateLimiter.ConsumeRateLimit(ctx, "payments", strings.ToLower(strings.TrimSpace(email)), s.rateLimitPerMinute, time.Minute)
	if err != nil {
		// A broken limiter must not block payments.
		log.Printf("level=warn component=payment_service msg=\"rate limiter unavailable; allowing payment\" err=%v", err)
		return nil
	}
	if count > s.rateLimitPerMinute {
		return fmt.Errorf("%w: retry after %ds", ErrRateLimited, retryAfter)
	}
	return nil
}
