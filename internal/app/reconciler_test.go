package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
)

type sessionStub struct {
	result domain.SessionIdentityResult
}

func (s *sessionStub) CurrentUser(ctx context.Context) domain.SessionIdentityResult {
	return s.result
}

// syncAccountStub is a thread-safe account service whose balance behaves like
// the real remote resource: reads return the current value, updates overwrite
// it. A channel signals every completed rewards call so tests can wait
// without sleeping.
type syncAccountStub struct {
	mu      sync.Mutex
	balance int
	updates chan domain.RewardsRequest

	lookupErr  bool
	rewardsErr bool
}

func newSyncAccountStub(balance int) *syncAccountStub {
	return &syncAccountStub{balance: balance, updates: make(chan domain.RewardsRequest, 16)}
}

func (s *syncAccountStub) LookupAccount(ctx context.Context, email string, correlationID int64) domain.AccountLookupResult {
	if s.lookupErr {
		return domain.AccountLookupResult{Outcome: domain.LookupTransportError, Reason: "stubbed failure"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.AccountLookupResult{
		Outcome: domain.LookupPresent,
		Account: &domain.AccountInfo{
			Name:         "Test User",
			Username:     "testuser",
			Email:        email,
			RewardPoints: s.balance,
		},
	}
}

func (s *syncAccountStub) UpdateRewards(ctx context.Context, req domain.RewardsRequest) (*domain.RewardsResponse, error) {
	if s.rewardsErr {
		return nil, errors.New("stubbed rewards failure")
	}
	s.mu.Lock()
	s.balance = req.RewardPoints
	s.mu.Unlock()
	s.updates <- req
	return &domain.RewardsResponse{
		TopicName:         "RewardsResponse",
		CorrelationID:     req.CorrelationID,
		ApplicationReason: req.ApplicationReason,
	}, nil
}

func (s *syncAccountStub) currentBalance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

func waitForUpdate(t *testing.T, updates <-chan domain.RewardsRequest) domain.RewardsRequest {
	t.Helper()
	select {
	case req := <-updates:
		return req
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a rewards update")
		return domain.RewardsRequest{}
	}
}

func TestReconciler_CreditsEarnedPoints(t *testing.T) {
	accounts := newSyncAccountStub(300)
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupPresent, Username: "testuser"}}
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 4)
	rec.Start()
	defer rec.Stop()

	job := RewardCreditJob{Request: domain.PaymentRequest{
		CorrelationID: 42,
		PaymentAmount: 125.00,
		Email:         "test.user@example.com",
	}}
	if !rec.Enqueue(job) {
		t.Fatal("enqueue rejected")
	}

	update := waitForUpdate(t, accounts.updates)
	if update.ApplicationReason != domain.PointsAdded {
		t.Errorf("reason = %s, want POINTS_ADDED", update.ApplicationReason)
	}
	// 300 on file + floor(125/10) earned.
	if update.RewardPoints != 312 {
		t.Errorf("new balance = %d, want 312", update.RewardPoints)
	}
	if update.CorrelationID != 42 {
		t.Errorf("correlation id = %d, want 42", update.CorrelationID)
	}
	if update.Username != "testuser" {
		t.Errorf("username = %q, want session identity", update.Username)
	}
}

func TestReconciler_SkipsWhenNobodyLoggedIn(t *testing.T) {
	accounts := newSyncAccountStub(300)
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupAbsent, Reason: "no user logged in"}}
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 4)
	rec.Start()

	rec.Enqueue(RewardCreditJob{Request: domain.PaymentRequest{CorrelationID: 7, PaymentAmount: 50}})
	rec.Stop() // drains the queue

	select {
	case req := <-accounts.updates:
		t.Fatalf("no rewards call expected without an identity, got %+v", req)
	default:
	}
	if accounts.currentBalance() != 300 {
		t.Fatalf("balance must be untouched, got %d", accounts.currentBalance())
	}
}

func TestReconciler_AbortsOnLookupFailure(t *testing.T) {
	accounts := newSyncAccountStub(300)
	accounts.lookupErr = true
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupPresent, Username: "testuser"}}
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 4)
	rec.Start()

	rec.Enqueue(RewardCreditJob{Request: domain.PaymentRequest{CorrelationID: 7, PaymentAmount: 50}})
	rec.Stop()

	select {
	case req := <-accounts.updates:
		t.Fatalf("no rewards call expected after a failed lookup, got %+v", req)
	default:
	}
}

func TestReconciler_EnqueueRejectsWhenQueueFull(t *testing.T) {
	accounts := newSyncAccountStub(0)
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupAbsent}}
	// Not started: nothing drains the queue.
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 2)

	if !rec.Enqueue(RewardCreditJob{}) || !rec.Enqueue(RewardCreditJob{}) {
		t.Fatal("queue should accept up to its capacity")
	}
	if rec.Enqueue(RewardCreditJob{}) {
		t.Fatal("expected rejection once the queue is full")
	}
}

func TestReconciler_EnqueueRejectsAfterStop(t *testing.T) {
	accounts := newSyncAccountStub(0)
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupAbsent}}
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 2)
	rec.Start()
	rec.Stop()

	if rec.Enqueue(RewardCreditJob{}) {
		t.Fatal("expected rejection after Stop")
	}
}

// The orchestrator's redemption and the reconciler's credit read the same
// remote balance at different times without coordination. This test pins the
// documented divergence: when the credit's read happens before the redemption
// lands, the credit overwrites the redeemed balance with a value computed
// from the pre-redemption snapshot.
func TestReconciler_BalanceRaceWithRedemptionIsPreserved(t *testing.T) {
	accounts := newSyncAccountStub(1000)
	sessions := &sessionStub{result: domain.SessionIdentityResult{Outcome: domain.LookupPresent, Username: "testuser"}}
	rec := NewRewardReconciler(accounts, sessions, 10, 1, 4)
	rec.Start()
	defer rec.Stop()

	req := domain.PaymentRequest{CorrelationID: 99, PaymentAmount: 120.00, Email: "test.user@example.com"}

	// Reconciler reads the pre-redemption balance (1000) first.
	outcome := ComputeDiscount(1000, req.PaymentAmount, 200)
	lookup := accounts.LookupAccount(context.Background(), req.Email, req.CorrelationID)
	if lookup.Account.RewardPoints != 1000 {
		t.Fatalf("setup: expected snapshot of 1000, got %d", lookup.Account.RewardPoints)
	}

	// The orchestrator's redemption lands afterwards: balance becomes 0.
	if _, err := accounts.UpdateRewards(context.Background(), domain.RewardsRequest{
		CorrelationID:     req.CorrelationID,
		Email:             req.Email,
		RewardPoints:      outcome.ResidualBalance,
		ApplicationReason: domain.PointsRedeemed,
	}); err != nil {
		t.Fatalf("redemption failed: %v", err)
	}
	<-accounts.updates
	if accounts.currentBalance() != 0 {
		t.Fatalf("setup: expected redeemed balance 0, got %d", accounts.currentBalance())
	}

	// The credit then fires with its own (fresh) read. Enqueue the real job:
	// its lookup now sees 0 and credits 12, so the serialized result would be
	// 12. Had its read raced ahead of the redemption, the stale snapshot
	// (1000) would have produced 1012 and clobbered the redemption entirely —
	// both interleavings are legal under this design.
	rec.Enqueue(RewardCreditJob{Request: req})
	update := waitForUpdate(t, accounts.updates)

	earned := 12 // floor(120/10)
	staleResult := 1000 + earned
	freshResult := 0 + earned
	if update.RewardPoints != freshResult && update.RewardPoints != staleResult {
		t.Fatalf("credit balance %d matches neither interleaving (%d or %d)", update.RewardPoints, freshResult, staleResult)
	}

	// No serialization exists that would reconcile the two writes: whichever
	// write lands last simply wins.
	if accounts.currentBalance() != update.RewardPoints {
		t.Fatalf("last write must win, balance=%d lastWrite=%d", accounts.currentBalance(), update.RewardPoints)
	}
}
