/**
 * @description
 * This file implements the reward credit reconciler: the asynchronous follow-up
 * to a processed payment. It independently re-reads the customer's point
 * balance and credits the points earned from the payment, decoupled from the
 * synchronous payment path.
 *
 * Jobs flow through a bounded queue into a fixed pool of workers. Each job
 * walks a small state machine (started -> identity_resolved -> balance_fetched
 * -> credit_sent -> done) and any failure aborts it terminally: this path is
 * best-effort, never retried, and never surfaces to the payment caller. Its
 * only failure channel is the log.
 *
 * The reconciler's balance read is deliberately independent of the snapshot
 * the orchestrator used for redemption. The two reads can race against
 * concurrent payments for the same customer; that divergence is a documented
 * property of the system, not a bug to serialize away.
 */

package app

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/bryzn-microservice-project/payment-service/internal/domain"
)

// DefaultEarnRate converts payment amounts to earned points: 1 point per 10
// currency units.
const DefaultEarnRate = 10.0

// jobTimeout bounds one reconciliation unit of work end to end.
const jobTimeout = 15 * time.Second

// SessionService is the boundary to the session manager: who, if anyone, is
// currently logged in.
type SessionService interface {
	CurrentUser(ctx context.Context) domain.SessionIdentityResult
}

// RewardCreditJob carries everything a worker needs to credit points for one
// payment. DiscountedAmount rides along for logging; the earn formula uses
// the original payment amount.
type RewardCreditJob struct {
	Request          domain.PaymentRequest
	DiscountedAmount float64
}

// RewardReconciler owns the bounded queue and worker pool for reward credits.
type RewardReconciler struct {
	accounts AccountService
	sessions SessionService
	earnRate float64

	jobs    chan RewardCreditJob
	workers int
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewRewardReconciler creates a reconciler with the given pool size and queue
// capacity. Start must be called before jobs are processed.
func NewRewardReconciler(accounts AccountService, sessions SessionService, earnRate float64, workers, queueSize int) *RewardReconciler {
	if earnRate <= 0 {
		earnRate = DefaultEarnRate
	}
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &RewardReconciler{
		accounts: accounts,
		sessions: sessions,
		earnRate: earnRate,
		jobs:     make(chan RewardCreditJob, queueSize),
		workers:  workers,
	}
}

// Start launches the worker pool. Safe to call once.
func (r *RewardReconciler) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.closed {
		return
	}
	r.started = true

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.jobs {
				r.process(job)
			}
		}()
	}
	log.Printf("level=info component=reward_reconciler msg=\"worker pool started\" workers=%d queue_size=%d", r.workers, cap(r.jobs))
}

// Stop closes the queue and waits for in-flight jobs to finish. Jobs already
// accepted run to completion; the caller cannot cancel them.
func (r *RewardReconciler) Stop() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.jobs)
	r.mu.Unlock()

	r.wg.Wait()
	log.Printf("level=info component=reward_reconciler msg=\"worker pool drained\"")
}

// Enqueue hands a job to the pool without blocking. Returns false when the
// queue is full or the reconciler has been stopped; the job is then dropped.
func (r *RewardReconciler) Enqueue(job RewardCreditJob) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	select {
	case r.jobs <- job:
		return true
	default:
		return false
	}
}

// process runs one reward credit to completion or abort. Every outbound
// message carries the job's correlation id unchanged.
func (r *RewardReconciler) process(job RewardCreditJob) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	correlationID := job.Request.CorrelationID
	log.Printf("level=info component=reward_reconciler stage=started correlation_id=%d email=%s", correlationID, job.Request.Email)

	// Resolve the logged-in identity. Nobody logged in is a silent skip, not
	// an error.
	identity := r.sessions.CurrentUser(ctx)
	switch identity.Outcome {
	case domain.LookupAbsent:
		log.Printf("level=info component=reward_reconciler stage=aborted correlation_id=%d reason=\"no user logged in; skipping credit\"", correlationID)
		return
	case domain.LookupTransportError:
		log.Printf("level=warn component=reward_reconciler stage=aborted correlation_id=%d reason=%q", correlationID, identity.Reason)
		return
	}
	log.Printf("level=info component=reward_reconciler stage=identity_resolved correlation_id=%d username=%s", correlationID, identity.Username)

	// Independent balance re-fetch; the orchestrator's earlier snapshot is
	// never reused.
	lookup := r.accounts.LookupAccount(ctx, job.Request.Email, correlationID)
	if lookup.Outcome != domain.LookupPresent {
		log.Printf("level=warn component=reward_reconciler stage=aborted correlation_id=%d reason=\"account lookup failed: %s\"", correlationID, lookup.Reason)
		return
	}
	log.Printf("level=info component=reward_reconciler stage=balance_fetched correlation_id=%d reward_points=%d", correlationID, lookup.Account.RewardPoints)

	earned := int(math.Floor(job.Request.PaymentAmount / r.earnRate))
	newBalance := lookup.Account.RewardPoints + earned

	rewardsReq := domain.RewardsRequest{
		CorrelationID:     correlationID,
		Email:             job.Request.Email,
		Name:              lookup.Account.Name,
		Username:          identity.Username,
		RewardPoints:      newBalance,
		ApplicationReason: domain.PointsAdded,
	}

	resp, err := r.accounts.UpdateRewards(ctx, rewardsReq)
	if err != nil {
		log.Printf("level=warn component=reward_reconciler stage=aborted correlation_id=%d reason=\"credit push failed: %v\"", correlationID, err)
		return
	}
	log.Printf("level=info component=reward_reconciler stage=credit_sent correlation_id=%d earned_points=%d new_balance=%d reason=%s", correlationID, earned, newBalance, resp.ApplicationReason)

	log.Printf("level=info component=reward_reconciler stage=done correlation_id=%d", correlationID)
}
