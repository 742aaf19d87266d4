package services

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/creatorpay/backend/internal/config"
	"github.com/creatorpay/backend/internal/models"
)

// ErrFetchFailed is the error string surfaced to consumers when the store
// read fails. The previous summary stays visible; a stale balance beats a
// misleading zero-balance flash.
const ErrFetchFailed = "Failed to fetch payment ledger"

// LedgerState is the snapshot handed to consumers. It is copied out under
// the aggregator's lock, so readers never observe a half-applied fetch.
type LedgerState struct {
	Entries []models.LedgerEntry         `json:"entries"`
	Summary *models.PaymentLedgerSummary `json:"summary"`
	Loading bool                         `json:"loading"`
	Error   string                       `json:"error,omitempty"`
}

// LedgerAggregator reconstructs one user's earnings state from the raw
// ledger table and keeps it fresh.
//
// Overlapping fetches are the central hazard: a refetch, a change-feed
// signal and an explicit refresh can all be in flight at once, and their
// responses may complete out of order. Every fetch captures a sequence
// number at issue time from a monotonically increasing counter; the result
// (success or failure) is applied only while that number is still the
// latest issued. Last-issued wins, never last-completed.
type LedgerAggregator struct {
	store   LedgerStore
	payouts PayoutRequester
	feed    ChangeFeed
	cfg     *config.LedgerConfig

	targetUserID string
	authUserID   string

	now func() time.Time

	seq atomic.Uint64

	mu          sync.Mutex
	entries     []models.LedgerEntry
	summary     *models.PaymentLedgerSummary
	loading     bool
	errMsg      string
	unsubscribe func()
}

func NewLedgerAggregator(store LedgerStore, payouts PayoutRequester, feed ChangeFeed, cfg *config.LedgerConfig, targetUserID, authUserID string) *LedgerAggregator {
	return &LedgerAggregator{
		store:        store,
		payouts:      payouts,
		feed:         feed,
		cfg:          cfg,
		targetUserID: targetUserID,
		authUserID:   authUserID,
		now:          time.Now,
		entries:      []models.LedgerEntry{},
	}
}

// ResolveUser picks the user whose ledger is read: an explicit target wins,
// otherwise the authenticated caller. Empty means there is nothing to
// fetch, which is an empty summary rather than an error.
func (a *LedgerAggregator) ResolveUser() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resolveUserLocked()
}

// resolveUserLocked requires a.mu held. Retarget rewrites targetUserID, so
// every read goes through the lock.
func (a *LedgerAggregator) resolveUserLocked() string {
	if a.targetUserID != "" {
		return a.targetUserID
	}
	return a.authUserID
}

// Start subscribes to the change feed for the resolved user and primes the
// cache with an initial fetch. The priming fetch runs even when the
// subscription fails: stale-but-real data without live updates beats an
// empty state that looks like a zero balance. The subscription error is
// still returned so callers can log the degraded mode.
func (a *LedgerAggregator) Start(ctx context.Context) error {
	userID := a.ResolveUser()

	var subErr error
	if userID != "" && a.feed != nil {
		unsubscribe, err := a.feed.Subscribe(ctx, userID, func() {
			a.Refetch(context.Background())
		})
		if err != nil {
			subErr = err
		} else {
			a.mu.Lock()
			if a.unsubscribe != nil {
				a.unsubscribe()
			}
			a.unsubscribe = unsubscribe
			a.mu.Unlock()
		}
	}

	a.Refetch(ctx)
	return subErr
}

// Retarget switches the aggregator to a different target user. The old
// subscription is torn down before the new one is established, so exactly
// one is ever live; the sequence counter then makes any in-flight fetch
// for the old user stale.
func (a *LedgerAggregator) Retarget(ctx context.Context, targetUserID string) error {
	a.mu.Lock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
	a.targetUserID = targetUserID
	a.entries = []models.LedgerEntry{}
	a.summary = nil
	a.errMsg = ""
	a.mu.Unlock()

	return a.Start(ctx)
}

// Close tears down the change-feed subscription. Without this, an
// abandoned aggregator keeps triggering fetches on every change signal.
func (a *LedgerAggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// Refetch reads the ledger and rebuilds the summary. There is no
// incremental path: every change recomputes from the full snapshot, which
// keeps the derivation single-sourced.
//
// In-flight fetches are not cancelled when a newer one is issued; their
// results are discarded at the gate below instead.
func (a *LedgerAggregator) Refetch(ctx context.Context) {
	seq := a.seq.Add(1)

	a.mu.Lock()
	userID := a.resolveUserLocked()
	target, auth := a.targetUserID, a.authUserID
	a.mu.Unlock()

	if userID == "" {
		a.mu.Lock()
		defer a.mu.Unlock()
		if seq != a.seq.Load() {
			return
		}
		a.entries = []models.LedgerEntry{}
		a.summary = nil
		a.errMsg = ""
		a.loading = false
		return
	}

	// Authorization is the store's concern (row access rules); cross-user
	// reads are recorded for audit, not blocked.
	if target != "" && auth != "" && target != auth {
		log.Printf("[LEDGER] Cross-user ledger read: caller %s, target %s", auth, target)
	}

	a.mu.Lock()
	a.loading = true
	a.mu.Unlock()

	entries, err := a.store.EntriesForUser(ctx, userID)

	a.mu.Lock()
	defer a.mu.Unlock()

	// Staleness gate: a newer fetch was issued while this one was in
	// flight. Its outcome, success or failure, no longer matters.
	if seq != a.seq.Load() {
		return
	}

	if err != nil {
		log.Printf("[LEDGER] Fetch failed for user %s: %v", userID, err)
		a.errMsg = ErrFetchFailed
		a.loading = false
		return
	}

	a.entries = entries
	a.summary = BuildSummary(entries, a.now(), a.cfg)
	a.errMsg = ""
	a.loading = false
}

// Snapshot returns the last accepted state. Entries and summary are shared
// read-only values replaced wholesale on each accepted fetch.
func (a *LedgerAggregator) Snapshot() LedgerState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return LedgerState{
		Entries: a.entries,
		Summary: a.summary,
		Loading: a.loading,
		Error:   a.errMsg,
	}
}

// RequestPayout invokes the external request-payout procedure and then
// refetches. Local state is never mutated optimistically: whatever the RPC
// did, the store is re-read and its answer wins. The RPC error propagates
// so callers can show actionable feedback.
func (a *LedgerAggregator) RequestPayout(ctx context.Context, params PayoutParams) error {
	userID := a.ResolveUser()

	err := a.payouts.RequestPayout(ctx, userID, params)

	// Refetch even on failure: the RPC may have partially advanced
	// external state before erroring, and the store is authoritative.
	a.Refetch(ctx)

	return err
}

// RequestPayoutForVideo requests a payout scoped to one video submission.
func (a *LedgerAggregator) RequestPayoutForVideo(ctx context.Context, videoSubmissionID string) error {
	return a.RequestPayout(ctx, PayoutParams{VideoSubmissionID: videoSubmissionID})
}

// RequestPayoutForBoost requests a payout scoped to one boost submission.
func (a *LedgerAggregator) RequestPayoutForBoost(ctx context.Context, boostSubmissionID string) error {
	return a.RequestPayout(ctx, PayoutParams{BoostSubmissionID: boostSubmissionID})
}

// GetPendingBySource sums the unpaid remainder of all pending-status
// entries for one source, in dollars. Summation runs in cents over the
// last fetched snapshot.
func (a *LedgerAggregator) GetPendingBySource(sourceType models.SourceType, sourceID string) float64 {
	a.mu.Lock()
	entries := a.entries
	a.mu.Unlock()

	var cents int64
	for i := range entries {
		e := &entries[i]
		if e.Status != models.StatusPending || e.SourceType != sourceType || e.SourceID != sourceID {
			continue
		}
		accrued := ParseMoneyToCents(e.AccruedAmount)
		paid := ParseMoneyToCents(e.PaidAmount)
		pending := accrued.Cents - paid.Cents
		if pending > 0 {
			cents += pending
		}
	}
	return CentsToDollars(cents)
}

// GetEntryByVideoID looks up the per-video rollup in the current summary.
func (a *LedgerAggregator) GetEntryByVideoID(videoID string) *models.VideoLedgerEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.summary == nil {
		return nil
	}
	return a.summary.VideoEntries[videoID]
}
