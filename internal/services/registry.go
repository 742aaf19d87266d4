package services

import (
	"context"
	"log"
	"sync"

	"github.com/creatorpay/backend/internal/config"
)

// AggregatorRegistry keeps one live aggregator per resolved user id, the
// server-side analog of one mounted consumer per user. Creating an
// aggregator subscribes it to the change feed; CloseAll tears every
// subscription down on shutdown.
type AggregatorRegistry struct {
	store   LedgerStore
	payouts PayoutRequester
	feed    ChangeFeed
	cfg     *config.LedgerConfig

	mu          sync.Mutex
	aggregators map[string]*LedgerAggregator
}

func NewAggregatorRegistry(store LedgerStore, payouts PayoutRequester, feed ChangeFeed, cfg *config.LedgerConfig) *AggregatorRegistry {
	return &AggregatorRegistry{
		store:       store,
		payouts:     payouts,
		feed:        feed,
		cfg:         cfg,
		aggregators: make(map[string]*LedgerAggregator),
	}
}

// GetOrCreate returns the aggregator for the resolved user, starting one
// (subscription plus priming fetch) on first use. An unresolvable user
// yields a transient aggregator that serves the empty state and holds no
// subscription.
func (r *AggregatorRegistry) GetOrCreate(ctx context.Context, targetUserID, authUserID string) *LedgerAggregator {
	agg := NewLedgerAggregator(r.store, r.payouts, r.feed, r.cfg, targetUserID, authUserID)
	userID := agg.ResolveUser()
	if userID == "" {
		return agg
	}

	r.mu.Lock()
	if existing, ok := r.aggregators[userID]; ok {
		r.mu.Unlock()
		return existing
	}
	r.aggregators[userID] = agg
	r.mu.Unlock()

	if err := agg.Start(ctx); err != nil {
		log.Printf("[LEDGER] Change feed unavailable for user %s, serving without live updates: %v", userID, err)
	}
	return agg
}

// CloseAll tears down every live subscription.
func (r *AggregatorRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, agg := range r.aggregators {
		agg.Close()
		delete(r.aggregators, userID)
	}
}
