package services

import (
	"context"
	"log"

	"github.com/go-redis/redis/v8"
)

// ChangeFeed delivers "this user's ledger rows changed" signals. The
// payload carries no row data; consumers always respond with a full
// refetch so the derivation logic stays single-sourced.
type ChangeFeed interface {
	// Subscribe starts delivering change signals for userID to onChange
	// and returns a teardown function. Exactly one subscription should be
	// live per aggregator; callers tear down the old one before
	// establishing a replacement.
	Subscribe(ctx context.Context, userID string, onChange func()) (func(), error)
}

// RedisChangeFeed bridges the external write path's pub/sub notifications
// into refetch triggers. Payment-processing jobs publish to
// payment_ledger:{userID} after mutating rows.
type RedisChangeFeed struct {
	client *redis.Client
}

func NewRedisChangeFeed(client *redis.Client) *RedisChangeFeed {
	return &RedisChangeFeed{client: client}
}

// ChangeChannel names the pub/sub channel carrying one user's ledger
// change signals.
func ChangeChannel(userID string) string {
	return "payment_ledger:" + userID
}

// Notify publishes a change signal for userID. The payment-processing
// jobs call this after committing ledger mutations.
func (f *RedisChangeFeed) Notify(ctx context.Context, userID string) error {
	return f.client.Publish(ctx, ChangeChannel(userID), "changed").Err()
}

func (f *RedisChangeFeed) Subscribe(ctx context.Context, userID string, onChange func()) (func(), error) {
	pubsub := f.client.Subscribe(ctx, ChangeChannel(userID))

	// Force the SUBSCRIBE round trip so a dead redis fails here instead of
	// silently never delivering.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	go func() {
		for range pubsub.Channel() {
			onChange()
		}
		log.Printf("[FEED] Change feed closed for user %s", userID)
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			log.Printf("[FEED] Failed to close subscription for user %s: %v", userID, err)
		}
	}, nil
}
