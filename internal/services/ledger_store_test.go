package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/creatorpay/backend/internal/models"
)

var ledgerColumns = []string{
	"id", "user_id", "video_submission_id", "boost_submission_id",
	"source_type", "source_id", "payment_type",
	"accrued_amount", "paid_amount",
	"status", "payout_request_id", "locked_at", "clearing_ends_at", "created_at",
}

func TestPostgresLedgerStore_EntriesForUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewPostgresLedgerStore(db)

	t.Run("maps rows including nulls", func(t *testing.T) {
		lockedAt := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		createdAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

		rows := sqlmock.NewRows(ledgerColumns).
			AddRow("e1", "user-123", "video-1", nil,
				"campaign", "campaign-1", "cpm",
				"10.10", "4.00",
				"clearing", "pr-1", lockedAt, lockedAt.AddDate(0, 0, 7), createdAt).
			AddRow("e2", "user-123", nil, "boost-1",
				"boost", "boost-src-1", "flat_rate",
				nil, nil,
				"pending", nil, nil, nil, createdAt)

		mock.ExpectQuery("SELECT (.+) FROM payment_ledger WHERE user_id = \\$1 ORDER BY created_at DESC").
			WithArgs("user-123").
			WillReturnRows(rows)

		entries, err := store.EntriesForUser(context.Background(), "user-123")

		assert.NoError(t, err)
		assert.Len(t, entries, 2)

		first := entries[0]
		assert.Equal(t, "e1", first.ID)
		assert.Equal(t, "video-1", *first.VideoSubmissionID)
		assert.Nil(t, first.BoostSubmissionID)
		assert.Equal(t, models.SourceCampaign, first.SourceType)
		assert.Equal(t, models.PaymentCPM, first.PaymentType)
		assert.Equal(t, "10.10", *first.AccruedAmount)
		assert.Equal(t, models.StatusClearing, first.Status)
		assert.Equal(t, "pr-1", *first.PayoutRequestID)
		assert.True(t, first.LockedAt.Equal(lockedAt))

		second := entries[1]
		assert.Nil(t, second.VideoSubmissionID)
		assert.Equal(t, "boost-1", *second.BoostSubmissionID)
		assert.Nil(t, second.AccruedAmount)
		assert.Nil(t, second.PaidAmount)
		assert.Nil(t, second.LockedAt)
		assert.Nil(t, second.ClearingEndsAt)
	})

	t.Run("malformed numeric text survives the scan", func(t *testing.T) {
		createdAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
		rows := sqlmock.NewRows(ledgerColumns).
			AddRow("e1", "user-123", "video-1", nil,
				"campaign", "campaign-1", "cpm",
				"NaN", "0",
				"pending", nil, nil, nil, createdAt)

		mock.ExpectQuery("SELECT (.+) FROM payment_ledger").
			WithArgs("user-123").
			WillReturnRows(rows)

		entries, err := store.EntriesForUser(context.Background(), "user-123")

		assert.NoError(t, err)
		assert.Equal(t, "NaN", *entries[0].AccruedAmount)
	})

	t.Run("no rows yields an empty non-nil slice", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payment_ledger").
			WithArgs("user-404").
			WillReturnRows(sqlmock.NewRows(ledgerColumns))

		entries, err := store.EntriesForUser(context.Background(), "user-404")

		assert.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("query error propagates", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM payment_ledger").
			WithArgs("user-123").
			WillReturnError(assert.AnError)

		entries, err := store.EntriesForUser(context.Background(), "user-123")

		assert.Error(t, err)
		assert.Nil(t, entries)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
