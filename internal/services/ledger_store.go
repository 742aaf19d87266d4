package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/creatorpay/backend/internal/models"
)

// LedgerStore is the read-only view of the external payment_ledger table.
type LedgerStore interface {
	EntriesForUser(ctx context.Context, userID string) ([]models.LedgerEntry, error)
}

type PostgresLedgerStore struct {
	db *sql.DB
}

func NewPostgresLedgerStore(db *sql.DB) *PostgresLedgerStore {
	return &PostgresLedgerStore{db: db}
}

// EntriesForUser fetches a user's ledger rows, newest first. The monetary
// columns are selected as text on purpose: the rows are written by external
// jobs and a malformed numeric must surface as an anomaly in aggregation,
// not as a Scan error that fails the whole fetch.
func (s *PostgresLedgerStore) EntriesForUser(ctx context.Context, userID string) ([]models.LedgerEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, user_id, video_submission_id, boost_submission_id,
               source_type, source_id, payment_type,
               accrued_amount::text, paid_amount::text,
               status, payout_request_id, locked_at, clearing_ends_at, created_at
        FROM payment_ledger
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var (
			e               models.LedgerEntry
			videoID         sql.NullString
			boostID         sql.NullString
			accrued         sql.NullString
			paid            sql.NullString
			payoutRequestID sql.NullString
			lockedAt        sql.NullTime
			clearingEndsAt  sql.NullTime
		)

		err := rows.Scan(
			&e.ID, &e.UserID, &videoID, &boostID,
			&e.SourceType, &e.SourceID, &e.PaymentType,
			&accrued, &paid,
			&e.Status, &payoutRequestID, &lockedAt, &clearingEndsAt, &e.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		e.VideoSubmissionID = nullableString(videoID)
		e.BoostSubmissionID = nullableString(boostID)
		e.AccruedAmount = nullableString(accrued)
		e.PaidAmount = nullableString(paid)
		e.PayoutRequestID = nullableString(payoutRequestID)
		e.LockedAt = nullableTime(lockedAt)
		e.ClearingEndsAt = nullableTime(clearingEndsAt)

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
