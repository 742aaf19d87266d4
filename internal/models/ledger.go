package models

import (
	"time"
)

// Source and lifecycle enums mirror the payment_ledger table. The table is
// written by external payment-processing jobs; this service only reads it.

type SourceType string

const (
	SourceCampaign SourceType = "campaign"
	SourceBoost    SourceType = "boost"
)

type PaymentType string

const (
	PaymentCPM       PaymentType = "cpm"
	PaymentMilestone PaymentType = "milestone"
	PaymentFlatRate  PaymentType = "flat_rate"
	PaymentRetainer  PaymentType = "retainer"
	PaymentViewBonus PaymentType = "view_bonus"
)

type EntryStatus string

const (
	StatusPending    EntryStatus = "pending"
	StatusClearing   EntryStatus = "clearing"
	StatusPaid       EntryStatus = "paid"
	StatusClawedBack EntryStatus = "clawed_back"
)

// LedgerEntry is one row of the external payment_ledger table.
//
// AccruedAmount and PaidAmount carry the raw numeric text the store
// returned. The store is not trusted to hold clean numbers (NULL,
// non-numeric, negative and inconsistent values all occur), so conversion
// to cents happens in the aggregation layer where a bad value can be
// recorded as an anomaly instead of failing the whole fetch.
type LedgerEntry struct {
	ID                string      `json:"id" db:"id"`
	UserID            string      `json:"user_id" db:"user_id"`
	VideoSubmissionID *string     `json:"video_submission_id" db:"video_submission_id"`
	BoostSubmissionID *string     `json:"boost_submission_id" db:"boost_submission_id"`
	SourceType        SourceType  `json:"source_type" db:"source_type"`
	SourceID          string      `json:"source_id" db:"source_id"`
	PaymentType       PaymentType `json:"payment_type" db:"payment_type"`
	AccruedAmount     *string     `json:"accrued_amount" db:"accrued_amount"`
	PaidAmount        *string     `json:"paid_amount" db:"paid_amount"`
	Status            EntryStatus `json:"status" db:"status"`
	PayoutRequestID   *string     `json:"payout_request_id" db:"payout_request_id"`
	LockedAt          *time.Time  `json:"locked_at" db:"locked_at"`
	ClearingEndsAt    *time.Time  `json:"clearing_ends_at" db:"clearing_ends_at"`
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
}

// RollupKey is the per-content-unit grouping key. Entries not tied to a
// video or boost submission roll up under their own id, so every entry has
// exactly one key.
func (e *LedgerEntry) RollupKey() string {
	if e.VideoSubmissionID != nil && *e.VideoSubmissionID != "" {
		return *e.VideoSubmissionID
	}
	if e.BoostSubmissionID != nil && *e.BoostSubmissionID != "" {
		return *e.BoostSubmissionID
	}
	return e.ID
}
