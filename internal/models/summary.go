package models

import (
	"time"
)

// Everything in this file is derived per fetch and never persisted.
// Amounts are dollars; the aggregation itself runs in integer cents and
// converts only when populating these structs.

type VideoStatus string

const (
	VideoAccruing   VideoStatus = "accruing"
	VideoClearing   VideoStatus = "clearing"
	VideoPaid       VideoStatus = "paid"
	VideoClawedBack VideoStatus = "clawed_back"
)

// VideoLedgerEntry is the rollup for one content unit (video submission,
// boost submission, or a standalone entry).
type VideoLedgerEntry struct {
	Key             string      `json:"key"`
	Status          VideoStatus `json:"status"`
	Accrued         float64     `json:"accrued"`
	Paid            float64     `json:"paid"`
	Pending         float64     `json:"pending"`
	ClearingEndsAt  *time.Time  `json:"clearingEndsAt,omitempty"`
	PayoutRequestID *string     `json:"payoutRequestId,omitempty"`
}

// SourceRollup accumulates amounts per (source_type, source_id).
type SourceRollup struct {
	SourceType SourceType `json:"sourceType"`
	SourceID   string     `json:"sourceId"`
	Accrued    float64    `json:"accrued"`
	Paid       float64    `json:"paid"`
	Pending    float64    `json:"pending"`
	EntryCount int        `json:"entryCount"`
}

// ClearingRequest merges all clearing entries that share a payout_request_id.
type ClearingRequest struct {
	PayoutRequestID string     `json:"payoutRequestId"`
	Amount          float64    `json:"amount"`
	ClearingEndsAt  *time.Time `json:"clearingEndsAt,omitempty"`
	DaysRemaining   int        `json:"daysRemaining"`
	CanBeFlagged    bool       `json:"canBeFlagged"`
	ItemCount       int        `json:"itemCount"`
}

type AnomalyType string

const (
	AnomalyOverpayment   AnomalyType = "overpayment"
	AnomalyInvalidAmount AnomalyType = "invalid_amount"
)

// PaymentAnomaly records a data-quality problem found on a single entry.
// Anomalies are informational; aggregation continues with a clamped or
// zeroed value.
type PaymentAnomaly struct {
	EntryID     string      `json:"entryId"`
	Type        AnomalyType `json:"type"`
	Description string      `json:"description"`
	Amount      float64     `json:"amount"`
}

// PaymentLedgerSummary is the derived state for one user's ledger at a
// point in time. It is always replaced wholesale, never mutated in place.
type PaymentLedgerSummary struct {
	TotalAccrued  float64 `json:"totalAccrued"`
	TotalPaid     float64 `json:"totalPaid"`
	TotalPending  float64 `json:"totalPending"`
	TotalClearing float64 `json:"totalClearing"`

	AccruingCount   int `json:"accruingCount"`
	PaidCount       int `json:"paidCount"`
	ClearingCount   int `json:"clearingCount"`
	ClawedBackCount int `json:"clawedBackCount"`

	VideoEntries     map[string]*VideoLedgerEntry `json:"videoEntries"`
	SourceRollups    map[string]*SourceRollup     `json:"sourceRollups"`
	ClearingRequests map[string]*ClearingRequest  `json:"clearingRequests"`

	EarliestClearingEndsAt  *time.Time `json:"earliestClearingEndsAt,omitempty"`
	HasActiveFlaggableItems bool       `json:"hasActiveFlaggableItems"`

	Anomalies    []PaymentAnomaly `json:"anomalies"`
	HasAnomalies bool             `json:"hasAnomalies"`
}
