package services

import (
	"fmt"
	"time"

	"github.com/creatorpay/backend/internal/config"
	"github.com/creatorpay/backend/internal/models"
)

// Accumulators stay in integer cents until the summary is materialized.
type videoAccumulator struct {
	status          models.VideoStatus
	accruedCents    int64
	paidCents       int64
	pendingCents    int64
	clearingEndsAt  *time.Time
	payoutRequestID *string
}

type sourceAccumulator struct {
	sourceType   models.SourceType
	sourceID     string
	accruedCents int64
	paidCents    int64
	pendingCents int64
	entryCount   int
}

type clearingAccumulator struct {
	pendingCents   int64
	clearingEndsAt *time.Time
	daysRemaining  int
	canBeFlagged   bool
	itemCount      int
}

// BuildSummary derives the complete ledger summary from a point-in-time
// snapshot of a user's entries. It is a pure function of (entries, now,
// cfg): no I/O, no shared state, so overlapping fetches can each run it on
// their own snapshot and the caller decides which result wins.
//
// Data-quality problems never abort the derivation. An unparseable amount
// contributes zero and is recorded as an invalid_amount anomaly; a paid
// amount above the accrued amount clamps the pending contribution to zero
// and is recorded as an overpayment anomaly with the clamped-away deficit.
func BuildSummary(entries []models.LedgerEntry, now time.Time, cfg *config.LedgerConfig) *models.PaymentLedgerSummary {
	var (
		accruedCents  int64
		paidCents     int64
		pendingCents  int64
		clearingCents int64
	)

	videos := make(map[string]*videoAccumulator)
	sources := make(map[string]*sourceAccumulator)
	clearing := make(map[string]*clearingAccumulator)
	anomalies := []models.PaymentAnomaly{}

	summary := &models.PaymentLedgerSummary{}

	for i := range entries {
		e := &entries[i]

		accrued := ParseMoneyToCents(e.AccruedAmount)
		if !accrued.Valid {
			anomalies = append(anomalies, models.PaymentAnomaly{
				EntryID:     e.ID,
				Type:        models.AnomalyInvalidAmount,
				Description: fmt.Sprintf("accrued_amount is not a finite number: %q", rawValue(e.AccruedAmount)),
			})
		}

		paid := ParseMoneyToCents(e.PaidAmount)
		if !paid.Valid {
			anomalies = append(anomalies, models.PaymentAnomaly{
				EntryID:     e.ID,
				Type:        models.AnomalyInvalidAmount,
				Description: fmt.Sprintf("paid_amount is not a finite number: %q", rawValue(e.PaidAmount)),
			})
		}

		entryPending := accrued.Cents - paid.Cents
		if entryPending < 0 {
			anomalies = append(anomalies, models.PaymentAnomaly{
				EntryID: e.ID,
				Type:    models.AnomalyOverpayment,
				Description: fmt.Sprintf("paid_amount %.2f exceeds accrued_amount %.2f",
					CentsToDollars(paid.Cents), CentsToDollars(accrued.Cents)),
				Amount: CentsToDollars(-entryPending),
			})
			entryPending = 0
		}

		accruedCents += accrued.Cents
		paidCents += paid.Cents

		var videoStatus models.VideoStatus

		switch e.Status {
		case models.StatusPending:
			pendingCents += entryPending
			videoStatus = models.VideoAccruing
			summary.AccruingCount++

		case models.StatusPaid:
			// A paid entry with a residual still owes the creator money
			// and keeps accruing until a later run settles it.
			if entryPending > 0 {
				pendingCents += entryPending
				videoStatus = models.VideoAccruing
				summary.AccruingCount++
			} else {
				videoStatus = models.VideoPaid
				summary.PaidCount++
			}

		case models.StatusClearing:
			pendingCents += entryPending
			clearingCents += entryPending
			videoStatus = models.VideoClearing
			summary.ClearingCount++

			if e.ClearingEndsAt != nil {
				if summary.EarliestClearingEndsAt == nil || e.ClearingEndsAt.Before(*summary.EarliestClearingEndsAt) {
					t := *e.ClearingEndsAt
					summary.EarliestClearingEndsAt = &t
				}
			}

			flaggable := false
			if e.LockedAt != nil {
				flaggable = utcDayDiff(*e.LockedAt, now) < cfg.FlaggingWindowDays
			}
			if flaggable {
				summary.HasActiveFlaggableItems = true
			}

			// The write path stamps clearing_ends_at when it locks a row;
			// when the stamp is missing, the configured clearing period
			// from locked_at stands in for the request-level countdown.
			clearingEnd := e.ClearingEndsAt
			if clearingEnd == nil && e.LockedAt != nil {
				derived := e.LockedAt.AddDate(0, 0, cfg.ClearingPeriodDays)
				clearingEnd = &derived
			}

			if e.PayoutRequestID != nil && *e.PayoutRequestID != "" {
				req, ok := clearing[*e.PayoutRequestID]
				if !ok {
					req = &clearingAccumulator{
						clearingEndsAt: clearingEnd,
						canBeFlagged:   flaggable,
					}
					if clearingEnd != nil {
						req.daysRemaining = ceilDaysUntil(*clearingEnd, now)
					}
					clearing[*e.PayoutRequestID] = req
				}
				req.pendingCents += entryPending
				req.itemCount++
			}

		case models.StatusClawedBack:
			videoStatus = models.VideoClawedBack
			summary.ClawedBackCount++

		default:
			// Unknown lifecycle states contribute nothing to pending and
			// keep the entry visible under its rollup key.
			videoStatus = models.VideoAccruing
		}

		key := e.RollupKey()
		video, ok := videos[key]
		if !ok {
			video = &videoAccumulator{}
			videos[key] = video
		}
		video.status = videoStatus
		video.accruedCents += accrued.Cents
		video.paidCents += paid.Cents
		if e.Status == models.StatusPending || e.Status == models.StatusClearing || e.Status == models.StatusPaid {
			video.pendingCents += entryPending
		}
		if e.ClearingEndsAt != nil {
			video.clearingEndsAt = e.ClearingEndsAt
		}
		if e.PayoutRequestID != nil && *e.PayoutRequestID != "" {
			video.payoutRequestID = e.PayoutRequestID
		}

		srcKey := SourceKey(e.SourceType, e.SourceID)
		src, ok := sources[srcKey]
		if !ok {
			src = &sourceAccumulator{sourceType: e.SourceType, sourceID: e.SourceID}
			sources[srcKey] = src
		}
		src.accruedCents += accrued.Cents
		src.paidCents += paid.Cents
		if e.Status == models.StatusPending || e.Status == models.StatusClearing || e.Status == models.StatusPaid {
			src.pendingCents += entryPending
		}
		src.entryCount++
	}

	summary.TotalAccrued = CentsToDollars(accruedCents)
	summary.TotalPaid = CentsToDollars(paidCents)
	summary.TotalPending = CentsToDollars(pendingCents)
	summary.TotalClearing = CentsToDollars(clearingCents)

	summary.VideoEntries = make(map[string]*models.VideoLedgerEntry, len(videos))
	for key, v := range videos {
		summary.VideoEntries[key] = &models.VideoLedgerEntry{
			Key:             key,
			Status:          v.status,
			Accrued:         CentsToDollars(v.accruedCents),
			Paid:            CentsToDollars(v.paidCents),
			Pending:         CentsToDollars(v.pendingCents),
			ClearingEndsAt:  v.clearingEndsAt,
			PayoutRequestID: v.payoutRequestID,
		}
	}

	summary.SourceRollups = make(map[string]*models.SourceRollup, len(sources))
	for key, s := range sources {
		summary.SourceRollups[key] = &models.SourceRollup{
			SourceType: s.sourceType,
			SourceID:   s.sourceID,
			Accrued:    CentsToDollars(s.accruedCents),
			Paid:       CentsToDollars(s.paidCents),
			Pending:    CentsToDollars(s.pendingCents),
			EntryCount: s.entryCount,
		}
	}

	summary.ClearingRequests = make(map[string]*models.ClearingRequest, len(clearing))
	for id, c := range clearing {
		summary.ClearingRequests[id] = &models.ClearingRequest{
			PayoutRequestID: id,
			Amount:          CentsToDollars(c.pendingCents),
			ClearingEndsAt:  c.clearingEndsAt,
			DaysRemaining:   c.daysRemaining,
			CanBeFlagged:    c.canBeFlagged,
			ItemCount:       c.itemCount,
		}
	}

	summary.Anomalies = anomalies
	summary.HasAnomalies = len(anomalies) > 0

	return summary
}

// SourceKey builds the per-source rollup key.
func SourceKey(sourceType models.SourceType, sourceID string) string {
	return fmt.Sprintf("%s:%s", sourceType, sourceID)
}

func rawValue(raw *string) string {
	if raw == nil {
		return ""
	}
	return *raw
}

// utcDayDiff counts whole calendar days between two instants, truncating
// both to their UTC date first. The truncation keeps the result stable
// across the caller's timezone and DST transitions: a row locked 3.9 days
// ago and one locked 4.0 days ago land on different day counts regardless
// of wall-clock offsets.
func utcDayDiff(from, to time.Time) int {
	f := from.UTC()
	t := to.UTC()
	fd := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, time.UTC)
	td := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(td.Sub(fd).Hours() / 24)
}

// ceilDaysUntil counts days from now until end, rounding partial days up
// and never going negative. A clearing window that ends in one hour still
// has one day remaining from the creator's point of view.
func ceilDaysUntil(end, now time.Time) int {
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
