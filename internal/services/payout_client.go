package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/creatorpay/backend/internal/config"
	"github.com/creatorpay/backend/internal/models"
)

// PayoutParams are the optional selectors of the request-payout RPC. All
// fields may be empty: the remote procedure then batches everything
// payable for the user.
type PayoutParams struct {
	SourceType        models.SourceType `json:"source_type,omitempty" validate:"omitempty,oneof=campaign boost"`
	SourceID          string            `json:"source_id,omitempty"`
	VideoSubmissionID string            `json:"video_submission_id,omitempty"`
	BoostSubmissionID string            `json:"boost_submission_id,omitempty"`
}

// PayoutRequester invokes the external request-payout procedure. The side
// effects (payout request rows, entry status flips) happen entirely in the
// external system; local state is only updated by the refetch that follows.
type PayoutRequester interface {
	RequestPayout(ctx context.Context, userID string, params PayoutParams) error
}

// HTTPPayoutClient calls the request-payout endpoint with a JSON body and
// bearer secret.
type HTTPPayoutClient struct {
	endpoint    string
	secret      string
	workspaceID string
	client      *http.Client
}

func NewHTTPPayoutClient(cfg *config.LedgerConfig) *HTTPPayoutClient {
	return &HTTPPayoutClient{
		endpoint:    cfg.PayoutEndpoint,
		secret:      cfg.PayoutSecret,
		workspaceID: cfg.WorkspaceID,
		client:      &http.Client{Timeout: cfg.PayoutTimeout},
	}
}

func (c *HTTPPayoutClient) RequestPayout(ctx context.Context, userID string, params PayoutParams) error {
	reference := uuid.NewString()

	body, err := json.Marshal(map[string]any{
		"workspace_id":        c.workspaceID,
		"user_id":             userID,
		"reference":           reference,
		"source_type":         params.SourceType,
		"source_id":           params.SourceID,
		"video_submission_id": params.VideoSubmissionID,
		"boost_submission_id": params.BoostSubmissionID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != "" {
		req.Header.Set("Authorization", "Bearer "+c.secret)
	}

	log.Printf("[PAYOUT] Requesting payout for user %s, reference %s", userID, reference)
	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("[PAYOUT] Request failed for reference %s: %v", reference, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remote struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err := json.Unmarshal(raw, &remote); err == nil && remote.Error != "" {
			log.Printf("[PAYOUT] Rejected for reference %s: %s", reference, remote.Error)
			return fmt.Errorf("payout request rejected: %s", remote.Error)
		}
		log.Printf("[PAYOUT] Upstream returned status %d for reference %s", resp.StatusCode, reference)
		return fmt.Errorf("payout request returned status %d", resp.StatusCode)
	}

	log.Printf("[PAYOUT] Payout request accepted, reference %s", reference)
	return nil
}
