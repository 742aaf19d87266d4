package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/creatorpay/backend/internal/config"
	"github.com/creatorpay/backend/internal/models"
)

func payoutClientFor(t *testing.T, handler http.HandlerFunc) (*HTTPPayoutClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPPayoutClient(&config.LedgerConfig{
		PayoutEndpoint: srv.URL,
		PayoutSecret:   "test-secret",
		WorkspaceID:    "workspace-test",
		PayoutTimeout:  5 * time.Second,
	}), srv
}

func TestHTTPPayoutClient_RequestPayout(t *testing.T) {
	t.Run("posts selectors with bearer secret", func(t *testing.T) {
		var got map[string]string
		var auth string
		client, _ := payoutClientFor(t, func(w http.ResponseWriter, r *http.Request) {
			auth = r.Header.Get("Authorization")
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]bool{"success": true})
		})

		err := client.RequestPayout(context.Background(), "user-123", PayoutParams{
			SourceType:        models.SourceCampaign,
			SourceID:          "campaign-1",
			VideoSubmissionID: "video-9",
		})

		assert.NoError(t, err)
		assert.Equal(t, "Bearer test-secret", auth)
		assert.Equal(t, "workspace-test", got["workspace_id"])
		assert.Equal(t, "user-123", got["user_id"])
		assert.Equal(t, "campaign", got["source_type"])
		assert.Equal(t, "campaign-1", got["source_id"])
		assert.Equal(t, "video-9", got["video_submission_id"])
		assert.NotEmpty(t, got["reference"])
	})

	t.Run("remote error message surfaces", func(t *testing.T) {
		client, _ := payoutClientFor(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(map[string]string{"error": "nothing payable"})
		})

		err := client.RequestPayout(context.Background(), "user-123", PayoutParams{})

		assert.EqualError(t, err, "payout request rejected: nothing payable")
	})

	t.Run("non-JSON failure falls back to status code", func(t *testing.T) {
		client, _ := payoutClientFor(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("upstream exploded"))
		})

		err := client.RequestPayout(context.Background(), "user-123", PayoutParams{})

		assert.EqualError(t, err, "payout request returned status 500")
	})

	t.Run("unreachable endpoint returns transport error", func(t *testing.T) {
		client := NewHTTPPayoutClient(&config.LedgerConfig{
			PayoutEndpoint: "http://127.0.0.1:1",
			PayoutTimeout:  time.Second,
		})

		err := client.RequestPayout(context.Background(), "user-123", PayoutParams{})

		assert.Error(t, err)
	})
}
