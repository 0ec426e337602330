package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := NewClient(Config{
		Token:      "secret-token",
		DatabaseID: "db-123",
		BaseURL:    baseURL,
	})
	require.NoError(t, err)
	// Keep retries fast in tests.
	client.retryOpts = service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2.0,
	}
	return client
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(Config{DatabaseID: "db"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	_, err = NewClient(Config{Token: "tok"})
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestChecksumExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/databases/db-123/query", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		var query struct {
			Filter struct {
				Property string `json:"property"`
				RichText struct {
					Equals string `json:"equals"`
				} `json:"rich_text"`
			} `json:"filter"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		assert.Equal(t, "Checksum", query.Filter.Property)

		if query.Filter.RichText.Equals == "known-checksum" {
			_, _ = w.Write([]byte(`{"results": [{"id": "page-1"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	exists, err := client.ChecksumExists(ctx, "known-checksum")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.ChecksumExists(ctx, "unknown-checksum")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestChecksumExists_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	exists, err := client.ChecksumExists(context.Background(), "some-checksum")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCreateRecord(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/pages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"id": "page-9"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	txn := model.ConfirmedTransaction{
		Transaction: model.ParsedTransaction{
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Description: "WOOLWORTHS METRO 1234",
			Account:     "everyday",
			Amount:      -87.45,
			Checksum:    "abc123",
		},
		EntityName: "Woolworths",
		EntityURL:  "https://ledger.example/woolworths",
	}
	require.NoError(t, client.CreateRecord(context.Background(), txn))

	parent := received["parent"].(map[string]any)
	assert.Equal(t, "db-123", parent["database_id"])

	properties := received["properties"].(map[string]any)
	assert.Contains(t, properties, "Description")
	assert.Contains(t, properties, "Checksum")
	assert.Contains(t, properties, "Entity")
	assert.Contains(t, properties, "Entity URL")

	amount := properties["Amount"].(map[string]any)
	assert.InDelta(t, -87.45, amount["number"].(float64), 1e-9)
}

func TestCreateRecord_ClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "validation failed"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	err := client.CreateRecord(context.Background(), model.ConfirmedTransaction{
		Transaction: model.ParsedTransaction{Description: "X", Checksum: "c"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Equal(t, int32(1), hits.Load(), "writes are never retried")
}
