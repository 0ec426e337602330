// Package ledger talks to the external page/database service the pipeline
// deduplicates against and writes confirmed transactions to.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/common"
	"github.com/ledgerflow/ledgerflow/internal/model"
	"github.com/ledgerflow/ledgerflow/internal/service"
)

const (
	defaultBaseURL = "https://api.notion.com"
	apiVersion     = "2022-06-28"
)

// Config holds connection settings for the ledger service.
type Config struct {
	Token      string
	DatabaseID string
	BaseURL    string
}

// Client implements service.LedgerStore against a Notion-style HTTP API.
// The checksum query path retries transient failures; the write path never
// retries, since failed writes are returned to the caller for re-submission.
type Client struct {
	httpClient *http.Client
	token      string
	databaseID string
	baseURL    string
	retryOpts  service.RetryOptions
}

// NewClient creates a ledger client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: ledger token is required", common.ErrMissingConfig)
	}
	if cfg.DatabaseID == "" {
		return nil, fmt.Errorf("%w: ledger database id is required", common.ErrMissingConfig)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		token:      cfg.Token,
		databaseID: cfg.DatabaseID,
		baseURL:    baseURL,
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
		},
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// ChecksumExists queries the ledger database for a record carrying the given
// checksum.
func (c *Client) ChecksumExists(ctx context.Context, checksum string) (bool, error) {
	if checksum == "" {
		return false, fmt.Errorf("checksum cannot be empty")
	}

	query := map[string]any{
		"page_size": 1,
		"filter": map[string]any{
			"property":  "Checksum",
			"rich_text": map[string]string{"equals": checksum},
		},
	}

	var exists bool
	err := common.WithRetry(ctx, func() error {
		body, err := c.post(ctx, fmt.Sprintf("/v1/databases/%s/query", c.databaseID), query)
		if err != nil {
			return err
		}

		var response struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return &common.RetryableError{Err: fmt.Errorf("failed to parse query response: %w", err), Retryable: false}
		}

		exists = len(response.Results) > 0
		return nil
	}, c.retryOpts)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// CreateRecord writes one confirmed transaction as a new page in the ledger
// database.
func (c *Client) CreateRecord(ctx context.Context, txn model.ConfirmedTransaction) error {
	properties := map[string]any{
		"Description": map[string]any{
			"title": []map[string]any{
				{"text": map[string]string{"content": txn.Transaction.Description}},
			},
		},
		"Date": map[string]any{
			"date": map[string]string{"start": txn.Transaction.Date.Format("2006-01-02")},
		},
		"Amount": map[string]any{
			"number": txn.Transaction.Amount,
		},
		"Account": map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": txn.Transaction.Account}},
			},
		},
		"Checksum": map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": txn.Transaction.Checksum}},
			},
		},
	}

	// Empty entity fields mean the user explicitly chose "no entity".
	if txn.EntityName != "" {
		properties["Entity"] = map[string]any{
			"rich_text": []map[string]any{
				{"text": map[string]string{"content": txn.EntityName}},
			},
		}
	}
	if txn.EntityURL != "" {
		properties["Entity URL"] = map[string]any{"url": txn.EntityURL}
	}

	page := map[string]any{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": properties,
	}

	if _, err := c.post(ctx, "/v1/pages", page); err != nil {
		return err
	}

	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("ledger API error (status %d): %s", resp.StatusCode, string(body)),
			Retryable: true,
		}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("ledger API error (status %d): %s", resp.StatusCode, string(body)),
			Retryable: false,
		}
	}

	return body, nil
}
