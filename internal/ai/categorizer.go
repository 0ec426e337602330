package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ledgerflow/ledgerflow/internal/service"
)

// Per-token pricing for cost accounting, in USD per million tokens.
const (
	inputCostPerMillionTokens  = 1.0
	outputCostPerMillionTokens = 5.0
)

const promptTemplate = `You are categorizing a bank statement transaction.
Given the transaction description below, identify the merchant or counterparty
("entity") and a spending category.

Description: %q

Respond with only a JSON object of the form:
{"entityName": "<entity name or empty string>", "category": "<category or empty string>"}`

// cacheEntry is a cached categorization keyed by normalized description.
type cacheEntry struct {
	cachedAt time.Time
	result   service.CategorizeResult
}

// Categorizer caches categorization results and falls back to the external
// model on a miss. Concurrent requests for the same uncached key may both
// invoke the external call; both writes converge on the same normalized key,
// so the worst case of the race is duplicate spend, not an inconsistent
// cache.
type Categorizer struct {
	client  Client
	entries map[string]cacheEntry
	mu      sync.RWMutex
}

// NewCategorizer creates a categorizer backed by the given client.
func NewCategorizer(client Client) *Categorizer {
	return &Categorizer{
		client:  client,
		entries: make(map[string]cacheEntry),
	}
}

// cacheKey normalizes a description for cache lookups.
func cacheKey(description string) string {
	return strings.ToLower(strings.TrimSpace(description))
}

// Categorize returns the entity/category suggestion for a description. Cache
// hits return a nil Usage so callers never double-count spend. A nil result
// with a nil error means the model declined to answer.
func (c *Categorizer) Categorize(ctx context.Context, description string) (*service.CategorizeResult, *service.Usage, error) {
	key := cacheKey(description)

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if found {
		slog.Debug("Categorization cache hit", "description", description)
		result := entry.result
		return &result, nil, nil
	}

	gen, err := c.client.Generate(ctx, fmt.Sprintf(promptTemplate, description))
	if err != nil {
		return nil, nil, err
	}

	usage := &service.Usage{
		InputTokens:  gen.InputTokens,
		OutputTokens: gen.OutputTokens,
		CostUSD: float64(gen.InputTokens)*inputCostPerMillionTokens/1e6 +
			float64(gen.OutputTokens)*outputCostPerMillionTokens/1e6,
	}

	if !gen.HasText {
		// The model declined to answer; not the same failure class as a
		// malformed answer.
		return nil, usage, nil
	}

	result, err := parseCategorization(gen.Text)
	if err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{result: *result, cachedAt: time.Now()}
	c.mu.Unlock()

	slog.Debug("Categorized via AI",
		"description", description,
		"entity", result.EntityName,
		"category", result.Category,
		"cost_usd", usage.CostUSD)

	return result, usage, nil
}

// ClearCache empties the cache. Used for test isolation and manual
// invalidation; there is no TTL-based eviction.
func (c *Categorizer) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// CacheSize returns the number of cached descriptions.
func (c *Categorizer) CacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// parseCategorization extracts the entity/category fields from the model's
// answer. Partial or missing fields pass through as empty strings.
func parseCategorization(content string) (*service.CategorizeResult, error) {
	var parsed struct {
		EntityName string `json:"entityName"`
		Category   string `json:"category"`
	}

	content = cleanMarkdownWrapper(content)

	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, newError(CodeInvalidResponse, "answer is not parseable JSON", err)
	}

	return &service.CategorizeResult{
		EntityName: parsed.EntityName,
		Category:   parsed.Category,
	}, nil
}

// cleanMarkdownWrapper strips a ```json fence the model sometimes wraps its
// answer in.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
