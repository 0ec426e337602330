package ai

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient is a scripted Client that counts external calls.
type fakeClient struct {
	err   error
	gen   Generation
	calls int
	mu    sync.Mutex
}

func (f *fakeClient) Generate(_ context.Context, _ string) (Generation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.gen, f.err
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func textGeneration(text string, in, out int) Generation {
	return Generation{Text: text, HasText: true, InputTokens: in, OutputTokens: out}
}

func TestCategorize_CacheHitSkipsExternalCall(t *testing.T) {
	client := &fakeClient{gen: textGeneration(`{"entityName":"Woolworths","category":"Groceries"}`, 200, 30)}
	categorizer := NewCategorizer(client)
	ctx := context.Background()

	result, usage, err := categorizer.Categorize(ctx, "WOOLWORTHS METRO 1234")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Woolworths", result.EntityName)
	assert.Equal(t, "Groceries", result.Category)
	require.NotNil(t, usage)
	assert.Equal(t, 200, usage.InputTokens)
	assert.Equal(t, 30, usage.OutputTokens)
	assert.InDelta(t, 200.0/1e6+30.0*5/1e6, usage.CostUSD, 1e-12)

	// Differs only in case and whitespace: same cache key, no second call,
	// and no usage so spend is never double-counted.
	result, usage, err = categorizer.Categorize(ctx, "  woolworths metro 1234 ")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Woolworths", result.EntityName)
	assert.Nil(t, usage)
	assert.Equal(t, 1, client.callCount())
}

func TestCategorize_ClearCache(t *testing.T) {
	client := &fakeClient{gen: textGeneration(`{"entityName":"Acme"}`, 10, 5)}
	categorizer := NewCategorizer(client)
	ctx := context.Background()

	_, _, err := categorizer.Categorize(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, categorizer.CacheSize())

	categorizer.ClearCache()
	assert.Equal(t, 0, categorizer.CacheSize())

	_, _, err = categorizer.Categorize(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount())
}

func TestCategorize_PartialFieldsPassThrough(t *testing.T) {
	client := &fakeClient{gen: textGeneration(`{"category":"Utilities"}`, 10, 5)}
	categorizer := NewCategorizer(client)

	result, _, err := categorizer.Categorize(context.Background(), "ORIGIN ENERGY")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.EntityName)
	assert.Equal(t, "Utilities", result.Category)
}

func TestCategorize_DeclinedAnswerIsNotAnError(t *testing.T) {
	client := &fakeClient{gen: Generation{HasText: false, InputTokens: 50, OutputTokens: 0}}
	categorizer := NewCategorizer(client)
	ctx := context.Background()

	result, usage, err := categorizer.Categorize(ctx, "GIBBERISH 123")
	require.NoError(t, err)
	assert.Nil(t, result)
	require.NotNil(t, usage, "the call still cost tokens")
	assert.Equal(t, 50, usage.InputTokens)

	// A declined answer is not cached; the next request asks again.
	_, _, err = categorizer.Categorize(ctx, "GIBBERISH 123")
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount())
}

func TestCategorize_MalformedAnswerIsInvalidResponse(t *testing.T) {
	client := &fakeClient{gen: textGeneration("definitely not json", 10, 5)}
	categorizer := NewCategorizer(client)

	_, _, err := categorizer.Categorize(context.Background(), "SOMETHING")
	var aiErr *Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, CodeInvalidResponse, aiErr.Code)
}

func TestCategorize_StripsMarkdownFence(t *testing.T) {
	client := &fakeClient{gen: textGeneration("```json\n{\"entityName\":\"Coles\"}\n```", 10, 5)}
	categorizer := NewCategorizer(client)

	result, _, err := categorizer.Categorize(context.Background(), "COLES 0042")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "Coles", result.EntityName)
}

func TestCategorize_ConcurrentSameKeyConverges(t *testing.T) {
	client := &fakeClient{gen: textGeneration(`{"entityName":"Kmart"}`, 10, 5)}
	categorizer := NewCategorizer(client)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, _, err := categorizer.Categorize(ctx, "KMART 1185")
			assert.NoError(t, err)
			assert.NotNil(t, result)
		}()
	}
	wg.Wait()

	// No single-flight guarantee: racing requests may each call out, but
	// they converge on one cache entry and later requests are free.
	assert.Equal(t, 1, categorizer.CacheSize())
	before := client.callCount()
	_, usage, err := categorizer.Categorize(ctx, "kmart 1185")
	require.NoError(t, err)
	assert.Nil(t, usage)
	assert.Equal(t, before, client.callCount())
}
