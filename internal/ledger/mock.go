package ledger

import (
	"context"
	"sync"

	"github.com/ledgerflow/ledgerflow/internal/model"
)

// MockStore is an in-memory service.LedgerStore for testing. Writes record
// checksums so subsequent ChecksumExists calls see them, mirroring the real
// ledger's behavior across import batches.
type MockStore struct {
	checksums map[string]bool
	records   []model.ConfirmedTransaction
	// CreateErr, when set, is returned by CreateRecord for transactions
	// whose description it maps to.
	CreateErr map[string]error
	// ExistsErr, when set, is returned by every ChecksumExists call.
	ExistsErr error
	mu        sync.Mutex
}

// NewMockStore creates an empty mock ledger.
func NewMockStore() *MockStore {
	return &MockStore{
		checksums: make(map[string]bool),
		CreateErr: make(map[string]error),
	}
}

// SeedChecksum marks a checksum as already present in the ledger.
func (m *MockStore) SeedChecksum(checksum string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checksums[checksum] = true
}

// ChecksumExists reports whether a checksum was seeded or written.
func (m *MockStore) ChecksumExists(_ context.Context, checksum string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.checksums[checksum], nil
}

// CreateRecord stores the transaction unless a per-description error is
// configured.
func (m *MockStore) CreateRecord(_ context.Context, txn model.ConfirmedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.CreateErr[txn.Transaction.Description]; err != nil {
		return err
	}
	m.records = append(m.records, txn)
	m.checksums[txn.Transaction.Checksum] = true
	return nil
}

// Records returns a copy of everything written so far.
func (m *MockStore) Records() []model.ConfirmedTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ConfirmedTransaction(nil), m.records...)
}
