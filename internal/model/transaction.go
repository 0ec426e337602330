// Package model defines the core domain models used throughout the application.
package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// ParsedTransaction is a single bank-statement row after the per-bank
// transformer has normalized it. Amounts are signed so expenses are negative.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	Account     string
	Location    string
	RawRow      string
	Checksum    string
	Amount      float64
	Online      bool
}

// ChecksumForRow creates a stable hash of the raw source row for duplicate
// detection. It is computed once when the row is parsed and never recomputed
// for the same row.
func ChecksumForRow(rawRow string) string {
	hash := sha256.Sum256([]byte(rawRow))
	return fmt.Sprintf("%x", hash)
}

// EnsureChecksum fills in the checksum from the raw row if it is missing.
func (t *ParsedTransaction) EnsureChecksum() {
	if t.Checksum == "" {
		t.Checksum = ChecksumForRow(t.RawRow)
	}
}
