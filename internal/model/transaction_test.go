package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumForRow(t *testing.T) {
	row := `2024-03-01,"WOOLWORTHS METRO 1234",-87.45`

	first := ChecksumForRow(row)
	second := ChecksumForRow(row)

	assert.Equal(t, first, second, "checksum must be stable for the same row")
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, ChecksumForRow(row+" "))
}

func TestEnsureChecksum(t *testing.T) {
	txn := ParsedTransaction{RawRow: "some,raw,row"}
	txn.EnsureChecksum()
	assert.Equal(t, ChecksumForRow("some,raw,row"), txn.Checksum)

	// An already computed checksum is never recomputed.
	preset := ParsedTransaction{RawRow: "some,raw,row", Checksum: "precomputed"}
	preset.EnsureChecksum()
	assert.Equal(t, "precomputed", preset.Checksum)
}

func TestEntityNames(t *testing.T) {
	entity := Entity{Name: "Woolworths", Aliases: "Woolies, WW Metro,"}
	assert.Equal(t, []string{"Woolworths", "Woolies", "WW Metro"}, entity.Names())

	bare := Entity{Name: "Telstra"}
	assert.Equal(t, []string{"Telstra"}, bare.Names())
}
