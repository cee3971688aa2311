package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator generates ULID-based entity IDs and reference numbers. ULIDs
// are lexicographically sortable by creation time, which keeps index pages
// append-mostly.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// NewReference returns prefix followed by a fresh ULID, e.g. TRN01J8....
// Uniqueness is still enforced by the ledger's reference constraint.
func (g *ULIDGenerator) NewReference(prefix string) string {
	return prefix + ulid.Make().String()
}
