package testutil

// FixedIDGenerator returns the same run ID every time.
//
// This enables deterministic journal contents in tests. Because run IDs are
// primary keys, a journal can only hold one run from a given
// FixedIDGenerator; use journal.NewSequenceGenerator for more.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed generator.
// If id is empty, Generate() returns "test-run-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed run ID.
//
// Implements journal.IDGenerator interface.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
