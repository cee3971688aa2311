package postgres

import (
	"strings"
	"testing"
)

func TestULIDGeneratorGenerate(t *testing.T) {
	g := NewULIDGenerator()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := g.Generate()
		if len(id) != 26 {
			t.Fatalf("unexpected ULID length %d for %q", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate ID %q", id)
		}
		seen[id] = true
	}
}

func TestULIDGeneratorNewReference(t *testing.T) {
	g := NewULIDGenerator()

	ref := g.NewReference("TRN")
	if !strings.HasPrefix(ref, "TRN") {
		t.Errorf("reference %q missing prefix", ref)
	}
	if len(ref) != 3+26 {
		t.Errorf("unexpected reference length %d", len(ref))
	}

	if g.NewReference("DEP") == g.NewReference("DEP") {
		t.Error("consecutive references must differ")
	}
}
