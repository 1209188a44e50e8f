package util

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestNewIsSortableAndUnique(t *testing.T) {
	prev := ""
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := New()
		if _, err := ulid.ParseStrict(id); err != nil {
			t.Fatalf("invalid ulid %q: %v", id, err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		if id <= prev {
			t.Fatalf("ids not increasing: %q after %q", id, prev)
		}
		seen[id] = true
		prev = id
	}
}
