package repository

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanonicalOrdersPairs(t *testing.T) {
	low := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	high := uuid.MustParse("99999999-9999-9999-9999-999999999999")

	a, b := canonical(low, high)
	if a != low || b != high {
		t.Fatalf("canonical(low, high) = (%s, %s)", a, b)
	}

	a, b = canonical(high, low)
	if a != low || b != high {
		t.Fatalf("canonical(high, low) = (%s, %s), want swapped", a, b)
	}
}

func TestCanonicalMatchesCheckConstraint(t *testing.T) {
	// The conversations table enforces participant_a < participant_b on the
	// text representation, so the Go ordering must agree with it.
	for i := 0; i < 50; i++ {
		a, b := canonical(uuid.New(), uuid.New())
		if a.String() >= b.String() {
			t.Fatalf("canonical produced %s >= %s", a, b)
		}
	}
}
