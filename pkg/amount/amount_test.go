package amount

import (
	"math/big"
	"testing"
)

func mustAmount(t *testing.T, s string, precision uint8) Amount {
	t.Helper()
	a, err := FromString(s, precision)
	if err != nil {
		t.Fatalf("FromString(%q): %v", s, err)
	}
	return a
}

// Amount arithmetic: (a + b) - b = a when a + b does not overflow (spec §8).
func TestAddSubRoundTrip(t *testing.T) {
	a := mustAmount(t, "15000", 2)
	b := mustAmount(t, "2500", 2)

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	back, err := sum.Sub(b)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if back.Cmp(a) != 0 {
		t.Fatalf("round trip mismatch: got %s want %s", back, a)
	}
}

func TestSubUnderflow(t *testing.T) {
	a := mustAmount(t, "100", 2)
	b := mustAmount(t, "101", 2)
	if _, err := a.Sub(b); err != ErrUnderflow {
		t.Fatalf("expected ErrUnderflow, got %v", err)
	}
}

func TestPrecisionMismatch(t *testing.T) {
	a := mustAmount(t, "100", 2)
	b := mustAmount(t, "100", 3)
	if _, err := a.Add(b); err != ErrPrecisionMismatch {
		t.Fatalf("expected ErrPrecisionMismatch, got %v", err)
	}
	if _, err := a.Sub(b); err != ErrPrecisionMismatch {
		t.Fatalf("expected ErrPrecisionMismatch, got %v", err)
	}
}

func TestAddOverflow(t *testing.T) {
	max := Amount{Value: new(big.Int).Set(maxU256), Precision: 0}
	one := Amount{Value: big.NewInt(1), Precision: 0}
	if _, err := max.Add(one); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
}

func TestNewRejectsOutOfRange(t *testing.T) {
	tooBig := new(big.Int).Add(maxU256, big.NewInt(1))
	if _, err := New(tooBig, 0); err != ErrOverflow {
		t.Fatalf("expected ErrOverflow, got %v", err)
	}
	if _, err := New(big.NewInt(-1), 0); err != ErrNegative {
		t.Fatalf("expected ErrNegative, got %v", err)
	}
}
