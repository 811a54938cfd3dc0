package vars_test

import (
	"testing"

	"coflow/internal/ir"
	"coflow/internal/vars"
)

func TestFrameSeedAndAccess(t *testing.T) {
	f, err := vars.New(3, []ir.Value{int64(7)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if f.Len() != 3 {
		t.Fatalf("Len = %d, want 3", f.Len())
	}
	v, err := f.Get(0)
	if err != nil || v != int64(7) {
		t.Errorf("Get(0) = %v, %v; want 7", v, err)
	}
	if err := f.Set(2, "x"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := f.Get(3); err == nil {
		t.Errorf("expected out-of-range error")
	}
	if err := f.Set(ir.NoSlot, 1); err == nil {
		t.Errorf("expected error for NoSlot")
	}

	snap := f.Values()
	snap[0] = int64(99)
	if v, _ := f.Get(0); v != int64(7) {
		t.Errorf("Values must return a copy; slot 0 changed to %v", v)
	}
}

func TestFrameErrors(t *testing.T) {
	if _, err := vars.New(1, []ir.Value{1, 2}); err == nil {
		t.Errorf("expected error when args exceed slots")
	}
	f, _ := vars.New(2, nil)
	if err := f.Restore([]ir.Value{1}); err == nil {
		t.Errorf("expected length mismatch on Restore")
	}
	if err := f.Restore([]ir.Value{1, 2}); err != nil {
		t.Errorf("Restore: %v", err)
	}
}
