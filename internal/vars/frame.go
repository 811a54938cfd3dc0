// Package vars holds the per-instance variable record.
//
// A Frame is allocated once per coroutine instance, seeded from the call
// arguments, and owned exclusively by that instance for its whole lifetime.
package vars

import (
	"fmt"

	"coflow/internal/ir"
)

// Frame is a fixed-size slot vector.
type Frame struct {
	slots []ir.Value
}

// New allocates size slots and seeds the leading ones from args.
func New(size int, args []ir.Value) (*Frame, error) {
	if size < 0 {
		return nil, fmt.Errorf("vars: negative frame size %d", size)
	}
	if len(args) > size {
		return nil, fmt.Errorf("vars: %d arguments do not fit %d slots", len(args), size)
	}
	f := &Frame{slots: make([]ir.Value, size)}
	copy(f.slots, args)
	return f, nil
}

// Len returns the number of slots.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.slots)
}

// Get reads a slot.
func (f *Frame) Get(s ir.Slot) (ir.Value, error) {
	if err := f.check(s); err != nil {
		return nil, err
	}
	return f.slots[s], nil
}

// Set writes a slot.
func (f *Frame) Set(s ir.Slot, v ir.Value) error {
	if err := f.check(s); err != nil {
		return err
	}
	f.slots[s] = v
	return nil
}

// Values returns a copy of all slots.
func (f *Frame) Values() []ir.Value {
	if f == nil {
		return nil
	}
	out := make([]ir.Value, len(f.slots))
	copy(out, f.slots)
	return out
}

// Restore overwrites every slot from values, which must match Len.
func (f *Frame) Restore(values []ir.Value) error {
	if len(values) != f.Len() {
		return fmt.Errorf("vars: restore of %d values into %d slots", len(values), f.Len())
	}
	copy(f.slots, values)
	return nil
}

func (f *Frame) check(s ir.Slot) error {
	if f == nil {
		return fmt.Errorf("vars: nil frame")
	}
	if s < 0 || int(s) >= len(f.slots) {
		return fmt.Errorf("vars: slot $%d out of range [0,%d)", s, len(f.slots))
	}
	return nil
}
