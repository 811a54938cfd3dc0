package coro

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"coflow/internal/action"
	"coflow/internal/eval"
	"coflow/internal/ir"
	"coflow/internal/vars"
)

// Current schema version - increment when Snapshot format changes
const snapshotSchemaVersion uint16 = 1

// Snapshot is the persisted form of a parked instance.
type Snapshot struct {
	Schema      uint16     `msgpack:"schema"`
	Program     string     `msgpack:"program"`
	Fingerprint string     `msgpack:"fingerprint"`
	Position    int32      `msgpack:"pos"`
	State       State      `msgpack:"state"`
	Pending     int32      `msgpack:"pending"`
	PreludeDone bool       `msgpack:"prelude_done"`
	Vars        []ir.Value `msgpack:"vars"`
}

// Snapshot captures the instance. It fails while a suspending call or
// registrar still holds a resumer, since the handle cannot be persisted.
func (in *Instance) Snapshot() (*Snapshot, error) {
	if in.running {
		return nil, in.reentrant("snapshot")
	}
	if in.waiting > 0 {
		return nil, newError(CodeBadState, "snapshot", in.state, "%d outstanding resumer(s)", in.waiting)
	}
	return &Snapshot{
		Schema:      snapshotSchemaVersion,
		Program:     in.prog.Name,
		Fingerprint: in.prog.Fingerprint(),
		Position:    in.pos,
		State:       in.state,
		Pending:     in.pending,
		PreludeDone: in.preludeDone,
		Vars:        in.frame.Values(),
	}, nil
}

// Marshal encodes the snapshot with msgpack.
func (s *Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("coro: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalSnapshot decodes data produced by Marshal. Integer slot values
// come back as int64.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("coro: decode snapshot: %w", err)
	}
	if s.Schema != snapshotSchemaVersion {
		return nil, newError(CodeSnapshot, "decode", s.State, "schema %d, want %d", s.Schema, snapshotSchemaVersion)
	}
	for i, v := range s.Vars {
		n, err := eval.Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("coro: decode snapshot: slot %d: %w", i, err)
		}
		s.Vars[i] = n
	}
	return &s, nil
}

// WriteSnapshot stores s at path, replacing any existing file atomically.
func WriteSnapshot(path string, s *Snapshot) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalSnapshot(data)
}

// Restore rebuilds an instance from s. The snapshot must have been taken
// from a program with the same fingerprint.
func (d *Definition) Restore(s *Snapshot) (*Instance, error) {
	if s == nil {
		return nil, newError(CodeSnapshot, "restore", Ready, "nil snapshot")
	}
	if fp := d.prog.Fingerprint(); s.Fingerprint != fp {
		return nil, newError(CodeSnapshot, "restore", s.State, "snapshot of %s (%s) does not match %s (%s)",
			s.Program, s.Fingerprint, d.prog.Name, fp)
	}
	if s.State > Yielding {
		return nil, newError(CodeSnapshot, "restore", s.State, "invalid state")
	}
	if s.Position != action.End && !d.prog.InRange(s.Position) {
		return nil, newError(CodeSnapshot, "restore", s.State, "position a%d out of range", s.Position)
	}
	switch s.State {
	case Accepting, Yielding:
		want := action.KindAccept
		if s.State == Yielding {
			want = action.KindYield
		}
		if !d.prog.InRange(s.Pending) || d.prog.Actions[s.Pending].Kind != want {
			return nil, newError(CodeSnapshot, "restore", s.State, "pending a%d is not a %s action", s.Pending, want)
		}
	default:
		if s.Pending != action.End {
			return nil, newError(CodeSnapshot, "restore", s.State, "pending a%d outside accept/yield", s.Pending)
		}
	}

	frame, err := vars.New(d.prog.Slots, nil)
	if err != nil {
		return nil, err
	}
	if err := frame.Restore(s.Vars); err != nil {
		return nil, fmt.Errorf("coro: restore: %w", err)
	}
	in := d.instance(frame)
	in.pos = s.Position
	in.state = s.State
	in.pending = s.Pending
	in.preludeDone = s.PreludeDone
	in.settle()
	return in, nil
}
