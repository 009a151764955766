package strbuf

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Current schema version - increment when Snapshot format changes.
const snapshotSchema uint16 = 1

// Snapshot is the serialisable state of a string.
type Snapshot struct {
	Schema   uint16 `msgpack:"schema"`
	Kind     Kind   `msgpack:"kind"`
	Length   int    `msgpack:"length"`
	Capacity int    `msgpack:"capacity"`
	Base     int    `msgpack:"base,omitempty"` // View only
	Data     []byte `msgpack:"data"`
}

// Snapshot copies the state of s.
func (s *String) Snapshot() (Snapshot, error) {
	if err := s.check("snapshot"); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{
		Schema:   snapshotSchema,
		Kind:     s.kind,
		Length:   int(s.length),
		Capacity: s.cap,
		Data:     append([]byte(nil), s.elems()...),
	}
	if s.kind == View {
		snap.Base = s.base
	}
	return snap, nil
}

// WriteSnapshot encodes snap as msgpack.
func WriteSnapshot(w io.Writer, snap Snapshot) error {
	return msgpack.NewEncoder(w).Encode(&snap)
}

// ReadSnapshot decodes and validates one snapshot.
func ReadSnapshot(r io.Reader) (Snapshot, error) {
	var snap Snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Schema != snapshotSchema {
		return Snapshot{}, fmt.Errorf("snapshot schema %d, want %d", snap.Schema, snapshotSchema)
	}
	if snap.Kind > Owned {
		return Snapshot{}, fmt.Errorf("snapshot has unknown kind %d", snap.Kind)
	}
	if snap.Length != len(snap.Data) {
		return Snapshot{}, fmt.Errorf("snapshot length %d does not match %d data elements", snap.Length, len(snap.Data))
	}
	if snap.Kind == Owned && snap.Capacity < snap.Length+1 {
		return Snapshot{}, fmt.Errorf("snapshot capacity %d too small for length %d", snap.Capacity, snap.Length)
	}
	return snap, nil
}

// Restore rebuilds snap as an Owned string. Borrowed kinds can not be
// restored as such because the storage they pointed at is gone; their content
// is copied instead. Owned snapshots get at least their recorded capacity.
func (h *Heap) Restore(snap Snapshot) (*String, error) {
	const op = "restore"
	l, err := h.bound(op, len(snap.Data))
	if err != nil {
		h.traceFailure(op, err)
		return nil, err
	}
	hint := len(snap.Data)
	if snap.Kind == Owned && snap.Capacity-1 > hint {
		hint = min(snap.Capacity-1, h.maxLen)
	}
	s, err := h.New(hint)
	if err != nil {
		return nil, err
	}
	copy(s.data, snap.Data)
	s.length = l
	s.data[l] = 0
	return s, nil
}
