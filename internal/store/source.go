package store

import (
	"fmt"
	"sort"

	"github.com/daniloab/relay/internal/value"
)

// RecordState is the three-state existence of an identity within a source
// or a merged view. "Absent" and "deleted" are different and both
// observable.
type RecordState int

const (
	// StateUnknown means the identity was never fetched.
	StateUnknown RecordState = iota

	// StateExistent means a populated record is present.
	StateExistent

	// StateNonexistent means a tombstone is present: the entity is known
	// to not exist.
	StateNonexistent
)

// String implements fmt.Stringer for RecordState.
func (s RecordState) String() string {
	switch s {
	case StateExistent:
		return "existent"
	case StateNonexistent:
		return "nonexistent"
	default:
		return "unknown"
	}
}

// RecordSource is a keyed container mapping a DataID to a Record, a
// tombstone, or "unknown".
//
// Get returns (record, true) for a known record, (nil, true) for a
// tombstone, and (nil, false) for an unknown identity. Sources never
// enforce type-name stability across Set calls; that is the mutator's job.
type RecordSource interface {
	Get(id DataID) (*Record, bool)
	Set(id DataID, record *Record)
	Delete(id DataID)
	Has(id DataID) bool
	RecordIDs() []DataID
	Clone() RecordSource
	Serialize() value.Object
}

// MapRecordSource is the in-memory RecordSource used for transaction
// triples. A nil map entry is a tombstone.
type MapRecordSource struct {
	records map[DataID]*Record
}

// NewMapRecordSource creates an empty source.
func NewMapRecordSource() *MapRecordSource {
	return &MapRecordSource{records: make(map[DataID]*Record)}
}

// Get implements RecordSource.
func (s *MapRecordSource) Get(id DataID) (*Record, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

// Set implements RecordSource.
func (s *MapRecordSource) Set(id DataID, record *Record) {
	s.records[id] = record
}

// Delete writes a tombstone. The entry stays observable as "known to not
// exist"; deletion does not free the slot.
func (s *MapRecordSource) Delete(id DataID) {
	s.records[id] = nil
}

// Has implements RecordSource. Tombstones count as present.
func (s *MapRecordSource) Has(id DataID) bool {
	_, ok := s.records[id]
	return ok
}

// RecordIDs returns every identity with an entry, tombstones included,
// in sorted order.
func (s *MapRecordSource) RecordIDs() []DataID {
	ids := make([]DataID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns an independent container sharing the record pointers.
func (s *MapRecordSource) Clone() RecordSource {
	records := make(map[DataID]*Record, len(s.records))
	for id, rec := range s.records {
		records[id] = rec
	}
	return &MapRecordSource{records: records}
}

// Size returns the number of entries, tombstones included.
func (s *MapRecordSource) Size() int {
	return len(s.records)
}

// Serialize converts the source to a plain identity-to-record-or-null
// object.
func (s *MapRecordSource) Serialize() value.Object {
	obj := make(value.Object, len(s.records))
	for id, rec := range s.records {
		if rec == nil {
			obj[string(id)] = value.Null{}
		} else {
			obj[string(id)] = rec.ToObject()
		}
	}
	return obj
}

// ParseRecordSource rebuilds a source from its serialized object form.
func ParseRecordSource(obj value.Object) (*MapRecordSource, error) {
	src := NewMapRecordSource()
	for id, v := range obj {
		switch entry := v.(type) {
		case value.Null:
			src.Delete(DataID(id))
		case value.Object:
			rec, err := RecordFromObject(entry)
			if err != nil {
				return nil, fmt.Errorf("parse record source: %w", err)
			}
			if rec.DataID() != DataID(id) {
				return nil, fmt.Errorf("parse record source: entry %q holds record %q", id, rec.DataID())
			}
			src.Set(DataID(id), rec)
		default:
			return nil, fmt.Errorf("parse record source: entry %q must be an object or null", id)
		}
	}
	return src, nil
}
