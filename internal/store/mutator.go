package store

import (
	"github.com/daniloab/relay/internal/value"
)

// Mutator composes the transaction triple (base, sink, backup) into one
// coherent (id, field) -> value surface.
//
// Reads resolve against sink first, then base. Writes go to sink only;
// base is never mutated. Backup grows transparently: the first write to a
// field this transaction captures that field's pre-mutation value (or the
// unpublish sentinel if the field did not exist in base), and a delete of
// a base-resident record clones the whole record into backup once. An
// identity with no entry in base needs no backup at all, since rollback
// erases it entirely.
//
// One Mutator serves exactly one transaction. Publishing or rolling back
// sink and backup is the caller's concern.
type Mutator struct {
	base   RecordSource
	sink   RecordSource
	backup RecordSource
}

// NewMutator creates a mutator over a transaction triple. base is treated
// as a pristine read-only snapshot; sink and backup start out owned by
// this transaction.
func NewMutator(base, sink, backup RecordSource) *Mutator {
	return &Mutator{base: base, sink: sink, backup: backup}
}

// Sink returns the transaction's write layer, for the external publish step.
func (m *Mutator) Sink() RecordSource {
	return m.sink
}

// Backup returns the transaction's undo log, for the external revert step.
func (m *Mutator) Backup() RecordSource {
	return m.backup
}

// Status resolves the three-state existence of an identity: sink if it has
// an entry, else base.
func (m *Mutator) Status(id DataID) RecordState {
	for _, src := range []RecordSource{m.sink, m.base} {
		if rec, ok := src.Get(id); ok {
			if rec == nil {
				return StateNonexistent
			}
			return StateExistent
		}
	}
	return StateUnknown
}

// headRecord returns the record visible for id: the sink entry if present
// (nil for a tombstone), otherwise the base entry.
func (m *Mutator) headRecord(id DataID) *Record {
	if rec, ok := m.sink.Get(id); ok {
		return rec
	}
	rec, _ := m.base.Get(id)
	return rec
}

// TypeName returns the visible record's type name.
func (m *Mutator) TypeName(id DataID) (string, bool) {
	rec := m.headRecord(id)
	if rec == nil {
		return "", false
	}
	return rec.TypeName(), true
}

// getField resolves a field from the merged view. found is false when the
// record or the field is unknown in both layers.
func (m *Mutator) getField(id DataID, key string) (fv FieldValue, found bool) {
	rec := m.headRecord(id)
	if rec == nil {
		return nil, false
	}
	return rec.Get(key)
}

// GetValue returns the scalar stored under (id, key). found reports whether
// the field is present; a present non-scalar field yields a nil value with
// found=true.
func (m *Mutator) GetValue(id DataID, key string) (v value.Value, found bool) {
	fv, ok := m.getField(id, key)
	if !ok {
		return nil, false
	}
	if s, isScalar := fv.(Scalar); isScalar {
		return s.Value, true
	}
	return nil, true
}

// GetLinkedRecordID returns the single reference stored under (id, key).
// A present field holding an explicit null yields (nil, true).
func (m *Mutator) GetLinkedRecordID(id DataID, key string) (ref *DataID, found bool) {
	fv, ok := m.getField(id, key)
	if !ok {
		return nil, false
	}
	if r, isRef := fv.(Reference); isRef {
		target := r.ID
		return &target, true
	}
	return nil, true
}

// GetLinkedRecordIDs returns the reference list stored under (id, key).
// Entries may be nil for explicit null list elements. A present field
// holding an explicit null yields (nil, true).
func (m *Mutator) GetLinkedRecordIDs(id DataID, key string) (ids []*DataID, found bool) {
	fv, ok := m.getField(id, key)
	if !ok {
		return nil, false
	}
	if list, isList := fv.(ReferenceList); isList {
		out := make([]*DataID, len(list.IDs))
		copy(out, list.IDs)
		return out, true
	}
	return nil, true
}

// Create writes a fresh record holding only identity and type name into
// sink. Fails with DUPLICATE_RECORD if the identity is already existent
// anywhere visible. No backup is captured: the identity is new to this
// transaction (or shadowed a tombstone that rollback restores by erasure).
func (m *Mutator) Create(id DataID, typeName string) error {
	if m.Status(id) == StateExistent {
		return NewDuplicateRecordError(id)
	}
	m.sink.Set(id, NewRecord(id, typeName))
	return nil
}

// Delete writes a tombstone for id into sink. If the identity is existent
// in base and not yet backed up, the whole base record is cloned into
// backup first so rollback can restore it.
func (m *Mutator) Delete(id DataID) {
	if baseRec, ok := m.base.Get(id); ok && baseRec != nil && !m.backup.Has(id) {
		m.backup.Set(id, baseRec.Clone())
	}
	m.sink.Delete(id)
}

// SetValue writes a scalar (or array of scalars) under (id, key). Fails
// with INVALID_FIELD_VALUE for a keyed (non-array) value; nested entities
// belong in linked records.
func (m *Mutator) SetValue(id DataID, key string, v value.Value) error {
	if _, isObject := v.(value.Object); isObject {
		return NewInvalidFieldValueError(id, key)
	}
	return m.setField(id, key, Scalar{v})
}

// SetLinkedRecord stores a single reference under (id, key).
func (m *Mutator) SetLinkedRecord(id DataID, key string, target DataID) error {
	return m.setField(id, key, Reference{ID: target})
}

// SetLinkedRecords stores an ordered reference list under (id, key).
// nil entries represent explicit null list elements.
func (m *Mutator) SetLinkedRecords(id DataID, key string, targets []*DataID) error {
	ids := make([]*DataID, len(targets))
	copy(ids, targets)
	return m.setField(id, key, ReferenceList{IDs: ids})
}

// CopyFields copies every field except identity and type name from the
// source identity's merged view onto the sink identity, applying the usual
// backup discipline per field touched.
func (m *Mutator) CopyFields(sourceID, sinkID DataID) error {
	sourceRec := m.headRecord(sourceID)
	if sourceRec == nil {
		return NewUnresolvedReferenceError(sourceID, "")
	}
	for _, key := range sourceRec.StorageKeys() {
		if key == IDKey || key == TypeNameKey {
			continue
		}
		fv, _ := sourceRec.Get(key)
		if err := m.setField(sinkID, key, fv); err != nil {
			return err
		}
	}
	return nil
}

// setField applies the backup-then-write discipline for one field.
func (m *Mutator) setField(id DataID, key string, fv FieldValue) error {
	m.backupField(id, key)
	rec, err := m.sinkRecord(id)
	if err != nil {
		return err
	}
	rec.Set(key, fv)
	return nil
}

// sinkRecord returns the sink record for id, promoting a full shallow copy
// of the base record into sink on the first write so the sink entry is
// always "base fields plus overrides", never a sparse diff.
func (m *Mutator) sinkRecord(id DataID) (*Record, error) {
	if rec, ok := m.sink.Get(id); ok {
		if rec == nil {
			// Tombstoned this transaction; the record must be re-created
			// before it can be written again.
			return nil, NewUnresolvedReferenceError(id, "")
		}
		return rec, nil
	}
	baseRec, _ := m.base.Get(id)
	if baseRec == nil {
		return nil, NewUnresolvedReferenceError(id, "")
	}
	promoted := baseRec.Clone()
	m.sink.Set(id, promoted)
	return promoted, nil
}

// backupField captures the pre-mutation value of (id, key) the first time
// the field is touched this transaction. Records with no base entry are
// skipped entirely: rollback erases them. Fields the record never had in
// base are marked with the unpublish sentinel.
func (m *Mutator) backupField(id DataID, key string) {
	baseRec, ok := m.base.Get(id)
	if !ok || baseRec == nil {
		return
	}

	backupRec, has := m.backup.Get(id)
	if !has || backupRec == nil {
		backupRec = NewRecord(id, baseRec.TypeName())
		m.backup.Set(id, backupRec)
	}
	if backupRec.Has(key) {
		// First capture wins: later rewrites of the same field must not
		// overwrite the original.
		return
	}

	if original, existed := baseRec.Get(key); existed {
		backupRec.Set(key, original)
	} else {
		backupRec.Set(key, UnpublishField)
	}
}
