package store

import (
	"github.com/daniloab/relay/internal/value"
)

// RecordProxy is a lazy, per-identity facade giving typed, object-like
// access to one entity. All reads and writes delegate to the transaction's
// mutator after deriving the storage key from field name and arguments.
//
// Proxies are handed out by a RecordSourceProxy, which caches one per
// identity for the lifetime of the transaction; repeated resolution of the
// same identity therefore yields the identical proxy.
type RecordProxy struct {
	dataID  DataID
	mutator *Mutator
	source  *RecordSourceProxy
}

// DataID returns the identity this proxy fronts.
func (p *RecordProxy) DataID() DataID {
	return p.dataID
}

// TypeName returns the record's type name.
func (p *RecordProxy) TypeName() string {
	typeName, _ := p.mutator.TypeName(p.dataID)
	return typeName
}

// GetValue returns the scalar stored under the field. A nil result means
// the field is absent or holds a non-scalar; value.Null{} is an explicit
// null.
func (p *RecordProxy) GetValue(name string, args value.Object) value.Value {
	v, _ := p.mutator.GetValue(p.dataID, FormatStorageKey(name, args))
	return v
}

// SetValue writes a scalar or array of scalars under the field. Keyed
// values fail with INVALID_FIELD_VALUE.
func (p *RecordProxy) SetValue(v value.Value, name string, args value.Object) error {
	return p.mutator.SetValue(p.dataID, FormatStorageKey(name, args), v)
}

// GetLinkedRecord resolves the singly-linked record under the field.
// known is false when the field or its target was never fetched; a nil
// proxy with known=true means an explicit null link or a deleted target.
func (p *RecordProxy) GetLinkedRecord(name string, args value.Object) (proxy *RecordProxy, known bool) {
	ref, found := p.mutator.GetLinkedRecordID(p.dataID, FormatStorageKey(name, args))
	if !found {
		return nil, false
	}
	if ref == nil {
		return nil, true
	}
	return p.source.Get(*ref)
}

// SetLinkedRecord stores a reference to the target proxy's identity under
// the field. A nil target fails with UNRESOLVED_REFERENCE; to unlink a
// field, write an explicit null with SetValue instead.
func (p *RecordProxy) SetLinkedRecord(target *RecordProxy, name string, args value.Object) error {
	key := FormatStorageKey(name, args)
	if target == nil {
		return NewUnresolvedReferenceError(p.dataID, key)
	}
	return p.mutator.SetLinkedRecord(p.dataID, key, target.DataID())
}

// GetLinkedRecords resolves the plural linked field. Entries may be nil
// for explicit null list elements or unresolvable targets.
func (p *RecordProxy) GetLinkedRecords(name string, args value.Object) (proxies []*RecordProxy, known bool) {
	ids, found := p.mutator.GetLinkedRecordIDs(p.dataID, FormatStorageKey(name, args))
	if !found {
		return nil, false
	}
	if ids == nil {
		return nil, true
	}
	proxies = make([]*RecordProxy, len(ids))
	for i, id := range ids {
		if id == nil {
			continue
		}
		proxies[i], _ = p.source.Get(*id)
	}
	return proxies, true
}

// SetLinkedRecords stores an ordered reference list under the field.
// nil entries are stored as explicit null list elements.
func (p *RecordProxy) SetLinkedRecords(targets []*RecordProxy, name string, args value.Object) error {
	ids := make([]*DataID, len(targets))
	for i, target := range targets {
		if target == nil {
			continue
		}
		id := target.DataID()
		ids[i] = &id
	}
	return p.mutator.SetLinkedRecords(p.dataID, FormatStorageKey(name, args), ids)
}

// GetOrCreateLinkedRecord returns the linked record under the field,
// creating and linking a client-only record when none is linked. The new
// identity derives deterministically from (parent identity, storage key),
// so unlinking the field and calling this again reattaches the previously
// created record instead of orphaning it or duplicating it.
func (p *RecordProxy) GetOrCreateLinkedRecord(name, typeName string, args value.Object) (*RecordProxy, error) {
	if linked, known := p.GetLinkedRecord(name, args); known && linked != nil {
		return linked, nil
	}

	key := FormatStorageKey(name, args)
	clientID := GenerateClientID(p.dataID, key)

	// The record's existence is independent of which fields reference it:
	// if it survives from an earlier link, relink rather than create.
	existing, known := p.source.Get(clientID)
	if known && existing != nil {
		if err := p.mutator.SetLinkedRecord(p.dataID, key, clientID); err != nil {
			return nil, err
		}
		return existing, nil
	}

	created, err := p.source.Create(clientID, typeName)
	if err != nil {
		return nil, err
	}
	if err := p.mutator.SetLinkedRecord(p.dataID, key, clientID); err != nil {
		return nil, err
	}
	return created, nil
}

// CopyFieldsFrom copies every field except identity and type name from the
// other proxy's record onto this one.
func (p *RecordProxy) CopyFieldsFrom(other *RecordProxy) error {
	if other == nil {
		return NewUnresolvedReferenceError(p.dataID, "")
	}
	return p.mutator.CopyFields(other.DataID(), p.dataID)
}
