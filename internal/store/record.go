package store

import (
	"fmt"
	"sort"

	"github.com/daniloab/relay/internal/value"
)

// FieldValue is a sealed interface over the kinds of values a record field
// can hold: a Scalar (any JSON leaf including null), a Reference to a single
// record, a ReferenceList, or the unpublish-field sentinel (backup-only).
type FieldValue interface {
	fieldValue() // Sealed - only these types implement it
}

// Scalar holds a JSON-representable leaf value.
type Scalar struct {
	Value value.Value
}

func (Scalar) fieldValue() {}

// Reference links to a single record by DataID.
type Reference struct {
	ID DataID
}

func (Reference) fieldValue() {}

// ReferenceList is an ordered list of record links. A nil entry represents
// an explicit null list element.
type ReferenceList struct {
	IDs []*DataID
}

func (ReferenceList) fieldValue() {}

type unpublishField struct{}

func (unpublishField) fieldValue() {}

// UnpublishField is the sentinel stored in a backup record for a field the
// record never had in base. It directs rollback to delete the field rather
// than restore a value.
var UnpublishField FieldValue = unpublishField{}

// IsUnpublishField reports whether v is the unpublish-field sentinel.
func IsUnpublishField(v FieldValue) bool {
	_, ok := v.(unpublishField)
	return ok
}

// Record is one entity's known state: a mapping from storage key to
// FieldValue. The reserved keys __id and __typename are write-once and set
// at construction; they never change afterwards.
type Record struct {
	fields map[string]FieldValue
}

// NewRecord creates a record holding only its identity and type name.
func NewRecord(id DataID, typeName string) *Record {
	return &Record{
		fields: map[string]FieldValue{
			IDKey:       Scalar{value.String(id)},
			TypeNameKey: Scalar{value.String(typeName)},
		},
	}
}

// DataID returns the record's identity.
func (r *Record) DataID() DataID {
	return DataID(r.reservedString(IDKey))
}

// TypeName returns the record's type name.
func (r *Record) TypeName() string {
	return r.reservedString(TypeNameKey)
}

func (r *Record) reservedString(key string) string {
	if s, ok := r.fields[key].(Scalar); ok {
		if str, ok := s.Value.(value.String); ok {
			return string(str)
		}
	}
	return ""
}

// Get returns the field stored under key, if any.
func (r *Record) Get(key string) (FieldValue, bool) {
	v, ok := r.fields[key]
	return v, ok
}

// Has reports whether the record holds a field under key.
func (r *Record) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Set stores a field. Identity and type name are write-once and must not be
// set through here; enforcing that is the mutator's job.
func (r *Record) Set(key string, v FieldValue) {
	r.fields[key] = v
}

// StorageKeys returns every field key in sorted order, including the
// reserved identity and type-name keys.
func (r *Record) StorageKeys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a shallow copy: an independent field map sharing the
// (treated-as-immutable) field values.
func (r *Record) Clone() *Record {
	fields := make(map[string]FieldValue, len(r.fields))
	for k, v := range r.fields {
		fields[k] = v
	}
	return &Record{fields: fields}
}

// ToObject converts the record to its serialized object form. References
// serialize as {"__ref": id}, reference lists as {"__refs": [id|null, ...]},
// the unpublish sentinel as its reserved string value, scalars verbatim.
func (r *Record) ToObject() value.Object {
	obj := make(value.Object, len(r.fields))
	for k, fv := range r.fields {
		obj[k] = fieldValueToValue(fv)
	}
	return obj
}

func fieldValueToValue(fv FieldValue) value.Value {
	switch v := fv.(type) {
	case Scalar:
		if v.Value == nil {
			return value.Null{}
		}
		return v.Value
	case Reference:
		return value.Object{RefKey: value.String(v.ID)}
	case ReferenceList:
		ids := make(value.Array, len(v.IDs))
		for i, id := range v.IDs {
			if id == nil {
				ids[i] = value.Null{}
			} else {
				ids[i] = value.String(*id)
			}
		}
		return value.Object{RefsKey: ids}
	case unpublishField:
		return value.String(UnpublishFieldSentinelValue)
	default:
		return value.Null{}
	}
}

// RecordFromObject parses the serialized object form back into a Record.
// The object must carry string __id and __typename fields.
func RecordFromObject(obj value.Object) (*Record, error) {
	id, ok := obj[IDKey].(value.String)
	if !ok {
		return nil, fmt.Errorf("record object missing string %s", IDKey)
	}
	typeName, ok := obj[TypeNameKey].(value.String)
	if !ok {
		return nil, fmt.Errorf("record %q missing string %s", string(id), TypeNameKey)
	}

	rec := NewRecord(DataID(id), string(typeName))
	for k, v := range obj {
		if k == IDKey || k == TypeNameKey {
			continue
		}
		fv, err := valueToFieldValue(v)
		if err != nil {
			return nil, fmt.Errorf("record %q field %q: %w", string(id), k, err)
		}
		rec.Set(k, fv)
	}
	return rec, nil
}

func valueToFieldValue(v value.Value) (FieldValue, error) {
	if s, ok := v.(value.String); ok && string(s) == UnpublishFieldSentinelValue {
		return UnpublishField, nil
	}
	obj, ok := v.(value.Object)
	if !ok {
		return Scalar{v}, nil
	}

	if ref, present := obj[RefKey]; present {
		id, ok := ref.(value.String)
		if !ok {
			return nil, fmt.Errorf("%s must be a string", RefKey)
		}
		return Reference{ID: DataID(id)}, nil
	}
	if refs, present := obj[RefsKey]; present {
		arr, ok := refs.(value.Array)
		if !ok {
			return nil, fmt.Errorf("%s must be an array", RefsKey)
		}
		ids := make([]*DataID, len(arr))
		for i, elem := range arr {
			switch e := elem.(type) {
			case value.Null:
				ids[i] = nil
			case value.String:
				id := DataID(e)
				ids[i] = &id
			default:
				return nil, fmt.Errorf("%s[%d] must be a string or null", RefsKey, i)
			}
		}
		return ReferenceList{IDs: ids}, nil
	}

	// A plain object that is neither wrapper is a stored scalar object
	// (server payloads may contain opaque JSON blobs).
	return Scalar{v}, nil
}
