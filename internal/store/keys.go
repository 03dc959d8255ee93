package store

import (
	"strconv"
	"strings"

	"github.com/daniloab/relay/internal/value"
)

// DataID is the opaque string identity of a normalized entity.
type DataID string

// Reserved field keys and identities. These are stable wire constants:
// serialized record sources and snapshot databases depend on them.
const (
	// IDKey is the reserved record field holding the entity's DataID.
	IDKey = "__id"

	// TypeNameKey is the reserved record field holding the entity's type name.
	TypeNameKey = "__typename"

	// RefKey marks a serialized single reference: {"__ref": "<id>"}.
	RefKey = "__ref"

	// RefsKey marks a serialized reference list: {"__refs": ["<id>", null, ...]}.
	RefsKey = "__refs"

	// RootID is the reserved identity of the root record. It always
	// conceptually exists and is synthesized on first lookup.
	RootID DataID = "client:root"

	// RootTypeName is the type name of the synthesized root record.
	RootTypeName = "__Root"

	// UnpublishFieldSentinelValue is the serialized form of the
	// unpublish-field sentinel stored in backup records. Rollback deletes
	// the marked field instead of restoring a value.
	UnpublishFieldSentinelValue = "__UNPUBLISH_FIELD_SENTINEL__"
)

// FormatStorageKey derives the storage key for a field read with the given
// arguments. Arguments are serialized canonically (sorted by name, NFC
// normalized strings) so the same logical field+arguments always produce
// the same key:
//
//	FormatStorageKey("address", value.Object{"location": value.String("WORK")})
//	// "address(location:\"WORK\")"
//
// A field without arguments keys on its bare name.
func FormatStorageKey(name string, args value.Object) string {
	if len(args) == 0 {
		return name
	}

	var sb strings.Builder
	sb.WriteString(name)
	sb.WriteByte('(')
	for i, k := range args.SortedKeys() {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(k)
		sb.WriteByte(':')
		sb.Write(mustCanonical(args[k]))
	}
	sb.WriteByte(')')
	return sb.String()
}

// mustCanonical serializes an argument value. A nil (absent) argument is
// treated as an explicit null. Value is a sealed interface, so
// MarshalCanonical cannot fail on any constructible input.
func mustCanonical(v value.Value) []byte {
	if v == nil {
		v = value.Null{}
	}
	data, err := value.MarshalCanonical(v)
	if err != nil {
		panic(err)
	}
	return data
}

// GenerateClientID derives the identity of a client-only record created
// under a parent's field. The derivation is fixed and deterministic:
//
//	<parent id> ":" <storage key>
//
// GetOrCreateLinkedRecord's reattachment guarantee depends on this being
// stable and collision-free per (parent, field) pair, so changing the
// scheme invalidates previously created client records.
func GenerateClientID(parent DataID, storageKey string) DataID {
	return parent + ":" + DataID(storageKey)
}

// generateClientListID derives the identity of a client-only record that is
// an element of a plural linked field, distinguishing entries by position.
func generateClientListID(parent DataID, storageKey string, index int) DataID {
	return GenerateClientID(parent, storageKey) + ":" + DataID(strconv.Itoa(index))
}
