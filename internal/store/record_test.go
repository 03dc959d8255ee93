package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniloab/relay/internal/value"
)

func TestNewRecordHoldsIdentity(t *testing.T) {
	rec := NewRecord("4", "User")

	assert.Equal(t, DataID("4"), rec.DataID())
	assert.Equal(t, "User", rec.TypeName())
	assert.Equal(t, []string{IDKey, TypeNameKey}, rec.StorageKeys())
}

func TestRecordSetGet(t *testing.T) {
	rec := NewRecord("4", "User")
	rec.Set("name", Scalar{value.String("Mark")})

	fv, ok := rec.Get("name")
	require.True(t, ok)
	assert.Equal(t, Scalar{value.String("Mark")}, fv)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
	assert.True(t, rec.Has("name"))
	assert.False(t, rec.Has("missing"))
}

func TestRecordCloneIsIndependent(t *testing.T) {
	rec := NewRecord("4", "User")
	rec.Set("name", Scalar{value.String("Mark")})

	clone := rec.Clone()
	clone.Set("name", Scalar{value.String("Zuck")})
	clone.Set("extra", Scalar{value.Int(1)})

	fv, _ := rec.Get("name")
	assert.Equal(t, Scalar{value.String("Mark")}, fv)
	assert.False(t, rec.Has("extra"))
	assert.Equal(t, DataID("4"), clone.DataID())
}

func TestRecordToObjectRoundTrip(t *testing.T) {
	friend := DataID("5")
	rec := NewRecord("4", "User")
	rec.Set("name", Scalar{value.String("Mark")})
	rec.Set("nickname", Scalar{value.Null{}})
	rec.Set("bestFriend", Reference{ID: "5"})
	rec.Set("friends", ReferenceList{IDs: []*DataID{&friend, nil}})

	obj := rec.ToObject()
	assert.Equal(t, value.Object{RefKey: value.String("5")}, obj["bestFriend"])
	assert.Equal(t, value.Object{RefsKey: value.Array{value.String("5"), value.Null{}}}, obj["friends"])

	parsed, err := RecordFromObject(obj)
	require.NoError(t, err)

	assert.Equal(t, rec.DataID(), parsed.DataID())
	assert.Equal(t, rec.TypeName(), parsed.TypeName())
	assert.Equal(t, rec.StorageKeys(), parsed.StorageKeys())

	fv, _ := parsed.Get("bestFriend")
	assert.Equal(t, Reference{ID: "5"}, fv)
	fv, _ = parsed.Get("friends")
	list, ok := fv.(ReferenceList)
	require.True(t, ok)
	require.Len(t, list.IDs, 2)
	assert.Equal(t, DataID("5"), *list.IDs[0])
	assert.Nil(t, list.IDs[1])
}

func TestRecordUnpublishSentinelSerialization(t *testing.T) {
	rec := NewRecord("4", "User")
	rec.Set("ghost", UnpublishField)

	obj := rec.ToObject()
	assert.Equal(t, value.String(UnpublishFieldSentinelValue), obj["ghost"])

	parsed, err := RecordFromObject(obj)
	require.NoError(t, err)
	fv, ok := parsed.Get("ghost")
	require.True(t, ok)
	assert.True(t, IsUnpublishField(fv))
}

func TestRecordFromObjectRequiresIdentity(t *testing.T) {
	_, err := RecordFromObject(value.Object{"name": value.String("Mark")})
	assert.Error(t, err)

	_, err = RecordFromObject(value.Object{IDKey: value.String("4")})
	assert.Error(t, err)
}

func TestRecordFromObjectPlainObjectIsScalar(t *testing.T) {
	// Opaque JSON blobs without a __ref/__refs wrapper stay scalar.
	obj := value.Object{
		IDKey:       value.String("4"),
		TypeNameKey: value.String("User"),
		"meta":      value.Object{"flags": value.Array{value.Int(1)}},
	}

	rec, err := RecordFromObject(obj)
	require.NoError(t, err)
	fv, _ := rec.Get("meta")
	scalar, ok := fv.(Scalar)
	require.True(t, ok)
	assert.True(t, value.Equal(value.Object{"flags": value.Array{value.Int(1)}}, scalar.Value))
}

func TestRecordFromObjectBadRef(t *testing.T) {
	obj := value.Object{
		IDKey:       value.String("4"),
		TypeNameKey: value.String("User"),
		"bestFriend": value.Object{RefKey: value.Int(5)},
	}
	_, err := RecordFromObject(obj)
	assert.Error(t, err)
}
