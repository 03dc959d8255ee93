package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daniloab/relay/internal/value"
)

// newTestProxy builds a source proxy over a base with users "4" (Mark) and
// "5" (Zuck), where 4's bestFriend links to 5.
func newTestProxy(t *testing.T) (*RecordSourceProxy, *MapRecordSource, *MapRecordSource) {
	t.Helper()

	base := NewMapRecordSource()
	mark := NewRecord("4", "User")
	mark.Set("name", Scalar{value.String("Mark")})
	mark.Set("bestFriend", Reference{ID: "5"})
	base.Set("4", mark)

	zuck := NewRecord("5", "User")
	zuck.Set("name", Scalar{value.String("Zuck")})
	base.Set("5", zuck)

	sink := NewMapRecordSource()
	backup := NewMapRecordSource()
	mutator := NewMutator(base, sink, backup)
	return NewRecordSourceProxy(mutator, nil, nil), sink, backup
}

func TestRecordProxyIdentity(t *testing.T) {
	sp, _, _ := newTestProxy(t)

	p, known := sp.Get("4")
	require.True(t, known)
	require.NotNil(t, p)
	assert.Equal(t, DataID("4"), p.DataID())
	assert.Equal(t, "User", p.TypeName())
}

func TestRecordProxyValueRoundTrip(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	assert.Equal(t, value.Value(value.String("Mark")), p.GetValue("name", nil))

	require.NoError(t, p.SetValue(value.String("Zuck"), "name", nil))
	assert.Equal(t, value.Value(value.String("Zuck")), p.GetValue("name", nil))
}

func TestRecordProxyArgsDistinguishFields(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	work := value.Object{"location": value.String("WORK")}
	home := value.Object{"location": value.String("HOME")}
	require.NoError(t, p.SetValue(value.String("1 Hacker Way"), "address", work))
	require.NoError(t, p.SetValue(value.String("Palo Alto"), "address", home))

	assert.Equal(t, value.Value(value.String("1 Hacker Way")), p.GetValue("address", work))
	assert.Equal(t, value.Value(value.String("Palo Alto")), p.GetValue("address", home))
	assert.Nil(t, p.GetValue("address", nil))
}

func TestRecordProxyGetLinkedRecord(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	friend, known := p.GetLinkedRecord("bestFriend", nil)
	require.True(t, known)
	require.NotNil(t, friend)
	assert.Equal(t, DataID("5"), friend.DataID())

	_, known = p.GetLinkedRecord("enemy", nil)
	assert.False(t, known)
}

func TestRecordProxySetLinkedRecordNilTargetFails(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	err := p.SetLinkedRecord(nil, "bestFriend", nil)
	require.Error(t, err)
	assert.True(t, IsUnresolvedReference(err))
}

func TestRecordProxyUnlinkViaNull(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	require.NoError(t, p.SetValue(value.Null{}, "bestFriend", nil))

	friend, known := p.GetLinkedRecord("bestFriend", nil)
	assert.True(t, known)
	assert.Nil(t, friend, "explicit null link is known but empty")
}

func TestRecordProxyLinkedRecords(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")
	zuck, _ := sp.Get("5")

	require.NoError(t, p.SetLinkedRecords([]*RecordProxy{zuck, nil}, "friends", nil))

	friends, known := p.GetLinkedRecords("friends", nil)
	require.True(t, known)
	require.Len(t, friends, 2)
	assert.Equal(t, DataID("5"), friends[0].DataID())
	assert.Nil(t, friends[1], "null list elements survive the round trip")
}

func TestGetOrCreateLinkedRecordCreates(t *testing.T) {
	sp, sink, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	addr, err := p.GetOrCreateLinkedRecord("address", "Address", nil)
	require.NoError(t, err)
	assert.Equal(t, GenerateClientID("4", "address"), addr.DataID())
	assert.Equal(t, "Address", addr.TypeName())

	rec, known := sink.Get(addr.DataID())
	assert.True(t, known)
	assert.NotNil(t, rec)
}

func TestGetOrCreateLinkedRecordReturnsExisting(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	friend, err := p.GetOrCreateLinkedRecord("bestFriend", "User", nil)
	require.NoError(t, err)
	assert.Equal(t, DataID("5"), friend.DataID(), "an existing link is returned as-is")
}

func TestGetOrCreateLinkedRecordReattaches(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	created, err := p.GetOrCreateLinkedRecord("address", "Address", nil)
	require.NoError(t, err)
	require.NoError(t, created.SetValue(value.String("1 Hacker Way"), "street", nil))

	// Unlink the field; the record itself survives.
	require.NoError(t, p.SetValue(value.Null{}, "address", nil))

	again, err := p.GetOrCreateLinkedRecord("address", "Address", nil)
	require.NoError(t, err)
	assert.Equal(t, created.DataID(), again.DataID())
	assert.Equal(t, value.Value(value.String("1 Hacker Way")), again.GetValue("street", nil),
		"reattachment finds the previously created record with its fields intact")
}

func TestRecordProxyCopyFieldsFrom(t *testing.T) {
	sp, _, _ := newTestProxy(t)
	p, _ := sp.Get("4")

	clone, err := sp.Create("4-draft", "User")
	require.NoError(t, err)
	require.NoError(t, clone.CopyFieldsFrom(p))

	assert.Equal(t, value.Value(value.String("Mark")), clone.GetValue("name", nil))
	friend, known := clone.GetLinkedRecord("bestFriend", nil)
	require.True(t, known)
	assert.Equal(t, DataID("5"), friend.DataID())

	err = clone.CopyFieldsFrom(nil)
	assert.True(t, IsUnresolvedReference(err))
}
