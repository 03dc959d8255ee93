package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daniloab/relay/internal/value"
)

func TestFormatStorageKeyNoArgs(t *testing.T) {
	assert.Equal(t, "name", FormatStorageKey("name", nil))
	assert.Equal(t, "name", FormatStorageKey("name", value.Object{}))
}

func TestFormatStorageKeySingleArg(t *testing.T) {
	key := FormatStorageKey("address", value.Object{"location": value.String("WORK")})
	assert.Equal(t, `address(location:"WORK")`, key)
}

func TestFormatStorageKeyArgsSorted(t *testing.T) {
	// Argument order in the map must not matter.
	key := FormatStorageKey("friends", value.Object{
		"orderby": value.String("name"),
		"first":   value.Int(10),
	})
	assert.Equal(t, `friends(first:10,orderby:"name")`, key)
}

func TestFormatStorageKeyValueKinds(t *testing.T) {
	key := FormatStorageKey("f", value.Object{
		"a": value.Null{},
		"b": value.Bool(true),
		"c": value.Float(1.5),
		"d": value.Array{value.Int(1), value.String("x")},
		"e": value.Object{"nested": value.Int(2)},
	})
	assert.Equal(t, `f(a:null,b:true,c:1.5,d:[1,"x"],e:{"nested":2})`, key)
}

func TestFormatStorageKeyNilArgIsNull(t *testing.T) {
	key := FormatStorageKey("f", value.Object{"a": nil})
	assert.Equal(t, `f(a:null)`, key)
}

func TestFormatStorageKeyDeterministic(t *testing.T) {
	args := value.Object{
		"z": value.Int(1),
		"a": value.Int(2),
		"m": value.String("mid"),
	}
	first := FormatStorageKey("field", args)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, FormatStorageKey("field", args))
	}
}

func TestGenerateClientID(t *testing.T) {
	assert.Equal(t, DataID("client:root:viewer"), GenerateClientID(RootID, "viewer"))
	assert.Equal(t, DataID(`4:address(location:"WORK")`), GenerateClientID("4", `address(location:"WORK")`))
}

func TestGenerateClientListID(t *testing.T) {
	assert.Equal(t, DataID("4:friends:0"), generateClientListID("4", "friends", 0))
	assert.Equal(t, DataID("4:friends:2"), generateClientListID("4", "friends", 2))
}
