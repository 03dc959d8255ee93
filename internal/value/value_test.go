package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Verify all types implement Value (compile-time check via assignment)
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(3.14)
	var _ Value = Bool(true)
	var _ Value = Array{String("a"), Int(1)}
	var _ Value = Object{"key": String("value")}
}

func TestObjectSortedKeys(t *testing.T) {
	obj := Object{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}

	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestObjectSortedKeysUTF16Order(t *testing.T) {
	// RFC 8785 uses UTF-16 code unit ordering.
	// 'A' = 65, 'a' = 97, so "A" < "AA" < "Aa" < "a" < "aA" < "aa".
	obj := Object{
		"a":  Int(1),
		"A":  Int(2),
		"aa": Int(3),
		"aA": Int(4),
		"Aa": Int(5),
		"AA": Int(6),
	}

	assert.Equal(t, []string{"A", "AA", "Aa", "a", "aA", "aa"}, obj.SortedKeys())
}

func TestObjectSortedKeysSurrogatePairs(t *testing.T) {
	// U+10000 encodes as the surrogate pair D800 DC00, which sorts before
	// U+FF21 (FULLWIDTH A) under UTF-16 but after it under UTF-8 byte order.
	obj := Object{
		"\U00010000": Int(1),
		"Ａ":     Int(2),
	}

	assert.Equal(t, []string{"\U00010000", "Ａ"}, obj.SortedKeys())
}

func TestUnmarshalIntegerStaysInt(t *testing.T) {
	v, err := Unmarshal([]byte(`{"big": 9007199254740993, "small": -1}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	// 2^53+1 survives because integers decode as Int, not float64.
	assert.Equal(t, Int(9007199254740993), obj["big"])
	assert.Equal(t, Int(-1), obj["small"])
}

func TestUnmarshalFractionBecomesFloat(t *testing.T) {
	v, err := Unmarshal([]byte(`[1.5, 2e3]`))
	require.NoError(t, err)

	arr, ok := v.(Array)
	require.True(t, ok)
	assert.Equal(t, Float(1.5), arr[0])
	assert.Equal(t, Float(2000), arr[1])
}

func TestUnmarshalNull(t *testing.T) {
	v, err := Unmarshal([]byte(`null`))
	require.NoError(t, err)
	assert.Equal(t, Null{}, v)
}

func TestObjectUnmarshalJSON(t *testing.T) {
	var obj Object
	require.NoError(t, obj.UnmarshalJSON([]byte(`{"a": true}`)))
	assert.Equal(t, Object{"a": Bool(true)}, obj)

	var notObj Object
	err := notObj.UnmarshalJSON([]byte(`[1]`))
	assert.Error(t, err)
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"name":  "Mark",
		"age":   32,
		"tags":  []any{"a", nil},
		"score": 99.5,
	})
	require.NoError(t, err)

	expected := Object{
		"name":  String("Mark"),
		"age":   Int(32),
		"tags":  Array{String("a"), Null{}},
		"score": Float(99.5),
	}
	assert.True(t, Equal(expected, v))
}

func TestFromGoRejectsUnsupported(t *testing.T) {
	_, err := FromGo(struct{}{})
	assert.Error(t, err)
}

func TestFromGoPassesValuesThrough(t *testing.T) {
	original := Object{"x": Int(1)}
	v, err := FromGo(original)
	require.NoError(t, err)
	assert.Equal(t, Value(original), v)
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil vs nil", nil, nil, true},
		{"nil vs null", nil, Null{}, false},
		{"null vs null", Null{}, Null{}, true},
		{"string equal", String("x"), String("x"), true},
		{"string differs", String("x"), String("y"), false},
		{"int vs float", Int(1), Float(1), false},
		{"array equal", Array{Int(1), Null{}}, Array{Int(1), Null{}}, true},
		{"array length differs", Array{Int(1)}, Array{Int(1), Int(2)}, false},
		{"object equal", Object{"a": Int(1)}, Object{"a": Int(1)}, true},
		{"object key differs", Object{"a": Int(1)}, Object{"b": Int(1)}, false},
		{"nested", Object{"a": Array{Object{"b": Bool(true)}}}, Object{"a": Array{Object{"b": Bool(true)}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}
