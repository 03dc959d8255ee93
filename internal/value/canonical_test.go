package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalScalars(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null{}, `null`},
		{"string", String("hello"), `"hello"`},
		{"int", Int(42), `42`},
		{"negative int", Int(-7), `-7`},
		{"big int", Int(9007199254740993), `9007199254740993`},
		{"float", Float(1.5), `1.5`},
		{"true", Bool(true), `true`},
		{"false", Bool(false), `false`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalCanonical(tt.v)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestMarshalCanonicalAbsentFails(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)
}

func TestMarshalCanonicalObjectKeyOrder(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"apple": Int(2),
		"Mango": Int(3),
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	// UTF-16 order puts uppercase before lowercase.
	assert.Equal(t, `{"Mango":3,"apple":2,"zebra":1}`, string(data))
}

func TestMarshalCanonicalNoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical(String("<a> & </a>"))
	require.NoError(t, err)
	assert.Equal(t, `"<a> & </a>"`, string(data))
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	// e + combining acute accent (NFD) normalizes to the precomposed \u00e9
	// (NFC), so both spellings marshal to identical bytes.
	nfd := String("cafe\u0301")
	nfc := String("caf\u00e9")

	nfdBytes, err := MarshalCanonical(nfd)
	require.NoError(t, err)
	nfcBytes, err := MarshalCanonical(nfc)
	require.NoError(t, err)

	assert.Equal(t, string(nfcBytes), string(nfdBytes))
	assert.Equal(t, "\"caf\u00e9\"", string(nfcBytes))
}

func TestMarshalCanonicalLineSeparatorsUnescaped(t *testing.T) {
	// Go's encoder escapes U+2028/U+2029 for JavaScript embedding; the
	// canonical form carries them as literal characters.
	data, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(data))
}

func TestMarshalCanonicalLiteralBackslashU2028Preserved(t *testing.T) {
	// A literal backslash followed by the text "u2028" must stay escaped;
	// only the encoder's own U+2028 escapes are unwound.
	data, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(data))
}

func TestMarshalCanonicalNested(t *testing.T) {
	obj := Object{
		"b": Array{Int(1), Null{}, Object{"y": Bool(false), "x": String("v")}},
		"a": Object{},
	}

	data, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":{},"b":[1,null,{"x":"v","y":false}]}`, string(data))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := Object{"k1": Int(1), "k2": Int(2), "k3": Array{String("a")}}

	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}
