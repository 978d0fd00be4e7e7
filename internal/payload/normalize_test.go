package payload

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeSKU(t *testing.T) {
	valid := map[string]int64{
		`"123"`:   123,
		`123`:     123,
		`" 42 "`:  42,
		`"00017"`: 17,
	}
	for body, want := range valid {
		got, ok := NormalizeSKU(MustParse(body))
		require.True(t, ok, body)
		require.Equal(t, want, got, body)
	}

	for _, body := range []string{`"0"`, `"-5"`, `-5`, `"abc"`, `null`, `12.5`, `"1e3"`, `true`, `[]`, `{}`} {
		_, ok := NormalizeSKU(MustParse(body))
		require.False(t, ok, body)
	}

	_, ok := NormalizeSKU(Node{})
	require.False(t, ok)
}

func TestNode_Float(t *testing.T) {
	f, ok := MustParse(`"12.5"`).Float()
	require.True(t, ok)
	require.Equal(t, 12.5, f)

	f, ok = MustParse(`300`).Float()
	require.True(t, ok)
	require.Equal(t, 300.0, f)

	for _, body := range []string{`"abc"`, `null`, `"NaN"`, `"inf"`, `true`, `{}`} {
		_, ok := MustParse(body).Float()
		require.False(t, ok, body)
	}
}

func TestNode_Int(t *testing.T) {
	i, ok := MustParse(`120.9`).Int()
	require.True(t, ok)
	require.Equal(t, int64(120), i)

	i, ok = MustParse(`"15"`).Int()
	require.True(t, ok)
	require.Equal(t, int64(15), i)

	i, ok = MustParse(`9007199254740993`).Int()
	require.True(t, ok)
	require.Equal(t, int64(9007199254740993), i)

	_, ok = MustParse(`"15.5"`).Int()
	require.False(t, ok)
}

func TestPick(t *testing.T) {
	obj := MustParse(`{"cluster_name":"","name":null,"title":"Москва","id":0}`)

	v, ok := Pick(obj, "cluster_name", "name", "title")
	require.True(t, ok)
	require.Equal(t, "Москва", v.String())

	v, ok = Pick(obj, "id")
	require.True(t, ok)
	require.Equal(t, "0", v.String())

	_, ok = Pick(obj, "absent", "cluster_name")
	require.False(t, ok)
}

func TestIsDigits(t *testing.T) {
	require.True(t, IsDigits(MustParse(`154`)))
	require.True(t, IsDigits(MustParse(`"154"`)))
	require.False(t, IsDigits(MustParse(`"15a"`)))
	require.False(t, IsDigits(MustParse(`-1`)))
}

func TestNumericID(t *testing.T) {
	require.Equal(t, KindNumber, NumericID(MustParse(`"154"`)).Kind())
	require.Equal(t, "154", NumericID(MustParse(`"0154"`)).Raw())
	require.Equal(t, "154", NumericID(MustParse(`154`)).Raw())

	id := NumericID(MustParse(`"A-1"`))
	require.Equal(t, KindString, id.Kind())
	require.Equal(t, "A-1", id.String())
}
