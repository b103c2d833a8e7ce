package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueCompare(t *testing.T) {
	tt := []struct {
		Name   string
		A, B   Value
		Expect int
	}{
		{Name: "int less", A: Int(-5), B: Int(3), Expect: -1},
		{Name: "int equal", A: Int(7), B: Int(7), Expect: 0},
		{Name: "float greater", A: Float(2.5), B: Float(2.25), Expect: 1},
		{Name: "mixed equal", A: Int(2), B: Float(2.0), Expect: 0},
		{Name: "mixed less", A: Float(1.5), B: Int(2), Expect: -1},
	}
	for _, tc := range tt {
		t.Run(tc.Name, func(t *testing.T) {
			assert.Equal(t, tc.Expect, tc.A.Compare(tc.B))
		})
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue(KindInt, " -12 ")
	require.NoError(t, err)
	assert.Equal(t, Int(-12), v)

	v, err = ParseValue(KindInt, "0x1f")
	require.NoError(t, err)
	assert.Equal(t, int64(31), v.Int())

	v, err = ParseValue(KindFloat, "1e-3")
	require.NoError(t, err)
	assert.Equal(t, 0.001, v.Float())

	_, err = ParseValue(KindInt, "1.5")
	assert.Error(t, err)
	_, err = ParseValue(KindInvalid, "1")
	assert.Error(t, err)
}

func TestValueStringParsesBack(t *testing.T) {
	for _, v := range []Value{Int(-3), Int(0), Float(0.1), Float(-273.15), Float(1e21)} {
		back, err := ParseValue(v.Kind(), v.String())
		require.NoError(t, err)
		assert.Equal(t, v, back, v.String())
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("Float32")
	assert.NoError(t, err)
	assert.Equal(t, KindFloat, k)
	k, err = ParseKind("uint16")
	assert.NoError(t, err)
	assert.Equal(t, KindInt, k)
	_, err = ParseKind("complex")
	assert.Error(t, err)
}

func TestValueFinite(t *testing.T) {
	assert.True(t, Int(-4).Finite())
	assert.True(t, Float(2.5).Finite())
	assert.False(t, Value{}.Finite())
	for _, s := range []string{"NaN", "Inf", "-inf", "+Inf"} {
		v, err := ParseValue(KindFloat, s)
		require.NoError(t, err)
		assert.False(t, v.Finite(), s)
	}
}
