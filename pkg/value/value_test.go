package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthyTable(t *testing.T) {
	assert.False(t, VoidValue().Truthy())
	assert.False(t, BoolValue(false).Truthy())
	assert.True(t, BoolValue(true).Truthy())
	assert.False(t, IntValue(0).Truthy())
	assert.True(t, IntValue(1).Truthy())
	assert.False(t, RealValue(0).Truthy())
	assert.True(t, RealValue(0.1).Truthy())
	assert.False(t, StrValue(NewString("")).Truthy())
	assert.True(t, StrValue(NewString("x")).Truthy())
	assert.False(t, ObjValue(NewArray(nil)).Truthy())
	assert.True(t, ObjValue(NewArray([]Value{IntValue(1)})).Truthy())
}

func TestEqualVoidOnlyEqualsVoid(t *testing.T) {
	assert.True(t, Equal(VoidValue(), VoidValue()))
	assert.False(t, Equal(VoidValue(), IntValue(0)))
}

func TestEqualIntAndRealNeverMatch(t *testing.T) {
	assert.False(t, Equal(IntValue(1), RealValue(1)))
}

func TestEqualStringByContent(t *testing.T) {
	a := StrValue(NewString("hello"))
	b := StrValue(NewString("hello"))
	assert.True(t, Equal(a, b), "distinct heap strings with equal content should compare equal")
}

func TestEqualObjectByIdentity(t *testing.T) {
	a := ObjValue(NewArray([]Value{IntValue(1)}))
	b := ObjValue(NewArray([]Value{IntValue(1)}))
	assert.False(t, Equal(a, b), "distinct array objects never compare equal regardless of content")
	assert.True(t, Equal(a, a))
}

func TestNewVectorRejectsOversizedCardinality(t *testing.T) {
	_, err := NewVector(make([]float64, MaxVectorCardinality+1))
	require.Error(t, err)

	ok, err := NewVector(make([]float64, MaxVectorCardinality))
	require.NoError(t, err)
	assert.Equal(t, MaxVectorCardinality, len(ok.Vec.Elements))
}

func TestStringValueString(t *testing.T) {
	v := StrValue(NewString("abc"))
	assert.Equal(t, "abc", v.String())
}
