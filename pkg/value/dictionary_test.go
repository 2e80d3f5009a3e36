package value

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictionarySetGet(t *testing.T) {
	d := newDictionaryObject()
	d.Set(StrValue(NewString("a")), IntValue(1))
	d.Set(StrValue(NewString("b")), IntValue(2))

	v, ok := d.Get(StrValue(NewString("a")))
	require.True(t, ok)
	assert.Equal(t, int64(1), v.I)
	assert.Equal(t, 2, d.Count())
}

func TestDictionaryOverwriteDoesNotGrowCount(t *testing.T) {
	d := newDictionaryObject()
	key := StrValue(NewString("k"))
	d.Set(key, IntValue(1))
	d.Set(key, IntValue(2))

	assert.Equal(t, 1, d.Count())
	v, ok := d.Get(key)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.I)
}

func TestDictionaryDeleteLeavesTombstoneButHidesEntry(t *testing.T) {
	d := newDictionaryObject()
	key := StrValue(NewString("k"))
	d.Set(key, IntValue(1))

	assert.True(t, d.Delete(key))
	_, ok := d.Get(key)
	assert.False(t, ok)
	assert.Equal(t, 0, d.Count())
}

func TestDictionaryInsertAfterDeleteReusesTombstone(t *testing.T) {
	d := newDictionaryObject()
	a := StrValue(NewString("a"))
	b := StrValue(NewString("b"))
	d.Set(a, IntValue(1))
	d.Delete(a)
	d.Set(b, IntValue(2))

	v, ok := d.Get(b)
	require.True(t, ok)
	assert.Equal(t, int64(2), v.I)
	assert.Equal(t, 1, d.Count())

	// Re-inserting a finds its own tombstone on its probe path and takes
	// that slot over, so the count of used slots does not grow.
	d.Set(a, IntValue(3))
	assert.Equal(t, 2, d.Count())
	assert.Equal(t, 2, d.used)
}

func TestDictionaryRehashPreservesAllEntries(t *testing.T) {
	d := newDictionaryObject()
	const n = 100
	for i := 0; i < n; i++ {
		d.Set(IntValue(int64(i)), IntValue(int64(i*i)))
	}
	assert.Equal(t, n, d.Count())
	for i := 0; i < n; i++ {
		v, ok := d.Get(IntValue(int64(i)))
		require.True(t, ok, "missing key %d after rehash", i)
		assert.Equal(t, int64(i*i), v.I)
	}
}

func TestDictionaryEachVisitsOnlyLiveEntries(t *testing.T) {
	d := newDictionaryObject()
	a := StrValue(NewString("a"))
	b := StrValue(NewString("b"))
	d.Set(a, IntValue(1))
	d.Set(b, IntValue(2))
	d.Delete(a)

	seen := map[string]int64{}
	d.Each(func(k, v Value) {
		seen[fmt.Sprint(k)] = v.I
	})
	assert.Len(t, seen, 1)
}
