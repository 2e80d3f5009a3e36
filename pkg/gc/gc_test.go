package gc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/silk/pkg/value"
)

func TestCollectFreesUnreachableObjects(t *testing.T) {
	c := New(0)
	reachable := value.NewString("kept")
	garbage := value.NewString("collected")
	c.Register(reachable)
	c.Register(garbage)

	freed := c.Collect(Roots{Stack: []value.Value{value.StrValue(reachable)}})

	assert.Equal(t, 1, freed)
	assert.Equal(t, 1, c.Count())
}

func TestCollectMarksThroughArray(t *testing.T) {
	c := New(0)
	inner := value.NewString("inner")
	outer := value.NewArray([]value.Value{value.StrValue(inner)})
	c.Register(inner)
	c.Register(outer)

	freed := c.Collect(Roots{Stack: []value.Value{value.ObjValue(outer)}})

	assert.Equal(t, 0, freed, "inner string reachable through the array should survive")
	assert.Equal(t, 2, c.Count())
}

func TestCollectMarksThroughDictionary(t *testing.T) {
	c := New(0)
	keyStr := value.NewString("k")
	valStr := value.NewString("v")
	dict := value.NewDictionary()
	dict.Dict.Set(value.StrValue(keyStr), value.StrValue(valStr))
	c.Register(keyStr)
	c.Register(valStr)
	c.Register(dict)

	freed := c.Collect(Roots{Stack: []value.Value{value.ObjValue(dict)}})
	assert.Equal(t, 0, freed)
}

func TestCollectMarksThroughClosureUpvalues(t *testing.T) {
	c := New(0)
	fn := value.NewFunction("f", nil, 0)
	captured := value.NewString("captured")
	clo := value.NewClosure(fn, []value.Value{value.StrValue(captured)})
	c.Register(fn)
	c.Register(captured)
	c.Register(clo)

	freed := c.Collect(Roots{Stack: []value.Value{value.ObjValue(clo)}})
	assert.Equal(t, 0, freed)
}

func TestCollectFreesGarbageFromGlobalsAndFrames(t *testing.T) {
	c := New(0)
	global := value.NewString("global")
	frameLocal := value.NewString("frame-local")
	orphan := value.NewString("orphan")
	c.Register(global)
	c.Register(frameLocal)
	c.Register(orphan)

	freed := c.Collect(Roots{
		Globals: map[uint32]value.Value{1: value.StrValue(global)},
		Frames:  [][]value.Value{{value.StrValue(frameLocal)}},
	})

	assert.Equal(t, 1, freed)
	assert.Equal(t, 2, c.Count())
}

func TestShouldCollectRespectsThreshold(t *testing.T) {
	c := New(2)
	assert.False(t, c.ShouldCollect())
	c.Register(value.NewString("a"))
	c.Register(value.NewString("b"))
	c.Register(value.NewString("c"))
	assert.True(t, c.ShouldCollect())
}

func TestZeroThresholdDisablesImplicitCollection(t *testing.T) {
	c := New(0)
	for i := 0; i < 1000; i++ {
		c.Register(value.NewString("x"))
	}
	assert.False(t, c.ShouldCollect())
}
