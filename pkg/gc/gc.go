// Package gc implements Moth's garbage collector: a classic
// stop-the-world mark-and-sweep pass over every heap Object, run
// explicitly at a GC opcode safepoint or implicitly once the heap has
// grown past a threshold (spec.md §4.5).
//
// The teacher (kristofer-smog) needs no collector of its own — its VM
// stack holds plain interface{} values the host Go runtime already
// manages. Silk's spec pins down an explicit tracing collector over a
// flat heap registry, so this package is new, built from spec.md §4.5
// directly rather than adapted from teacher code.
package gc

import "github.com/kristofer/silk/pkg/value"

// Roots is everything the collector must treat as a GC root: the live
// value stack, the global symbol environment, and the slots of every
// still-active call frame.
type Roots struct {
	Stack   []value.Value
	Globals map[uint32]value.Value
	Frames  [][]value.Value
}

// Collector owns the flat registry of every heap Object ever
// allocated by the VM it serves. Objects are removed from the registry
// only by Collect's sweep phase.
type Collector struct {
	objects   []*value.Object
	threshold int // Collect() is triggered implicitly once len(objects) crosses this
}

// New creates a collector with the given implicit-collection
// threshold (object count). A threshold of 0 disables implicit
// collection; Collect must then be invoked explicitly.
func New(threshold int) *Collector {
	return &Collector{threshold: threshold}
}

// Register records a freshly allocated object with the collector. The
// VM must register every heap allocation before the next safepoint, or
// the object could be swept while still reachable only from a
// not-yet-pushed stack slot (spec.md §4.5's allocation invariant).
func (c *Collector) Register(o *value.Object) {
	c.objects = append(c.objects, o)
}

// ShouldCollect reports whether the heap has grown past the implicit
// threshold.
func (c *Collector) ShouldCollect() bool {
	return c.threshold > 0 && len(c.objects) > c.threshold
}

// Count returns the number of objects currently tracked.
func (c *Collector) Count() int { return len(c.objects) }

// Collect runs one mark-and-sweep pass: mark every object reachable
// from roots, then free (drop from the registry) everything left
// unmarked. It returns the number of objects freed.
func (c *Collector) Collect(roots Roots) int {
	for _, v := range roots.Stack {
		mark(v)
	}
	for _, v := range roots.Globals {
		mark(v)
	}
	for _, frame := range roots.Frames {
		for _, v := range frame {
			mark(v)
		}
	}

	survivors := c.objects[:0]
	freed := 0
	for _, o := range c.objects {
		if o.Reachable {
			o.Reachable = false
			survivors = append(survivors, o)
		} else {
			freed++
		}
	}
	c.objects = survivors
	return freed
}

// mark sets o.Reachable and recurses into its children, per the
// reachability rules of spec.md §4.5. It is safe to call repeatedly on
// an already-marked object: the Reachable check makes recursion
// terminate even through a cycle, such as an array stored into one of
// its own elements by IDA.
func mark(v value.Value) {
	if v.Kind != value.Str && v.Kind != value.Obj {
		return
	}
	o := v.Ptr
	if o == nil || o.Reachable {
		return
	}
	o.Reachable = true

	switch o.Kind {
	case value.OString, value.OVector, value.OFunction, value.OFFIFunction, value.OFFIPointer:
		// Leaves: no child Values to recurse through.
	case value.OArray:
		for _, e := range o.Arr.Elements {
			mark(e)
		}
	case value.ODictionary:
		o.Dict.Each(func(k, val value.Value) {
			mark(k)
			mark(val)
		})
	case value.OClosure:
		mark(value.ObjValue(o.Clo.Fn))
		for _, uv := range o.Clo.Upvalues {
			mark(uv)
		}
	case value.OHeapval:
		mark(o.Heap.Inner)
	}
}
