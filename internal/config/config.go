// Package config holds the tunables that size a compile-and-run: how
// big the VM's value stack starts, how many live heap objects trigger
// a GC pass, how deep a call chain may recurse before the VM gives up
// rather than overrunning the stack slice, and a FoldConstants flag
// handed to the compiler (which performs no folding, so the flag does
// not change the emitted code). The teacher hardcodes its equivalent
// numbers (a 1024-slot stack, a fixed local table) directly in New;
// Config generalizes those into a struct with the same defaults, built
// through functional options so a caller only names what it wants to
// override.
package config

import (
	"github.com/kristofer/silk/pkg/vm"
)

// Config collects the values that vary between a default run and a
// constrained one (a sandboxed REPL, a fuzzing harness probing stack
// limits).
type Config struct {
	StackSize     int
	GCThreshold   int
	MaxCallDepth  int
	FoldConstants bool
}

// Default mirrors the hardcoded sizing the teacher's VM used before
// this configuration layer existed.
func Default() Config {
	return Config{
		StackSize:     vm.DefaultStackSize,
		GCThreshold:   vm.DefaultGCThreshold,
		MaxCallDepth:  vm.DefaultMaxCallDepth,
		FoldConstants: false,
	}
}

// Option mutates a Config under construction.
type Option func(*Config)

// WithStackSize overrides the VM's value stack capacity.
func WithStackSize(n int) Option { return func(c *Config) { c.StackSize = n } }

// WithGCThreshold overrides how many live heap objects accumulate
// before a collection runs.
func WithGCThreshold(n int) Option { return func(c *Config) { c.GCThreshold = n } }

// WithMaxCallDepth overrides how many nested CAL frames the VM allows
// before faulting instead of recursing further.
func WithMaxCallDepth(n int) Option { return func(c *Config) { c.MaxCallDepth = n } }

// WithFoldConstants sets the FoldConstants flag passed to the
// compiler. The compiler has no constant-folding pass, so the emitted
// code is the same either way.
func WithFoldConstants(on bool) Option { return func(c *Config) { c.FoldConstants = on } }

// New builds a Config from Default plus any number of Options applied
// in order.
func New(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// NewVM builds a *vm.VM sized per c.
func (c Config) NewVM() *vm.VM {
	return vm.NewWithOptions(c.StackSize, c.GCThreshold, c.MaxCallDepth)
}
