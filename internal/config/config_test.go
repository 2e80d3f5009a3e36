package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/silk/pkg/vm"
)

func TestDefaultMatchesVMDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, vm.DefaultStackSize, c.StackSize)
	assert.Equal(t, vm.DefaultGCThreshold, c.GCThreshold)
	assert.Equal(t, vm.DefaultMaxCallDepth, c.MaxCallDepth)
	assert.False(t, c.FoldConstants)
}

func TestNewAppliesOptionsOverDefaults(t *testing.T) {
	c := New(WithStackSize(64), WithMaxCallDepth(8), WithFoldConstants(true))
	assert.Equal(t, 64, c.StackSize)
	assert.Equal(t, 8, c.MaxCallDepth)
	assert.True(t, c.FoldConstants)
	assert.Equal(t, vm.DefaultGCThreshold, c.GCThreshold, "untouched fields keep their default")
}

func TestNewVMHonorsConfiguredSizing(t *testing.T) {
	c := New(WithStackSize(16), WithMaxCallDepth(4))
	v := c.NewVM()
	assert.NotNil(t, v)
}
