// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import "github.com/gogpu/stagec/ir"

// ResourceKind distinguishes the binding tables of the allocator.
type ResourceKind uint8

const (
	ResourceBuffer ResourceKind = iota
	ResourceTexture
)

type bindingKey struct {
	kind ResourceKind
	name string
}

// BindingAllocator assigns binding indices to named resources for one
// pipeline compile. Indices increase monotonically from zero and are shared
// by buffers and textures, so no two resources of a pipeline share an index.
//
// A BindingAllocator is not safe for concurrent use; each Compile creates
// its own.
type BindingAllocator struct {
	next  uint32
	table map[bindingKey]uint32
	slots map[bindingKey]uint32
}

// NewBindingAllocator returns an empty allocator.
func NewBindingAllocator() *BindingAllocator {
	return &BindingAllocator{
		table: make(map[bindingKey]uint32),
		slots: make(map[bindingKey]uint32),
	}
}

// BindingFor returns the index previously assigned to the named resource,
// or assigns the next free index.
func (a *BindingAllocator) BindingFor(kind ResourceKind, name string) uint32 {
	key := bindingKey{kind: kind, name: name}
	if b, ok := a.table[key]; ok {
		return b
	}
	return a.assign(key, 1)
}

// Reserve is BindingFor for a resource occupying slots consecutive
// indices, such as a sampler array. The first index is returned.
//
// Reserving a name again with a different slot count is an
// InvalidOperand error: the range assigned first cannot grow without
// overlapping later resources.
func (a *BindingAllocator) Reserve(kind ResourceKind, name string, slots uint32) (uint32, error) {
	slots = max(slots, 1)
	key := bindingKey{kind: kind, name: name}
	if b, ok := a.table[key]; ok {
		if prev := a.slots[key]; prev != slots {
			return 0, ir.Errorf(ir.ErrInvalidOperand,
				"%q is declared with %d binding slot(s) here and %d by another stage", name, slots, prev)
		}
		return b, nil
	}
	return a.assign(key, slots), nil
}

func (a *BindingAllocator) assign(key bindingKey, slots uint32) uint32 {
	b := a.next
	a.next += slots
	a.table[key] = b
	a.slots[key] = slots
	return b
}

// Bindings returns a copy of the name-to-index table for kind.
func (a *BindingAllocator) Bindings(kind ResourceKind) map[string]uint32 {
	out := make(map[string]uint32)
	for key, b := range a.table {
		if key.kind == kind {
			out[key.name] = b
		}
	}
	return out
}
