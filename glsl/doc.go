// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glsl provides the GLSL (OpenGL Shading Language) backend of stagec.
//
// Compile turns the per-stage Programs of one pipeline into GLSL source
// text. Stages compiled together share one binding allocation, so a buffer
// or texture referenced by several stages is bound at the same index in
// every one of them.
//
// # Basic Usage
//
//	pipeline, err := glsl.Compile([]*ir.Program{vertex, fragment}, glsl.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	source := pipeline.Sources[ir.StageFragment]
//
// # Naming
//
// Resources are renamed with fixed prefixes that the execution backend
// relies on: in_<name>, out_<name>, param_<name>, texture_<name> and
// buffer_<name> (whose element array is always named data). Locals and
// arguments keep their names inside main and are prefixed with the
// function name elsewhere.
//
// # Draw id
//
// Graphics stages define DRAW_ID. The vertex stage takes it from
// gl_InstanceID and forwards it downstream through a flat varying named
// draw_id, and static buffers are indexed with it. Compute stages have no
// draw id, so they may only access dynamic buffers.
//
// # Reserved Words
//
// User identifiers that collide with GLSL reserved words or the gl_ prefix
// are escaped by prefixing them with an underscore.
package glsl
