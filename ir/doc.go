// Package ir defines the intermediate representation consumed by stagec.
//
// The IR describes one pipeline stage as a Program:
//   - Inputs and Outputs: ordered attribute layouts
//   - Parameters, Buffers, Textures: named resources
//   - Structs: named aggregate type definitions
//   - Functions: helper functions callable from the entry point
//   - Main: the entry point's instruction list
//
// # Instructions and operands
//
// Instructions form a strict ownership tree. Every Instruction and Operand
// is a closed sum type implemented by value structs; backends switch on the
// concrete type and treat anything else as an unsupported feature. An
// Instruction is used in statement position inside a Block, or in value
// position through a Nested operand.
//
// # Types
//
// A Type is a comparable value of shape, component kind and array length,
// or the name of a struct definition. Resolver infers the type of any
// operand or value-producing instruction; Program.Layout computes the
// std430 placement of buffer elements.
//
// # Errors
//
// Every failure is an *Error whose Kind is one of the ErrorKind constants.
// Callers inspect it with KindOf or IsKind.
package ir
