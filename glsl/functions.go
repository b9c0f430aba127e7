// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"errors"
	"strings"

	"github.com/gogpu/stagec/ir"
)

// writeFunctions writes a prototype for every helper function, then their
// definitions, both in natural name order. The prototypes let any function
// call any other regardless of emission order.
func (w *Writer) writeFunctions() error {
	names := ir.SortedNames(w.program.Functions)
	if len(names) == 0 {
		return nil
	}

	signatures := make([]string, len(names))
	for i, name := range names {
		sig, err := w.functionSignature(name, w.program.Functions[name])
		if err != nil {
			return inFunction(err, name)
		}
		signatures[i] = sig
		w.writeLine("%s;", sig)
	}
	w.writeLine("")

	for i, name := range names {
		fn := w.program.Functions[name]
		if err := w.writeFunction(name, signatures[i], fn.Args, fn.Return, fn.Body, ""); err != nil {
			return inFunction(err, name)
		}
		w.writeLine("")
	}
	return nil
}

// writeMain writes the stage entry point. Stages that forward the draw id
// end main by storing it into their draw id output.
func (w *Writer) writeMain() error {
	var trailer string
	switch w.program.Stage {
	case ir.StageVertex, ir.StageTessEval:
		trailer = "out_draw_id = DRAW_ID;"
	case ir.StageTessControl:
		trailer = "out_draw_id[gl_InvocationID] = DRAW_ID;"
	}
	if err := w.writeFunction(mainFunction, "void main()", nil, nil, w.program.Main, trailer); err != nil {
		return inFunction(err, mainFunction)
	}
	return nil
}

// functionSignature returns "<ret|void> <name>(<typed args>)".
func (w *Writer) functionSignature(name string, fn ir.Function) (string, error) {
	if name == mainFunction {
		return "", ir.NewError(ir.ErrInvalidOperand, "a helper function may not be named main")
	}
	fnName, err := identifier(name)
	if err != nil {
		return "", err
	}
	ret := "void"
	if fn.Return != nil {
		if fn.Return.IsArray() {
			return "", ir.NewError(ir.ErrUnsupportedType, "functions may not return arrays")
		}
		if ret, err = w.typeName(*fn.Return); err != nil {
			return "", err
		}
	}

	w.function = name
	args := make([]string, len(fn.Args))
	for i, arg := range fn.Args {
		argName, err := w.scopedName(arg.Name)
		if err != nil {
			return "", err
		}
		if args[i], err = w.declaration(arg.Type, argName); err != nil {
			return "", err
		}
	}
	return ret + " " + fnName + "(" + strings.Join(args, ", ") + ")", nil
}

// writeFunction writes a function definition. trailer, when set, is
// appended as the last statement of the body.
func (w *Writer) writeFunction(name, signature string, args []ir.Field, returns *ir.Type, body []ir.Instruction, trailer string) error {
	w.function = name
	w.returns = returns
	w.resolver = &ir.Resolver{
		Program: w.program,
		Scope:   ir.NewScope(args),
		Strict:  w.options.StrictTypes,
	}
	defer func() {
		w.function = ""
		w.returns = nil
		w.resolver = nil
	}()

	w.writeLine("%s {", signature)
	w.pushIndent()
	if err := w.writeBlock(body); err != nil {
		return err
	}
	if trailer != "" {
		w.writeLine("%s", trailer)
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

// scopedName returns the GLSL name of a local or argument of the current
// function: bare in main, prefixed with the function name elsewhere.
func (w *Writer) scopedName(name string) (string, error) {
	if !isIdentifier(name) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "%q is not a valid identifier", name)
	}
	if w.function == mainFunction {
		return escapeKeyword(name), nil
	}
	scoped := w.function + "_" + name
	if !isIdentifier(scoped) {
		return "", ir.Errorf(ir.ErrInvalidOperand, "%q is not a valid identifier in function %s", name, w.function)
	}
	return escapeKeyword(scoped), nil
}

// inFunction attributes an IR error to the named function.
func inFunction(err error, name string) error {
	var e *ir.Error
	if errors.As(err, &e) {
		return e.InFunction(name)
	}
	return err
}
