// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glsl

import (
	"github.com/gogpu/stagec/ir"
)

// writeBlock writes a block of statements.
func (w *Writer) writeBlock(block []ir.Instruction) error {
	for _, inst := range block {
		if err := w.writeStatement(inst); err != nil {
			return err
		}
	}
	return nil
}

// writeScopedBlock writes an indented block whose locals go out of scope
// at its end.
func (w *Writer) writeScopedBlock(block []ir.Instruction) error {
	w.resolver.Scope.Push()
	defer w.resolver.Scope.Pop()
	w.pushIndent()
	defer w.popIndent()
	return w.writeBlock(block)
}

// writeStatement writes a single instruction in statement position.
func (w *Writer) writeStatement(inst ir.Instruction) error {
	switch in := inst.(type) {
	case ir.Branch:
		return w.writeIf(in)

	case ir.Loop:
		return w.writeLoop(in)

	case ir.Break:
		w.writeLine("break;")
		return nil

	case ir.Continue:
		w.writeLine("continue;")
		return nil

	case ir.Return:
		return w.writeReturn(in)

	case ir.Discard:
		if err := w.requireStage("discard", ir.StageFragment); err != nil {
			return err
		}
		w.writeLine("discard;")
		return nil

	case ir.EmitVertex:
		if err := w.requireStage("vertex emission", ir.StageGeometry); err != nil {
			return err
		}
		// Every emitted vertex carries the draw id downstream.
		w.writeLine("out_draw_id = DRAW_ID;")
		w.writeLine("EmitVertex();")
		return nil

	case ir.EndPrimitive:
		if err := w.requireStage("primitive completion", ir.StageGeometry); err != nil {
			return err
		}
		w.writeLine("EndPrimitive();")
		return nil

	default:
		expr, err := w.writeInstruction(inst)
		if err != nil {
			return err
		}
		w.writeLine("%s;", expr)
		return nil
	}
}

// writeIf writes an if statement.
func (w *Writer) writeIf(branch ir.Branch) error {
	condition, err := w.writeRequired("branch condition", branch.Condition)
	if err != nil {
		return err
	}

	w.writeLine("if (%s) {", condition)
	if err := w.writeScopedBlock(branch.Then); err != nil {
		return err
	}

	if len(branch.Else) > 0 {
		w.writeLine("} else {")
		if err := w.writeScopedBlock(branch.Else); err != nil {
			return err
		}
	}

	w.writeLine("}")
	return nil
}

// writeLoop writes a counted for loop.
func (w *Writer) writeLoop(loop ir.Loop) error {
	// The initializer's declaration belongs to the loop.
	w.resolver.Scope.Push()
	defer w.resolver.Scope.Pop()

	init, err := w.writeRequired("loop initializer", loop.Init)
	if err != nil {
		return err
	}
	condition, err := w.writeRequired("loop condition", loop.Condition)
	if err != nil {
		return err
	}
	step, err := w.writeRequired("loop step", loop.Step)
	if err != nil {
		return err
	}

	w.writeLine("for (%s; %s; %s) {", init, condition, step)
	if err := w.writeScopedBlock(loop.Body); err != nil {
		return err
	}
	w.writeLine("}")
	return nil
}

// writeReturn writes a return statement.
func (w *Writer) writeReturn(ret ir.Return) error {
	switch {
	case ret.Value == nil && w.returns != nil:
		return ir.NewError(ir.ErrInvalidOperand, "return without a value in a function returning a value")
	case ret.Value != nil && w.returns == nil:
		return ir.NewError(ir.ErrInvalidOperand, "return with a value in a function returning void")
	case ret.Value == nil:
		w.writeLine("return;")
		return nil
	}

	value, err := w.writeOperand(ret.Value)
	if err != nil {
		return err
	}
	w.writeLine("return %s;", value)
	return nil
}

// requireStage rejects a stage-specific operation outside its stages.
func (w *Writer) requireStage(what string, stages ...ir.Stage) error {
	for _, s := range stages {
		if w.program.Stage == s {
			return nil
		}
	}
	return ir.Errorf(ir.ErrUnsupportedFeature, "%s is not available in %s stages", what, w.program.Stage)
}
