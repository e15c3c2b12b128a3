package compiler

import (
	"fmt"
	"io"

	"github.com/emberlang/ember/lang/value"
)

// Disassemble writes a human-readable dump of chunk to w, prefixed by name.
// It is purely observational: it never mutates the chunk. Per the resolved
// Open Question in §9, all disassembler state (loop/jump bookkeeping) is
// local to this call, not shared module state, so concurrent or repeated
// disassembly of different chunks cannot interfere with each other.
func Disassemble(w io.Writer, chunk *value.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	d := &disassembler{chunk: chunk, w: w}
	for offset := 0; offset < len(chunk.Code); {
		offset = d.instruction(offset)
	}
}

type disassembler struct {
	chunk *value.Chunk
	w     io.Writer
}

func (d *disassembler) instruction(offset int) int {
	fmt.Fprintf(d.w, "%04d ", offset)
	line := d.chunk.LineAt(offset)
	if offset > 0 && line == d.chunk.LineAt(offset-1) {
		fmt.Fprint(d.w, "   | ")
	} else {
		fmt.Fprintf(d.w, "%4d ", line)
	}

	op := OpCode(d.chunk.Code[offset])
	switch op {
	case JUMP, JUMP_IF_FALSE:
		return d.jumpInstruction(op, 1, offset)
	case LOOP:
		return d.jumpInstruction(op, -1, offset)
	case CONSTANT:
		return d.constantInstruction(op, offset)
	case GET_LOCAL, SET_LOCAL, GET_UPVALUE, SET_UPVALUE, CALL:
		return d.byteInstruction(op, offset)
	case GET_GLOBAL, DEFINE_GLOBAL, SET_GLOBAL, GET_PROPERTY, SET_PROPERTY,
		GET_SUPER, CLASS, METHOD, PROPERTY:
		return d.constantInstruction(op, offset)
	case INVOKE, SUPER_INVOKE:
		return d.invokeInstruction(op, offset)
	case CLOSURE:
		return d.closureInstruction(offset)
	case SET_TABLE, SET_ARRAY:
		return d.byteInstruction(op, offset)
	default:
		fmt.Fprintln(d.w, op)
		return offset + 1
	}
}

func (d *disassembler) byteInstruction(op OpCode, offset int) int {
	slot := d.chunk.Code[offset+1]
	fmt.Fprintf(d.w, "%-16s %4d\n", op, slot)
	return offset + 2
}

func (d *disassembler) constantInstruction(op OpCode, offset int) int {
	idx := d.chunk.Code[offset+1]
	fmt.Fprintf(d.w, "%-16s %4d '%s'\n", op, idx, d.chunk.Constants[idx].String())
	return offset + 2
}

func (d *disassembler) invokeInstruction(op OpCode, offset int) int {
	idx := d.chunk.Code[offset+1]
	argCount := d.chunk.Code[offset+2]
	fmt.Fprintf(d.w, "%-16s (%d args) %4d '%s'\n", op, argCount, idx, d.chunk.Constants[idx].String())
	return offset + 3
}

// jumpInstruction renders the jump with a small arrow overlay showing
// whether it points forward or backward within the chunk.
func (d *disassembler) jumpInstruction(op OpCode, sign, offset int) int {
	jump := int(d.chunk.Code[offset+1])<<8 | int(d.chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	arrow := "->"
	if sign < 0 {
		arrow = "<-"
	}
	fmt.Fprintf(d.w, "%-16s %4d %s %d\n", op, offset, arrow, target)
	return offset + 3
}

func (d *disassembler) closureInstruction(offset int) int {
	offset++
	idx := d.chunk.Code[offset]
	offset++
	fn := d.chunk.Constants[idx].AsObj().(*value.FunctionObj)
	fmt.Fprintf(d.w, "%-16s %4d '%s'\n", CLOSURE, idx, fn.String())
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := d.chunk.Code[offset]
		offset++
		index := d.chunk.Code[offset]
		offset++
		kind := "upvalue"
		if isLocal != 0 {
			kind = "local"
		}
		fmt.Fprintf(d.w, "%04d      |                     %s %d\n", offset-2, kind, index)
	}
	return offset
}
