// Package compiler implements the single-pass Pratt-style compiler that
// turns source text directly into bytecode (§4.2), and the disassembler
// (§4.6, optional visualization).
package compiler

// OpCode is the one-byte instruction tag described by the bytecode format
// table in §4.3. Most opcodes carry 0, 1, or 2 operand bytes; CLOSURE carries
// a variable-length trailer of (isLocal, index) pairs, one per upvalue.
type OpCode byte

//nolint:revive
const (
	CONSTANT OpCode = iota
	NIL
	TRUE
	FALSE
	POP
	DUP

	GET_LOCAL
	SET_LOCAL
	GET_UPVALUE
	SET_UPVALUE
	GET_GLOBAL
	DEFINE_GLOBAL
	SET_GLOBAL
	GET_PROPERTY
	SET_PROPERTY
	GET_SUPER

	EQUAL
	GREATER
	LESS

	ADD
	SUB
	MUL
	DIV
	MOD

	BITWISE_AND
	BITWISE_OR
	BITWISE_XOR
	SHIFT_LEFT
	SHIFT_RIGHT

	NOT
	NEGATE
	INCREMENT
	DECREMENT

	JUMP
	JUMP_IF_FALSE
	LOOP

	CALL
	INVOKE
	SUPER_INVOKE

	INDEX
	SET_INDEX

	CLOSURE
	CLOSE_UPVALUE

	SET_TABLE
	SET_ARRAY

	RETURN
	DUMP

	CLASS
	METHOD
	PROPERTY
	INHERIT
)

var opcodeNames = [...]string{
	CONSTANT:      "CONSTANT",
	NIL:           "NIL",
	TRUE:          "TRUE",
	FALSE:         "FALSE",
	POP:           "POP",
	DUP:           "DUP",
	GET_LOCAL:     "GET_LOCAL",
	SET_LOCAL:     "SET_LOCAL",
	GET_UPVALUE:   "GET_UPVALUE",
	SET_UPVALUE:   "SET_UPVALUE",
	GET_GLOBAL:    "GET_GLOBAL",
	DEFINE_GLOBAL: "DEFINE_GLOBAL",
	SET_GLOBAL:    "SET_GLOBAL",
	GET_PROPERTY:  "GET_PROPERTY",
	SET_PROPERTY:  "SET_PROPERTY",
	GET_SUPER:     "GET_SUPER",
	EQUAL:         "EQUAL",
	GREATER:       "GREATER",
	LESS:          "LESS",
	ADD:           "ADD",
	SUB:           "SUB",
	MUL:           "MUL",
	DIV:           "DIV",
	MOD:           "MOD",
	BITWISE_AND:   "BITWISE_AND",
	BITWISE_OR:    "BITWISE_OR",
	BITWISE_XOR:   "BITWISE_XOR",
	SHIFT_LEFT:    "SHIFT_LEFT",
	SHIFT_RIGHT:   "SHIFT_RIGHT",
	NOT:           "NOT",
	NEGATE:        "NEGATE",
	INCREMENT:     "INCREMENT",
	DECREMENT:     "DECREMENT",
	JUMP:          "JUMP",
	JUMP_IF_FALSE: "JUMP_IF_FALSE",
	LOOP:          "LOOP",
	CALL:          "CALL",
	INVOKE:        "INVOKE",
	SUPER_INVOKE:  "SUPER_INVOKE",
	INDEX:         "INDEX",
	SET_INDEX:     "SET_INDEX",
	CLOSURE:       "CLOSURE",
	CLOSE_UPVALUE: "CLOSE_UPVALUE",
	SET_TABLE:     "SET_TABLE",
	SET_ARRAY:     "SET_ARRAY",
	RETURN:        "RETURN",
	DUMP:          "DUMP",
	CLASS:         "CLASS",
	METHOD:        "METHOD",
	PROPERTY:      "PROPERTY",
	INHERIT:       "INHERIT",
}

func (op OpCode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// fixedOperandBytes reports the number of fixed operand bytes following the
// opcode byte itself, not counting CLOSURE's variable-length upvalue
// trailer (handled specially by the disassembler and the compiler).
func fixedOperandBytes(op OpCode) int {
	switch op {
	case NIL, TRUE, FALSE, POP, DUP, EQUAL, GREATER, LESS,
		ADD, SUB, MUL, DIV, MOD,
		BITWISE_AND, BITWISE_OR, BITWISE_XOR, SHIFT_LEFT, SHIFT_RIGHT,
		NOT, NEGATE, INCREMENT, DECREMENT,
		INDEX, SET_INDEX, CLOSE_UPVALUE, RETURN, DUMP, INHERIT:
		return 0
	case GET_LOCAL, SET_LOCAL, GET_UPVALUE, SET_UPVALUE,
		GET_GLOBAL, DEFINE_GLOBAL, SET_GLOBAL,
		GET_PROPERTY, SET_PROPERTY, GET_SUPER,
		CALL, SET_TABLE, SET_ARRAY, CLASS, METHOD, PROPERTY, CONSTANT:
		return 1
	case JUMP, JUMP_IF_FALSE, LOOP:
		return 2
	case INVOKE, SUPER_INVOKE:
		return 2
	case CLOSURE:
		return 1 // plus a variable trailer read separately
	default:
		return 0
	}
}
