package compiler_test

import (
	"testing"

	"github.com/emberlang/ember/lang/compiler"
	"github.com/emberlang/ember/lang/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, src string) *value.FunctionObj {
	t.Helper()
	fn, err := compiler.Compile(src, value.NewInterner())
	require.NoError(t, err)
	require.NotNil(t, fn)
	return fn
}

func TestLinesMatchCodeLength(t *testing.T) {
	fn := mustCompile(t, `let a = 1; dump a + 2;`)
	assert.Equal(t, len(fn.Chunk.Code), len(fn.Chunk.Lines))
}

func TestJumpTargetsAreValid(t *testing.T) {
	fn := mustCompile(t, `
		let a = 0;
		for (let i = 1; i <= 3; i += 1) { a = a + i; }
		dump a;
	`)
	// every forward JUMP/JUMP_IF_FALSE target must be within the code.
	code := fn.Chunk.Code
	for i := 0; i < len(code); {
		op := compiler.OpCode(code[i])
		switch op {
		case compiler.JUMP, compiler.JUMP_IF_FALSE:
			jump := int(code[i+1])<<8 | int(code[i+2])
			target := i + 3 + jump
			assert.True(t, target >= 0 && target <= len(code))
			i += 3
		case compiler.LOOP:
			jump := int(code[i+1])<<8 | int(code[i+2])
			target := i + 3 - jump
			assert.True(t, target >= 0 && target <= len(code))
			i += 3
		case compiler.CLOSURE:
			idx := code[i+1]
			nested := fn.Chunk.Constants[idx].AsObj().(*value.FunctionObj)
			i += 2 + 2*nested.UpvalueCount
		case compiler.CONSTANT, compiler.GET_LOCAL, compiler.SET_LOCAL,
			compiler.GET_UPVALUE, compiler.SET_UPVALUE, compiler.GET_GLOBAL,
			compiler.DEFINE_GLOBAL, compiler.SET_GLOBAL, compiler.GET_PROPERTY,
			compiler.SET_PROPERTY, compiler.GET_SUPER, compiler.CALL,
			compiler.SET_TABLE, compiler.SET_ARRAY, compiler.CLASS,
			compiler.METHOD, compiler.PROPERTY:
			i += 2
		case compiler.INVOKE, compiler.SUPER_INVOKE:
			i += 3
		default:
			i++
		}
	}
}

func TestClosureUpvalueDescriptorsAreInBounds(t *testing.T) {
	fn := mustCompile(t, `
		fun mk() {
			let x = 10;
			fun inner() { return x; }
			return inner;
		}
	`)
	// mk's chunk should contain a CLOSURE for inner referencing a local.
	// the script's pool holds the global name "mk" (index 0) and mk itself (index 1).
	require.Len(t, fn.Chunk.Constants, 2)
	mkFn := fn.Chunk.Constants[1].AsObj().(*value.FunctionObj)
	found := false
	code := mkFn.Chunk.Code
	for i := 0; i < len(code); i++ {
		if compiler.OpCode(code[i]) == compiler.CLOSURE {
			idx := code[i+1]
			inner := mkFn.Chunk.Constants[idx].AsObj().(*value.FunctionObj)
			off := i + 2
			for u := 0; u < inner.UpvalueCount; u++ {
				isLocal := code[off]
				index := code[off+1]
				if isLocal != 0 {
					assert.Less(t, int(index), len(mkFn.Chunk.Constants)+256) // sanity, locals bounded by maxLocals
				}
				off += 2
			}
			found = true
			break
		}
	}
	assert.True(t, found)
}

func TestCompileErrorSelfInheritance(t *testing.T) {
	_, err := compiler.Compile(`class A {} class A < A {}`, value.NewInterner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A class can't inherit from itself.")
}

func TestInvalidAssignmentTarget(t *testing.T) {
	_, err := compiler.Compile(`1 + 2 = 3;`, value.NewInterner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid assignment target")
}

func TestBreakOutsideLoopIsError(t *testing.T) {
	_, err := compiler.Compile(`break;`, value.NewInterner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't use 'break' outside of a loop.")
}

func TestReturnValueInInitializerIsError(t *testing.T) {
	_, err := compiler.Compile(`class A { init() { return 1; } }`, value.NewInterner())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Can't return a value from an initializer.")
}
