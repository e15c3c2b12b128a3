// Package machine implements the stack-based bytecode interpreter: call
// frames, closures with open/closed upvalues, instance/class/method
// dispatch with operator-overload hooks, and heterogeneous collection
// operations (§4.4).
package machine

import (
	"fmt"
	"io"
	"os"

	"github.com/emberlang/ember/lang/compiler"
	"github.com/emberlang/ember/lang/value"
)

// Result is the outcome of Interpret, per §6's embedder API.
type Result int

const (
	ResultOK Result = iota
	ResultCompileError
	ResultRuntimeError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultCompileError:
		return "COMPILE_ERROR"
	case ResultRuntimeError:
		return "RUNTIME_ERROR"
	default:
		return "UNKNOWN"
	}
}

// operatorNames caches the interned dunder method names consulted on every
// arithmetic/comparison operation between two instances of the same class
// (§4.4), so the hot path never re-interns a string.
type operatorNames struct {
	init                            *value.StringObj
	add, sub, mul, div, mod         *value.StringObj
	and, or, xor, not               *value.StringObj
	eq, gt, lt                      *value.StringObj
}

// Config sizes the VM's fixed-capacity stacks. Zero values fall back to the
// defaults baked into NewVM; internal/maincmd populates these from the
// EMBER_MAX_STACK / EMBER_MAX_FRAMES environment variables (SPEC_FULL.md §B).
type Config struct {
	MaxStack  int
	MaxFrames int
	Stdout    io.Writer
	Stderr    io.Writer
}

const (
	DefaultMaxStack  = 16384
	DefaultMaxFrames = 64
)

// VM owns the value stack, the call-frame stack, the globals table, the
// interner, the open-upvalue list, and the cached operator-hook strings
// (§4.4).
type VM struct {
	stack    []value.Value // fixed-capacity; never reallocated once allocated
	sp       int
	frames   []CallFrame
	frameTop int

	globals  map[*value.StringObj]value.Value
	Interner *value.Interner
	ops      operatorNames

	openUpvalues *value.UpvalueObj

	modules map[string]Module

	Stdout io.Writer
	Stderr io.Writer
}

// NewVM constructs and initializes a VM (§6's initVM): it allocates the
// fixed-size stacks and creates the interned operator-hook strings.
func NewVM(cfg Config) *VM {
	if cfg.MaxStack <= 0 {
		cfg.MaxStack = DefaultMaxStack
	}
	if cfg.MaxFrames <= 0 {
		cfg.MaxFrames = DefaultMaxFrames
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}

	vm := &VM{
		stack:    make([]value.Value, cfg.MaxStack),
		frames:   make([]CallFrame, cfg.MaxFrames),
		globals:  make(map[*value.StringObj]value.Value),
		Interner: value.NewInterner(),
		modules:  make(map[string]Module),
		Stdout:   cfg.Stdout,
		Stderr:   cfg.Stderr,
	}
	vm.ops = operatorNames{
		init: vm.Interner.Intern("init"),
		add:  vm.Interner.Intern("__add"),
		sub:  vm.Interner.Intern("__sub"),
		mul:  vm.Interner.Intern("__mul"),
		div:  vm.Interner.Intern("__div"),
		mod:  vm.Interner.Intern("__mod"),
		and:  vm.Interner.Intern("__and"),
		or:   vm.Interner.Intern("__or"),
		xor:  vm.Interner.Intern("__xor"),
		not:  vm.Interner.Intern("__not"),
		eq:   vm.Interner.Intern("__eq"),
		gt:   vm.Interner.Intern("__gt"),
		lt:   vm.Interner.Intern("__lt"),
	}
	registerBuiltinModules(vm)
	return vm
}

// Close releases the VM's resources (§6's freeVM). The Go garbage collector
// reclaims everything reachable only from the VM once it is dropped; Close
// exists so embedders have a deterministic lifecycle hook to call.
func (vm *VM) Close() {
	vm.stack = nil
	vm.frames = nil
	vm.globals = nil
	vm.openUpvalues = nil
}

// DefineNative registers a native callable into the globals table (§6).
func (vm *VM) DefineNative(name string, fn value.NativeFn) {
	key := vm.Interner.Intern(name)
	vm.globals[key] = value.Obj(&value.NativeObj{Name: name, Fn: fn})
}

// Interpret compiles and runs a top-level script (§6).
func (vm *VM) Interpret(source string) (Result, error) {
	fn, err := compiler.Compile(source, vm.Interner)
	if err != nil {
		return ResultCompileError, err
	}

	vm.sp = 0
	vm.frameTop = 0
	vm.openUpvalues = nil

	if err := vm.runProgram(fn); err != nil {
		return ResultRuntimeError, err
	}
	return ResultOK, nil
}

// runProgram runs the top-level script closure to completion, converting any
// runtimeError panic raised by the interpreter loop into a Go error carrying
// the stack-trace format from §6.
func (vm *VM) runProgram(fn *value.FunctionObj) (err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*runtimeError)
			if !ok {
				panic(r)
			}
			err = vm.formatRuntimeError(rerr)
			vm.sp = 0
			vm.frameTop = 0
			vm.openUpvalues = nil
		}
	}()

	closure := &value.ClosureObj{Function: fn}
	vm.push(value.Obj(closure))
	vm.call(closure, 0)
	vm.run()
	return nil
}

func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		panic(&runtimeError{msg: "Stack overflow."})
	}
	vm.stack[vm.sp] = v
	vm.sp++
}

func (vm *VM) pop() value.Value {
	vm.sp--
	return vm.stack[vm.sp]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.sp-1-distance]
}

// runtimeError is the internal panic payload used to unwind the interpreter
// loop on a taxonomy-§7 runtime error without threading error returns
// through every opcode case; runProgram recovers it and converts it to a Go
// error carrying the formatted stack trace from §6.
type runtimeError struct {
	msg string
}

func (e *runtimeError) Error() string { return e.msg }

func (vm *VM) throwf(format string, args ...interface{}) {
	panic(&runtimeError{msg: fmt.Sprintf(format, args...)})
}
