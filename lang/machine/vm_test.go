package machine_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/emberlang/ember/lang/machine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) (machine.Result, string, error) {
	t.Helper()
	var out bytes.Buffer
	vm := machine.NewVM(machine.Config{Stdout: &out, Stderr: &out})
	defer vm.Close()
	res, err := vm.Interpret(src)
	return res, out.String(), err
}

// The three §8 error scenarios.

func TestAddTypeMismatchMustBeJoinable(t *testing.T) {
	res, _, err := run(t, `dump "x" + 1;`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be two joinable types")
}

func TestArityMismatchReportsExpectedAndGot(t *testing.T) {
	res, _, err := run(t, `fun f(a) { return a; } f(1,2);`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 1 arguments but got 2.")
}

func TestClassCannotInheritFromItself(t *testing.T) {
	res, _, err := run(t, `class A {} class A < A {}`)
	require.Equal(t, machine.ResultCompileError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "A class can't inherit from itself.")
}

// Core invariants.

func TestReturnLeavesBalancedStack(t *testing.T) {
	// If RETURN mis-balanced the stack, the second dump would observe
	// garbage left behind by the call rather than the fresh value 2.
	res, out, err := run(t, `
fun one() { return 1; }
one();
dump 2;
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "2\n", out)
}

func TestClosureUpvalueSharesMutationsAcrossCalls(t *testing.T) {
	// Two closures created from the same enclosing call must close over
	// the same upvalue: incrementing through one is visible via the other,
	// which only holds if open upvalues are shared rather than copied.
	res, out, err := run(t, `
fun makeCounter() {
    let count = 0;
    fun inc() {
        count = count + 1;
        return count;
    }
    fun get() {
        return count;
    }
    return [inc, get];
}
let pair = makeCounter();
let inc = pair[0];
let get = pair[1];
inc();
inc();
dump get();
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "2\n", out)
}

func TestClosuresFromSeparateCallsCloseOverOwnParameter(t *testing.T) {
	// Three closures created by three separate calls of make must each
	// keep the value of their own call's parameter n after that call
	// returned and closed the upvalue, not a value from another call.
	res, out, err := run(t, `
fun make(n) {
    fun get() { return n; }
    return get;
}
let a = make(1);
let b = make(2);
let c = make(3);
dump a() + b() + c();
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "6\n", out)
}

func TestInternedStringsCompareEqualAcrossConstruction(t *testing.T) {
	res, out, err := run(t, `
let a = "hel" + "lo";
let b = "hello";
dump a == b;
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "true\n", out)
}

func TestCrossClassOperatorDispatchIsDistinctFromTypeMismatch(t *testing.T) {
	res, _, err := run(t, `
class A { __add(other) { return 1; } }
class B { __add(other) { return 2; } }
dump A() + B();
`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "must be two joinable types"))
}

func TestModuleNativeBuildsTableOnDemand(t *testing.T) {
	res, out, err := run(t, `
let m = module("math");
dump m.pi > 3;
dump m.sqrt(4);
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "true\n2\n", out)
}

func TestModuleNativeRejectsUnknownModule(t *testing.T) {
	res, _, err := run(t, `module("nope");`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined module 'nope'.")
}

func TestClockModuleIsNotAnEagerGlobal(t *testing.T) {
	// Per spec.md §6, modules are only reachable through module(name);
	// nothing pre-binds them as globals at startup.
	res, _, err := run(t, `dump clock;`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Undefined variable 'clock'.")
}

func TestModulesNativeReturnsSortedNames(t *testing.T) {
	res, out, err := run(t, `
let names = modules();
dump names[0];
dump names[1];
dump names[2];
`)
	require.NoError(t, err)
	require.Equal(t, machine.ResultOK, res)
	assert.Equal(t, "clock\nmath\nstrings\n", out)
}

func TestStackOverflowOnUnboundedRecursion(t *testing.T) {
	res, _, err := run(t, `
fun recurse() { return recurse(); }
recurse();
`)
	require.Equal(t, machine.ResultRuntimeError, res)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Stack overflow.")
}
