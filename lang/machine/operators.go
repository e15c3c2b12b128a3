package machine

import (
	"math"

	"github.com/emberlang/ember/lang/value"
)

// sameClassInstances reports whether a and b are both instances of the same
// ClassObj, the precondition for dispatching to an operator-overload hook
// rather than falling back to a built-in combination (§4.4).
func sameClassInstances(a, b value.Value) (*value.InstanceObj, *value.InstanceObj, bool) {
	if !a.Is(value.ObjInstance) || !b.Is(value.ObjInstance) {
		return nil, nil, false
	}
	ia := a.AsObj().(*value.InstanceObj)
	ib := b.AsObj().(*value.InstanceObj)
	return ia, ib, ia.Class == ib.Class
}

// dispatchOperator invokes left's `name` method with right as its sole
// argument (§4.4's per-operator dispatch rule) by pushing a new call frame
// for it. It does not touch the loop's cached frame pointer; the VM loop
// re-reads frame after calling this.
func (vm *VM) dispatchOperator(left *value.InstanceObj, name *value.StringObj, right value.Value) {
	method, ok := left.Class.Methods[name.Chars]
	if !ok {
		vm.throwf("Undefined property '%s'.", name.Chars)
	}
	vm.push(right)
	vm.call(method, 1)
}

// binaryOperatorHook returns the cached dunder name for a binary opcode, or
// nil if that opcode has no operator-overload hook (comparison opcodes
// other than EQUAL/GREATER/LESS never reach here).
func (vm *VM) binaryOperatorHook(op operatorKind) *value.StringObj {
	switch op {
	case opAdd:
		return vm.ops.add
	case opSub:
		return vm.ops.sub
	case opMul:
		return vm.ops.mul
	case opDiv:
		return vm.ops.div
	case opMod:
		return vm.ops.mod
	case opBitAnd:
		return vm.ops.and
	case opBitOr:
		return vm.ops.or
	case opBitXor:
		return vm.ops.xor
	case opGreater:
		return vm.ops.gt
	case opLess:
		return vm.ops.lt
	default:
		return nil
	}
}

type operatorKind int

const (
	opAdd operatorKind = iota
	opSub
	opMul
	opDiv
	opMod
	opBitAnd
	opBitOr
	opBitXor
	opShiftLeft
	opShiftRight
	opGreater
	opLess
	opEqual
)

// arithmetic implements ADD/SUB/MUL/DIV/MOD (§4.4's ADD fallback table plus
// the same-class operator-overload dispatch rule shared by every
// arithmetic/comparison opcode). It returns true if it instead pushed a new
// call frame via an operator-overload dispatch, in which case the caller
// must refresh its cached frame pointer before continuing the dispatch
// loop; false means it pushed the result itself (the common case).
func (vm *VM) arithmetic(op operatorKind) (pushedFrame bool) {
	b := vm.peek(0)
	a := vm.peek(1)

	if inst, _, ok := sameClassInstances(a, b); ok {
		name := vm.binaryOperatorHook(op)
		if name == nil {
			vm.throwf("Type mismatch: cannot apply operator to %s and %s.", a.TypeName(), b.TypeName())
		}
		vm.pop()
		vm.pop()
		vm.push(a)
		vm.dispatchOperator(inst, name, b)
		return true
	}
	if a.Is(value.ObjInstance) && b.Is(value.ObjInstance) {
		vm.throwf("Cross-class operator dispatch: cannot apply operator to %s and %s.", a.TypeName(), b.TypeName())
	}
	if a.Is(value.ObjInstance) || b.Is(value.ObjInstance) {
		vm.throwf("Type mismatch: cannot apply operator to %s and %s.", a.TypeName(), b.TypeName())
	}

	switch op {
	case opAdd:
		vm.addFallback(a, b)
	case opSub:
		vm.numericBinary(a, b, func(x, y float64) float64 { return x - y })
	case opMul:
		vm.numericBinary(a, b, func(x, y float64) float64 { return x * y })
	case opDiv:
		vm.numericBinary(a, b, func(x, y float64) float64 { return x / y })
	case opMod:
		vm.numericBinary(a, b, math.Mod)
	case opBitAnd:
		vm.integerBinary(a, b, func(x, y int64) int64 { return x & y })
	case opBitOr:
		vm.integerBinary(a, b, func(x, y int64) int64 { return x | y })
	case opBitXor:
		vm.integerBinary(a, b, func(x, y int64) int64 { return x ^ y })
	case opShiftLeft:
		vm.integerBinary(a, b, func(x, y int64) int64 { return x << uint64(y) })
	case opShiftRight:
		vm.integerBinary(a, b, func(x, y int64) int64 { return x >> uint64(y) })
	}
	return false
}

// addFallback implements the ADD-specific combination table (§4.4): numbers
// add, strings concatenate, tables merge (right-biased), arrays concatenate,
// and any other pairing is a type-mismatch error.
func (vm *VM) addFallback(a, b value.Value) {
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.Is(value.ObjString) && b.Is(value.ObjString):
		sa := a.AsObj().(*value.StringObj)
		sb := b.AsObj().(*value.StringObj)
		vm.pop()
		vm.pop()
		vm.push(value.Obj(vm.Interner.Intern(sa.Chars + sb.Chars)))
	case a.Is(value.ObjTable) && b.Is(value.ObjTable):
		ta := a.AsObj().(*value.TableObj)
		tb := b.AsObj().(*value.TableObj)
		vm.pop()
		vm.pop()
		vm.push(value.Obj(value.Merge(ta, tb)))
	case a.Is(value.ObjArray) && b.Is(value.ObjArray):
		aa := a.AsObj().(*value.ArrayObj)
		ab := b.AsObj().(*value.ArrayObj)
		vm.pop()
		vm.pop()
		vm.push(value.Obj(value.Concat(aa, ab)))
	default:
		vm.throwf("Operands of '+' must be two joinable types, got %s and %s.", a.TypeName(), b.TypeName())
	}
}

func (vm *VM) numericBinary(a, b value.Value, fn func(x, y float64) float64) {
	if !a.IsNumber() || !b.IsNumber() {
		vm.throwf("Type mismatch: expected numbers, got %s and %s.", a.TypeName(), b.TypeName())
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(fn(a.AsNumber(), b.AsNumber())))
}

func (vm *VM) integerBinary(a, b value.Value, fn func(x, y int64) int64) {
	if !a.IsNumber() || !b.IsNumber() {
		vm.throwf("Type mismatch: expected numbers, got %s and %s.", a.TypeName(), b.TypeName())
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(float64(fn(int64(a.AsNumber()), int64(b.AsNumber())))))
}

// comparison implements EQUAL/GREATER/LESS, including same-class
// operator-overload dispatch to __eq/__gt/__lt (§4.4). Return value has the
// same meaning as arithmetic's.
func (vm *VM) comparison(op operatorKind) (pushedFrame bool) {
	b := vm.peek(0)
	a := vm.peek(1)

	if op == opGreater || op == opLess {
		if inst, _, ok := sameClassInstances(a, b); ok {
			name := vm.binaryOperatorHook(op)
			vm.pop()
			vm.pop()
			vm.push(a)
			vm.dispatchOperator(inst, name, b)
			return true
		}
		if a.Is(value.ObjInstance) && b.Is(value.ObjInstance) {
			vm.throwf("Cross-class operator dispatch: cannot compare %s and %s.", a.TypeName(), b.TypeName())
		}
		if !a.IsNumber() || !b.IsNumber() {
			vm.throwf("Type mismatch: expected numbers, got %s and %s.", a.TypeName(), b.TypeName())
		}
		vm.pop()
		vm.pop()
		if op == opGreater {
			vm.push(value.Bool(a.AsNumber() > b.AsNumber()))
		} else {
			vm.push(value.Bool(a.AsNumber() < b.AsNumber()))
		}
		return false
	}

	// EQUAL: same-class instances dispatch to __eq if defined, else fall
	// back to identity comparison like any other object pair.
	if inst, _, ok := sameClassInstances(a, b); ok {
		if _, hasEq := inst.Class.Methods[vm.ops.eq.Chars]; hasEq {
			vm.pop()
			vm.pop()
			vm.push(a)
			vm.dispatchOperator(inst, vm.ops.eq, b)
			return true
		}
	}
	vm.pop()
	vm.pop()
	vm.push(value.Bool(a.Equal(b)))
	return false
}

// unaryNegate implements NEGATE. Pure arithmetic negation; it has no
// operator-overload hook of its own (__not belongs to NOT, not NEGATE).
func (vm *VM) unaryNegate() {
	a := vm.peek(0)
	if !a.IsNumber() {
		vm.throwf("Type mismatch: expected number, got %s.", a.TypeName())
	}
	vm.pop()
	vm.push(value.Number(-a.AsNumber()))
}

// unaryNot implements NOT: for instances, dispatches to the __not hook if
// present; otherwise it is boolean negation of IsFalsey (§4.4's falsiness
// rule), matching every other truthiness test in the VM.
func (vm *VM) unaryNot() (pushedFrame bool) {
	a := vm.peek(0)
	if a.Is(value.ObjInstance) {
		inst := a.AsObj().(*value.InstanceObj)
		if method, ok := inst.Class.Methods[vm.ops.not.Chars]; ok {
			// a is already sitting in the slot that becomes the callee's
			// frame base (its "this"), so no stack rearrangement needed.
			vm.call(method, 0)
			return true
		}
	}
	vm.pop()
	vm.push(value.Bool(a.IsFalsey()))
	return false
}

func (vm *VM) incrementDecrement(delta float64) {
	a := vm.peek(0)
	if !a.IsNumber() {
		vm.throwf("Type mismatch: expected number, got %s.", a.TypeName())
	}
	vm.pop()
	vm.push(value.Number(a.AsNumber() + delta))
}
