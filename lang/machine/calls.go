package machine

import "github.com/emberlang/ember/lang/value"

// callValue implements CALL's dispatch table (§4.4): bound methods, classes
// (construction), closures, and natives each handle the argCount slots
// below the top differently; anything else is a non-callable-value error.
func (vm *VM) callValue(callee value.Value, argCount int) {
	if callee.IsObj() {
		switch obj := callee.AsObj().(type) {
		case *value.BoundMethodObj:
			vm.stack[vm.sp-argCount-1] = obj.Receiver
			vm.call(obj.Method, argCount)
			return
		case *value.ClassObj:
			instance := value.NewInstance(obj)
			vm.stack[vm.sp-argCount-1] = value.Obj(instance)
			if initializer, ok := obj.Methods["init"]; ok {
				vm.call(initializer, argCount)
			} else if argCount != 0 {
				vm.throwf("Expected 0 arguments but got %d.", argCount)
			}
			return
		case *value.ClosureObj:
			vm.call(obj, argCount)
			return
		case *value.NativeObj:
			args := vm.stack[vm.sp-argCount : vm.sp]
			result, err := obj.Fn(argCount, args)
			if err != nil {
				vm.throwf("%s", err.Error())
			}
			vm.sp -= argCount + 1
			vm.push(result)
			return
		}
	}
	vm.throwf("Can only call functions and classes.")
}

// call pushes a new CallFrame for closure, verifying exact arity (§4.4) and
// call-stack depth (§7's stack-overflow taxonomy entry).
func (vm *VM) call(closure *value.ClosureObj, argCount int) {
	if argCount != closure.Function.Arity {
		vm.throwf("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
	}
	if vm.frameTop >= len(vm.frames) {
		vm.throwf("Stack overflow.")
	}
	vm.frames[vm.frameTop] = CallFrame{
		Closure: closure,
		IP:      0,
		Slots:   vm.sp - argCount - 1,
	}
	vm.frameTop++
}

// invokeFromClass binds name directly from class's method table and calls
// it, without allocating an intermediate BoundMethodObj (§4.4's INVOKE
// fast path).
func (vm *VM) invokeFromClass(class *value.ClassObj, name *value.StringObj, argCount int) {
	method, ok := class.Methods[name.Chars]
	if !ok {
		vm.throwf("Undefined property '%s'.", name.Chars)
	}
	vm.call(method, argCount)
}

// invoke implements INVOKE: GET_PROPERTY name; CALL argc short-circuited
// when the receiver is an instance and name is not a shadowing field.
// Table receivers (e.g. the tables module(name) returns) take the same
// fast path against their entries, since a table's "method" is just a
// NativeFn/closure value stored under that key (§4.4's property-access
// rule applies identically to GET_PROPERTY and INVOKE).
func (vm *VM) invoke(name *value.StringObj, argCount int) {
	receiver := vm.peek(argCount)
	switch {
	case receiver.Is(value.ObjInstance):
		instance := receiver.AsObj().(*value.InstanceObj)
		if field, ok := instance.Fields[name.Chars]; ok {
			vm.stack[vm.sp-argCount-1] = field
			vm.callValue(field, argCount)
			return
		}
		vm.invokeFromClass(instance.Class, name, argCount)
	case receiver.Is(value.ObjTable):
		table := receiver.AsObj().(*value.TableObj)
		v, ok := table.Get(value.Obj(name))
		if !ok {
			vm.throwf("Undefined property '%s'.", name.Chars)
		}
		vm.stack[vm.sp-argCount-1] = v
		vm.callValue(v, argCount)
	default:
		vm.throwf("Only instances and tables have methods.")
	}
}

// bindMethod looks up name on class, binds it to instance, and pushes the
// resulting BoundMethodObj, replacing the instance on top of the stack
// (§4.4's instance property-access fallback).
func (vm *VM) bindMethod(class *value.ClassObj, name *value.StringObj) bool {
	method, ok := class.Methods[name.Chars]
	if !ok {
		return false
	}
	bound := &value.BoundMethodObj{Receiver: vm.peek(0), Method: method}
	vm.pop()
	vm.push(value.Obj(bound))
	return true
}

// captureUpvalue returns the (possibly shared) open upvalue for the given
// absolute stack slot, inserting a new one while preserving the
// descending-slot ordering invariant from §3/§8.
func (vm *VM) captureUpvalue(slot int) *value.UpvalueObj {
	var prev *value.UpvalueObj
	cur := vm.openUpvalues

	for cur != nil && cur.Slot > slot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Slot == slot {
		return cur
	}

	created := &value.UpvalueObj{Location: &vm.stack[slot], Slot: slot, Next: cur}
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue at or above fromSlot: it copies
// the live slot value into the upvalue's own storage and retargets its
// pointer there, then unlinks it from the open list (§4.4).
func (vm *VM) closeUpvalues(fromSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.Slot >= fromSlot {
		uv := vm.openUpvalues
		uv.Closed = *uv.Location
		uv.Location = &uv.Closed
		vm.openUpvalues = uv.Next
	}
}
