package machine

import "github.com/emberlang/ember/lang/value"

// getProperty implements GET_PROPERTY for both instances (field lookup
// falling back to bound-method resolution) and tables (arbitrary-key
// lookup, missing key is an error), per §4.4's property-access rules.
func (vm *VM) getProperty(name *value.StringObj) {
	receiver := vm.peek(0)
	switch {
	case receiver.Is(value.ObjInstance):
		instance := receiver.AsObj().(*value.InstanceObj)
		if field, ok := instance.Fields[name.Chars]; ok {
			vm.pop()
			vm.push(field)
			return
		}
		if !vm.bindMethod(instance.Class, name) {
			vm.throwf("Undefined property '%s'.", name.Chars)
		}
	case receiver.Is(value.ObjTable):
		table := receiver.AsObj().(*value.TableObj)
		v, ok := table.Get(value.Obj(name))
		if !ok {
			vm.throwf("Undefined property '%s'.", name.Chars)
		}
		vm.pop()
		vm.push(v)
	default:
		vm.throwf("Only instances and tables have properties.")
	}
}

// setProperty implements SET_PROPERTY: the instance/table sits at peek(1),
// the value to store at peek(0); the value remains on the stack afterward
// (§4.4, mirroring SET_LOCAL/SET_GLOBAL's "assignment is an expression"
// convention).
func (vm *VM) setProperty(name *value.StringObj) {
	target := vm.peek(1)
	switch {
	case target.Is(value.ObjInstance):
		instance := target.AsObj().(*value.InstanceObj)
		v := vm.pop()
		vm.pop()
		instance.Fields[name.Chars] = v
		vm.push(v)
	case target.Is(value.ObjTable):
		table := target.AsObj().(*value.TableObj)
		v := vm.pop()
		vm.pop()
		table.Set(value.Obj(name), v)
		vm.push(v)
	default:
		vm.throwf("Only instances and tables have properties.")
	}
}

// index implements INDEX (§4.4): strings return a one-character new string,
// arrays a bounds-checked element, tables an arbitrary-key lookup (missing
// key is an error); anything else is a non-indexable-value error.
func (vm *VM) index() {
	idx := vm.peek(0)
	container := vm.peek(1)

	switch {
	case container.Is(value.ObjString):
		s := container.AsObj().(*value.StringObj)
		if !idx.IsNumber() {
			vm.throwf("Type mismatch: string index must be a number.")
		}
		i := int(idx.AsNumber())
		if i < 0 || i >= len(s.Chars) {
			vm.throwf("Index out of bounds: %d.", i)
		}
		vm.pop()
		vm.pop()
		vm.push(value.Obj(vm.Interner.Intern(string(s.Chars[i]))))
	case container.Is(value.ObjArray):
		arr := container.AsObj().(*value.ArrayObj)
		if !idx.IsNumber() {
			vm.throwf("Type mismatch: array index must be a number.")
		}
		i := int(idx.AsNumber())
		if i < 0 || i >= arr.Len() {
			vm.throwf("Index out of bounds: %d.", i)
		}
		vm.pop()
		vm.pop()
		vm.push(arr.Get(i))
	case container.Is(value.ObjTable):
		table := container.AsObj().(*value.TableObj)
		v, ok := table.Get(idx)
		if !ok {
			vm.throwf("Undefined property '%s'.", idx.String())
		}
		vm.pop()
		vm.pop()
		vm.push(v)
	default:
		vm.throwf("Non-indexable value: %s.", container.TypeName())
	}
}

// setIndex implements SET_INDEX: container, index, and value sit at
// peek(2), peek(1), peek(0) respectively; the stored value remains on the
// stack afterward. Strings are immutable and not settable by index.
func (vm *VM) setIndex() {
	v := vm.peek(0)
	idx := vm.peek(1)
	container := vm.peek(2)

	switch {
	case container.Is(value.ObjArray):
		arr := container.AsObj().(*value.ArrayObj)
		if !idx.IsNumber() {
			vm.throwf("Type mismatch: array index must be a number.")
		}
		i := int(idx.AsNumber())
		if i < 0 || i >= arr.Len() {
			vm.throwf("Index out of bounds: %d.", i)
		}
		arr.Set(i, v)
		vm.pop()
		vm.pop()
		vm.pop()
		vm.push(v)
	case container.Is(value.ObjTable):
		table := container.AsObj().(*value.TableObj)
		table.Set(idx, v)
		vm.pop()
		vm.pop()
		vm.pop()
		vm.push(v)
	default:
		vm.throwf("Non-indexable value: %s.", container.TypeName())
	}
}
