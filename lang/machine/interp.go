package machine

import (
	"fmt"

	"github.com/emberlang/ember/lang/compiler"
	"github.com/emberlang/ember/lang/value"
)

// run is the central dispatch loop (§4.4): it reads one opcode byte per
// iteration from the current frame, switches on it, and mutates the stack
// and instruction pointer. It returns when the top-level script frame
// returns; any runtime error unwinds out of here via the runtimeError
// panic caught in runProgram.
func (vm *VM) run() {
	frame := &vm.frames[vm.frameTop-1]

	for {
		op := compiler.OpCode(frame.readByte())

		switch op {
		case compiler.CONSTANT:
			vm.push(frame.readConstant())
		case compiler.NIL:
			vm.push(value.Nil)
		case compiler.TRUE:
			vm.push(value.Bool(true))
		case compiler.FALSE:
			vm.push(value.Bool(false))
		case compiler.POP:
			vm.pop()
		case compiler.DUP:
			vm.push(vm.peek(0))

		case compiler.GET_LOCAL:
			slot := int(frame.readByte())
			vm.push(vm.stack[frame.Slots+slot])
		case compiler.SET_LOCAL:
			slot := int(frame.readByte())
			vm.stack[frame.Slots+slot] = vm.peek(0)
		case compiler.GET_UPVALUE:
			slot := int(frame.readByte())
			vm.push(*frame.Closure.Upvalues[slot].Location)
		case compiler.SET_UPVALUE:
			slot := int(frame.readByte())
			*frame.Closure.Upvalues[slot].Location = vm.peek(0)
		case compiler.GET_GLOBAL:
			name := vm.readName(frame)
			v, ok := vm.globals[name]
			if !ok {
				vm.throwf("Undefined variable '%s'.", name.Chars)
			}
			vm.push(v)
		case compiler.DEFINE_GLOBAL:
			name := vm.readName(frame)
			vm.globals[name] = vm.pop()
		case compiler.SET_GLOBAL:
			name := vm.readName(frame)
			if _, ok := vm.globals[name]; !ok {
				vm.throwf("Undefined variable '%s'.", name.Chars)
			}
			vm.globals[name] = vm.peek(0)
		case compiler.GET_PROPERTY:
			vm.getProperty(vm.readName(frame))
		case compiler.SET_PROPERTY:
			vm.setProperty(vm.readName(frame))
		case compiler.GET_SUPER:
			name := vm.readName(frame)
			superclass, ok := vm.pop().AsObj().(*value.ClassObj)
			if !ok {
				vm.throwf("Superclass must be a class.")
			}
			if !vm.bindMethod(superclass, name) {
				vm.throwf("Undefined property '%s'.", name.Chars)
			}

		case compiler.EQUAL:
			if vm.comparison(opEqual) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.GREATER:
			if vm.comparison(opGreater) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.LESS:
			if vm.comparison(opLess) {
				frame = &vm.frames[vm.frameTop-1]
			}

		case compiler.ADD:
			if vm.arithmetic(opAdd) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.SUB:
			if vm.arithmetic(opSub) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.MUL:
			if vm.arithmetic(opMul) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.DIV:
			if vm.arithmetic(opDiv) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.MOD:
			if vm.arithmetic(opMod) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.BITWISE_AND:
			if vm.arithmetic(opBitAnd) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.BITWISE_OR:
			if vm.arithmetic(opBitOr) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.BITWISE_XOR:
			if vm.arithmetic(opBitXor) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.SHIFT_LEFT:
			if vm.arithmetic(opShiftLeft) {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.SHIFT_RIGHT:
			if vm.arithmetic(opShiftRight) {
				frame = &vm.frames[vm.frameTop-1]
			}

		case compiler.NOT:
			if vm.unaryNot() {
				frame = &vm.frames[vm.frameTop-1]
			}
		case compiler.NEGATE:
			vm.unaryNegate()
		case compiler.INCREMENT:
			vm.incrementDecrement(1)
		case compiler.DECREMENT:
			vm.incrementDecrement(-1)

		case compiler.JUMP:
			offset := frame.readShort()
			frame.IP += offset
		case compiler.JUMP_IF_FALSE:
			offset := frame.readShort()
			if vm.peek(0).IsFalsey() {
				frame.IP += offset
			}
		case compiler.LOOP:
			offset := frame.readShort()
			frame.IP -= offset

		case compiler.CALL:
			argCount := int(frame.readByte())
			vm.callValue(vm.peek(argCount), argCount)
			frame = &vm.frames[vm.frameTop-1]
		case compiler.INVOKE:
			name := vm.readName(frame)
			argCount := int(frame.readByte())
			vm.invoke(name, argCount)
			frame = &vm.frames[vm.frameTop-1]
		case compiler.SUPER_INVOKE:
			name := vm.readName(frame)
			argCount := int(frame.readByte())
			superclass, ok := vm.pop().AsObj().(*value.ClassObj)
			if !ok {
				vm.throwf("Superclass must be a class.")
			}
			vm.invokeFromClass(superclass, name, argCount)
			frame = &vm.frames[vm.frameTop-1]

		case compiler.INDEX:
			vm.index()
		case compiler.SET_INDEX:
			vm.setIndex()

		case compiler.CLOSURE:
			fn := frame.readConstant().AsObj().(*value.FunctionObj)
			closure := &value.ClosureObj{Function: fn, Upvalues: make([]*value.UpvalueObj, fn.UpvalueCount)}
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := frame.readByte()
				index := int(frame.readByte())
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.Slots + index)
				} else {
					closure.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
			vm.push(value.Obj(closure))
		case compiler.CLOSE_UPVALUE:
			vm.closeUpvalues(vm.sp - 1)
			vm.pop()

		case compiler.SET_TABLE:
			count := int(frame.readByte())
			table := value.NewTable(count)
			base := vm.sp - 2*count
			for i := 0; i < count; i++ {
				table.Set(vm.stack[base+2*i], vm.stack[base+2*i+1])
			}
			vm.sp = base
			vm.push(value.Obj(table))
		case compiler.SET_ARRAY:
			count := int(frame.readByte())
			base := vm.sp - count
			items := make([]value.Value, count)
			copy(items, vm.stack[base:vm.sp])
			vm.sp = base
			vm.push(value.Obj(value.NewArray(items)))

		case compiler.RETURN:
			result := vm.pop()
			vm.closeUpvalues(frame.Slots)
			vm.frameTop--
			if vm.frameTop == 0 {
				vm.pop() // the script closure
				return
			}
			vm.sp = frame.Slots
			vm.push(result)
			frame = &vm.frames[vm.frameTop-1]
		case compiler.DUMP:
			v := vm.pop()
			fmt.Fprintln(vm.Stdout, v.String())

		case compiler.CLASS:
			name := vm.readName(frame)
			vm.push(value.Obj(value.NewClass(name)))
		case compiler.METHOD:
			name := vm.readName(frame)
			method := vm.pop().AsObj().(*value.ClosureObj)
			class := vm.peek(0).AsObj().(*value.ClassObj)
			class.Methods[name.Chars] = method
		case compiler.PROPERTY:
			name := vm.readName(frame)
			def := vm.pop()
			class := vm.peek(0).AsObj().(*value.ClassObj)
			class.Fields[name.Chars] = def
		case compiler.INHERIT:
			superVal := vm.peek(1)
			if !superVal.Is(value.ObjClass) {
				vm.throwf("Superclass must be a class.")
			}
			super := superVal.AsObj().(*value.ClassObj)
			sub := vm.peek(0).AsObj().(*value.ClassObj)
			for name, method := range super.Methods {
				sub.Methods[name] = method
			}
			vm.pop()

		default:
			vm.throwf("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) readName(frame *CallFrame) *value.StringObj {
	return frame.readConstant().AsObj().(*value.StringObj)
}
