package machine

import "github.com/emberlang/ember/lang/value"

// CallFrame is one activation record: a closure, an instruction pointer into
// that closure's chunk, and the stack index marking the frame's base
// (slot[0] is the receiver or implicit self), per §3.
type CallFrame struct {
	Closure *value.ClosureObj
	IP      int
	Slots   int
}

func (f *CallFrame) chunk() *value.Chunk { return f.Closure.Function.Chunk }

func (f *CallFrame) readByte() byte {
	b := f.chunk().Code[f.IP]
	f.IP++
	return b
}

func (f *CallFrame) readShort() int {
	hi := f.chunk().Code[f.IP]
	lo := f.chunk().Code[f.IP+1]
	f.IP += 2
	return int(hi)<<8 | int(lo)
}

func (f *CallFrame) readConstant() value.Value {
	return f.chunk().Constants[f.readByte()]
}

func (f *CallFrame) line() int {
	return f.chunk().LineAt(f.IP - 1)
}
