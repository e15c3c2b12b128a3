package value

import "fmt"

// FunctionObj is produced by the compiler: an arity, an upvalue count, an
// optional name, and an owned Chunk. Per §3 it is never mutated after
// endCompiler returns.
type FunctionObj struct {
	Arity        int
	UpvalueCount int
	Name         *StringObj // nil for the implicit top-level script function
	Chunk        *Chunk
}

var _ Object = (*FunctionObj)(nil)

func (f *FunctionObj) ObjType() ObjType { return ObjFunction }
func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}

// UpvalueObj holds either a live pointer into a frame's stack slot (open) or
// a value it has captured (closed). See §3 and §4.4 for the
// open/closed-upvalue invariants.
type UpvalueObj struct {
	// Location points either into the VM's value stack (open) or at Closed
	// (once the upvalue has been closed).
	Location *Value
	Closed   Value
	// Slot is the absolute VM stack index Location pointed into while open;
	// it is what the VM's open-upvalue list orders on (descending) to
	// maintain the invariant that at most one open upvalue exists per slot.
	// Meaningless once the upvalue is closed.
	Slot int
	// Next threads this upvalue onto the VM's open-upvalue list.
	Next *UpvalueObj
}

var _ Object = (*UpvalueObj)(nil)

func (u *UpvalueObj) ObjType() ObjType { return ObjUpvalue }
func (u *UpvalueObj) String() string   { return "<upvalue>" }

// ClosureObj pairs a FunctionObj with the concrete array of upvalues it
// closed over. Multiple closures may share individual UpvalueObj instances.
type ClosureObj struct {
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

var _ Object = (*ClosureObj)(nil)

func (c *ClosureObj) ObjType() ObjType { return ObjClosure }
func (c *ClosureObj) String() string   { return c.Function.String() }

// NativeFn is the signature of a native (host-provided) callable, per the
// embedder API in §6. Native bodies themselves (math, file I/O, time, ...)
// are external collaborators and out of scope; only this calling-convention
// contract is specified.
type NativeFn func(argCount int, args []Value) (Value, error)

// NativeObj wraps a host-provided function registered via defineNative or a
// module registry entry.
type NativeObj struct {
	Name string
	Fn   NativeFn
}

var _ Object = (*NativeObj)(nil)

func (n *NativeObj) ObjType() ObjType { return ObjNative }
func (n *NativeObj) String() string   { return fmt.Sprintf("<native fn %s>", n.Name) }
