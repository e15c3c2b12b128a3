package value

// RootSource describes something a garbage collector would walk to find
// live objects (§5): the VM's value stack, its call-frame closures, its
// globals table, its open-upvalue list, its cached operator-method strings,
// the interner's keys, and the active compiler chain's functions.
//
// No mark-and-sweep collector is implemented here (out of scope per §1); Go's
// own collector reclaims every *Obj allocated by this package. No type in
// this module implements RootSource: the VM has no Roots method, and
// Interner.Roots returns []*StringObj rather than []Value.
type RootSource interface {
	Roots() []Value
}
