// Package value implements the tagged-union value representation shared by
// the compiler and the virtual machine, along with the heap object model
// (strings, functions, closures, classes, ...) and the string interner.
//
// The design follows §3 and §9 of the language specification: a Value is a
// small Copy-able struct (nil/bool/number held inline, everything else held
// as a pointer behind the Object interface) rather than a NaN-boxed or
// interface-polymorphic representation.
package value

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which alternative of the Value sum type is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is the tagged union manipulated by the compiler's constant pool and
// the VM's operand stack. The zero Value is Nil.
type Value struct {
	kind Kind
	b    bool
	n    float64
	obj  Object
}

// Object is implemented by every heap-allocated value: strings, functions,
// closures, upvalues, classes, instances, bound methods, natives, tables and
// arrays.
type Object interface {
	ObjType() ObjType
	fmt.Stringer
}

// ObjType is the closed set of heap object tags from §1/§3.
type ObjType uint8

const (
	ObjString ObjType = iota
	ObjFunction
	ObjClosure
	ObjUpvalue
	ObjClass
	ObjInstance
	ObjBoundMethod
	ObjNative
	ObjTable
	ObjArray
)

func (t ObjType) String() string {
	switch t {
	case ObjString:
		return "string"
	case ObjFunction:
		return "function"
	case ObjClosure:
		return "closure"
	case ObjUpvalue:
		return "upvalue"
	case ObjClass:
		return "class"
	case ObjInstance:
		return "instance"
	case ObjBoundMethod:
		return "bound method"
	case ObjNative:
		return "native"
	case ObjTable:
		return "table"
	case ObjArray:
		return "array"
	default:
		return "unknown"
	}
}

// Nil is the singular nil value.
var Nil = Value{kind: KindNil}

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Obj wraps a heap object handle.
func Obj(o Object) Value { return Value{kind: KindObj, obj: o} }

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.n }
func (v Value) AsObj() Object     { return v.obj }

// Is reports whether v is an Obj of the given ObjType.
func (v Value) Is(t ObjType) bool { return v.kind == KindObj && v.obj.ObjType() == t }

// IsFalsey implements §4.4: nil and false are falsy, everything else
// (including 0 and the empty string) is truthy.
func (v Value) IsFalsey() bool {
	return v.kind == KindNil || (v.kind == KindBool && !v.b)
}

// Equal implements value equality: numbers compare by IEEE-754, objects
// compare by identity (which, for interned strings, coincides with content
// equality).
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindObj:
		return v.obj == o.obj
	default:
		return false
	}
}

// TypeName returns a short runtime type name, used in error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObj:
		return v.obj.ObjType().String()
	default:
		return "unknown"
	}
}

// String renders the value the way DUMP and error messages present it.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.n)
	case KindObj:
		return v.obj.String()
	default:
		return "<invalid>"
	}
}

func formatNumber(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
