package value

import "fmt"

// ClassObj is a name plus a method table (name -> ClosureObj) and a default
// field table (name -> default Value), per §3.
type ClassObj struct {
	Name    *StringObj
	Methods map[string]*ClosureObj
	Fields  map[string]Value
}

var _ Object = (*ClassObj)(nil)

// NewClass returns an empty class named name.
func NewClass(name *StringObj) *ClassObj {
	return &ClassObj{
		Name:    name,
		Methods: make(map[string]*ClosureObj),
		Fields:  make(map[string]Value),
	}
}

func (c *ClassObj) ObjType() ObjType { return ObjClass }
func (c *ClassObj) String() string   { return c.Name.Chars }

// InstanceObj is a class handle plus a field table.
type InstanceObj struct {
	Class  *ClassObj
	Fields map[string]Value
}

var _ Object = (*InstanceObj)(nil)

// NewInstance creates an instance of class with its fields seeded from the
// class's declared field defaults.
func NewInstance(class *ClassObj) *InstanceObj {
	fields := make(map[string]Value, len(class.Fields))
	for k, v := range class.Fields {
		fields[k] = v
	}
	return &InstanceObj{Class: class, Fields: fields}
}

func (i *InstanceObj) ObjType() ObjType { return ObjInstance }
func (i *InstanceObj) String() string   { return fmt.Sprintf("%s instance", i.Class.Name.Chars) }

// BoundMethodObj is a receiver value bound to one of its class's closures,
// produced by property access on an instance (§4.4).
type BoundMethodObj struct {
	Receiver Value
	Method   *ClosureObj
}

var _ Object = (*BoundMethodObj)(nil)

func (b *BoundMethodObj) ObjType() ObjType { return ObjBoundMethod }
func (b *BoundMethodObj) String() string   { return b.Method.String() }
