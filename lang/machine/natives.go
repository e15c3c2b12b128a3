package machine

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"github.com/emberlang/ember/lang/machine/modules"
	"github.com/emberlang/ember/lang/value"
)

// Module is a registry entry of native functions plus an optional postInit
// hook, per §6's "static registry of {moduleName, [{fnName, nativeFn}],
// optional postInit}" consulted by the `module(name)` native. Nothing
// binds a Module into globals at startup; it is only materialized into a
// table when a script calls module(name).
type Module struct {
	Name      string
	Functions map[string]value.NativeFn
	PostInit  func(interner *value.Interner, table *value.TableObj)
}

// registerModule adds mod to the registry consulted by the `module` native.
func (vm *VM) registerModule(mod Module) {
	vm.modules[mod.Name] = mod
}

// buildModuleTable materializes mod into a fresh table of NativeObj values,
// running its postInit hook (if any) afterward.
func (vm *VM) buildModuleTable(mod Module) *value.TableObj {
	table := value.NewTable(len(mod.Functions))
	for name, fn := range mod.Functions {
		table.Set(value.Obj(vm.Interner.Intern(name)), value.Obj(&value.NativeObj{Name: mod.Name + "." + name, Fn: fn}))
	}
	if mod.PostInit != nil {
		mod.PostInit(vm.Interner, table)
	}
	return table
}

// registerBuiltinModules wires the minimal demonstration native library set
// named in SPEC_FULL.md §A/§C: clock, a small strings subset, a small math
// subset, plus the top-level natives `type`, `module`, and `modules`.
func registerBuiltinModules(vm *VM) {
	vm.registerModule(Module{Name: "clock", Functions: modules.Clock()})
	vm.registerModule(Module{Name: "strings", Functions: modules.Strings(vm.Interner)})
	vm.registerModule(Module{Name: "math", Functions: modules.Math(), PostInit: modules.MathPostInit})
	vm.DefineNative("type", vm.nativeType)
	vm.DefineNative("module", vm.nativeModule)
	vm.DefineNative("modules", vm.nativeModules)
}

// nativeModule implements the `module(name)` native from spec.md §6: it
// looks up name in the registry and returns a freshly built table of its
// functions, or an "Undefined module" error if no such entry exists.
func (vm *VM) nativeModule(argCount int, args []value.Value) (value.Value, error) {
	if argCount != 1 {
		return value.Nil, fmt.Errorf("module() expects 1 argument, got %d", argCount)
	}
	if !args[0].Is(value.ObjString) {
		return value.Nil, fmt.Errorf("module() expects a string argument, got %s", args[0].TypeName())
	}
	name := args[0].AsObj().(*value.StringObj).Chars
	mod, ok := vm.modules[name]
	if !ok {
		return value.Nil, fmt.Errorf("Undefined module '%s'.", name)
	}
	return value.Obj(vm.buildModuleTable(mod)), nil
}

// nativeModules returns the names of every registered native module as a
// sorted array, so scripts can introspect the host environment without
// relying on iteration order over the underlying registry map.
func (vm *VM) nativeModules(argCount int, args []value.Value) (value.Value, error) {
	if argCount != 0 {
		return value.Nil, fmt.Errorf("modules() expects 0 arguments, got %d", argCount)
	}
	names := maps.Keys(vm.modules)
	sort.Strings(names)
	items := make([]value.Value, len(names))
	for i, name := range names {
		items[i] = value.Obj(vm.Interner.Intern(name))
	}
	return value.Obj(value.NewArray(items)), nil
}

// nativeType returns the interned type name of its single argument, the
// same string TypeName() produces, so scripts can branch on runtime type.
func (vm *VM) nativeType(argCount int, args []value.Value) (value.Value, error) {
	if argCount != 1 {
		return value.Nil, fmt.Errorf("type() expects 1 argument, got %d", argCount)
	}
	return value.Obj(vm.Interner.Intern(args[0].TypeName())), nil
}
