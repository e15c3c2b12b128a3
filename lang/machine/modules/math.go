package modules

import (
	"math"

	"github.com/emberlang/ember/lang/value"
)

// Math returns the `math` module: a small numeric-function subset, the sort
// of host library the spec's §6 embedder API assumes exists without
// specifying its bodies.
func Math() map[string]value.NativeFn {
	return map[string]value.NativeFn{
		"sqrt": unary("math.sqrt", math.Sqrt),
		"floor": unary("math.floor", math.Floor),
		"ceil":  unary("math.ceil", math.Ceil),
		"abs":   unary("math.abs", math.Abs),
	}
}

// MathPostInit seeds the `math` table with constants that aren't natives,
// exercising the registry's optional postInit hook from spec.md §6.
func MathPostInit(interner *value.Interner, table *value.TableObj) {
	table.Set(value.Obj(interner.Intern("pi")), value.Number(math.Pi))
}

func unary(name string, fn func(float64) float64) value.NativeFn {
	return func(argCount int, args []value.Value) (value.Value, error) {
		if argCount != 1 {
			return value.Nil, arityError(name, 1, argCount)
		}
		if !args[0].IsNumber() {
			return value.Nil, typeError(name, "number", args[0])
		}
		return value.Number(fn(args[0].AsNumber())), nil
	}
}
