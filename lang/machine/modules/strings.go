package modules

import (
	"strings"

	"github.com/emberlang/ember/lang/value"
)

// Strings returns the `strings` module: a small subset of string helpers
// operating on the VM's interned StringObj handles. The interner itself
// must be supplied by the caller so results stay canonical.
func Strings(interner *value.Interner) map[string]value.NativeFn {
	return map[string]value.NativeFn{
		"upper": func(argCount int, args []value.Value) (value.Value, error) {
			s, err := stringArg("strings.upper", argCount, args)
			if err != nil {
				return value.Nil, err
			}
			return value.Obj(interner.Intern(strings.ToUpper(s))), nil
		},
		"lower": func(argCount int, args []value.Value) (value.Value, error) {
			s, err := stringArg("strings.lower", argCount, args)
			if err != nil {
				return value.Nil, err
			}
			return value.Obj(interner.Intern(strings.ToLower(s))), nil
		},
		"len": func(argCount int, args []value.Value) (value.Value, error) {
			s, err := stringArg("strings.len", argCount, args)
			if err != nil {
				return value.Nil, err
			}
			return value.Number(float64(len(s))), nil
		},
		"trim": func(argCount int, args []value.Value) (value.Value, error) {
			s, err := stringArg("strings.trim", argCount, args)
			if err != nil {
				return value.Nil, err
			}
			return value.Obj(interner.Intern(strings.TrimSpace(s))), nil
		},
	}
}

func stringArg(name string, argCount int, args []value.Value) (string, error) {
	if argCount != 1 {
		return "", arityError(name, 1, argCount)
	}
	if !args[0].Is(value.ObjString) {
		return "", typeError(name, "string", args[0])
	}
	return args[0].AsObj().(*value.StringObj).Chars, nil
}
