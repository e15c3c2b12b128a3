// Package modules holds the native-function tables for the VM's small
// built-in library set (§6's embedder API: "natives... are external
// collaborators and out of scope; only this calling-convention contract is
// specified" — these are the demonstration set SPEC_FULL.md wires up).
package modules

import (
	"time"

	"github.com/emberlang/ember/lang/value"
)

// Clock returns the `clock` module: wall-clock access, grounded on the
// teacher's own nenuphar `time` predeclared built-ins.
func Clock() map[string]value.NativeFn {
	return map[string]value.NativeFn{
		"now": func(argCount int, args []value.Value) (value.Value, error) {
			if argCount != 0 {
				return value.Nil, arityError("clock.now", 0, argCount)
			}
			return value.Number(float64(time.Now().UnixNano()) / 1e9), nil
		},
	}
}
