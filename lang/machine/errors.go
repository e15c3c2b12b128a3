package machine

import (
	"fmt"
	"strings"
)

// formatRuntimeError renders a runtimeError the way §6 specifies: the
// message, followed by a stack trace of "[line N] in <function-name>()"
// entries, most recent frame first.
func (vm *VM) formatRuntimeError(rerr *runtimeError) error {
	var b strings.Builder
	b.WriteString(rerr.msg)
	for i := vm.frameTop - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.Closure.Function
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars
		}
		fmt.Fprintf(&b, "\n[line %d] in %s()", fr.line(), name)
	}
	return fmt.Errorf("%s", b.String())
}
