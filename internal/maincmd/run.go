package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/emberlang/ember/lang/machine"
)

// Run compiles and executes each file in turn, matching the teacher's
// one-file-per-argument command shape.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.runFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}

func (c *Cmd) runFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	vm := machine.NewVM(machine.Config{
		MaxStack:  c.MaxStack,
		MaxFrames: c.MaxFrames,
		Stdout:    stdio.Stdout,
		Stderr:    stdio.Stderr,
	})
	defer vm.Close()

	result, err := vm.Interpret(string(src))
	if err != nil {
		wrapped := fmt.Errorf("%s: %w", result, err)
		if result == machine.ResultCompileError {
			return compileExitError(wrapped)
		}
		return runtimeExitError(wrapped)
	}
	return nil
}
