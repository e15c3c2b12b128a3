package maincmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mna/mainer"

	"github.com/emberlang/ember/lang/compiler"
	"github.com/emberlang/ember/lang/value"
)

// Disasm compiles each file and prints a human-readable bytecode dump
// (§4.6's optional visualization), recursing into every nested function
// constant so closures are disassembled too.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := disasmFile(stdio, path); err != nil {
			fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
			return err
		}
	}
	return nil
}

func disasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	fn, err := compiler.Compile(string(src), value.NewInterner())
	if err != nil {
		return compileExitError(err)
	}

	disassembleRecursive(stdio, fn, filepath.Base(path))
	return nil
}

func disassembleRecursive(stdio mainer.Stdio, fn *value.FunctionObj, name string) {
	compiler.Disassemble(stdio.Stdout, fn.Chunk, name)
	for _, c := range fn.Chunk.Constants {
		if nested, ok := c.AsObj().(*value.FunctionObj); ok {
			disassembleRecursive(stdio, nested, nested.String())
		}
	}
}
