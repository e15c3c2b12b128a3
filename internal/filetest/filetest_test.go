package filetest_test

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/emberlang/ember/internal/filetest"
	"github.com/emberlang/ember/lang/machine"
)

var updateTests = flag.Bool("test.update-run-tests", false, "update the .want/.err golden files for run tests")

// TestRunScripts exercises every *.ember file under testdata/ against the
// literal scenarios from §8: each script's captured output is diffed
// against its golden file, which DiffResult picks as ".want" (stdout) or
// ".err" (the RUNTIME_ERROR/COMPILE_ERROR message) depending on how the
// script actually ran — so both the success scenarios and the
// error-taxonomy scenarios are driven through the same harness.
func TestRunScripts(t *testing.T) {
	for _, fi := range filetest.SourceFiles(t, "testdata", ".ember") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := readTestdata(fi.Name())
			if err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			vm := machine.NewVM(machine.Config{Stdout: &out, Stderr: &out})
			defer vm.Close()

			result, runErr := vm.Interpret(src)
			output := out.String()
			if runErr != nil {
				output += runErr.Error() + "\n"
			}
			filetest.DiffResult(t, fi, result, output, "testdata", updateTests)
		})
	}
}

func readTestdata(name string) (string, error) {
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
