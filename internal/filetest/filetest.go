// Package filetest provides a golden-file test harness for ember scripts:
// discover source files in a directory, run them through some phase of the
// toolchain, and diff the captured output against a `.want`/`.err` sibling
// file, adapted from the teacher's internal/filetest package.
package filetest

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/kylelemons/godebug/diff"

	"github.com/emberlang/ember/lang/machine"
)

var updateAllTests = flag.Bool("test.update-all-tests", false, "If set, sets all test.update-*-tests.")

// SourceFiles returns the source files in dir with the given extension
// (leading dot optional).
func SourceFiles(t *testing.T, dir, ext string) []os.FileInfo {
	t.Helper()

	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}

	dents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}

	res := make([]os.FileInfo, 0, len(dents))
	for _, dent := range dents {
		if !dent.Type().IsRegular() {
			continue
		}
		if ext != "" && filepath.Ext(dent.Name()) != ext {
			continue
		}
		fi, err := dent.Info()
		if err != nil {
			t.Fatal(err)
		}
		res = append(res, fi)
	}
	return res
}

// DiffOutput validates output against the `.want` golden file for fi, or
// writes output as the new golden file when updateFlag is set.
func DiffOutput(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "output", ".want", output, resultDir, updateFlag)
}

// DiffErrors validates output against the `.err` golden file for fi.
func DiffErrors(t *testing.T, fi os.FileInfo, output, resultDir string, updateFlag *bool) {
	t.Helper()
	DiffCustom(t, fi, "errors", ".err", output, resultDir, updateFlag)
}

// DiffResult picks the golden-file suffix from result instead of making the
// caller choose: machine.ResultOK diffs against the ".want" stdout capture
// like DiffOutput, anything else (COMPILE_ERROR/RUNTIME_ERROR) diffs
// against the ".err" capture like DiffErrors. This is the entry point
// TestRunScripts in filetest_test.go uses, so a script's golden file lives
// at a single, predictable path regardless of whether it is expected to
// succeed or fail.
func DiffResult(t *testing.T, fi os.FileInfo, result machine.Result, output, resultDir string, updateFlag *bool) {
	t.Helper()
	if result == machine.ResultOK {
		DiffOutput(t, fi, output, resultDir, updateFlag)
		return
	}
	DiffErrors(t, fi, output, resultDir, updateFlag)
}

// DiffCustom is the general form: label is used in failure messages, ext is
// the golden-file suffix (including the leading dot).
func DiffCustom(t *testing.T, fi os.FileInfo, label, ext, output, resultDir string, updateFlag *bool) {
	t.Helper()
	goldFile := filepath.Join(resultDir, fi.Name()+ext)
	diffOrUpdate(t, label, goldFile, output, updateFlag)
}

func diffOrUpdate(t *testing.T, label, goldFile, output string, updateFlag *bool) {
	t.Helper()

	if *updateFlag || *updateAllTests {
		if err := os.WriteFile(goldFile, []byte(output), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}

	wantb, err := os.ReadFile(goldFile)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	want := string(wantb)
	if testing.Verbose() {
		t.Logf("got %s:\n%s\n", label, output)
	}
	if patch := diff.Diff(want, output); patch != "" {
		if testing.Verbose() {
			t.Logf("want %s:\n%s\n", label, want)
		}
		t.Errorf("diff %s:\n%s\n", label, patch)
	}
}
