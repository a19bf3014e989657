package main

// Notes:
// - run is exercised end to end with real files under t.TempDir(); DOCX
//   content is covered by the library and docxwriter tests, here we check
//   exit codes, messages and which files appear
// - -q keeps the console logger quiet; logs go to the process stdout and
//   are not asserted

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const chapterMD = "# Введение\n\nТекст.\n\n# Обзор\n\n$$\nE = mc^2\n$$\n"

// ---------------------------------------------------------------------------
// TestRun_Commands - version, help, completion, usage
// ---------------------------------------------------------------------------

func TestRun_Commands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{"no args", nil, ExitUsage, "", "Usage: stpdocx"},
		{"version", []string{"version"}, ExitSuccess, "stpdocx dev", ""},
		{"version flag", []string{"--version"}, ExitSuccess, "stpdocx dev", ""},
		{"help", []string{"help"}, ExitSuccess, "Commands:", ""},
		{"help yaml", []string{"help", "yaml"}, ExitSuccess, "ordered_list", ""},
		{"help markdown", []string{"help", "markdown"}, ExitSuccess, "Front matter", ""},
		{"help config", []string{"help", "config"}, ExitSuccess, "STPDOCX_POLICY", ""},
		{"help convert", []string{"help", "convert"}, ExitSuccess, "--strict-images", ""},
		{"help unknown", []string{"help", "nope"}, ExitUsage, "", "unknown help topic"},
		{"completion usage", []string{"completion"}, ExitSuccess, "Supported shells", ""},
		{"completion bash", []string{"completion", "bash"}, ExitSuccess, "complete -o filenames -F _stpdocx stpdocx", ""},
		{"completion unknown", []string{"completion", "tcsh"}, ExitUsage, "", "unsupported shell"},
		{"bad flag", []string{"--no-such-flag", "a.md"}, ExitUsage, "", "invalid usage"},
		{"negative workers", []string{"-w", "-1", "a.md"}, ExitUsage, "", "invalid worker count"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, stdout, stderr := testEnv(nil)
			code := run(context.Background(), tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("stdout missing %q:\n%s", tt.wantStdout, stdout)
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRun_Convert - Conversion runs
// ---------------------------------------------------------------------------

func TestRun_Convert_SingleFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "thesis.md"), chapterMD)

	env, stdout, stderr := testEnv(nil)
	if code := run(context.Background(), []string{in}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	want := filepath.Join(dir, "thesis.docx")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if !strings.Contains(stdout.String(), "Created "+want) {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_Convert_ExplicitOutputFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "thesis.md"), chapterMD)
	out := filepath.Join(dir, "custom.docx")

	env, stdout, stderr := testEnv(nil)
	if code := run(context.Background(), []string{in, "-o", out, "--html"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "Created "+out) {
		t.Errorf("stdout = %q", stdout)
	}
	assertDirHolds(t, dir, "custom.docx", "custom.html", "thesis.md")
}

func TestRun_Convert_PreviewWriteFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "thesis.md"), chapterMD)
	writeFile(t, filepath.Join(dir, "custom.html", "keep"), "x")

	env, _, stderr := testEnv(nil)
	code := run(context.Background(), []string{in, "-o", filepath.Join(dir, "custom.docx"), "--html", "-q"}, env)
	if code != ExitIO {
		t.Fatalf("exit code = %d, want %d (stderr: %s)", code, ExitIO, stderr)
	}
	assertDirHolds(t, dir, "custom.html", "thesis.md")
}

// assertDirHolds fails unless dir contains exactly names, in sorted order.
func assertDirHolds(t *testing.T, dir string, names ...string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, 0, len(entries))
	for _, e := range entries {
		got = append(got, e.Name())
	}
	if strings.Join(got, "|") != strings.Join(names, "|") {
		t.Errorf("directory holds %q, want %q", got, names)
	}
}

func TestRun_Convert_OutputDirectoryAndHTML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "src", "thesis.md"), chapterMD)
	out := filepath.Join(dir, "out")
	if err := os.Mkdir(out, 0o750); err != nil {
		t.Fatal(err)
	}

	env, _, stderr := testEnv(nil)
	if code := run(context.Background(), []string{in, "-o", out, "--html", "-q"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	for _, name := range []string{"thesis.docx", "thesis.html"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRun_Convert_Directory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "a.md"), chapterMD)
	writeFile(t, filepath.Join(src, "part", "b.yaml"), "title: Обзор\ncontext: Текст.\n")
	writeFile(t, filepath.Join(src, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(src, ".hidden", "c.md"), chapterMD)
	out := filepath.Join(dir, "out")

	env, stdout, stderr := testEnv(nil)
	if code := run(context.Background(), []string{src, "-o", out, "-w", "2"}, env); code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr)
	}
	for _, rel := range []string{"a.docx", filepath.Join("part", "b.docx")} {
		if _, err := os.Stat(filepath.Join(out, rel)); err != nil {
			t.Errorf("%s not written: %v", rel, err)
		}
	}
	if _, err := os.Stat(filepath.Join(out, ".hidden")); !os.IsNotExist(err) {
		t.Error("hidden directory was converted")
	}
	if !strings.Contains(stdout.String(), "2 succeeded, 0 failed") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_Convert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	imageFirst := writeFile(t, filepath.Join(dir, "early.md"), "![Схема](a.png)\n\n# Глава\n")
	missingImage := writeFile(t, filepath.Join(dir, "figure.md"), "# Глава\n\n![Схема](nowhere.png)\n")
	badYAML := writeFile(t, filepath.Join(dir, "bad.yaml"), "title: A\nfooter: x\n")
	txt := writeFile(t, filepath.Join(dir, "notes.txt"), "text")
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0o750); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		args       []string
		vars       map[string]string
		wantCode   int
		wantStderr string
	}{
		{"no input", []string{"-q"}, nil, ExitIO, "no input specified"},
		{"two inputs", []string{"a.md", "b.md"}, nil, ExitUsage, "only one input"},
		{"missing input", []string{filepath.Join(dir, "missing.md")}, nil, ExitIO, "input file not found"},
		{"empty directory", []string{empty}, nil, ExitIO, "no Markdown or YAML documents"},
		{"unsupported extension", []string{txt}, nil, ExitUsage, "hint: supported inputs"},
		{"strict policy flag", []string{imageFirst, "--policy", "strict"}, nil, ExitDocument, "hint: add a top-level heading"},
		{"strict policy env", []string{imageFirst}, map[string]string{envPolicy: "strict"}, ExitDocument, "no enclosing section"},
		{"invalid policy", []string{imageFirst, "--policy", "loose"}, nil, ExitUsage, "invalid config"},
		{"strict images", []string{missingImage, "--strict-images"}, nil, ExitDocument, "--strict-images"},
		{"yaml schema", []string{badYAML}, nil, ExitDocument, "stpdocx help yaml"},
		{"config not found", []string{imageFirst, "-c", filepath.Join(dir, "none.yaml")}, nil, ExitUsage, "config file not found"},
		{"unknown preview style", []string{imageFirst, "--html", "--preview-style", "nope"}, nil, ExitUsage, "hint: embedded styles"},
		{"preview style with path", []string{imageFirst, "--preview-style", "../x"}, nil, ExitUsage, "invalid config"},
		{"invalid log level", []string{imageFirst}, map[string]string{envLogLevel: "loud"}, ExitUsage, "invalid config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env, _, stderr := testEnv(tt.vars)
			code := run(context.Background(), tt.args, env)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("stderr missing %q:\n%s", tt.wantStderr, stderr)
			}
		})
	}
}

func TestRun_Convert_PartialBatchFailure(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "good.md"), chapterMD)
	writeFile(t, filepath.Join(src, "bad.yaml"), "- not\n- a mapping\n")

	env, stdout, stderr := testEnv(nil)
	code := run(context.Background(), []string{src, "-o", filepath.Join(dir, "out")}, env)
	if code != ExitDocument {
		t.Errorf("exit code = %d, want %d", code, ExitDocument)
	}
	if !strings.Contains(stderr.String(), "FAILED") || !strings.Contains(stderr.String(), "1 of 2 conversion(s) failed") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stdout.String(), "1 succeeded, 1 failed") {
		t.Errorf("stdout = %q", stdout)
	}
}
