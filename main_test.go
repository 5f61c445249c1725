package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agentflare-ai/gendoc/internal/pysource"
)

const addFragment = "**add**(_a_, _b_)\n" +
	"Adds two numbers.\n" +
	"Parameters:\n" +
	"\n`a`: first operand\n" +
	"\n`b`: second operand\n" +
	"Return:\n" +
	"\n`int`: the sum\n" +
	"\n---\n\n"

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

// copyExample copies the example package into a temporary directory.
func copyExample(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "example")
	if err := os.CopyFS(dir, os.DirFS("testdata/example")); err != nil {
		t.Fatalf("copy example: %v", err)
	}
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(content)
}

func TestSingleFileMarkdown(t *testing.T) {
	out, _, err := runCLI(t, "", "./testdata/example/calc.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, addFragment) {
		t.Fatalf("expected output to start with the add fragment\n\n%s", out)
	}
	assertContains(t, out, "**scale**(_value_, _\\*factors_, _\\*\\*options_)\nMultiplies value by every factor.\n")
	assertContains(t, out, "\n`options`: ignored\n")
	assertContains(t, out, "# Calculator\n\nKeeps a running total.\n\n")
	assertContains(t, out, "**push**(_self_, _amount_)\nAdds amount to the total.\n")
	assertContains(t, out, "\n`int`: the new total\n")
	assertNotContains(t, out, "helper")
	assertNotContains(t, out, "init")
	assertOrder(t, out, "**add**", "**scale**", "# Calculator", "**push**")
}

func TestPrivateFlag(t *testing.T) {
	out, _, err := runCLI(t, "", "-private", "./testdata/example/calc.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "**\\_helper**()\nInternal.\n")
	assertContains(t, out, "**\\_\\_init\\_\\_**(_self_, _start_)")
}

func TestDropTrailingBlock(t *testing.T) {
	out, _, err := runCLI(t, "", "--drop-trailing-block", "./testdata/example/calc.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "Parameters:\n\n`a`: first operand")
	assertNotContains(t, out, "`int`: the sum")
}

func TestHTMLFormat(t *testing.T) {
	out, _, err := runCLI(t, "", "--format", "html", "./testdata/example/calc.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "<strong>add</strong>(<em>a</em>, <em>b</em>)")
	assertContains(t, out, "<h1>Calculator</h1>")
}

func TestSyntaxErrorIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.py")
	if err := os.WriteFile(path, []byte("def broken(a,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "", path)
	if !errors.Is(err, pysource.ErrSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestOutputFlagWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.md")
	out, _, err := runCLI(t, "", "-o", target, "./testdata/example/calc.py", "./testdata/example/geometry/shapes.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "" {
		t.Fatalf("expected nothing on stdout, got %q", out)
	}
	content := readFile(t, target)
	assertOrder(t, content, "**add**", "**area**")
}

func TestOverwritePrompt(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.md")
	if err := os.WriteFile(target, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, stderr, err := runCLI(t, "n\n", "-o", target, "./testdata/example/calc.py")
	if !errors.Is(err, errOverwriteDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
	assertContains(t, stderr, "already exists. Overwrite? [y/N]")
	if got := readFile(t, target); got != "keep me" {
		t.Fatalf("file changed after decline: %q", got)
	}

	if _, _, err := runCLI(t, "", "-o", target, "./testdata/example/calc.py"); !errors.Is(err, errOverwriteDeclined) {
		t.Fatalf("expected decline on empty stdin, got %v", err)
	}

	if _, _, err := runCLI(t, "Yes\n", "-o", target, "./testdata/example/calc.py"); err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, readFile(t, target), "**add**")

	if err := os.WriteFile(target, []byte("again"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, stderr, err = runCLI(t, "", "-f", "-o", target, "./testdata/example/calc.py")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertNotContains(t, stderr, "Overwrite?")
	assertContains(t, readFile(t, target), "**add**")
}

func TestDirectoryOutputWritesTree(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "docs")
	if _, _, err := runCLI(t, "", "-o", tmp, "./testdata/example"); err != nil {
		t.Fatalf("run: %v", err)
	}
	index := readFile(t, filepath.Join(tmp, "README.md"))
	assertContains(t, index, "# example")
	assertContains(t, index, "Example package demonstrating documentation rendering.")
	assertContains(t, index, "## Modules")
	assertContains(t, index, "- [calc.py](calc.md): Arithmetic helpers.")
	assertContains(t, index, "- [geometry/shapes.py](geometry/shapes.md): Shape utilities.")
	assertNotContains(t, index, "pb2")
	assertTOCAfterDoc(t, index, "# example", "## Modules")

	assertContains(t, readFile(t, filepath.Join(tmp, "calc.md")), addFragment)
	assertContains(t, readFile(t, filepath.Join(tmp, "geometry", "shapes.md")), "**area**(_width_, _height_)\nComputes the area of a rectangle.\n")
	if _, err := os.Stat(filepath.Join(tmp, "geometry", "shapes_pb2.md")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ignored module was documented: %v", err)
	}
}

func TestExcludeFlag(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "docs")
	if _, _, err := runCLI(t, "", "--exclude", "geometry/", "-o", tmp+string(os.PathSeparator), "./testdata/example"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tmp, "geometry")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("excluded directory was written: %v", err)
	}
	assertNotContains(t, readFile(t, filepath.Join(tmp, "README.md")), "geometry")
}

func TestInPlaceModeWritesNextToSources(t *testing.T) {
	dir := copyExample(t)
	if _, _, err := runCLI(t, "", "-inplace", dir); err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, readFile(t, filepath.Join(dir, "calc.md")), addFragment)
	assertContains(t, readFile(t, filepath.Join(dir, "geometry", "shapes.md")), "**area**")
	if _, err := os.Stat(filepath.Join(dir, "README.md")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("in-place mode should not write an index: %v", err)
	}

	_, stderr, err := runCLI(t, "", "--inplace", dir)
	if !errors.Is(err, errOverwriteDeclined) {
		t.Fatalf("expected decline, got %v", err)
	}
	assertContains(t, stderr, "files already exist")

	if _, _, err := runCLI(t, "", "--inplace", "--force", dir); err != nil {
		t.Fatalf("run with --force: %v", err)
	}
}

func TestInPlaceSingleFile(t *testing.T) {
	dir := copyExample(t)
	if _, _, err := runCLI(t, "", "--inplace", filepath.Join(dir, "geometry", "shapes.py")); err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, readFile(t, filepath.Join(dir, "geometry", "shapes.md")), "**area**")
	if _, err := os.Stat(filepath.Join(dir, "calc.md")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("only the named file should be documented: %v", err)
	}
}

func TestConfigFileAndPrecedence(t *testing.T) {
	dir := copyExample(t)
	if err := os.WriteFile(filepath.Join(dir, ".gendoc.yaml"), []byte("private: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	calc := filepath.Join(dir, "calc.py")

	out, _, err := runCLI(t, "", calc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "\\_helper")

	out, _, err = runCLI(t, "", "--private=false", calc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertNotContains(t, out, "helper")

	t.Setenv("GENDOC_FORMAT", "html")
	out, _, err = runCLI(t, "", calc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "<strong>")

	out, _, err = runCLI(t, "", "--format", "md", calc)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "**add**")
}

func TestInvalidConfig(t *testing.T) {
	dir := copyExample(t)
	if err := os.WriteFile(filepath.Join(dir, "gendoc.yaml"), []byte("workers: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, "", filepath.Join(dir, "calc.py"))
	if err == nil || !strings.Contains(err.Error(), "workers") {
		t.Fatalf("expected workers validation error, got %v", err)
	}
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"./testdata/example"}, "is a directory"},
		{[]string{"--watch", "./testdata/example/calc.py"}, "--watch requires"},
		{[]string{"--inplace", "-o", "out.md", "./testdata/example"}, "cannot be combined"},
		{[]string{"--format", "pdf", "./testdata/example/calc.py"}, "format"},
		{[]string{"-o", filepath.Join(t.TempDir(), "d"), "./testdata/example", "./testdata"}, "at most one"},
	}
	for _, tt := range tests {
		_, _, err := runCLI(t, "", tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Fatalf("%v: expected error containing %q, got %v", tt.args, tt.want, err)
		}
	}
}

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"-inplace", "."}, []string{"--inplace", "."}},
		{[]string{"-format=html", "-o", "x.md"}, []string{"--format=html", "-o", "x.md"}},
		{[]string{"-f", "-v", "a.py"}, []string{"-f", "-v", "a.py"}},
		{[]string{"--private", "-unknown"}, []string{"--private", "-unknown"}},
		{[]string{"--", "-inplace"}, []string{"--", "-inplace"}},
	}
	for _, tt := range tests {
		got := normalizeLegacyArgs(tt.in)
		if strings.Join(got, " ") != strings.Join(tt.want, " ") {
			t.Fatalf("normalizeLegacyArgs(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestWantsDirectoryOutput(t *testing.T) {
	tmp := t.TempDir()
	cases := []struct {
		path string
		want bool
	}{
		{"", false},
		{"-", false},
		{tmp, true},
		{filepath.Join(tmp, "docs"), true},
		{filepath.Join(tmp, "docs") + "/", true},
		{filepath.Join(tmp, "out.md"), false},
	}
	for _, c := range cases {
		if got := wantsDirectoryOutput(c.path); got != c.want {
			t.Fatalf("wantsDirectoryOutput(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func assertContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n\n%s", needle, haystack)
	}
}

func assertNotContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if strings.Contains(haystack, needle) {
		t.Fatalf("expected output not to contain %q\n\n%s", needle, haystack)
	}
}

func assertOrder(t *testing.T, text string, needles ...string) {
	t.Helper()
	last := -1
	for _, n := range needles {
		idx := strings.Index(text, n)
		if idx <= last {
			t.Fatalf("expected %q after previous markers\n\n%s", n, text)
		}
		last = idx
	}
}

func assertTOCAfterDoc(t *testing.T, text, docHeading, tocHeading string) {
	t.Helper()
	docIdx := strings.Index(text, docHeading)
	tocIdx := strings.Index(text, tocHeading)
	if docIdx == -1 || tocIdx == -1 {
		t.Fatalf("missing doc heading %q or toc heading %q", docHeading, tocHeading)
	}
	if tocIdx <= docIdx {
		t.Fatalf("expected %q to appear after %q\n\n%s", tocHeading, docHeading, text)
	}
}

func TestHelpFlag(t *testing.T) {
	out, _, err := runCLI(t, "", "--help")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "gendoc [flags] [path...]")
	assertContains(t, out, "--private")
	assertContains(t, out, "--drop-trailing-block")
	assertContains(t, out, "completion  Generate shell completion scripts")
	assertContains(t, out, "serve       Serve generated documentation over HTTP")
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "completion", "bash")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "__start_gendoc")
}

func TestGenDocsCommand(t *testing.T) {
	tmp := t.TempDir()
	if _, _, err := runCLI(t, "", "gen-docs", tmp); err != nil {
		t.Fatalf("run: %v", err)
	}
	files, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	var foundRoot, foundServe bool
	for _, f := range files {
		switch f.Name() {
		case "gendoc.md":
			foundRoot = true
		case "gendoc_serve.md":
			foundServe = true
		}
	}
	if !foundRoot || !foundServe {
		t.Fatalf("expected gendoc.md and gendoc_serve.md in docs output, got %v", files)
	}
}

func TestGenDocsManPages(t *testing.T) {
	tmp := t.TempDir()
	if _, _, err := runCLI(t, "", "gen-docs", "--man", tmp); err != nil {
		t.Fatalf("run: %v", err)
	}
	page := readFile(t, filepath.Join(tmp, "gendoc.1"))
	assertContains(t, page, "GENDOC")
	if _, err := os.Stat(filepath.Join(tmp, "gendoc-serve.1")); err != nil {
		t.Fatalf("expected serve man page: %v", err)
	}
}

func TestCompletionSuggestsFormats(t *testing.T) {
	out, _, err := runCLI(t, "", "__complete", "--format", "")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	assertContains(t, out, "markdown\nhtml\n:4\n")

	if _, _, err := runCLI(t, "", "completion", "tcsh"); err == nil {
		t.Fatal("expected an error for an unsupported shell")
	}
}
