package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "", false},
		{"   ", "", false},
		{"# comment", "", false},
		{"*.pyc", "**/*.pyc", true},
		{"build/", "**/build", true},
		{"/generated", "generated", true},
		{"docs/tmp", "docs/tmp", true},
		{"!keep.py", "!**/keep.py", true},
		{"**/cache", "**/cache", true},
		{`\#literal`, "**/#literal", true},
		{"trailing.py   ", "**/trailing.py", true},
		{"/", "", false},
	}
	for _, tt := range tests {
		got, ok := Translate(tt.in)
		assert.Equal(t, tt.ok, ok, "%q", tt.in)
		assert.Equal(t, tt.want, got, "%q", tt.in)
	}
}

func TestMatcherExcluded(t *testing.T) {
	m, err := NewMatcher([]string{"*.gen.py", "/scripts", "pkg/skip.py", "tmp/", "!tmp/keep.py"})
	require.NoError(t, err)

	assert.True(t, m.Excluded("a.gen.py"))
	assert.True(t, m.Excluded("deep/dir/b.gen.py"))
	assert.True(t, m.Excluded("scripts/run.py"))
	assert.False(t, m.Excluded("lib/scripts/run.py"))
	assert.True(t, m.Excluded("pkg/skip.py"))
	assert.False(t, m.Excluded("other/pkg/skip.py"))
	assert.True(t, m.Excluded("tmp"))
	assert.False(t, m.Excluded("main.py"))
	assert.False(t, m.Excluded("."))
}

func TestNilMatcherExcludesNothing(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Excluded("anything.py"))
}

func TestLoadMatcherReadsIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "# generated\n*_pb2.py\n")
	writeFile(t, filepath.Join(root, ".gendocignore"), "/examples\n")

	m, err := LoadMatcher(root, "", []string{"legacy/"})
	require.NoError(t, err)
	assert.True(t, m.Excluded("api_pb2.py"))
	assert.True(t, m.Excluded("examples/demo.py"))
	assert.True(t, m.Excluded("src/legacy/old.py"))
	assert.True(t, m.Excluded("__pycache__/mod.cpython-312.py"))
	assert.True(t, m.Excluded("lib/.venv/site.py"))
	assert.False(t, m.Excluded("src/app.py"))
}

func TestLoadMatcherMissingFiles(t *testing.T) {
	root := t.TempDir()

	m, err := LoadMatcher(root, "", nil)
	require.NoError(t, err)
	assert.Len(t, m.Patterns(), len(BuiltinExcludes))

	_, err = LoadMatcher(root, "custom.ignore", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadMatcherCustomIgnoreFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".gitignore"), "ignored_by_git.py\n")
	writeFile(t, filepath.Join(root, "custom.ignore"), "vendor\n")

	m, err := LoadMatcher(root, "custom.ignore", nil)
	require.NoError(t, err)
	assert.True(t, m.Excluded("vendor/lib.py"))
	assert.False(t, m.Excluded("ignored_by_git.py"))
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.py"), "")
	writeFile(t, filepath.Join(root, "README.md"), "")
	writeFile(t, filepath.Join(root, "pkg", "__init__.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "util.py"), "")
	writeFile(t, filepath.Join(root, "pkg", "util_pb2.py"), "")
	writeFile(t, filepath.Join(root, "__pycache__", "main.py"), "")
	writeFile(t, filepath.Join(root, ".venv", "lib", "site.py"), "")
	writeFile(t, filepath.Join(root, ".gitignore"), "*_pb2.py\n")

	m, err := LoadMatcher(root, "", nil)
	require.NoError(t, err)
	files, err := Find(root, m)
	require.NoError(t, err)
	assert.Equal(t, []string{"main.py", "pkg/__init__.py", "pkg/util.py"}, files)
}

func TestFindRejectsFile(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "main.py")
	writeFile(t, file, "")
	_, err := Find(file, nil)
	assert.Error(t, err)
}

func TestIsSource(t *testing.T) {
	assert.True(t, IsSource("a.py"))
	assert.False(t, IsSource("a.pyc"))
	assert.False(t, IsSource("a.md"))
}
