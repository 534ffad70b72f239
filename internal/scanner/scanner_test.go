package scanner_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdware/ward/internal/config"
	"github.com/fwdware/ward/internal/scanner"
)

func mkfile(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(rel), 0o644))
}

func TestWalkSortedRelative(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "b.txt")
	mkfile(t, root, "a.txt")
	mkfile(t, root, "docs/nested/c.txt")

	paths, err := scanner.Walk(root, root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "docs/nested/c.txt"}, paths)
}

func TestWalkSkipsControlDir(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "a.txt")
	mkfile(t, root, config.RepoDir+"/metadata.sqlite3")
	mkfile(t, root, config.RepoDir+"/objects/ab/cd/abcd")

	paths, err := scanner.Walk(root, root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, paths)
}

func TestWalkScoped(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "docs/a.txt")
	mkfile(t, root, "docs2/b.txt")
	mkfile(t, root, "other.txt")

	paths, err := scanner.Walk(root, filepath.Join(root, "docs"), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.txt"}, paths)
}

func TestWalkHonorsIgnoreRules(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "keep.txt")
	mkfile(t, root, "skip.tmp")
	mkfile(t, root, "vendor/dep.go")
	mkfile(t, root, "deep/scratch.tmp")
	require.NoError(t, os.WriteFile(filepath.Join(root, "ignore"), []byte("# comment\n\nvendor\n*.tmp\n"), 0o644))

	rules := scanner.LoadRules(filepath.Join(root, "ignore"), nil)
	paths, err := scanner.Walk(root, root, rules)
	require.NoError(t, err)
	assert.Equal(t, []string{"ignore", "keep.txt"}, paths)
}

func TestWalkIgnoresSymlinks(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "real.txt")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	paths, err := scanner.Walk(root, root, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.txt"}, paths)
}

func TestWalkMissingScope(t *testing.T) {
	root := t.TempDir()
	paths, err := scanner.Walk(root, filepath.Join(root, "absent"), nil)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestRulesDefaults(t *testing.T) {
	rules := scanner.LoadRules(filepath.Join(t.TempDir(), "no-such-file"), config.DefaultIgnorePatterns)

	assert.True(t, rules.Ignored(".git/HEAD"))
	assert.True(t, rules.Ignored("sub/dir/editor.swp"))
	assert.True(t, rules.Ignored("notes.tmp"))
	assert.False(t, rules.Ignored("notes.txt"))
}

func TestMatchSegments(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"docs/*.txt", "docs/a.txt", true},
		{"docs/*.txt", "docs/sub/a.txt", false},
		{"docs/**", "docs/sub/a.txt", true},
		{"**/*.log", "a/b/c.log", true},
		{"**/*.log", "c.log", true},
		{"build", "build", true},
		{"build", "builder", false},
		{"?.txt", "a.txt", true},
		{"?.txt", "ab.txt", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, scanner.Match(c.pattern, c.path), "%s vs %s", c.pattern, c.path)
	}
}

func TestWithinScope(t *testing.T) {
	assert.True(t, scanner.WithinScope("docs/a.txt", "docs"))
	assert.True(t, scanner.WithinScope("docs/a.txt", ""))
	assert.True(t, scanner.WithinScope("docs/a.txt", "."))
	assert.True(t, scanner.WithinScope("docs", "docs"))
	assert.False(t, scanner.WithinScope("docs2/a.txt", "docs"))
	assert.False(t, scanner.WithinScope("other/a.txt", "docs"))
}
