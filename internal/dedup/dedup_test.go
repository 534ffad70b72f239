package dedup_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdware/ward/internal/checksum"
	"github.com/fwdware/ward/internal/dedup"
	"github.com/fwdware/ward/internal/integrity"
	"github.com/fwdware/ward/internal/repo"
)

func newRepo(t *testing.T) *repo.Session {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, repo.Init(root))
	sess, err := repo.OpenAt(root, nil)
	require.NoError(t, err)
	t.Cleanup(func() { sess.Close() })
	return sess
}

func mkfile(t *testing.T, sess *repo.Session, rel, content string) {
	t.Helper()
	path := filepath.Join(sess.Root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuildFindsDuplicates(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "same bytes")
	mkfile(t, sess, "backup/a.txt", "same bytes")
	mkfile(t, sess, "unique.txt", "one of a kind")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	report, err := dedup.Build(sess)
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)

	g := report.Groups[0]
	assert.Equal(t, checksum.Bytes([]byte("same bytes")).String(), g.Checksum)
	assert.Equal(t, int64(10), g.Size)
	assert.Equal(t, []string{"backup/a.txt", "docs/a.txt"}, g.Paths)
	assert.Equal(t, int64(10), report.WastedBytes)
}

func TestBuildOrdersByWaste(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "big1.bin", "a much larger payload here")
	mkfile(t, sess, "big2.bin", "a much larger payload here")
	mkfile(t, sess, "small1.txt", "tiny")
	mkfile(t, sess, "small2.txt", "tiny")
	mkfile(t, sess, "small3.txt", "tiny")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	report, err := dedup.Build(sess)
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)
	assert.Greater(t, report.Groups[0].Size, report.Groups[1].Size)
	assert.Len(t, report.Groups[1].Paths, 3)

	// 26 wasted by the big pair, 2*4 by the small triple.
	assert.Equal(t, int64(26+8), report.WastedBytes)
}

func TestBuildNoDuplicates(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "alpha")
	mkfile(t, sess, "b.txt", "beta")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	report, err := dedup.Build(sess)
	require.NoError(t, err)
	assert.Empty(t, report.Groups)
	assert.Zero(t, report.WastedBytes)
}
