package integrity_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwdware/ward/internal/checksum"
	"github.com/fwdware/ward/internal/errs"
	"github.com/fwdware/ward/internal/integrity"
	"github.com/fwdware/ward/internal/metadata"
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

func TestAddTracksNewFiles(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "hello")

	res, failures, err := eng.Add("docs")
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, 1, res.Added)
	assert.Zero(t, res.Deleted)

	rec, err := sess.DB.FileByPath("docs/a.txt")
	require.NoError(t, err)
	require.NotNil(t, rec)
	wantSum := checksum.Bytes([]byte("hello"))
	assert.Equal(t, wantSum.String(), rec.Checksum)
	assert.Equal(t, int64(5), rec.Size)

	// The payload is stored under its checksum.
	assert.True(t, sess.Objects.Exists(wantSum))

	hist, err := sess.DB.History(10, nil)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, metadata.ActionTrack, hist[0].Action)
	assert.Equal(t, "docs/a.txt", hist[0].Path)
	assert.Equal(t, wantSum.String(), hist[0].Checksum.String)
}

func TestAddIdempotent(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "one")
	mkfile(t, sess, "b.txt", "two")

	first, _, err := eng.Add("")
	require.NoError(t, err)
	assert.Equal(t, 2, first.Added)

	second, _, err := eng.Add("")
	require.NoError(t, err)
	assert.Zero(t, second.Added)
	assert.Zero(t, second.Deleted)

	hist, err := sess.DB.History(100, nil)
	require.NoError(t, err)
	assert.Len(t, hist, 2, "an unchanged tree must not grow history")
}

func TestAddDetectsDeletions(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "hello")

	_, _, err := eng.Add("docs")
	require.NoError(t, err)
	sum := checksum.Bytes([]byte("hello"))

	require.NoError(t, os.Remove(filepath.Join(sess.Root, "docs", "a.txt")))
	res, _, err := eng.Add("docs")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)

	rec, err := sess.DB.FileByPath("docs/a.txt")
	require.NoError(t, err)
	assert.Nil(t, rec, "live row must be gone")

	filter := metadata.ActionDelete
	dels, err := sess.DB.History(10, &filter)
	require.NoError(t, err)
	require.Len(t, dels, 1)
	assert.Equal(t, "docs/a.txt", dels[0].Path)
	assert.Equal(t, sum.String(), dels[0].Checksum.String)
	assert.Equal(t, int64(5), dels[0].Size.Int64)

	// History still references the content, so the object survives.
	assert.True(t, sess.Objects.Exists(sum))
}

func TestAddDeletionScoping(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "in scope")
	mkfile(t, sess, "media/b.txt", "elsewhere")

	_, _, err := eng.Add("")
	require.NoError(t, err)

	// Delete a file outside the scanned scope; an add scoped to docs/ must
	// not flag it.
	require.NoError(t, os.Remove(filepath.Join(sess.Root, "media", "b.txt")))
	res, _, err := eng.Add("docs")
	require.NoError(t, err)
	assert.Zero(t, res.Deleted)

	rec, err := sess.DB.FileByPath("media/b.txt")
	require.NoError(t, err)
	assert.NotNil(t, rec, "out-of-scope row must survive")

	filter := metadata.ActionDelete
	dels, err := sess.DB.History(10, &filter)
	require.NoError(t, err)
	assert.Empty(t, dels)
}

func TestAddDeletedScopeRecordsDeletions(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "a")
	mkfile(t, sess, "docs/b.txt", "b")

	_, _, err := eng.Add("docs")
	require.NoError(t, err)

	// Removing the whole directory scans to an empty list, not an error,
	// so every tracked row under it is recorded as deleted.
	require.NoError(t, os.RemoveAll(filepath.Join(sess.Root, "docs")))
	res, _, err := eng.Add("docs")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)

	rows, err := sess.DB.FilesUnder("docs")
	require.NoError(t, err)
	assert.Empty(t, rows)

	filter := metadata.ActionDelete
	dels, err := sess.DB.History(10, &filter)
	require.NoError(t, err)
	assert.Len(t, dels, 2)
}

func TestAddScopeBoundaryIsSegmentWise(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "a")
	mkfile(t, sess, "docs2/b.txt", "b")

	_, _, err := eng.Add("")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(sess.Root, "docs2", "b.txt")))
	res, _, err := eng.Add("docs")
	require.NoError(t, err)
	assert.Zero(t, res.Deleted, `scope "docs" must not cover "docs2"`)
}

func TestAddCollectsPerFileFailures(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "good.txt", "fine")
	mkfile(t, sess, "bad.txt", "unreadable")
	require.NoError(t, os.Chmod(filepath.Join(sess.Root, "bad.txt"), 0o000))

	res, failures, err := eng.Add("")
	require.NoError(t, err, "one unreadable file must not abort the batch")
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, failures, 1)
	assert.Equal(t, "bad.txt", failures[0].Path)
}

func TestAddRejectsOutsidePath(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)

	_, _, err := eng.Add("../elsewhere")
	assert.Error(t, err)
}

func TestAddRoundTrip(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "round trip me")

	_, _, err := eng.Add("")
	require.NoError(t, err)

	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	sum, _, err := checksum.File(filepath.Join(sess.Root, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, rec.Checksum, sum.String())
}

func TestVerifyUnchanged(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "steady")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	res, err := eng.Verify("", false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
	assert.Equal(t, 1, res.OK)
	assert.Zero(t, res.Modified)
	assert.Zero(t, res.Missing)

	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	assert.True(t, rec.LastChecked.Valid)

	// No history for a clean pass.
	hist, err := sess.DB.History(10, nil)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestVerifyIntervalRespected(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "fresh")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	// First verify stamps last_checked.
	_, err = eng.Verify("", false)
	require.NoError(t, err)
	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	stamp := rec.LastChecked

	// Within the interval the file is skipped and the stamp untouched.
	res, err := eng.Verify("", false)
	require.NoError(t, err)
	assert.Zero(t, res.Checked)

	rec, err = sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	assert.Equal(t, stamp.Time.Unix(), rec.LastChecked.Time.Unix())

	// Force bypasses the interval.
	res, err = eng.Verify("", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)
}

func TestVerifyDetectsCorruption(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "original")
	_, _, err := eng.Add("")
	require.NoError(t, err)
	oldSum := checksum.Bytes([]byte("original"))

	mkfile(t, sess, "a.txt", "tampered")
	newSum := checksum.Bytes([]byte("tampered"))

	res, err := eng.Verify("", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Modified)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, integrity.ViolationModified, res.Violations[0].Kind)
	assert.Equal(t, oldSum.String(), res.Violations[0].Expected)
	assert.Equal(t, newSum.String(), res.Violations[0].Actual)

	// Row overwritten with the new state and stamped.
	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	assert.Equal(t, newSum.String(), rec.Checksum)
	assert.Equal(t, int64(8), rec.Size)
	assert.True(t, rec.LastChecked.Valid)

	// The new content is in the object store; a Track entry captured it.
	assert.True(t, sess.Objects.Exists(newSum))
	hist, err := sess.DB.History(10, nil)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, metadata.ActionTrack, hist[0].Action)
	assert.Equal(t, newSum.String(), hist[0].Checksum.String)
}

func TestVerifyDetectsMissingObject(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "stored once")
	_, _, err := eng.Add("")
	require.NoError(t, err)
	sum := checksum.Bytes([]byte("stored once"))

	// Corrupt the store by unlinking the object behind the row.
	require.NoError(t, sess.Objects.Remove(sum))

	res, err := eng.Verify("", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.StoreMissing)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, integrity.ViolationStoreMissing, res.Violations[0].Kind)
	assert.Equal(t, sum.String(), res.Violations[0].Expected)
	assert.Equal(t, errs.KindStoreCorruption, errs.KindOf(res.Err()))

	// The row is skipped, not stamped, so the next run re-reports it.
	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	assert.False(t, rec.LastChecked.Valid)
}

func TestVerifyResultErrKinds(t *testing.T) {
	clean := &integrity.VerifyResult{Checked: 3, OK: 3}
	assert.NoError(t, clean.Err())

	modified := &integrity.VerifyResult{
		Violations: []integrity.Violation{{Kind: integrity.ViolationModified}},
	}
	assert.Equal(t, errs.KindChecksum, errs.KindOf(modified.Err()))
}

func TestVerifyMissingFileRetried(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "here today")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(sess.Root, "a.txt")))

	res, err := eng.Verify("", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Missing)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, integrity.ViolationMissing, res.Violations[0].Kind)

	// The row survives with last_checked untouched so the next run retries;
	// only add records intentional deletions.
	rec, err := sess.DB.FileByPath("a.txt")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.LastChecked.Valid)

	hist, err := sess.DB.History(10, nil)
	require.NoError(t, err)
	assert.Len(t, hist, 1, "a missing file must not produce history")
}

func TestVerifyPatternFilter(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "a")
	mkfile(t, sess, "media/b.bin", "b")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	res, err := eng.Verify("docs", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)

	res, err = eng.Verify("media/*.bin", true)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Checked)

	res, err = eng.Verify("*.zzz", true)
	require.NoError(t, err)
	assert.Zero(t, res.Checked)
}

func TestStatus(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "a")
	mkfile(t, sess, "b.txt", "b")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	st, err := eng.Status()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Tracked)
	assert.False(t, st.Verified)
	assert.Equal(t, 2, st.PendingViolations, "never-checked rows are pending")

	_, err = eng.Verify("", false)
	require.NoError(t, err)

	st, err = eng.Status()
	require.NoError(t, err)
	assert.True(t, st.Verified)
	assert.Zero(t, st.PendingViolations)
	assert.Less(t, st.LastVerifyAge, time.Minute)
}

func TestUntrack(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "docs/a.txt", "keep on disk")
	_, _, err := eng.Add("")
	require.NoError(t, err)

	n, err := eng.Untrack("docs")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rec, err := sess.DB.FileByPath("docs/a.txt")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Working file untouched.
	_, err = os.Stat(filepath.Join(sess.Root, "docs", "a.txt"))
	assert.NoError(t, err)

	filter := metadata.ActionDelete
	dels, err := sess.DB.History(10, &filter)
	require.NoError(t, err)
	assert.Len(t, dels, 1)

	_, err = eng.Untrack("docs")
	assert.Error(t, err, "nothing left to untrack")
}

func TestHistorySharesActionID(t *testing.T) {
	sess := newRepo(t)
	eng := integrity.New(sess)
	mkfile(t, sess, "a.txt", "a")
	mkfile(t, sess, "b.txt", "b")
	mkfile(t, sess, "c.txt", "c")

	_, _, err := eng.Add("")
	require.NoError(t, err)

	hist, err := sess.DB.History(10, nil)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	for _, h := range hist[1:] {
		assert.Equal(t, hist[0].ActionID, h.ActionID, "one invocation, one action_id")
	}
}
