// Package dedup reports live tracked files that share content. The object
// store already holds one copy per checksum; this surfaces how much the
// working tree duplicates.
package dedup

import (
	"github.com/fwdware/ward/internal/metadata"
	"github.com/fwdware/ward/internal/repo"
)

// Report lists duplicate groups and the bytes the extra working copies cost.
type Report struct {
	Groups []metadata.DuplicateGroup
	// WastedBytes is size*(copies-1) summed over all groups.
	WastedBytes int64
}

// Build is read-only; it never mutates metadata or objects.
func Build(sess *repo.Session) (*Report, error) {
	groups, err := sess.DB.Duplicates()
	if err != nil {
		return nil, err
	}

	report := &Report{Groups: groups}
	for _, g := range groups {
		report.WastedBytes += g.Size * int64(len(g.Paths)-1)
	}
	return report, nil
}
