package checksum

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of hashing one file. A per-file failure lands in Err
// and never aborts the rest of the batch.
type Result struct {
	Path string
	Sum  Sum
	Size int64
	Err  error
}

// WorkerCount returns the fan-out for batch hashing.
func WorkerCount() int {
	return runtime.NumCPU()
}

// Batch hashes every path concurrently and returns results in input order.
// Hashing shares no mutable state across files; callers serialize any
// metadata writes that follow.
func Batch(paths []string, workers int) []Result {
	if workers <= 0 {
		workers = WorkerCount()
	}

	results := make([]Result, len(paths))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			sum, size, err := File(path)
			results[i] = Result{Path: path, Sum: sum, Size: size, Err: err}
			return nil
		})
	}
	g.Wait()

	return results
}
