package search

import "golang.org/x/sync/errgroup"

// Executor is the fixed-size worker pool that backs
// IndexSearcher.SearchParallel's per-leaf fan-out (§4.M). Each
// IndexSearcher carries its own Executor, and SearchParallel builds a fresh
// DefaultExecutorSize one for the call when none is set; no pool is shared
// process-wide, and the cap applies to one run call at a time. It is a thin
// wrapper over errgroup.Group with a concurrency cap, the same pattern the
// corpus's erigon tree uses for bounded worker fan-out.
type Executor struct {
	limit int
}

// DefaultExecutorSize is the pool size used when no Executor is supplied.
const DefaultExecutorSize = 5

func NewExecutor(limit int) *Executor {
	if limit <= 0 {
		limit = DefaultExecutorSize
	}
	return &Executor{limit: limit}
}

// run executes one task per item in tasks, at most e.limit concurrently,
// and returns the first error encountered (if any) once every task has
// finished; the group carries no context, so a failure cancels nothing and
// the remaining tasks still run.
func (e *Executor) run(tasks []func() error) error {
	g := new(errgroup.Group)
	g.SetLimit(e.limit)
	for _, task := range tasks {
		task := task
		g.Go(task)
	}
	return g.Wait()
}
