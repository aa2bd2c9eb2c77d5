package async

import (
	"context"
	"sync"
	"time"
)

// Result is the settled outcome of a single task.
type Result[T any] struct {
	Value T
	Err   error
}

// OK reports whether the task settled successfully.
func (r Result[T]) OK() bool { return r.Err == nil }

// AllSettled runs all tasks concurrently, bounds each one individually with
// perTaskTimeout, and returns one Result per task in input order. It never
// fails as a whole: a slow or erroring task yields a failed Result in its
// slot without affecting the others.
func AllSettled[T any](ctx context.Context, perTaskTimeout time.Duration, tasks ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()
			value, err := WithTimeout(ctx, perTaskTimeout, "task timed out", task)
			results[i] = Result[T]{Value: value, Err: err}
		}(i, task)
	}
	wg.Wait()

	return results
}
