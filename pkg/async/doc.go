// Package async provides orchestration primitives for asynchronous work with
// Go generics: timeout wrapping, retry with exponential backoff, settle-all
// with per-task timeouts, and debouncing.
//
// # Core Types
//
// Future[T] represents the result of an asynchronous computation started with
// Go. It provides Await, AwaitWithTimeout, and a non-blocking IsComplete.
//
// # Timeout Wrapping
//
//	sess, err := async.WithTimeout(ctx, 10*time.Second, "session retrieval timed out",
//		backend.CurrentSession)
//	if errors.Is(err, async.ErrTimeout) {
//		// proceed with defaults; the underlying call keeps running and
//		// its late result is discarded
//	}
//
// Timeouts do not cancel the wrapped function. Callers must treat abandoned
// work as safely ignorable.
//
// # Retry
//
//	value, err := async.Retry(ctx, async.RetryConfig{
//		MaxRetries:     3,
//		InitialDelay:   500 * time.Millisecond,
//		AttemptTimeout: 5 * time.Second,
//	}, fetchRemote)
//
// The factory is re-invoked fresh on every attempt; delays double each retry.
//
// # Settle All
//
//	results := async.AllSettled(ctx, 15*time.Second, fetchA, fetchB, fetchC)
//	for i, r := range results {
//		if !r.OK() {
//			log.Warn("fetch failed", "index", i, "error", r.Err)
//		}
//	}
//
// AllSettled never fails as a whole; each slot settles independently, so one
// slow task cannot hide the results of the others.
//
// # Debounce
//
//	d := async.NewDebouncer(300 * time.Millisecond)
//	d.Trigger(handleEvent) // replaces any pending call
//	d.Cancel()             // drops pending work
//
// # Error Handling
//
// All timeout failures unwrap to ErrTimeout; *TimeoutError carries the
// caller-supplied message and the exceeded deadline.
package async
