// Package retry runs an operation again with exponential backoff while it
// fails with a retryable error.
//
// Basic usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context) error {
//	    return writeExport(ctx)
//	})
//
// Callers decide what is worth retrying:
//
//	cfg := retry.DefaultConfig()
//	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
//	    logger.Debug("database busy", "attempt", attempt, "delay", delay)
//	}
//	err := retry.DoWithRetryable(ctx, cfg, fn, sqlite.IsBusyError)
package retry
