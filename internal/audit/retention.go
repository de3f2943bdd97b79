package audit

import (
	"context"
	"time"
)

// RetentionLoop deletes entries older than retention once at start and then
// every interval, until ctx is cancelled. A non-positive retention disables it.
func RetentionLoop(ctx context.Context, repo Repository, retention, interval time.Duration, logger Logger) {
	if retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = noopLogger{}
	}

	prune := func() {
		n, err := repo.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Error("audit retention prune failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("audit retention pruned entries", "deleted", n)
		}
	}

	prune()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
