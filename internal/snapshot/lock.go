package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 200 * time.Millisecond

// acquireLock obtains the advisory write lock guarding the snapshot at path.
// Concurrent builders targeting one location are serialized; readers never lock.
func acquireLock(ctx context.Context, path string) (func(), error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create snapshot dir: %w", err)
	}
	l := flock.New(lockPath)
	for {
		locked, err := l.TryLock()
		if err != nil {
			return nil, fmt.Errorf("cannot acquire snapshot lock: %w", err)
		}
		if locked {
			return func() { _ = l.Unlock() }, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("another index build is in progress (lock: %s): %w", lockPath, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}
}
