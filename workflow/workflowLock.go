package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"github.com/bsm/redislock"
)

var ErrorLockNotObtained = errors.New("could not obtain workflow lock")

// withResourceLock serializes mutating workflows on a single resource across
// instances. Status transitions also re-check under a row lock, so this only
// has to keep concurrent writers from interleaving, not be airtight.
func withResourceLock(ctx context.Context, resourceType string, resourceId int, fn func(ctx context.Context) error) error {
	logger := config.GetLogger()
	locker := config.GetRedisLock()

	lockKey := fmt.Sprintf("%s:%d", resourceType, resourceId)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 10),
	})
	if err == redislock.ErrNotObtained {
		config.LogError(logger, "workflowLock.go", "withResourceLock", "Obtain", lockKey, err)
		return ErrorLockNotObtained
	} else if err != nil {
		config.LogError(logger, "workflowLock.go", "withResourceLock", "Obtain", lockKey, err)
		return err
	}
	defer func() {
		_ = lock.Release(ctx)
	}()

	return fn(ctx)
}
