package materialize

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
)

const (
	WorkflowName = "MaterializeVocabulary"
	ActivitySync = "SyncVocabulary"
)

// Activities bundles the sync engine and the lock guarding it so only one
// workflow execution (across however many workers poll the task queue)
// performs a rebuild at a time.
type Activities struct {
	Sync *Sync
	Lock *Lock
}

// SyncOnce acquires the lock, runs one full mirror rebuild, and releases
// it. If the lock is already held, it returns without error — another
// worker's tick will cover this cycle.
func (a *Activities) SyncOnce(ctx context.Context) (Result, error) {
	if a == nil || a.Sync == nil {
		return Result{}, fmt.Errorf("materialize: activities not configured")
	}

	acquired, err := a.Lock.Acquire(ctx)
	if err != nil {
		return Result{}, err
	}
	if !acquired {
		activity.RecordHeartbeat(ctx, "lock held elsewhere, skipping this tick")
		return Result{}, nil
	}
	defer func() { _ = a.Lock.Release(ctx) }()

	activity.RecordHeartbeat(ctx, "sync started")
	return a.Sync.RunFull(ctx)
}
