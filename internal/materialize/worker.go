package materialize

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/conceptgraph/reasoner/internal/platform/logger"
)

// Runner registers the materialize workflow/activity on the configured task
// queue and polls until ctx is canceled.
type Runner struct {
	log  *logger.Logger
	tc   temporalsdkclient.Client
	cfg  Config
	acts *Activities
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg Config, acts *Activities) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("materialize: temporal client is not configured")
	}
	if acts == nil || acts.Sync == nil {
		return nil, fmt.Errorf("materialize: activities not configured")
	}
	return &Runner{log: log, tc: tc, cfg: cfg, acts: acts}, nil
}

func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("materialize: worker not initialized")
	}

	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})
	w.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	w.RegisterActivityWithOptions(r.acts.SyncOnce, activity.RegisterOptions{Name: ActivitySync})

	if err := w.Start(); err != nil {
		return fmt.Errorf("materialize: worker start: %w", err)
	}
	if r.log != nil {
		r.log.Info("materialize worker started", "task_queue", r.cfg.TaskQueue)
	}

	go func() {
		<-ctx.Done()
		w.Stop()
	}()
	return nil
}

// EnsureStarted kicks off the single long-running workflow execution (one
// per namespace/task-queue pair) if it isn't already running, using the
// workflow ID as the natural dedup key.
func EnsureStarted(ctx context.Context, tc temporalsdkclient.Client, cfg Config) error {
	if tc == nil {
		return nil
	}
	_, err := tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        "materialize-" + cfg.TaskQueue,
		TaskQueue: cfg.TaskQueue,
	}, Workflow, cfg)
	return err
}
