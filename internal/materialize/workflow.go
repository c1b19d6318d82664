package materialize

import (
	"time"

	"go.temporal.io/sdk/workflow"
)

// Workflow ticks the mirror rebuild on SyncInterval forever, continuing as
// new after ContinueAsNewTicks to bound history growth.
func Workflow(ctx workflow.Context, cfg Config) error {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Hour,
		HeartbeatTimeout:    1 * time.Minute,
	})

	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	maxTicks := cfg.ContinueAsNewTicks
	if maxTicks <= 0 {
		maxTicks = 500
	}

	for tick := 0; tick < maxTicks; tick++ {
		var res Result
		if err := workflow.ExecuteActivity(ctx, ActivitySync).Get(ctx, &res); err != nil {
			return err
		}
		if err := workflow.Sleep(ctx, interval); err != nil {
			return err
		}
	}
	return workflow.NewContinueAsNewError(ctx, Workflow, cfg)
}
