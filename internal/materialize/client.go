package materialize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	temporalsdkclient "go.temporal.io/sdk/client"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"

	"github.com/conceptgraph/reasoner/internal/platform/envutil"
	"github.com/conceptgraph/reasoner/internal/platform/logger"
)

// NewTemporalClient dials the Temporal frontend with a short bounded retry.
// Returns (nil, nil) when TEMPORAL_ADDRESS is unset so callers can
// run the mirror rebuild as a one-shot CLI invocation without a Temporal
// cluster.
func NewTemporalClient(ctx context.Context, cfg Config, log *logger.Logger) (temporalsdkclient.Client, error) {
	if cfg.TemporalAddress == "" {
		if log != nil {
			log.Warn("TEMPORAL_ADDRESS not set; materialize workflow disabled, use RunFull directly")
		}
		return nil, nil
	}

	opts := temporalsdkclient.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    log,
	}

	const maxWait = 30 * time.Second
	deadline := time.Now().Add(maxWait)
	backoff := 250 * time.Millisecond

	for attempt := 1; ; attempt++ {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		c, err := temporalsdkclient.DialContext(dialCtx, opts)
		cancel()
		if err == nil {
			if envutil.Bool("TEMPORAL_AUTO_REGISTER_NAMESPACE", false) {
				if nsErr := ensureNamespace(ctx, c, cfg, log); nsErr != nil {
					c.Close()
					return nil, nsErr
				}
			}
			return c, nil
		}
		if !isRetryable(err) || time.Now().After(deadline) {
			return nil, fmt.Errorf("materialize: temporal dial failed (address=%s): %w", cfg.TemporalAddress, err)
		}
		if log != nil {
			log.Warn("materialize: temporal not reachable, retrying", "attempt", attempt, "error", err)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 5*time.Second {
			backoff *= 2
		}
	}
}

// ensureNamespace registers cfg.TemporalNamespace when it doesn't already
// exist. Intended for local/self-hosted Temporal only; Temporal Cloud
// namespaces should be pre-provisioned.
func ensureNamespace(ctx context.Context, c temporalsdkclient.Client, cfg Config, log *logger.Logger) error {
	nsClient, err := temporalsdkclient.NewNamespaceClient(temporalsdkclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		return fmt.Errorf("materialize: namespace client: %w", err)
	}
	defer nsClient.Close()

	if _, err := nsClient.Describe(ctx, cfg.TemporalNamespace); err == nil {
		return nil
	} else if !errors.As(err, new(*serviceerror.NamespaceNotFound)) {
		return fmt.Errorf("materialize: describe namespace: %w", err)
	}

	regErr := nsClient.Register(ctx, &workflowservice.RegisterNamespaceRequest{
		Namespace:                        cfg.TemporalNamespace,
		Description:                      "conceptgraph reasoner materializer",
		WorkflowExecutionRetentionPeriod: durationpb.New(7 * 24 * time.Hour),
	})
	if regErr != nil && !errors.As(regErr, new(*serviceerror.NamespaceAlreadyExists)) {
		return fmt.Errorf("materialize: register namespace: %w", regErr)
	}
	if log != nil {
		log.Info("materialize: registered temporal namespace", "namespace", cfg.TemporalNamespace)
	}
	return nil
}

func isRetryable(err error) bool {
	s, ok := status.FromError(err)
	if !ok {
		return errors.Is(err, context.DeadlineExceeded)
	}
	switch s.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return true
	default:
		return false
	}
}

