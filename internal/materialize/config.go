package materialize

import (
	"time"

	"github.com/conceptgraph/reasoner/internal/platform/envutil"
)

// Config is the runtime tuning for the sync workflow and its distributed
// lock, loaded from MATERIALIZE_* / TEMPORAL_* / REDIS_* environment
// variables so the same binary runs unchanged across environments.
type Config struct {
	TemporalAddress   string
	TemporalNamespace string
	TaskQueue         string

	RedisAddr string
	LockKey   string
	LockTTL   time.Duration

	SyncInterval time.Duration
	BatchSize    int

	// ContinueAsNewTicks bounds workflow history growth before Workflow
	// continues as new.
	ContinueAsNewTicks int
}

func LoadConfig() Config {
	return Config{
		TemporalAddress:   envutil.Str("TEMPORAL_ADDRESS", ""),
		TemporalNamespace: envutil.Str("TEMPORAL_NAMESPACE", "conceptgraph"),
		TaskQueue:         envutil.Str("MATERIALIZE_TASK_QUEUE", "conceptgraph-materialize"),

		RedisAddr: envutil.Str("REDIS_ADDR", ""),
		LockKey:   envutil.Str("MATERIALIZE_LOCK_KEY", "conceptgraph:materialize:lock"),
		LockTTL:   envutil.Duration("MATERIALIZE_LOCK_TTL", 10*time.Minute),

		SyncInterval: envutil.Duration("MATERIALIZE_SYNC_INTERVAL", 15*time.Minute),
		BatchSize:    envutil.Int("MATERIALIZE_BATCH_SIZE", 5000),

		ContinueAsNewTicks: envutil.Int("MATERIALIZE_CONTINUE_AS_NEW_TICKS", 500),
	}
}
