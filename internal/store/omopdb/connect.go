package omopdb

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/conceptgraph/reasoner/internal/platform/envutil"
	"github.com/conceptgraph/reasoner/internal/platform/logger"
)

// Connect opens a GORM connection to the OMOP CDM Postgres instance and
// wraps it in a Store. Connection settings come from OMOP_PG_* environment
// variables so the same binary can point at a local vocabulary snapshot or
// a managed instance without code changes.
func Connect(appLog *logger.Logger) (*Store, error) {
	host := envutil.Str("OMOP_PG_HOST", "localhost")
	port := envutil.Str("OMOP_PG_PORT", "5432")
	user := envutil.Str("OMOP_PG_USER", "postgres")
	password := envutil.Str("OMOP_PG_PASSWORD", "")
	dbname := envutil.Str("OMOP_PG_DATABASE", "omop_cdm")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname,
	)

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger: gormLog,
	})
	if err != nil {
		return nil, fmt.Errorf("omopdb: connect: %w", err)
	}

	return New(db, appLog), nil
}
