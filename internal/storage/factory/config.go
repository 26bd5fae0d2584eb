package factory

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/bq"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/es"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/pg"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/sqldb"
	"github.com/DjordjeVuckovic/table-ingest/pkg/stringsutil"
)

type StorageConfig struct {
	storage.Type
	Pg  *pg.PoolConfig
	Es  *es.ClientConfig
	SQL *sqldb.Config
	BQ  *bq.Config

	StepTimeout time.Duration
	BatchSize   int
}

// LoadEnv reads the storage configuration from the environment.
func LoadEnv() (*StorageConfig, error) {
	storageType := (storage.Type)(os.Getenv("STORAGE_TYPE"))
	if storageType == "" {
		slog.Error("STORAGE_TYPE environment variable is not set")
		return nil, fmt.Errorf("STORAGE_TYPE environment variable is not set")
	}
	return LoadEnvFor(storageType)
}

// LoadEnvFor reads the settings of one storage type from the environment.
func LoadEnvFor(storageType storage.Type) (*StorageConfig, error) {
	if !isSupported(storageType) {
		slog.Error("Invalid storage type", "value", storageType)
		return nil, fmt.Errorf("invalid storage type: %s, expected one of %v", storageType, storage.Types)
	}

	cfg := &StorageConfig{Type: storageType}

	var err error
	if cfg.StepTimeout, err = durationEnv("STEP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = intEnv("BATCH_SIZE"); err != nil {
		return nil, err
	}

	switch storageType {
	case storage.ES:
		cfg.Es = &es.ClientConfig{
			Addresses: stringsutil.SplitList(os.Getenv("ES_ADDRESSES")),
			Username:  os.Getenv("ES_USERNAME"),
			Password:  os.Getenv("ES_PASSWORD"),
		}
		if cfg.Es.BulkWorkers, err = intEnv("ES_BULK_WORKERS"); err != nil {
			return nil, err
		}
		if len(cfg.Es.Addresses) == 0 {
			slog.Error("Elasticsearch configuration is incomplete", "addresses", cfg.Es.Addresses)
			return nil, fmt.Errorf("elasticsearch configuration is incomplete: ES_ADDRESSES is missing")
		}

	case storage.PG:
		cfg.Pg = &pg.PoolConfig{
			ConnStr:        os.Getenv("PG_CONNECTION_STRING"),
			ConnectTimeout: 10 * time.Second,
		}
		maxConns, err := intEnv("PG_MAX_CONNS")
		if err != nil {
			return nil, err
		}
		cfg.Pg.MaxConns = int32(maxConns)
		if cfg.Pg.ConnStr == "" {
			slog.Error("PostgreSQL connection string is not set")
			return nil, fmt.Errorf("PostgreSQL connection string is not set")
		}

	case storage.SQL:
		cfg.SQL = &sqldb.Config{
			Driver: os.Getenv("SQL_DRIVER"),
			DSN:    os.Getenv("SQL_DSN"),
		}
		if cfg.SQL.Driver == "" {
			cfg.SQL.Driver = "sqlite"
		}
		if cfg.SQL.DSN == "" {
			slog.Error("SQL_DSN is not set", "driver", cfg.SQL.Driver)
			return nil, fmt.Errorf("SQL_DSN is not set")
		}

	case storage.BigQuery:
		cfg.BQ = &bq.Config{
			Project:  os.Getenv("BQ_PROJECT"),
			Location: os.Getenv("BQ_LOCATION"),
			Endpoint: os.Getenv("BQ_ENDPOINT"),
		}
		if cfg.BQ.Project == "" {
			slog.Error("BQ_PROJECT is not set")
			return nil, fmt.Errorf("BQ_PROJECT is not set")
		}
	}

	return cfg, nil
}

func isSupported(t storage.Type) bool {
	for _, s := range storage.Types {
		if s == t {
			return true
		}
	}
	return false
}

func durationEnv(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

func intEnv(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}
