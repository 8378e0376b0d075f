package config

import (
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName            string `env:"APP_NAME" env-default:"laurel"`
	Port               int    `env:"PORT" env-default:"3004"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs         bool   `env:"PRETTY_LOGS" env-default:"false"`
	StartupMaxAttempts int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// PostgreSQL
	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"laurel"`
	DatabaseSSLMode               string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseReconnectRetryCount   int           `env:"DB_RECONNECT_RETRY_COUNT" env-default:"3"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis (PACER session cache)
	RedisEnabled  bool   `env:"REDIS_ENABLED" env-default:"true"`
	RedisHost     string `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaJobTopic      string   `env:"KAFKA_JOB_TOPIC" env-default:"docket-jobs"`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" env-default:"laurel-worker"`
	KafkaBatchSize     int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout  int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks  int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression   string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// PACER
	PacerUsername            string        `env:"PACER_USERNAME" env-default:""`
	PacerPassword            string        `env:"PACER_PASSWORD" env-default:""`
	PacerAuthURL             string        `env:"PACER_AUTH_URL" env-default:""`
	PacerTimeout             time.Duration `env:"PACER_TIMEOUT" env-default:"30s"`
	PacerSessionRefreshEvery int           `env:"PACER_SESSION_REFRESH_EVERY" env-default:"5000"`

	// Reconciliation
	MatchRatioThreshold   float64 `env:"MATCH_RATIO_THRESHOLD" env-default:"0.65"`
	CaptionTruncateLength int     `env:"CAPTION_TRUNCATE_LENGTH" env-default:"30"`
	ReconcileBatchSize    int     `env:"RECONCILE_BATCH_SIZE" env-default:"1000"`
	ReconcileSyncFallback bool    `env:"RECONCILE_SYNC_FALLBACK" env-default:"true"`

	// Throttling
	ThrottleMaxBacklog   int64         `env:"THROTTLE_MAX_BACKLOG" env-default:"10000"`
	ThrottlePollInterval time.Duration `env:"THROTTLE_POLL_INTERVAL" env-default:"5s"`
}

// Load reads .env (when present) and binds the environment into a Config
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
