package config

import "time"

// MonitorConfig holds runtime configuration for the monitor service.
type MonitorConfig struct {
	Environment       string
	Addr              string
	FeedURL           string
	FeedTopic         string
	TickInterval      time.Duration
	ReconnectMin      time.Duration
	ReconnectMax      time.Duration
	Columns           int
	CardSelector      string
	SnapshotRedisAddr string
	SnapshotRedisPass string
	SnapshotRedisDB   int
	SnapshotTTL       time.Duration
	DatabaseURL       string
	MigrationsDir     string
	HistoryLimit      int
	SessionSecret     string
	SessionTTL        time.Duration
	PasswordHash      string
}

// LoadMonitorConfig constructs a MonitorConfig from environment variables.
func LoadMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Environment:       GetString("APP_ENV", "development"),
		Addr:              GetString("MONITOR_ADDR", ":8080"),
		FeedURL:           GetString("CI_FEED_URL", "ws://localhost:4000/feed"),
		FeedTopic:         GetString("CI_FEED_TOPIC", "projects"),
		TickInterval:      time.Duration(GetInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		ReconnectMin:      time.Duration(GetInt("FEED_RECONNECT_MIN_SECONDS", 1)) * time.Second,
		ReconnectMax:      time.Duration(GetInt("FEED_RECONNECT_MAX_SECONDS", 30)) * time.Second,
		Columns:           GetInt("BOARD_COLUMNS", 2),
		CardSelector:      GetString("BOARD_CARD_SELECTOR", ".card"),
		SnapshotRedisAddr: GetString("SNAPSHOT_REDIS_ADDR", ""),
		SnapshotRedisPass: GetString("SNAPSHOT_REDIS_PASSWORD", ""),
		SnapshotRedisDB:   GetInt("SNAPSHOT_REDIS_DB", 0),
		SnapshotTTL:       time.Duration(GetInt("SNAPSHOT_TTL_HOURS", 24)) * time.Hour,
		DatabaseURL:       GetString("DATABASE_URL", ""),
		MigrationsDir:     GetString("DB_MIGRATIONS_DIR", "db/migrations"),
		HistoryLimit:      GetInt("HISTORY_LIMIT", 50),
		SessionSecret:     GetString("SESSION_SECRET", ""),
		SessionTTL:        time.Duration(GetInt("SESSION_TTL_HOURS", 12)) * time.Hour,
		PasswordHash:      GetString("DASHBOARD_PASSWORD_HASH", ""),
	}
}
