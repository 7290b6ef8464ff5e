package config

import (
	"fmt"
	"os"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"frontdesk/pkg/client"
	"frontdesk/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	HostLockTTL time.Duration
	SettingsTTL time.Duration

	WatchPeriod     time.Duration
	WatchLookback   time.Duration
	WatchDedupBound int
	WatchLedger     string

	ReminderPeriod  time.Duration
	ReminderMinLead time.Duration
	ReminderMaxLead time.Duration
	WebhookTimeout  time.Duration

	PresenceChannel   string
	LiveHistoryWindow time.Duration
	LiveSendQueue     int
	// LiveOrigins lists the cross-site origins allowed to open /ws.
	// Same-host origins are always allowed.
	LiveOrigins []string

	Log    *logger.Logger
	Client *client.Client
}

// Load reads the environment for serviceName. Invalid configuration is fatal.
func Load(serviceName string) *Config {
	cfg := fromEnv()
	cfg.Log = logger.New(logger.Config{
		Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
		Format:    getEnvStr(EnvLogFormat, logger.JSON),
		AddSource: true,
		Service:   serviceName,
	})
	cfg.Client = client.NewClient()

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func fromEnv() *Config {
	return &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		HostLockTTL: getEnvDuration(EnvHostLockTTL, DefaultHostLockTTL),
		SettingsTTL: getEnvDuration(EnvSettingsTTL, DefaultSettingsTTL),

		WatchPeriod:     getEnvDuration(EnvWatchPeriod, DefaultWatchPeriod),
		WatchLookback:   getEnvDuration(EnvWatchLookback, DefaultWatchLookback),
		WatchDedupBound: getEnvNum(EnvWatchDedupBound, DefaultWatchDedupBound),
		WatchLedger:     getEnvStr(EnvWatchLedger, DefaultWatchLedger),

		ReminderPeriod:  getEnvDuration(EnvReminderPeriod, DefaultReminderPeriod),
		ReminderMinLead: getEnvDuration(EnvReminderMinLead, DefaultReminderMinLead),
		ReminderMaxLead: getEnvDuration(EnvReminderMaxLead, DefaultReminderMaxLead),
		WebhookTimeout:  getEnvDuration(EnvWebhookTimeout, DefaultWebhookTimeout),

		PresenceChannel:   getEnvStr(EnvPresenceChannel, DefaultPresenceChannel),
		LiveHistoryWindow: getEnvDuration(EnvLiveHistory, DefaultLiveHistoryWindow),
		LiveSendQueue:     getEnvNum(EnvLiveSendQueue, DefaultLiveSendQueue),
		LiveOrigins:       getEnvList(EnvLiveOrigins),
	}
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}
	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	positive := []struct {
		name  string
		value time.Duration
	}{
		{"RequestTimeout", cfg.RequestTimeout},
		{"IdempotencyTTL", cfg.IdempotencyTTL},
		{"ReadTimeout", cfg.ReadTimeout},
		{"WriteTimeout", cfg.WriteTimeout},
		{"IdleTimeout", cfg.IdleTimeout},
		{"ShutdownTimeout", cfg.ShutdownTimeout},
		{"HostLockTTL", cfg.HostLockTTL},
		{"SettingsTTL", cfg.SettingsTTL},
		{"WatchPeriod", cfg.WatchPeriod},
		{"WatchLookback", cfg.WatchLookback},
		{"ReminderPeriod", cfg.ReminderPeriod},
		{"WebhookTimeout", cfg.WebhookTimeout},
		{"LiveHistoryWindow", cfg.LiveHistoryWindow},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %s", p.name, p.value))
		}
	}

	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}
	if cfg.WatchDedupBound <= 0 {
		errors = append(errors, fmt.Sprintf("WatchDedupBound must be positive, got: %d", cfg.WatchDedupBound))
	}
	if cfg.LiveSendQueue <= 0 {
		errors = append(errors, fmt.Sprintf("LiveSendQueue must be positive, got: %d", cfg.LiveSendQueue))
	}
	if cfg.WatchLedger != LedgerStore && cfg.WatchLedger != LedgerMemory {
		errors = append(errors, fmt.Sprintf("WatchLedger must be %q or %q, got: %s", LedgerStore, LedgerMemory, cfg.WatchLedger))
	}
	if cfg.PresenceChannel == "" {
		errors = append(errors, "PresenceChannel cannot be empty")
	}

	for _, origin := range cfg.LiveOrigins {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" || (u.Path != "" && u.Path != "/") {
			errors = append(errors, fmt.Sprintf("LiveOrigins entries must be scheme://host, got: %q", origin))
		}
	}
	if cfg.HostLockTTL < 2*HostLockMargin {
		errors = append(errors, fmt.Sprintf("HostLockTTL must be at least %s, got: %s", 2*HostLockMargin, cfg.HostLockTTL))
	}

	// A lookback shorter than the period leaves gaps between sweeps.
	if cfg.WatchLookback < cfg.WatchPeriod {
		errors = append(errors, fmt.Sprintf("WatchLookback (%s) must be >= WatchPeriod (%s)", cfg.WatchLookback, cfg.WatchPeriod))
	}
	if cfg.ReminderMinLead < 0 {
		errors = append(errors, fmt.Sprintf("ReminderMinLead cannot be negative, got: %s", cfg.ReminderMinLead))
	}
	if cfg.ReminderMaxLead <= cfg.ReminderMinLead {
		errors = append(errors, fmt.Sprintf("ReminderMaxLead (%s) must be > ReminderMinLead (%s)", cfg.ReminderMaxLead, cfg.ReminderMinLead))
	} else if cfg.ReminderMaxLead-cfg.ReminderMinLead < cfg.ReminderPeriod {
		errors = append(errors, fmt.Sprintf("reminder window (%s) must be at least ReminderPeriod (%s)", cfg.ReminderMaxLead-cfg.ReminderMinLead, cfg.ReminderPeriod))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

// HostLockLease bounds a booking's check-and-write so it ends before the host
// lock can expire and be taken over.
func (cfg *Config) HostLockLease() time.Duration {
	return cfg.HostLockTTL - HostLockMargin
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"host_lock_ttl", cfg.HostLockTTL,
		"settings_ttl", cfg.SettingsTTL,
		"watch_period", cfg.WatchPeriod,
		"watch_lookback", cfg.WatchLookback,
		"watch_dedup_bound", cfg.WatchDedupBound,
		"watch_ledger", cfg.WatchLedger,
		"reminder_period", cfg.ReminderPeriod,
		"reminder_min_lead", cfg.ReminderMinLead,
		"reminder_max_lead", cfg.ReminderMaxLead,
		"webhook_timeout", cfg.WebhookTimeout,
		"presence_channel", cfg.PresenceChannel,
		"live_history_window", cfg.LiveHistoryWindow,
		"live_send_queue", cfg.LiveSendQueue,
		"live_origins", cfg.LiveOrigins,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}
