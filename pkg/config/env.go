package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvHostLockTTL = "HOST_LOCK_TTL"
	EnvSettingsTTL = "SETTINGS_TTL"

	EnvWatchPeriod     = "WATCH_PERIOD"
	EnvWatchLookback   = "WATCH_LOOKBACK"
	EnvWatchDedupBound = "WATCH_DEDUP_BOUND"
	EnvWatchLedger     = "WATCH_LEDGER"
	EnvReminderPeriod  = "REMINDER_PERIOD"
	EnvReminderMinLead = "REMINDER_MIN_LEAD"
	EnvReminderMaxLead = "REMINDER_MAX_LEAD"
	EnvWebhookTimeout  = "WEBHOOK_TIMEOUT"
	EnvPresenceChannel = "PRESENCE_CHANNEL"
	EnvLiveHistory     = "LIVE_HISTORY_WINDOW"
	EnvLiveSendQueue   = "LIVE_SEND_QUEUE"
	EnvLiveOrigins     = "LIVE_ALLOWED_ORIGINS"
)
