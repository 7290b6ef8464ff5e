package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "frontdesk"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultHostLockTTL = 10 * time.Second
	// HostLockMargin separates the end of a booking transaction from the
	// expiry of the host lock it runs under.
	HostLockMargin = 2 * time.Second
	DefaultSettingsTTL = 1 * time.Minute

	DefaultWatchPeriod     = 60 * time.Second
	DefaultWatchLookback   = 5 * time.Minute
	DefaultWatchDedupBound = 100
	DefaultWatchLedger     = LedgerStore

	DefaultReminderPeriod  = 5 * time.Minute
	DefaultReminderMinLead = 25 * time.Minute
	DefaultReminderMaxLead = 35 * time.Minute
	DefaultWebhookTimeout  = 10 * time.Second

	DefaultPresenceChannel   = "online-users"
	DefaultLiveHistoryWindow = 10 * time.Minute
	DefaultLiveSendQueue     = 64

	DefaultPaginationLimit = 20
)

const (
	LedgerStore  = "store"
	LedgerMemory = "memory"
)
