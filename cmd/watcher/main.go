package main

import (
	"context"

	appointmentRepository "frontdesk/internal/appointments/repository"
	appointmentService "frontdesk/internal/appointments/service"
	"frontdesk/internal/appointments/validator"
	directoryRepository "frontdesk/internal/directory/repository"
	"frontdesk/internal/events"
	notificationRepository "frontdesk/internal/notifications/repository"
	notificationService "frontdesk/internal/notifications/service"
	"frontdesk/internal/reminders"
	settingsRepository "frontdesk/internal/settings/repository"
	settingsService "frontdesk/internal/settings/service"
	"frontdesk/internal/watcher"
	"frontdesk/internal/webhook"
	"frontdesk/pkg/app"
	"frontdesk/pkg/client"
	"frontdesk/pkg/config"
	"frontdesk/pkg/kafka"
	kafka_config "frontdesk/pkg/kafka/config"
	kafka_middleware "frontdesk/pkg/kafka/middleware"
)

const ServiceName = "watcher"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	kcfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid kafka configuration", "error", err)
	}
	kcfg.LogConfiguration(cfg.Log)
	producer, err := kafka.NewProducer(kcfg, cfg.Log, kcfg.AppointmentEventsTopic, kcfg.AppointmentEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka producer", "error", err)
	}
	if kcfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Starting Watcher service", "ledger", cfg.WatchLedger)
	appointmentRepo := appointmentRepository.NewMongoAppointmentRepository(cfg)
	employeeRepo := directoryRepository.NewMongoEmployeeRepository(cfg)
	notifications := notificationService.NewNotificationService(
		notificationRepository.NewMongoNotificationRepository(cfg), employeeRepo, cfg)
	publisher := events.NewAppointmentPublisher(producer, ServiceName)
	appointments := appointmentService.NewAppointmentService(
		appointmentRepo,
		appointmentRepository.NewHostLockRepository(cfg),
		validator.NewAppointmentValidator(cfg.Log),
		notifications,
		publisher,
		cfg,
	)

	settingsCache := settingsService.NewCache(settingsRepository.NewMongoSettingsRepository(cfg), cfg.SettingsTTL)
	deliverer := webhook.NewDeliverer(appointments, employeeRepo, settingsCache, client.NewHttpClient(cfg.WebhookTimeout), cfg.Log)

	consumer, err := kafka.NewConsumer(kcfg, cfg.Log, kcfg.AppointmentEventsTopic, kcfg.WebhookConsumerGroup,
		kcfg.AppointmentEventsDLQTopic, webhook.BookingHandler(deliverer, cfg.Log))
	if err != nil {
		cfg.Log.Fatal("Failed to create kafka consumer", "error", err)
	}
	if kcfg.EnableMiddleware {
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	}

	ledger := newLedger(cfg, appointmentRepo)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp([]app.Dependency{mongoDependency(cfg)})
	serverApp.AddWorker(watcher.New(appointmentRepo, ledger, notifications, publisher, cfg))
	serverApp.AddWorker(reminders.NewDispatcher(appointmentRepo, ledger, deliverer, publisher, cfg))
	serverApp.AddWorker(consumer)
	serverApp.OnShutdown(func() {
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka consumer", "error", err)
		}
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka producer", "error", err)
		}
	})
	serverApp.Run()
}

// newLedger keeps the boundary watermarks in Mongo unless the deployment asks
// for the single-process in-memory ledger.
func newLedger(cfg *config.Config, marker watcher.Marker) watcher.Ledger {
	if cfg.WatchLedger == config.LedgerMemory {
		return watcher.NewMemoryLedger(cfg.WatchDedupBound)
	}
	return watcher.NewStoreLedger(marker)
}

func mongoDependency(cfg *config.Config) app.Dependency {
	return app.Dependency{
		Name: "mongo",
		Ping: func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		},
	}
}
