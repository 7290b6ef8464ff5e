package main

import (
	"context"

	appointmentHandler "frontdesk/internal/appointments/handler"
	appointmentRepository "frontdesk/internal/appointments/repository"
	appointmentService "frontdesk/internal/appointments/service"
	"frontdesk/internal/appointments/validator"
	directoryRepository "frontdesk/internal/directory/repository"
	"frontdesk/internal/events"
	messageHandler "frontdesk/internal/messages/handler"
	messageRepository "frontdesk/internal/messages/repository"
	messageService "frontdesk/internal/messages/service"
	notificationHandler "frontdesk/internal/notifications/handler"
	notificationRepository "frontdesk/internal/notifications/repository"
	notificationService "frontdesk/internal/notifications/service"
	settingsHandler "frontdesk/internal/settings/handler"
	settingsRepository "frontdesk/internal/settings/repository"
	settingsService "frontdesk/internal/settings/service"
	"frontdesk/internal/webhook"
	"frontdesk/pkg/app"
	"frontdesk/pkg/client"
	"frontdesk/pkg/config"
	"frontdesk/pkg/contracts"
	"frontdesk/pkg/kafka"
	kafka_config "frontdesk/pkg/kafka/config"
	kafka_middleware "frontdesk/pkg/kafka/middleware"
)

const ServiceName = "appointments"

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

	cfg.Log.Info("Starting Appointments service")
	handlers := initHandlers(cfg, producer)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp([]app.Dependency{mongoDependency(cfg)}, handlers...)
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close kafka producer", "error", err)
		}
	})
	serverApp.Run()
}

func initHandlers(cfg *config.Config, publisher kafka.Publisher) []contracts.Handler {
	employeeRepo := directoryRepository.NewMongoEmployeeRepository(cfg)
	notificationRepo := notificationRepository.NewMongoNotificationRepository(cfg)
	notifications := notificationService.NewNotificationService(notificationRepo, employeeRepo, cfg)

	appointmentRepo := appointmentRepository.NewMongoAppointmentRepository(cfg)
	appointments := appointmentService.NewAppointmentService(
		appointmentRepo,
		appointmentRepository.NewHostLockRepository(cfg),
		validator.NewAppointmentValidator(cfg.Log),
		notifications,
		events.NewAppointmentPublisher(publisher, ServiceName),
		cfg,
	)

	settingsRepo := settingsRepository.NewMongoSettingsRepository(cfg)
	settingsCache := settingsService.NewCache(settingsRepo, cfg.SettingsTTL)
	settings := settingsService.NewSettingsService(settingsRepo, settingsCache, cfg)
	deliverer := webhook.NewDeliverer(appointments, employeeRepo, settingsCache, client.NewHttpClient(cfg.WebhookTimeout), cfg.Log)

	messages := messageService.NewMessageService(messageRepository.NewMongoMessageRepository(cfg), cfg)

	cfg.Log.Info("Appointment services initialized", "database", cfg.MongoDatabaseName)
	return []contracts.Handler{
		appointmentHandler.NewAppointmentHandler(appointments, cfg.Log),
		notificationHandler.NewNotificationHandler(notifications, cfg.Log),
		settingsHandler.NewSettingsHandler(settings, deliverer, cfg.Log),
		messageHandler.NewMessageHandler(messages, cfg.Log),
	}
}

func mongoDependency(cfg *config.Config) app.Dependency {
	return app.Dependency{
		Name: "mongo",
		Ping: func(ctx context.Context) error {
			return cfg.Client.Mongo.Ping(ctx, nil)
		},
	}
}
