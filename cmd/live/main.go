package main

import (
	"context"

	"frontdesk/internal/live"
	messageHandler "frontdesk/internal/messages/handler"
	messageRepository "frontdesk/internal/messages/repository"
	messageService "frontdesk/internal/messages/service"
	notificationRepository "frontdesk/internal/notifications/repository"
	"frontdesk/internal/presence"
	"frontdesk/pkg/app"
	"frontdesk/pkg/config"
)

const ServiceName = "live"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Live service", "presence_channel", cfg.PresenceChannel)
	messageRepo := messageRepository.NewMongoMessageRepository(cfg)
	messages := messageService.NewMessageService(messageRepo, cfg)
	history := live.NewRepositoryHistory(messageRepo, notificationRepository.NewMongoNotificationRepository(cfg))

	tracker := presence.NewTracker(presence.StaleAfter)
	broadcaster := presence.NewBroadcaster(cfg.Client.Redis, tracker, cfg)
	gateway := live.NewGateway(live.NewMongoChangeFeed(cfg), history, messages, broadcaster, cfg)
	tracker.OnChange(gateway.BroadcastPresence)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		[]app.Dependency{
			{Name: "mongo", Ping: func(ctx context.Context) error { return cfg.Client.Mongo.Ping(ctx, nil) }},
			{Name: "redis", Ping: func(ctx context.Context) error { return cfg.Client.Redis.Ping(ctx).Err() }},
		},
		gateway,
		presence.NewPresenceHandler(tracker, cfg.Log),
		messageHandler.NewMessageHandler(messages, cfg.Log),
	)
	serverApp.AddWorker(broadcaster)
	serverApp.OnShutdown(gateway.Close)
	serverApp.Run()
}
