package mongo

import (
	"context"
	"fmt"

	"frontdesk/internal/migrations/mongo/validators"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	AppointmentsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "host_id", Value: 1}, {Key: "end_time", Value: 1}}},
		{Keys: bson.D{{Key: "start_time", Value: 1}}},
		{Keys: bson.D{{Key: "end_time", Value: 1}}},
	}

	NotificationsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	MessagesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	EmployeesIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "account_status", Value: 1}, {Key: "full_name", Value: 1}}},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	// Host lock rows are unique by _id (one per host); expired rows are
	// removed by the TTL monitor.
	HostLocksIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	}
)

type CollectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func Collections() map[string]CollectionDef {
	return map[string]CollectionDef{
		mongodb.CollectionAppointments:  {Indexes: AppointmentsIndexes, Validator: validators.AppointmentValidator},
		mongodb.CollectionNotifications: {Indexes: NotificationsIndexes, Validator: validators.NotificationValidator},
		mongodb.CollectionMessages:      {Indexes: MessagesIndexes, Validator: validators.MessageValidator},
		mongodb.CollectionEmployees:     {Indexes: EmployeesIndexes, Validator: validators.EmployeeValidator},
		mongodb.CollectionHostLocks:     {Indexes: HostLocksIndexes, Validator: validators.HostLockValidator},
		mongodb.CollectionSettings:      {Validator: validators.SettingsValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for name, def := range Collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
	}

	log.Info("All migrations applied")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
