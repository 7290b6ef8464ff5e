package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SettingsRepository interface {
	// Get returns the settings row, or defaults when it was never written.
	Get(ctx context.Context) (*model.Settings, error)
	Save(ctx context.Context, settings *model.Settings) error
}

type mongoSettingsRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoSettingsRepository(cfg *config.Config) SettingsRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoSettingsRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionSettings),
	}
}

func (r *mongoSettingsRepository) Get(ctx context.Context) (*model.Settings, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var settings model.Settings
	err := r.collection.FindOne(ctx, bson.M{"_id": model.SettingsID}).Decode(&settings)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.Settings{ID: model.SettingsID, WebhookFields: []string{}}, nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.WebhookFields == nil {
		settings.WebhookFields = []string{}
	}
	return &settings, nil
}

func (r *mongoSettingsRepository) Save(ctx context.Context, settings *model.Settings) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	settings.ID = model.SettingsID
	settings.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": model.SettingsID}, settings, opts); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
