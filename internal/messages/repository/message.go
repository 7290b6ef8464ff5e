package repository

import (
	"context"
	"fmt"
	"time"

	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationLimit caps one page of history.
const ConversationLimit = 200

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindConversation(ctx context.Context, a, b string, limit int) ([]*model.Message, error)
	FindSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Message, error)
}

type mongoMessageRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoMessageRepository(cfg *config.Config) MessageRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoMessageRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionMessages),
	}
}

func (r *mongoMessageRepository) Create(ctx context.Context, message *model.Message) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	message.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// FindConversation returns the latest limit messages between a and b in
// created_at order, oldest first.
func (r *mongoMessageRepository) FindConversation(ctx context.Context, a, b string, limit int) ([]*model.Message, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "recipient_id": b},
		bson.M{"sender_id": b, "recipient_id": a},
	}}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	messages, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// FindSince returns messages addressed to recipientID created at or after since.
func (r *mongoMessageRepository) FindSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Message, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"recipient_id": recipientID,
		"created_at":   bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoMessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Message, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*model.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, nil
}
