package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationserrors "frontdesk/internal/notifications/errors"
	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	CreateMany(ctx context.Context, notifications []*model.Notification) error
	FindByID(ctx context.Context, id string) (*model.Notification, error)
	FindRecent(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error)
	FindSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type mongoNotificationRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoNotificationRepository(cfg *config.Config) NotificationRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoNotificationRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionNotifications),
	}
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	return r.CreateMany(ctx, []*model.Notification{notification})
}

// CreateMany inserts all notifications in one round trip. Ids and timestamps
// are assigned here.
func (r *mongoNotificationRepository) CreateMany(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	docs := make([]any, 0, len(notifications))
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		docs = append(docs, n)
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepository) FindByID(ctx context.Context, id string) (*model.Notification, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", notificationserrors.ErrInvalidID, id)
	}

	var notification model.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&notification); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notificationserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return &notification, nil
}

// FindRecent returns the newest notifications of recipientID, newest first.
func (r *mongoNotificationRepository) FindRecent(ctx context.Context, recipientID string, limit int) ([]*model.Notification, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"recipient_id": recipientID}, opts)
}

// FindSince returns notifications created at or after since, oldest first.
func (r *mongoNotificationRepository) FindSince(ctx context.Context, recipientID string, since time.Time) ([]*model.Notification, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"recipient_id": recipientID,
		"created_at":   bson.M{"$gte": since},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

// MarkRead flips read on a notification owned by recipientID.
func (r *mongoNotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": recipientID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return notificationserrors.ErrNotFound
	}
	return nil
}

func (r *mongoNotificationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Notification, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := make([]*model.Notification, 0)
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}
