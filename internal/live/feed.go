package live

import (
	"context"
	"errors"
	"fmt"

	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var errStreamClosed = errors.New("change stream closed")

// ChangeFeed opens a subscription to the inserts addressed to one recipient.
type ChangeFeed interface {
	Subscribe(ctx context.Context, recipientID string) (Stream, error)
}

// Stream yields events until it fails or ctx ends. Close must always be
// called to deregister the subscription.
type Stream interface {
	Next(ctx context.Context) (Event, error)
	Close(ctx context.Context) error
}

type mongoChangeFeed struct {
	db *mongo.Database
}

// NewMongoChangeFeed watches the messages and notifications collections with
// a single database change stream.
func NewMongoChangeFeed(cfg *config.Config) ChangeFeed {
	return &mongoChangeFeed{db: cfg.Client.Mongo.Database(cfg.MongoDatabaseName)}
}

func feedPipeline(recipientID string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":             "insert",
			"ns.coll":                   bson.M{"$in": []string{mongodb.CollectionMessages, mongodb.CollectionNotifications}},
			"fullDocument.recipient_id": recipientID,
		}}},
	}
}

func (f *mongoChangeFeed) Subscribe(ctx context.Context, recipientID string) (Stream, error) {
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	cs, err := f.db.Watch(ctx, feedPipeline(recipientID), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}
	return &mongoStream{cs: cs}, nil
}

type changeEvent struct {
	NS struct {
		Coll string `bson:"coll"`
	} `bson:"ns"`
	FullDocument bson.Raw `bson:"fullDocument"`
}

type mongoStream struct {
	cs *mongo.ChangeStream
}

func (s *mongoStream) Next(ctx context.Context) (Event, error) {
	for s.cs.Next(ctx) {
		var change changeEvent
		if err := s.cs.Decode(&change); err != nil {
			return Event{}, fmt.Errorf("failed to decode change event: %w", err)
		}
		event, ok, err := decodeChange(change)
		if err != nil {
			return Event{}, err
		}
		if ok {
			return event, nil
		}
	}
	if err := s.cs.Err(); err != nil {
		return Event{}, err
	}
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, errStreamClosed
}

func (s *mongoStream) Close(ctx context.Context) error {
	return s.cs.Close(ctx)
}

func decodeChange(change changeEvent) (Event, bool, error) {
	switch change.NS.Coll {
	case mongodb.CollectionMessages:
		var m model.Message
		if err := bson.Unmarshal(change.FullDocument, &m); err != nil {
			return Event{}, false, fmt.Errorf("failed to decode message: %w", err)
		}
		return MessageEvent(&m), true, nil
	case mongodb.CollectionNotifications:
		var n model.Notification
		if err := bson.Unmarshal(change.FullDocument, &n); err != nil {
			return Event{}, false, fmt.Errorf("failed to decode notification: %w", err)
		}
		return NotificationEvent(&n), true, nil
	default:
		return Event{}, false, nil
	}
}
