package repository

import (
	"context"
	"fmt"
	"time"

	appointmentserrors "frontdesk/internal/appointments/errors"
	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// HostLockRepository serializes booking writes per host with one lock row per host.
type HostLockRepository interface {
	Acquire(ctx context.Context, hostID, owner string, ttl time.Duration) error
	Release(ctx context.Context, hostID, owner string) error
}

type mongoHostLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	now        func() time.Time
}

func NewHostLockRepository(cfg *config.Config) HostLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoHostLockRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionHostLocks),
		now:        time.Now,
	}
}

func HostLockID(hostID string) string {
	return "host_lock_" + hostID
}

// Acquire inserts the host's lock row. A live row owned by someone else yields
// ErrLockHeld. Expired rows are reclaimed here because the TTL monitor only
// runs about once a minute.
func (r *mongoHostLockRepository) Acquire(ctx context.Context, hostID, owner string, ttl time.Duration) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := r.now().UTC()
	lockID := HostLockID(hostID)

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "expires_at": bson.M{"$lte": now}}); err != nil {
		return fmt.Errorf("failed to reclaim expired host lock: %w", err)
	}

	lock := &model.HostLock{
		ID:        lockID,
		Owner:     owner,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appointmentserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire host lock: %w", err)
	}
	return nil
}

// Release deletes the lock only if owner still holds it.
func (r *mongoHostLockRepository) Release(ctx context.Context, hostID, owner string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": HostLockID(hostID), "owner": owner})
	if err != nil {
		return fmt.Errorf("failed to release host lock: %w", err)
	}
	return nil
}
