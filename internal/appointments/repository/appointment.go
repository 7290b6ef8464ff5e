package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "frontdesk/internal/appointments/errors"
	"frontdesk/pkg/config"
	mongodb "frontdesk/pkg/db/mongo"
	"frontdesk/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Watermark fields written once per appointment by the background sweeps.
const (
	FieldStartedNotifiedAt = "started_notified_at"
	FieldEndedNotifiedAt   = "ended_notified_at"
	FieldRemindedAt        = "reminded_at"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	FindByID(ctx context.Context, id string) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment, rescheduled bool) error
	Delete(ctx context.Context, id string) error
	FindOverlapping(ctx context.Context, hostID string, start, end time.Time, excludeID string, limit int) ([]*model.Appointment, error)
	FindByHost(ctx context.Context, hostID string, from, to time.Time) ([]*model.Appointment, error)
	FindActive(ctx context.Context, hostID string, at time.Time) (*model.Appointment, error)
	FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
	FindEndingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error)
	MarkOnce(ctx context.Context, id, field string, at time.Time) error
	ClearMark(ctx context.Context, id, field string) error
	ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error
}

type mongoAppointmentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongodb.TransactionManager
}

func NewMongoAppointmentRepository(cfg *config.Config) AppointmentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoAppointmentRepository{
		cfg:        cfg,
		collection: db.Collection(mongodb.CollectionAppointments),
		txManager:  mongodb.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoAppointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	appointment.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if _, err := r.collection.InsertOne(ctx, appointment); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *mongoAppointmentRepository) FindByID(ctx context.Context, id string) (*model.Appointment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return nil, err
	}

	var appointment model.Appointment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment: %w", err)
	}
	return &appointment, nil
}

// Update replaces the mutable fields. A rescheduled appointment owes its
// lifecycle notifications again, so its watermarks are cleared.
func (r *mongoAppointmentRepository) Update(ctx context.Context, appointment *model.Appointment, rescheduled bool) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(appointment.ID); err != nil {
		return err
	}

	set := bson.M{
		"host_id":     appointment.HostID,
		"title":       appointment.Title,
		"description": appointment.Description,
		"start_time":  appointment.StartTime,
		"end_time":    appointment.EndTime,
		"type":        appointment.Type,
		"guest_name":  appointment.GuestName,
	}
	update := bson.M{"$set": set}
	if rescheduled {
		update["$unset"] = bson.M{
			FieldStartedNotifiedAt: "",
			FieldEndedNotifiedAt:   "",
			FieldRemindedAt:        "",
		}
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": appointment.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	if result.MatchedCount == 0 {
		return appointmentserrors.ErrNotFound
	}
	return nil
}

func (r *mongoAppointmentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if err := validateID(id); err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if result.DeletedCount == 0 {
		return appointmentserrors.ErrNotFound
	}
	return nil
}

// FindOverlapping returns appointments of hostID intersecting [start, end),
// ordered by start_time.
func (r *mongoAppointmentRepository) FindOverlapping(ctx context.Context, hostID string, start, end time.Time, excludeID string, limit int) ([]*model.Appointment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"host_id":    hostID,
		"start_time": bson.M{"$lt": end},
		"end_time":   bson.M{"$gt": start},
	}
	if excludeID != "" {
		filter["_id"] = bson.M{"$ne": excludeID}
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *mongoAppointmentRepository) FindByHost(ctx context.Context, hostID string, from, to time.Time) ([]*model.Appointment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"host_id":    hostID,
		"start_time": bson.M{"$lt": to},
		"end_time":   bson.M{"$gt": from},
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoAppointmentRepository) FindActive(ctx context.Context, hostID string, at time.Time) (*model.Appointment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"host_id":    hostID,
		"start_time": bson.M{"$lte": at},
		"end_time":   bson.M{"$gt": at},
	}

	var appointment model.Appointment
	err := r.collection.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "start_time", Value: 1}})).Decode(&appointment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appointmentserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find active appointment: %w", err)
	}
	return &appointment, nil
}

// FindStartingBetween returns appointments with start_time in [from, to].
func (r *mongoAppointmentRepository) FindStartingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return r.findBoundaryBetween(ctx, "start_time", from, to)
}

// FindEndingBetween returns appointments with end_time in [from, to].
func (r *mongoAppointmentRepository) FindEndingBetween(ctx context.Context, from, to time.Time) ([]*model.Appointment, error) {
	return r.findBoundaryBetween(ctx, "end_time", from, to)
}

func (r *mongoAppointmentRepository) findBoundaryBetween(ctx context.Context, field string, from, to time.Time) ([]*model.Appointment, error) {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{field: bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{{Key: field, Value: 1}})
	return r.find(ctx, filter, opts)
}

// MarkOnce sets field to at only if it is unset. It returns ErrAlreadyMarked
// when another sweep got there first.
func (r *mongoAppointmentRepository) MarkOnce(ctx context.Context, id, field string, at time.Time) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"_id": id,
		field: bson.M{"$exists": false},
	}
	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": bson.M{field: at}})
	if err != nil {
		return fmt.Errorf("failed to mark appointment %s: %w", field, err)
	}
	if result.ModifiedCount == 0 {
		return appointmentserrors.ErrAlreadyMarked
	}
	return nil
}

func (r *mongoAppointmentRepository) ClearMark(ctx context.Context, id, field string) error {
	ctx, cancel := mongodb.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$unset": bson.M{field: ""}}); err != nil {
		return fmt.Errorf("failed to clear appointment %s: %w", field, err)
	}
	return nil
}

func (r *mongoAppointmentRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

func (r *mongoAppointmentRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.Appointment, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find appointments: %w", err)
	}
	defer cursor.Close(ctx)

	appointments := make([]*model.Appointment, 0)
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", appointmentserrors.ErrInvalidID, id)
	}
	return nil
}
