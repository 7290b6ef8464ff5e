package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	appointmentserrors "frontdesk/internal/appointments/errors"
	"frontdesk/internal/appointments/repository"
	"frontdesk/internal/appointments/validator"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/model"
	"frontdesk/pkg/sanitizer"
	"frontdesk/pkg/validation"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// Outcome is the result of a serialized check-and-commit.
type Outcome int

const (
	OutcomeBooked Outcome = iota
	OutcomeConflict
	// OutcomeStale means another booking for the same host held the lock.
	// The caller may retry.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeBooked:
		return "booked"
	case OutcomeConflict:
		return "conflict"
	case OutcomeStale:
		return "stale"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Notifier announces bookings made by non-receptionists to the front desk.
type Notifier interface {
	AnnounceBooking(ctx context.Context, actor model.Actor, appointment *model.Appointment) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event *model.AppointmentEvent) error
}

type AppointmentService interface {
	Book(ctx context.Context, actor model.Actor, appointment *model.Appointment) error
	Edit(ctx context.Context, actor model.Actor, id string, update *model.AppointmentUpdate) (*model.Appointment, error)
	Delete(ctx context.Context, actor model.Actor, id string) error
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	ListByHost(ctx context.Context, hostID string, from, to time.Time) ([]*model.Appointment, error)
	ActiveForHost(ctx context.Context, hostID string, at time.Time) (*model.Appointment, error)
	CheckConflict(ctx context.Context, hostID string, start, end time.Time, excludeID string) (Check, error)
}

type appointmentService struct {
	repo      repository.AppointmentRepository
	lockRepo  repository.HostLockRepository
	checker   *ConflictChecker
	validator *validator.AppointmentValidator
	notifier  Notifier
	events    EventPublisher
	cfg       *config.Config
	now       func() time.Time
}

func NewAppointmentService(
	repo repository.AppointmentRepository,
	lockRepo repository.HostLockRepository,
	validator *validator.AppointmentValidator,
	notifier Notifier,
	events EventPublisher,
	cfg *config.Config,
) AppointmentService {
	return &appointmentService{
		repo:      repo,
		lockRepo:  lockRepo,
		checker:   NewConflictChecker(repo),
		validator: validator,
		notifier:  notifier,
		events:    events,
		cfg:       cfg,
		now:       time.Now,
	}
}

var errConflictAbort = errors.New("conflicting appointment found")

func (s *appointmentService) Book(ctx context.Context, actor model.Actor, appointment *model.Appointment) error {
	if err := validateInterval(appointment.StartTime, appointment.EndTime); err != nil {
		return err
	}
	if appointment.HostID == "" {
		appointment.HostID = actor.ID
	}
	if !canActFor(actor, appointment.HostID) {
		return apperrors.Forbidden("Employees can only book appointments on their own calendar")
	}

	appointment.ID = ""
	appointment.CreatedBy = actor.ID
	s.sanitize(appointment)
	if err := s.validate(appointment); err != nil {
		return err
	}

	outcome, check, err := s.commit(ctx, appointment, "", func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, appointment); err != nil {
			return apperrors.Internal("Failed to create appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to book appointment", "host_id", appointment.HostID, "error", err)
		return err
	}
	if err := outcomeError(outcome, check); err != nil {
		s.cfg.Log.Warn("Appointment booking rejected",
			"host_id", appointment.HostID,
			"outcome", outcome.String(),
			"conflicting_id", check.ConflictingID,
		)
		return err
	}

	s.cfg.Log.Info("Appointment booked successfully",
		"appointment_id", appointment.ID,
		"host_id", appointment.HostID,
		"actor_id", actor.ID,
		"start_time", appointment.StartTime,
	)

	if !actor.IsReceptionist() && s.notifier != nil {
		if err := s.notifier.AnnounceBooking(ctx, actor, appointment); err != nil {
			s.cfg.Log.Warn("Failed to notify receptionists of booking", "appointment_id", appointment.ID, "error", err)
		}
	}
	s.publish(ctx, model.EventAppointmentBooked, actor, appointment)
	return nil
}

func (s *appointmentService) Edit(ctx context.Context, actor model.Actor, id string, update *model.AppointmentUpdate) (*model.Appointment, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(actor, existing) {
		return nil, apperrors.Forbidden("Not allowed to modify this appointment")
	}
	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Appointment update validation failed", "appointment_id", id, "error", err)
		return nil, validationError(err)
	}

	merged := update.Apply(existing)
	if err := validateInterval(merged.StartTime, merged.EndTime); err != nil {
		return nil, err
	}
	if !canActFor(actor, merged.HostID) {
		return nil, apperrors.Forbidden("Employees can only book appointments on their own calendar")
	}
	s.sanitize(merged)
	if err := s.validate(merged); err != nil {
		return nil, err
	}

	rescheduled := !merged.StartTime.Equal(existing.StartTime) ||
		!merged.EndTime.Equal(existing.EndTime) ||
		merged.HostID != existing.HostID

	outcome, check, err := s.commit(ctx, merged, id, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Update(sessCtx, merged, rescheduled); err != nil {
			if errors.Is(err, appointmentserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Appointment", id)
			}
			return apperrors.Internal("Failed to update appointment", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update appointment", "appointment_id", id, "error", err)
		return nil, err
	}
	if err := outcomeError(outcome, check); err != nil {
		s.cfg.Log.Warn("Appointment update rejected",
			"appointment_id", id,
			"outcome", outcome.String(),
			"conflicting_id", check.ConflictingID,
		)
		return nil, err
	}
	if rescheduled {
		merged.StartedNotifiedAt = nil
		merged.EndedNotifiedAt = nil
		merged.RemindedAt = nil
	}

	s.cfg.Log.Info("Appointment updated successfully", "appointment_id", id, "rescheduled", rescheduled)
	s.publish(ctx, model.EventAppointmentUpdated, actor, merged)
	return merged, nil
}

// Delete removes the appointment without any conflict logic.
func (s *appointmentService) Delete(ctx context.Context, actor model.Actor, id string) error {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canEdit(actor, existing) {
		return apperrors.Forbidden("Not allowed to delete this appointment")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Appointment", id)
		}
		s.cfg.Log.Error("Failed to delete appointment", "appointment_id", id, "error", err)
		return apperrors.Internal("Failed to delete appointment", err)
	}

	s.cfg.Log.Info("Appointment deleted successfully", "appointment_id", id, "actor_id", actor.ID)
	s.publish(ctx, model.EventAppointmentDeleted, actor, existing)
	return nil
}

func (s *appointmentService) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Appointment ID cannot be empty")
	}

	appointment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Appointment", id)
		}
		if errors.Is(err, appointmentserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid appointment ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve appointment", err)
	}
	return appointment, nil
}

func (s *appointmentService) ListByHost(ctx context.Context, hostID string, from, to time.Time) ([]*model.Appointment, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("Host ID cannot be empty")
	}
	if !to.After(from) {
		return nil, apperrors.InvalidInterval(from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	appointments, err := s.repo.FindByHost(ctx, hostID, from, to)
	if err != nil {
		s.cfg.Log.Error("Failed to list host appointments", "host_id", hostID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve appointments", err)
	}
	return appointments, nil
}

// ActiveForHost returns the appointment hostID is in at the given instant, or
// nil when the host is free.
func (s *appointmentService) ActiveForHost(ctx context.Context, hostID string, at time.Time) (*model.Appointment, error) {
	if hostID == "" {
		return nil, apperrors.InvalidInput("Host ID cannot be empty")
	}

	appointment, err := s.repo.FindActive(ctx, hostID, at)
	if err != nil {
		if errors.Is(err, appointmentserrors.ErrNotFound) {
			return nil, nil
		}
		return nil, apperrors.Internal("Failed to retrieve active appointment", err)
	}
	return appointment, nil
}

func (s *appointmentService) CheckConflict(ctx context.Context, hostID string, start, end time.Time, excludeID string) (Check, error) {
	return s.checker.CheckConflict(ctx, hostID, start, end, excludeID)
}

// commit runs the conflict check and write under the host lock and inside one
// transaction. A non-nil error means neither Conflict nor Stale applied and the
// write did not happen.
func (s *appointmentService) commit(ctx context.Context, appointment *model.Appointment, excludeID string, write func(mongo.SessionContext) error) (Outcome, Check, error) {
	hostID := appointment.HostID
	owner := uuid.NewString()

	// The lease starts before Acquire so the whole critical section ends
	// inside the lock's TTL, even when the request deadline is longer.
	leaseCtx, cancel := context.WithTimeout(ctx, s.cfg.HostLockLease())
	defer cancel()

	if err := s.lockRepo.Acquire(leaseCtx, hostID, owner, s.cfg.HostLockTTL); err != nil {
		if errors.Is(err, appointmentserrors.ErrLockHeld) {
			return OutcomeStale, Check{}, nil
		}
		return OutcomeStale, Check{}, apperrors.StoreUnavailable("host lock", err)
	}
	defer func() {
		if err := s.lockRepo.Release(context.WithoutCancel(ctx), hostID, owner); err != nil {
			s.cfg.Log.Warn("Failed to release host lock", "host_id", hostID, "error", err)
		}
	}()

	var check Check
	err := s.repo.ExecuteTransaction(leaseCtx, func(sessCtx mongo.SessionContext) error {
		var err error
		check, err = s.checker.CheckConflict(sessCtx, hostID, appointment.StartTime, appointment.EndTime, excludeID)
		if err != nil {
			return err
		}
		if check.Conflicting {
			return errConflictAbort
		}
		return write(sessCtx)
	})
	if errors.Is(err, errConflictAbort) {
		return OutcomeConflict, check, nil
	}
	if err != nil && leaseCtx.Err() != nil && ctx.Err() == nil {
		return OutcomeBooked, check, apperrors.StoreUnavailable("booking transaction within host lock lease", err)
	}
	if err != nil {
		return OutcomeBooked, check, err
	}
	return OutcomeBooked, check, nil
}

func outcomeError(outcome Outcome, check Check) error {
	switch outcome {
	case OutcomeConflict:
		return apperrors.Conflict("Host already has an appointment in this interval", check.ConflictingID)
	case OutcomeStale:
		return apperrors.Stale("Another booking for this host is in progress, please retry")
	default:
		return nil
	}
}

func (s *appointmentService) publish(ctx context.Context, eventType string, actor model.Actor, appointment *model.Appointment) {
	if s.events == nil {
		return
	}
	event := &model.AppointmentEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		AppointmentID: appointment.ID,
		HostID:        appointment.HostID,
		ActorID:       actor.ID,
		ActorRole:     actor.Role,
		Appointment:   appointment,
		OccurredAt:    s.now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish appointment event",
			"event_type", eventType,
			"appointment_id", appointment.ID,
			"error", err,
		)
	}
}

func (s *appointmentService) sanitize(a *model.Appointment) {
	a.Title = sanitizer.NormalizeTitle(a.Title)
	a.Description = sanitizer.NormalizeMultiline(a.Description)
	a.Type = sanitizer.NormalizeKey(a.Type)
	a.GuestName = sanitizer.NormalizeName(a.GuestName)
	if a.Type != model.AppointmentExternal {
		a.GuestName = ""
	}
}

func (s *appointmentService) validate(a *model.Appointment) error {
	if err := s.validator.Validate(a); err != nil {
		s.cfg.Log.Warn("Appointment validation failed", "host_id", a.HostID, "error", err)
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation("Invalid appointment input", verrs.Details())
	}
	return apperrors.Validation("Invalid appointment input", map[string]any{"error": err.Error()})
}

// canActFor reports whether actor may place appointments on hostID's calendar.
func canActFor(actor model.Actor, hostID string) bool {
	return actor.IsReceptionist() || actor.IsAdmin() || actor.ID == hostID
}

func canEdit(actor model.Actor, a *model.Appointment) bool {
	return actor.IsReceptionist() || actor.IsAdmin() || actor.ID == a.HostID || actor.ID == a.CreatedBy
}
