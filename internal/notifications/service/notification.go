package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	directory "frontdesk/internal/directory/repository"
	notificationserrors "frontdesk/internal/notifications/errors"
	"frontdesk/internal/notifications/repository"
	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/model"
)

// RecentLimit is the size of the notifications feed.
const RecentLimit = 20

const bookingTimeLayout = "02/01 15:04"

type NotificationService interface {
	Latest(ctx context.Context, actor model.Actor) ([]*model.Notification, error)
	MarkRead(ctx context.Context, actor model.Actor, id string) error
	AnnounceBooking(ctx context.Context, actor model.Actor, appointment *model.Appointment) error
	NotifyReceptionists(ctx context.Context, template model.Notification) (int, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	employees directory.EmployeeRepository
	cfg       *config.Config
	loc       *time.Location
}

func NewNotificationService(
	repo repository.NotificationRepository,
	employees directory.EmployeeRepository,
	cfg *config.Config,
) NotificationService {
	return &notificationService{
		repo:      repo,
		employees: employees,
		cfg:       cfg,
		loc:       time.Local,
	}
}

func (s *notificationService) Latest(ctx context.Context, actor model.Actor) ([]*model.Notification, error) {
	notifications, err := s.repo.FindRecent(ctx, actor.ID, RecentLimit)
	if err != nil {
		s.cfg.Log.Error("Failed to list notifications", "actor_id", actor.ID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve notifications", err)
	}
	return notifications, nil
}

// MarkRead only succeeds for the recipient of the notification.
func (s *notificationService) MarkRead(ctx context.Context, actor model.Actor, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Notification ID cannot be empty")
	}

	if err := s.repo.MarkRead(ctx, id, actor.ID); err != nil {
		if errors.Is(err, notificationserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Notification", id)
		}
		return apperrors.Internal("Failed to mark notification read", err)
	}
	return nil
}

// AnnounceBooking tells every active receptionist that actor booked appointment.
func (s *notificationService) AnnounceBooking(ctx context.Context, actor model.Actor, appointment *model.Appointment) error {
	name := actor.ID
	if employee, err := s.employees.FindByID(ctx, actor.ID); err == nil && employee.FullName != "" {
		name = employee.FullName
	} else if err != nil && !errors.Is(err, directory.ErrNotFound) {
		s.cfg.Log.Warn("Failed to resolve booking author", "actor_id", actor.ID, "error", err)
	}

	template := model.Notification{
		Type:  model.NotificationAppointment,
		Title: "New meeting booked",
		Content: fmt.Sprintf("%s booked \"%s\" for %s",
			name, appointment.Title, appointment.StartTime.In(s.loc).Format(bookingTimeLayout)),
		RelatedID: appointment.ID,
	}

	count, err := s.fanOut(ctx, template, actor.ID)
	if err != nil {
		return err
	}
	s.cfg.Log.Info("Receptionists notified of booking", "appointment_id", appointment.ID, "recipients", count)
	return nil
}

// NotifyReceptionists stores one copy of template per active receptionist and
// returns how many were written.
func (s *notificationService) NotifyReceptionists(ctx context.Context, template model.Notification) (int, error) {
	return s.fanOut(ctx, template, "")
}

func (s *notificationService) fanOut(ctx context.Context, template model.Notification, exclude string) (int, error) {
	receptionists, err := s.employees.FindActiveByRole(ctx, model.RoleReceptionist)
	if err != nil {
		return 0, apperrors.StoreUnavailable("receptionist lookup", err)
	}

	notifications := make([]*model.Notification, 0, len(receptionists))
	for _, r := range receptionists {
		if r.ID == exclude {
			continue
		}
		n := template
		n.ID = ""
		n.RecipientID = r.ID
		n.Read = false
		notifications = append(notifications, &n)
	}

	if err := s.repo.CreateMany(ctx, notifications); err != nil {
		return 0, apperrors.StoreUnavailable("notification insert", err)
	}
	return len(notifications), nil
}
