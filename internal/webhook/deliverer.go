package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	directory "frontdesk/internal/directory/repository"
	"frontdesk/pkg/client"
	apperrors "frontdesk/pkg/errors"
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
)

type AppointmentReader interface {
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
}

type SettingsReader interface {
	Get(ctx context.Context) (*model.Settings, error)
}

// Sender delivers the webhook for one appointment.
type Sender interface {
	Deliver(ctx context.Context, appointmentID string) error
}

// Deliverer posts the appointment webhook configured in app_settings.
type Deliverer struct {
	appointments AppointmentReader
	employees    directory.EmployeeRepository
	settings     SettingsReader
	http         *client.HttpClient
	log          *logger.Logger
	loc          *time.Location
}

func NewDeliverer(
	appointments AppointmentReader,
	employees directory.EmployeeRepository,
	settings SettingsReader,
	http *client.HttpClient,
	log *logger.Logger,
) *Deliverer {
	return &Deliverer{
		appointments: appointments,
		employees:    employees,
		settings:     settings,
		http:         http,
		log:          log.Component("webhook"),
		loc:          time.UTC,
	}
}

// Deliver sends one webhook for appointmentID. An unconfigured webhook is a
// successful no-op. Non-2xx responses and transport errors are DELIVERY_FAILED;
// any failed store lookup is STORE_UNAVAILABLE.
func (d *Deliverer) Deliver(ctx context.Context, appointmentID string) error {
	settings, err := d.settings.Get(ctx)
	if err != nil {
		return apperrors.StoreUnavailable("settings lookup", err)
	}
	if settings.WebhookURL == "" {
		d.log.Debug("Webhook not configured, skipping delivery", "appointment_id", appointmentID)
		return nil
	}

	appointment, err := d.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeInvalidInput) {
			return err
		}
		return apperrors.StoreUnavailable("appointment lookup", err)
	}

	host, err := d.employees.FindByID(ctx, appointment.HostID)
	if err != nil {
		if !errors.Is(err, directory.ErrNotFound) {
			return apperrors.StoreUnavailable("host lookup", err)
		}
		host = nil
	}

	payload := BuildPayload(settings.WebhookFields, appointment, host, d.loc)

	resp, err := d.http.PostJSON(ctx, settings.WebhookURL, payload, nil)
	if err != nil {
		d.log.Warn("Webhook delivery failed", "appointment_id", appointmentID, "error", err)
		return apperrors.DeliveryFailed("Failed to send webhook", err)
	}
	if !resp.IsSuccess() {
		d.log.Warn("Webhook rejected",
			"appointment_id", appointmentID,
			"status", resp.StatusCode,
			"body", string(resp.Body),
		)
		return apperrors.DeliveryFailed(
			fmt.Sprintf("Webhook returned status %d", resp.StatusCode),
			fmt.Errorf("%s", resp.Body),
		)
	}

	d.log.Info("Webhook delivered", "appointment_id", appointmentID, "status", resp.StatusCode)
	return nil
}
