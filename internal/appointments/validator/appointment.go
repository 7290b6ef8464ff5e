package validator

import (
	"frontdesk/pkg/logger"
	"frontdesk/pkg/model"
	"frontdesk/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type AppointmentValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewAppointmentValidator(log *logger.Logger) *AppointmentValidator {
	log.Info("Appointment validator initialized successfully")
	return &AppointmentValidator{
		validate: validation.New(),
		logger:   log,
	}
}

// Validate checks field constraints. The interval itself is checked by the
// conflict checker so it can be reported as INVALID_INTERVAL.
func (v *AppointmentValidator) Validate(appointment *model.Appointment) error {
	return validation.Struct(v.validate, appointment)
}

func (v *AppointmentValidator) ValidateUpdate(update *model.AppointmentUpdate) error {
	return validation.Struct(v.validate, update)
}
