package service

import (
	"context"
	"time"

	"frontdesk/internal/appointments/repository"
	apperrors "frontdesk/pkg/errors"
)

// Check is the result of a conflict query. ConflictingID names one appointment
// that genuinely overlaps; which one is not guaranteed beyond start_time order.
type Check struct {
	Conflicting   bool
	ConflictingID string
}

type ConflictChecker struct {
	repo repository.AppointmentRepository
}

func NewConflictChecker(repo repository.AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{repo: repo}
}

// CheckConflict reports whether [start, end) overlaps another appointment of
// hostID. excludeID, when set, is left out of the comparison. It is read-only.
func (c *ConflictChecker) CheckConflict(ctx context.Context, hostID string, start, end time.Time, excludeID string) (Check, error) {
	if err := validateInterval(start, end); err != nil {
		return Check{}, err
	}

	overlapping, err := c.repo.FindOverlapping(ctx, hostID, start, end, excludeID, 1)
	if err != nil {
		return Check{}, apperrors.StoreUnavailable("conflict check", err)
	}
	if len(overlapping) == 0 {
		return Check{}, nil
	}
	return Check{Conflicting: true, ConflictingID: overlapping[0].ID}, nil
}

func validateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return apperrors.InvalidInterval(start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}
