package http

import (
	"net/http"
	"strconv"
	"time"

	"frontdesk/pkg/config"
	apperrors "frontdesk/pkg/errors"
)

const DateLayout = "2006-01-02"

func ExtractLimit(r *http.Request) (int, error) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}
	return config.NormalizePaginationLimit(limit), nil
}

// ExtractTime parses an RFC3339 query parameter. A missing parameter yields fallback.
func ExtractTime(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return t, nil
}

// ExtractDay returns [00:00, 24:00) of the YYYY-MM-DD day in the "date"
// parameter, interpreted in loc. Without the parameter the day of now is used.
func ExtractDay(r *http.Request, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	day := now.In(loc)
	if s := r.URL.Query().Get("date"); s != "" {
		parsed, err := time.ParseInLocation(DateLayout, s, loc)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid date parameter: " + s)
		}
		day = parsed
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1), nil
}
