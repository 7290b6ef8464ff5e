package http

import (
	"encoding/json"
	"net/http"

	apperrors "frontdesk/pkg/errors"
)

type ErrorResponse struct {
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

type SuccessResponse struct {
	Data any `json:"data,omitempty"`
}

type ListResponse struct {
	Data  any `json:"data"`
	Count int `json:"count"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError renders err with the status carried by its AppError. Errors that
// are not AppErrors are reported as internal without leaking their text.
func WriteError(w http.ResponseWriter, err error) error {
	appErr := apperrors.AsAppError(err)

	errResp := ErrorResponse{
		Code:    appErr.Code,
		Error:   appErr.Message,
		Details: appErr.Details,
	}
	if appErr.Code == apperrors.CodeInternal {
		errResp.Error = "Internal server error"
		errResp.Details = nil
	}

	return WriteJSON(w, appErr.StatusCode(), errResp)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Data: data})
}

func WriteNoContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func WriteList(w http.ResponseWriter, data any, count int) error {
	return WriteJSON(w, http.StatusOK, ListResponse{
		Data:  data,
		Count: count,
	})
}
