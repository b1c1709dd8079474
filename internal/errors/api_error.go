package errors

import (
	stderrors "errors"
	"net/http"

	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

type APIError struct {
	Status  int         `json:"-"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, code, message string) *APIError {
	return &APIError{
		Status:  status,
		Code:    code,
		Message: message,
	}
}

func Internal(message string) *APIError {
	if message == "" {
		message = "internal server error"
	}
	return New(http.StatusInternalServerError, "internal_error", message)
}

func BadRequest(code, message string) *APIError {
	return New(http.StatusBadRequest, code, message)
}

func Unauthorized(message string) *APIError {
	if message == "" {
		message = "unauthorized"
	}
	return New(http.StatusUnauthorized, "unauthorized", message)
}

func NotFound(code, message string) *APIError {
	return New(http.StatusNotFound, code, message)
}

func Conflict(code, message string, details interface{}) *APIError {
	err := New(http.StatusConflict, code, message)
	err.Details = details
	return err
}

func InsufficientStorage(message string) *APIError {
	return New(http.StatusInsufficientStorage, "quota_exceeded", message)
}

// FromDomain maps store and storage errors to API errors. Unknown errors
// become a 500 without leaking their text.
func FromDomain(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, model.ErrNotFound):
		return NotFound("not_found", err.Error())
	case stderrors.Is(err, model.ErrNameRequired):
		return BadRequest("name_required", err.Error())
	case stderrors.Is(err, model.ErrTitleRequired):
		return BadRequest("title_required", err.Error())
	case stderrors.Is(err, model.ErrInvalidColor):
		return BadRequest("invalid_color", err.Error())
	case stderrors.Is(err, model.ErrInvalidPriority):
		return BadRequest("invalid_priority", err.Error())
	case stderrors.Is(err, model.ErrInvalidEstimate):
		return BadRequest("invalid_estimate", err.Error())
	case stderrors.Is(err, model.ErrDuplicateName):
		return Conflict("duplicate_name", err.Error(), nil)
	}

	switch storage.KindOf(err) {
	case storage.KindQuotaExceeded:
		return InsufficientStorage(err.Error())
	case storage.KindParseError:
		return BadRequest("parse_error", err.Error())
	case storage.KindNotFound:
		return NotFound("not_found", err.Error())
	}
	return Internal("")
}
