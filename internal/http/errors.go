package http

import (
	"errors"
	"net/http"

	"kaslot/internal/core"
	"kaslot/internal/store/rest"
)

// errInvalidInput marks form values that could not be parsed.
var errInvalidInput = errors.New("invalid input")

var validationErrors = []error{
	errInvalidInput,
	core.ErrInvalidAmount,
	core.ErrInvalidCurrency,
	core.ErrInvalidMethod,
	core.ErrInvalidDate,
	core.ErrEmptyTitle,
	core.ErrEmptyName,
	core.ErrEmptyRole,
	core.ErrMissingSupplier,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorStatus maps a backend or validation error to an HTTP status.
func errorStatus(err error) int {
	var apiErr *rest.APIError
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrDuplicateParticipant):
		return http.StatusConflict
	case isValidation(err):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// userMessage is the Hebrew text shown for a failed action. Upstream
// messages are passed through when the backend sent one.
func userMessage(err error) string {
	var apiErr *rest.APIError
	hasAPIMessage := errors.As(err, &apiErr) && apiErr.Message != ""

	switch {
	case errors.Is(err, core.ErrDuplicateParticipant):
		if hasAPIMessage {
			return apiErr.Message
		}
		return "הספק כבר משתתף באירוע"
	case errors.Is(err, core.ErrNotFound):
		return "הרשומה לא נמצאה"
	case errors.Is(err, core.ErrInvalidAmount):
		return "סכום לא תקין"
	case errors.Is(err, core.ErrInvalidCurrency):
		return "מטבע לא תקין"
	case errors.Is(err, core.ErrInvalidMethod):
		return "אמצעי תשלום לא תקין"
	case errors.Is(err, core.ErrInvalidDate):
		return "תאריך לא תקין"
	case errors.Is(err, core.ErrEmptyTitle):
		return "נדרש שם אירוע"
	case errors.Is(err, core.ErrEmptyName):
		return "נדרש שם"
	case errors.Is(err, core.ErrEmptyRole):
		return "נדרש תפקיד"
	case errors.Is(err, core.ErrMissingSupplier):
		return "יש לבחור ספק"
	case isValidation(err):
		return "נתונים לא תקינים"
	case hasAPIMessage:
		return apiErr.Message
	default:
		return "הפעולה נכשלה, נסו שוב"
	}
}

// participantAlert is the blocking alert text for a failed participant add
// or update: the backend's message, or a generic fallback.
func participantAlert(err error) string {
	var apiErr *rest.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if isValidation(err) || errors.Is(err, core.ErrDuplicateParticipant) {
		return userMessage(err)
	}
	return "Error adding/updating supplier"
}
