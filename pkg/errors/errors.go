package errors

import (
	"net/http"

	"github.com/turnosalud/ts-queue/pkg/status"
)

// ApplicationError carries the HTTP status code and the application status
// constant alongside the message, so handlers can destructure it at the edge.
type ApplicationError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func New(httpStatusCode int, applicationStatus string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         applicationStatus,
		Message:        message,
	}
}

// Destruct returns the underlying ApplicationError, wrapping unknown errors
// as an internal server error.
func Destruct(err error) *ApplicationError {
	if ae, ok := err.(*ApplicationError); ok {
		return ae
	}

	return &ApplicationError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}

// MatchStatus reports whether err is an ApplicationError with the given
// application status.
func MatchStatus(err error, applicationStatus string) bool {
	ae, ok := err.(*ApplicationError)
	if !ok {
		return false
	}

	return ae.Status == applicationStatus
}
