package apimodel

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
)

type ErrorMessage struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

func NewErrorMessage(statusCode int, message string) *ErrorMessage {
	if message == "" {
		message = defaultMessage(statusCode)
	}
	return &ErrorMessage{ErrStatusCode: statusCode, ErrMessage: message}
}

func (e *ErrorMessage) Error() string {
	if e.ErrMessage != "" {
		return strconv.Itoa(e.ErrStatusCode) + ":" + e.ErrMessage
	}
	return strconv.Itoa(e.ErrStatusCode)
}

// Send writes the message as the JSON response.
func (e *ErrorMessage) Send(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.ErrStatusCode)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		logrus.Errorf("Unable to encode error message: %v", err)
	}
}

func defaultMessage(statusCode int) string {
	switch statusCode {
	case http.StatusOK:
		return "Ok"
	case http.StatusAccepted:
		return "Accepted"
	case http.StatusNotFound:
		return "Page not found"
	case http.StatusMethodNotAllowed:
		return "Method not allowed"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusServiceUnavailable:
		return "Service unavailable"
	case http.StatusBadRequest:
		return "Bad request"
	default:
		return "Internal error"
	}
}
