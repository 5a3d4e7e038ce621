package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// Error codes reported to clients.
const (
	CodeSocketError  = "SOCKET_ERROR"
	CodeBadPayload   = "BAD_PAYLOAD"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnknownEvent = "UNKNOWN_EVENT"
)

// EventError is a handler failure with a client-visible code.
type EventError struct {
	Code    string
	Message string
}

// Error implements the error interface.
func (e *EventError) Error() string {
	return e.Message
}

// NewEventError creates an EventError.
func NewEventError(code, message string) *EventError {
	return &EventError{Code: code, Message: message}
}

// handlerFunc processes one inbound event payload.
type handlerFunc func(payload json.RawMessage) error

// wrapHandler decorates a handler so that no failure escapes it: errors and
// panics are logged with connection context and reported back to the
// originating connection only, as a structured error event. Other
// connections are unaffected and the connection stays open.
func wrapHandler(hub *Hub, clientID, event string, fn handlerFunc) func(json.RawMessage) {
	return func(payload json.RawMessage) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[gateway] Panic in %s handler (client %s): %v", event, clientID, r)
				hub.EmitError(clientID, "internal server error", CodeSocketError)
			}
		}()

		if err := fn(payload); err != nil {
			log.Printf("[gateway] Error in %s handler (client %s): %v", event, clientID, err)

			var evErr *EventError
			if errors.As(err, &evErr) {
				hub.EmitError(clientID, evErr.Message, evErr.Code)
				return
			}
			hub.EmitError(clientID, fmt.Sprintf("failed to handle %s", event), CodeSocketError)
		}
	}
}
