package event

import (
	"time"

	"github.com/google/uuid"
)

// Event is something a screen controller did that other parts of the
// application (the session inbox, the request log) want to hear about.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Source    string         `json:"source"`
	Level     Level          `json:"level,omitempty"`
	Message   string         `json:"message,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an event with a fresh ID and timestamp
func NewEvent(eventType Type, source string, payload map[string]any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// Success creates a success notice
func Success(source, message string) *Event {
	evt := NewEvent(TypeNotice, source, nil)
	evt.Level = LevelSuccess
	evt.Message = message
	return evt
}

// Failure creates an error notice
func Failure(source, message string) *Event {
	evt := NewEvent(TypeNotice, source, nil)
	evt.Level = LevelError
	evt.Message = message
	return evt
}

// WithPayload returns a copy of the event with key set in its payload
func (e *Event) WithPayload(key string, value any) *Event {
	payload := make(map[string]any, len(e.Payload)+1)
	for k, v := range e.Payload {
		payload[k] = v
	}
	payload[key] = value

	cp := *e
	cp.Payload = payload
	return &cp
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if s, ok := e.Payload[key].(string); ok {
		return s
	}
	return ""
}

// IsNotice reports whether the event is a user-facing message
func (e *Event) IsNotice() bool {
	return e.Type == TypeNotice
}
