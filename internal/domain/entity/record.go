package entity

import (
	"github.com/google/uuid"
)

// DefaultIDField is the identifier field list endpoints return
const DefaultIDField = "id"

// Record is one row of a generic list: the server's field map plus a key
// for rendering.
type Record struct {
	Key    string         `json:"key"`
	Fields map[string]any `json:"fields"`

	// fallback is set when the server sent no identifier; such keys are
	// regenerated on every fetch and never address the server.
	fallback bool
}

// NewRecord keys fields by idField, or by a random key when it is absent
func NewRecord(fields map[string]any, idField string) Record {
	if idField == "" {
		idField = DefaultIDField
	}
	if fields == nil {
		fields = map[string]any{}
	}
	if id := ScalarString(fields[idField]); id != "" {
		return Record{Key: id, Fields: fields}
	}
	return Record{Key: uuid.NewString(), Fields: fields, fallback: true}
}

// HasFallbackKey reports whether Key was synthesized
func (r Record) HasFallbackKey() bool {
	return r.fallback
}

// ID returns the server identifier, or false when the record has none
func (r Record) ID() (string, bool) {
	if r.fallback || r.Key == "" {
		return "", false
	}
	return r.Key, true
}

// Get returns a field value
func (r Record) Get(field string) any {
	return r.Fields[field]
}
