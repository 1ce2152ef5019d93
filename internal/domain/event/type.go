package event

// Type identifies the kind of screen event
type Type string

const (
	// TypeNotice carries a user-facing success or error message
	TypeNotice         Type = "notice"
	TypeEntitySelected Type = "entity.selected"
	TypeRecordsLoaded  Type = "records.loaded"
	TypeRecordCreated  Type = "record.created"
	TypeRecordUpdated  Type = "record.updated"
	TypeRecordDeleted  Type = "record.deleted"
	TypeStatusChanged  Type = "expense.status_changed"
	TypeActionRecorded Type = "expense.action_recorded"
	TypeUserRegistered Type = "user.registered"
	TypeUserUpdated    Type = "user.updated"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeNotice,
		TypeEntitySelected,
		TypeRecordsLoaded,
		TypeRecordCreated,
		TypeRecordUpdated,
		TypeRecordDeleted,
		TypeStatusChanged,
		TypeActionRecorded,
		TypeUserRegistered,
		TypeUserUpdated:
		return true
	default:
		return false
	}
}

// Level is the severity of a notice
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)
