package workflow

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the approval stage of a monthly expense. The numeric values are
// the ones the backend stores and accepts in status-change requests.
type Status int

const (
	StatusNew                          Status = 0
	StatusSentToProjectCoordinator     Status = 1
	StatusReturnedToProjectCoordinator Status = 2
	StatusSentToManager                Status = 3
	StatusReturnedToManager            Status = 4
	StatusSentToDirector               Status = 5
	StatusSentToAccountant             Status = 6
	StatusReturnedToSupervisor         Status = 7
	StatusRecievedBySupervisor         Status = 8
	StatusCompleted                    Status = 9
)

// backend spelling, including "Recieved"
var statusNames = [...]string{
	"New",
	"SentToProjectCoordinator",
	"ReturnedToProjectCoordinator",
	"SentToManager",
	"ReturnedToManager",
	"SentToDirector",
	"SentToAccountant",
	"ReturnedToSupervisor",
	"RecievedBySupervisor",
	"Completed",
}

var statusLabels = [...]string{
	"New",
	"Sent to project coordinator",
	"Returned to project coordinator",
	"Sent to manager",
	"Returned to manager",
	"Sent to director",
	"Sent to accountant",
	"Returned to supervisor",
	"Received by supervisor",
	"Completed",
}

// AllStatuses lists every stage in order
func AllStatuses() []Status {
	out := make([]Status, len(statusNames))
	for i := range statusNames {
		out[i] = Status(i)
	}
	return out
}

// IsValid returns true if the status is one of the ten stages
func (s Status) IsValid() bool {
	return s >= StatusNew && s <= StatusCompleted
}

// IsTerminal returns true if no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// String returns the backend name of the status
func (s Status) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Label returns a human readable name for tables and exports
func (s Status) Label() string {
	if !s.IsValid() {
		return s.String()
	}
	return statusLabels[s]
}

// ParseStatus accepts either the backend name or the numeric value
func ParseStatus(v string) (Status, error) {
	v = strings.TrimSpace(v)
	for i, name := range statusNames {
		if strings.EqualFold(name, v) {
			return Status(i), nil
		}
	}
	n, err := strconv.Atoi(v)
	if err != nil || !Status(n).IsValid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidState, v)
	}
	return Status(n), nil
}

// MarshalJSON encodes the status as its number, which is what the API expects
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts both encodings the API uses: 3 or "SentToManager"
func (s *Status) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		if !Status(n).IsValid() {
			return fmt.Errorf("%w: %d", ErrInvalidState, n)
		}
		*s = Status(n)
		return nil
	}

	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, string(data))
	}
	parsed, err := ParseStatus(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
