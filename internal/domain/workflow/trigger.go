package workflow

// Trigger represents an actor-initiated event that moves a monthly expense
type Trigger string

const (
	// TriggerSend re-submits the expense to the project coordinator
	TriggerSend Trigger = "SEND"
	// TriggerComplete closes a received expense
	TriggerComplete Trigger = "COMPLETE"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
