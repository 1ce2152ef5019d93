package workflow

// Notes the backend records when the actor leaves the note empty
const (
	DefaultSendStatusNote = "Monthly expenses marked as completed by the Manager."
	DefaultSendActionNote = "Approved for processing."
	CompleteStatusNote    = "Monthly expenses completed by Supervisor"
	ActionTypeApproval    = "Approval"
)

// Action is the single transition a screen offers for a status/actor pair
type Action struct {
	Trigger Trigger
	Target  Status

	// NeedsNote opens a note dialog before dispatch
	NeedsNote bool
	// NeedsConfirmation asks for an explicit yes before dispatch
	NeedsConfirmation bool
	// RecordsApproval also creates an audit action tagged with the actor
	RecordsApproval bool
}

var approvalMachine = newApprovalBuilder()

func newApprovalBuilder() StateMachineBuilder {
	b := NewBuilder()
	for _, s := range AllStatuses() {
		switch s {
		case StatusCompleted:
			// terminal
		case StatusRecievedBySupervisor:
			b.Configure(s).PermitIf(TriggerComplete, StatusCompleted, Actor.IsSupervisor)
		default:
			b.Configure(s).Permit(TriggerSend, StatusSentToProjectCoordinator)
		}
	}
	return b
}

// NewApprovalMachine returns a machine positioned at status
func NewApprovalMachine(status Status) StateMachine {
	return approvalMachine.Build(status)
}

// Transition returns the one action the actor may take on an expense at
// status, or nil when nothing is offered. Invalid statuses offer nothing.
func Transition(status Status, actor Actor) *Action {
	if !status.IsValid() || status.IsTerminal() {
		return nil
	}

	triggers := NewApprovalMachine(status).PermittedTriggers(actor)
	if len(triggers) == 0 {
		return nil
	}

	switch triggers[0] {
	case TriggerComplete:
		return &Action{
			Trigger:           TriggerComplete,
			Target:            StatusCompleted,
			NeedsConfirmation: true,
		}
	case TriggerSend:
		return &Action{
			Trigger:         TriggerSend,
			Target:          StatusSentToProjectCoordinator,
			NeedsNote:       true,
			RecordsApproval: true,
		}
	}
	return nil
}
