package workflow

import "fmt"

// StateMachine tracks the status of one monthly expense and validates
// transitions for a given actor
type StateMachine interface {
	// State returns the current status
	State() Status

	// Fire executes the trigger for the actor, moving to the target status
	Fire(trigger Trigger, actor Actor) (Status, error)

	// PermittedTriggers returns the triggers the actor may fire, in configuration order
	PermittedTriggers(actor Actor) []Trigger
}

type stateMachine struct {
	current        Status
	configurations map[Status]*stateConfig
}

func (m *stateMachine) State() Status {
	return m.current
}

func (m *stateMachine) Fire(trigger Trigger, actor Actor) (Status, error) {
	config, exists := m.configurations[m.current]
	if !exists {
		return m.current, fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, m.current)
	}
	if len(config.transitions[trigger]) == 0 {
		return m.current, fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	to, ok := m.resolve(trigger, actor)
	if !ok {
		return m.current, fmt.Errorf("%w: %s from %s as %s", ErrGuardFailed, trigger, m.current, actor.Position)
	}
	m.current = to
	return to, nil
}

func (m *stateMachine) PermittedTriggers(actor Actor) []Trigger {
	config, exists := m.configurations[m.current]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.order))
	for _, trigger := range config.order {
		if _, ok := m.resolve(trigger, actor); ok {
			triggers = append(triggers, trigger)
		}
	}
	return triggers
}

// resolve returns the first transition whose guard admits the actor
func (m *stateMachine) resolve(trigger Trigger, actor Actor) (Status, bool) {
	config, exists := m.configurations[m.current]
	if !exists {
		return 0, false
	}
	for _, t := range config.transitions[trigger] {
		if t.guard == nil || t.guard(actor) {
			return t.to, true
		}
	}
	return 0, false
}
