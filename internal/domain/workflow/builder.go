package workflow

import "fmt"

// GuardFunc decides whether an actor may take a transition
type GuardFunc func(actor Actor) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given status
	Configure(status Status) StateConfiguration

	// Build creates a new state machine instance with the given initial status
	Build(initial Status) StateMachine
}

// StateConfiguration configures transitions for a specific status
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target status for any actor
	Permit(trigger Trigger, to Status) StateConfiguration

	// PermitIf allows a trigger to transition to the target status if the guard passes
	PermitIf(trigger Trigger, to Status, guard GuardFunc) StateConfiguration
}

type transition struct {
	to    Status
	guard GuardFunc
}

type stateConfig struct {
	from        Status
	order       []Trigger
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[Status]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[Status]*stateConfig),
	}
}

func (b *stateMachineBuilder) Configure(status Status) StateConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configurations[status]
	if !exists {
		config = &stateConfig{
			from:        status,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[status] = config
	}
	return config
}

func (b *stateMachineBuilder) Build(initial Status) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial status: %s", initial))
	}

	// machines must not observe later Configure calls
	configsCopy := make(map[Status]*stateConfig, len(b.configurations))
	for status, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, ts...)
		}
		configsCopy[status] = &stateConfig{
			from:        status,
			order:       append([]Trigger{}, config.order...),
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		current:        initial,
		configurations: configsCopy,
	}
}

func (c *stateConfig) Permit(trigger Trigger, to Status) StateConfiguration {
	return c.PermitIf(trigger, to, nil)
}

func (c *stateConfig) PermitIf(trigger Trigger, to Status, guard GuardFunc) StateConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}

	if _, seen := c.transitions[trigger]; !seen {
		c.order = append(c.order, trigger)
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{to: to, guard: guard})
	return c
}
