package workflow

import (
	"fmt"
	"strings"
)

// Position is the organisational position carried on a user profile
type Position string

const (
	PositionAdmin              Position = "Admin"
	PositionSupervisor         Position = "Supervisor"
	PositionProjectCoordinator Position = "ProjectCoordinator"
	PositionManager            Position = "Manager"
	PositionDirector           Position = "Director"
	PositionAccountant         Position = "Accountant"
)

var positions = []Position{
	PositionAdmin,
	PositionSupervisor,
	PositionProjectCoordinator,
	PositionManager,
	PositionDirector,
	PositionAccountant,
}

// ParsePosition matches a position name case-insensitively
func ParsePosition(v string) (Position, error) {
	v = strings.TrimSpace(v)
	for _, p := range positions {
		if strings.EqualFold(string(p), v) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPosition, v)
}

// RoleAdmin is the account role that grants unrestricted visibility
const RoleAdmin = "Admin"

// Actor is the signed-in user a screen acts on behalf of
type Actor struct {
	ProfileID     string
	Position      Position
	Roles         []string
	OfficeID      *int64
	GovernorateID *int64
}

// IsAdmin reports whether the actor holds the Admin role or position
func (a Actor) IsAdmin() bool {
	if a.Position == PositionAdmin {
		return true
	}
	for _, r := range a.Roles {
		if strings.EqualFold(r, RoleAdmin) {
			return true
		}
	}
	return false
}

// IsSupervisor reports whether the actor's position is Supervisor
func (a Actor) IsSupervisor() bool {
	return a.Position == PositionSupervisor
}

// Unrestricted reports whether the actor sees every status
func (a Actor) Unrestricted() bool {
	return a.IsAdmin() || a.IsSupervisor()
}
