package workflow

// positionStatuses lists the stages each restricted position works on
var positionStatuses = map[Position][]Status{
	PositionProjectCoordinator: {StatusSentToProjectCoordinator, StatusReturnedToProjectCoordinator},
	PositionManager:            {StatusSentToManager, StatusReturnedToManager},
	PositionDirector:           {StatusSentToDirector},
	PositionAccountant:         {StatusSentToAccountant},
}

// VisibleStatuses returns the statuses the actor may see. Admins and
// supervisors see all ten; a position without an entry sees none.
func VisibleStatuses(actor Actor) []Status {
	if actor.Unrestricted() {
		return AllStatuses()
	}
	return append([]Status{}, positionStatuses[actor.Position]...)
}

// CanView reports whether status is among VisibleStatuses(actor)
func CanView(actor Actor, status Status) bool {
	if actor.Unrestricted() {
		return status.IsValid()
	}
	for _, s := range positionStatuses[actor.Position] {
		if s == status {
			return true
		}
	}
	return false
}
