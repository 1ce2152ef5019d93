package dispatcher

import (
	"context"

	"github.com/garyjia/expense-admin/internal/domain/event"
)

// Handler processes screen events
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for debugging
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// Publisher is what screen controllers depend on to announce events
type Publisher interface {
	Publish(ctx context.Context, evt *event.Event)
}
