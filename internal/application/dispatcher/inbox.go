package dispatcher

import (
	"context"
	"sync"

	"github.com/garyjia/expense-admin/internal/domain/event"
)

// inboxLimit caps undrained notices per inbox
const inboxLimit = 50

// Inbox buffers notices until the user interface drains them
type Inbox struct {
	mu      sync.Mutex
	notices []*event.Event
}

// NewInbox creates an inbox subscribed to the dispatcher's notices
func NewInbox(d *Dispatcher, name string) *Inbox {
	in := &Inbox{}
	d.Subscribe(event.TypeNotice, name, in.handle)
	return in
}

func (in *Inbox) handle(_ context.Context, evt *event.Event) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	in.notices = append(in.notices, evt)
	if len(in.notices) > inboxLimit {
		in.notices = in.notices[len(in.notices)-inboxLimit:]
	}
	return nil
}

// Drain returns and clears the buffered notices, oldest first
func (in *Inbox) Drain() []*event.Event {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := in.notices
	in.notices = nil
	if out == nil {
		return []*event.Event{}
	}
	return out
}
