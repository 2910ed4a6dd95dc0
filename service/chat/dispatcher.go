package chat

import "context"

// Handler processes one inbound protocol event for an admitted connection.
type Handler interface {
	Event() string
	Handle(ctx context.Context, s *Server, f *Frame, connID string) error
}

type Dispatcher struct {
	handlers map[string]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]Handler)}
}

func (d *Dispatcher) Register(h Handler) { d.handlers[h.Event()] = h }

func (d *Dispatcher) Get(event string) Handler {
	return d.handlers[event]
}
