package analytics

import (
	"arcanum/pkg/logger"
)

// Event is one product analytics event.
type Event struct {
	Name  string
	Props map[string]interface{}
}

// Emitter accepts events without ever blocking or failing the caller.
// Delivery is at-most-once: when the buffer is full the event is dropped.
type Emitter interface {
	Emit(name string, props map[string]interface{})
}

type logEmitter struct {
	ch     chan Event
	logger *logger.Logger
}

// NewLogEmitter starts a single drain goroutine that writes events to the
// structured log. The goroutine lives for the process lifetime.
func NewLogEmitter(log *logger.Logger) Emitter {
	e := &logEmitter{
		ch:     make(chan Event, 256),
		logger: log,
	}
	go e.drain()
	return e
}

func (e *logEmitter) Emit(name string, props map[string]interface{}) {
	select {
	case e.ch <- Event{Name: name, Props: props}:
	default:
		// Buffer full: drop rather than block the request path.
	}
}

func (e *logEmitter) drain() {
	for ev := range e.ch {
		e.logger.Infow("analytics event", "event", ev.Name, "props", ev.Props)
	}
}

type nopEmitter struct{}

func (nopEmitter) Emit(string, map[string]interface{}) {}

// NewNop returns an emitter that discards everything. Used in tests.
func NewNop() Emitter {
	return nopEmitter{}
}
