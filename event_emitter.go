package libevents

import (
	"reflect"
	"sort"
)

// Registry is implemented by *Emitter and *SyncEmitter. The typed helpers
// (On1, Emit2, ...) accept any Registry.
type Registry interface {
	// On registers fn under name. fn may be any non-variadic function; its
	// parameter list becomes the listener's TypeTag.
	On(name string, fn any) error
	// Emit invokes, in registration order, every listener under name whose
	// TypeTag equals the dynamic types of args.
	Emit(name string, args ...any)
	// ListenerCount returns how many listeners are registered under name.
	ListenerCount(name string) int
	// EventNames returns the names with at least one listener, sorted.
	EventNames() []string

	add(name string, l *listener)
	snapshot(name string) []*listener
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used to trace registrations.
func WithLogger(logger Logger) Option {
	return func(e *Emitter) {
		e.logger = logger
	}
}

// Emitter maps event names to listeners of arbitrary signatures. Emissions
// only reach listeners whose parameter types exactly match the emitted
// argument types; everything else is silently skipped.
//
// Emitter is not safe for concurrent use. Owners that register or emit from
// several goroutines must use SyncEmitter or their own locking.
// The zero value is ready to use.
type Emitter struct {
	listeners map[string][]*listener
	logger    Logger
}

// NewEmitter creates a new Emitter and returns a pointer to it.
func NewEmitter(opts ...Option) *Emitter {
	e := &Emitter{
		listeners: make(map[string][]*listener),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// On registers a new listener for the given event.
func (e *Emitter) On(name string, fn any) error {
	tag, err := TagOfFunc(fn)
	if err != nil {
		return wrapErrInvalidListener(err, name)
	}
	e.add(name, newListener(tag, fn))
	return nil
}

// Emit triggers the listeners registered for the given event synchronously.
// The tag is formed from the dynamic type of each argument: pass a pointer
// to let listeners taking *T mutate the caller's value, or a Const[T] for
// read-only access. Untyped nil arguments match nothing.
func (e *Emitter) Emit(name string, args ...any) {
	emitArgs(e.snapshot(name), args)
}

func (e *Emitter) ListenerCount(name string) int {
	return len(e.listeners[name])
}

func (e *Emitter) EventNames() []string {
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Emitter) add(name string, l *listener) {
	if e.listeners == nil {
		e.listeners = make(map[string][]*listener)
	}
	e.listeners[name] = append(e.listeners[name], l)

	loggerOrNoop(e.logger).
		WithField("event", name).
		Debugf("registered listener %s", l.tag)
}

// snapshot returns the listeners as of now. The slice is capped so later
// registrations never show up in an iteration already in progress.
func (e *Emitter) snapshot(name string) []*listener {
	ls := e.listeners[name]
	return ls[:len(ls):len(ls)]
}

func emitArgs(listeners []*listener, args []any) {
	if len(listeners) == 0 {
		return
	}

	tag, ok := TagOfArgs(args...)
	if !ok {
		return
	}

	var in []reflect.Value
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if in == nil {
			in = make([]reflect.Value, len(args))
			for i, arg := range args {
				in[i] = reflect.ValueOf(arg)
			}
		}
		l.invoke(in)
	}
}
