package libevents

import "reflect"

// listener is a registered callable with its erased type. Its tag is fixed
// at construction; the Emitter exclusively owns it.
type listener struct {
	tag TypeTag
	// fn is the callable as registered. Typed emissions try to assert it to
	// the exact func type and call it without reflection.
	fn   any
	call reflect.Value
}

func newListener(tag TypeTag, fn any) *listener {
	return &listener{tag: tag, fn: fn, call: reflect.ValueOf(fn)}
}

// invoke calls the listener reflectively. in must already match l.tag;
// results, if any, are dropped.
func (l *listener) invoke(in []reflect.Value) {
	l.call.Call(in)
}

// valueAt returns a reflect.Value of type T addressing *p, so interface and
// nil arguments keep their static type when passed through Call.
func valueAt[T any](p *T) reflect.Value {
	return reflect.ValueOf(p).Elem()
}
