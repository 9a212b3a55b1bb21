package libevents

import "reflect"

// The functions below are the statically checked front-end of a Registry.
// OnN only compiles for a callable of exactly N parameters, and EmitN tags the
// emission with its type arguments as written, not with the dynamic types of
// the values: Emit1[any](r, "x", 1) emits (interface {}), not (int).

// mustListener panics on a nil callable, the only registration error left
// once the compiler has checked the signature.
func mustListener(name string, isNil bool) {
	if isNil {
		panic(wrapErrInvalidListener(ErrNilListener, name))
	}
}

func On0(r Registry, name string, fn func()) {
	mustListener(name, fn == nil)
	r.add(name, newListener(TagOf0(), fn))
}

// On1 registers fn for name under the tag (A).
func On1[A any](r Registry, name string, fn func(A)) {
	mustListener(name, fn == nil)
	r.add(name, newListener(TagOf1[A](), fn))
}

func On2[A, B any](r Registry, name string, fn func(A, B)) {
	mustListener(name, fn == nil)
	r.add(name, newListener(TagOf2[A, B](), fn))
}

func On3[A, B, C any](r Registry, name string, fn func(A, B, C)) {
	mustListener(name, fn == nil)
	r.add(name, newListener(TagOf3[A, B, C](), fn))
}

func On4[A, B, C, D any](r Registry, name string, fn func(A, B, C, D)) {
	mustListener(name, fn == nil)
	r.add(name, newListener(TagOf4[A, B, C, D](), fn))
}

func Emit0(r Registry, name string) {
	listeners := r.snapshot(name)
	if len(listeners) == 0 {
		return
	}
	tag := TagOf0()
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if fn, ok := l.fn.(func()); ok {
			fn()
			continue
		}
		l.invoke(nil)
	}
}

// Emit1 calls, in registration order, the listeners of name whose tag is
// exactly (A). a is passed as is, never copied into an interface.
func Emit1[A any](r Registry, name string, a A) {
	listeners := r.snapshot(name)
	if len(listeners) == 0 {
		return
	}
	tag := TagOf1[A]()
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if fn, ok := l.fn.(func(A)); ok {
			fn(a)
			continue
		}
		l.invoke([]reflect.Value{valueAt(&a)})
	}
}

func Emit2[A, B any](r Registry, name string, a A, b B) {
	listeners := r.snapshot(name)
	if len(listeners) == 0 {
		return
	}
	tag := TagOf2[A, B]()
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if fn, ok := l.fn.(func(A, B)); ok {
			fn(a, b)
			continue
		}
		l.invoke([]reflect.Value{valueAt(&a), valueAt(&b)})
	}
}

func Emit3[A, B, C any](r Registry, name string, a A, b B, c C) {
	listeners := r.snapshot(name)
	if len(listeners) == 0 {
		return
	}
	tag := TagOf3[A, B, C]()
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if fn, ok := l.fn.(func(A, B, C)); ok {
			fn(a, b, c)
			continue
		}
		l.invoke([]reflect.Value{valueAt(&a), valueAt(&b), valueAt(&c)})
	}
}

func Emit4[A, B, C, D any](r Registry, name string, a A, b B, c C, d D) {
	listeners := r.snapshot(name)
	if len(listeners) == 0 {
		return
	}
	tag := TagOf4[A, B, C, D]()
	for _, l := range listeners {
		if l.tag != tag {
			continue
		}
		if fn, ok := l.fn.(func(A, B, C, D)); ok {
			fn(a, b, c, d)
			continue
		}
		l.invoke([]reflect.Value{valueAt(&a), valueAt(&b), valueAt(&c), valueAt(&d)})
	}
}
