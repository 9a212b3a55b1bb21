package libevents

// Const is a read-only borrow of a value owned by the emitter's caller. It
// carries its own TypeTag, distinct from both T and *T, so a listener taking
// Const[T] only runs for emissions that promised not to hand out write
// access, and a listener taking *T never runs for them.
//
// Const never copies the borrowed value unless Get is called, which makes it
// suitable for values that must not be duplicated.
type Const[T any] struct {
	ptr *T
}

// ConstOf borrows *p read-only.
func ConstOf[T any](p *T) Const[T] {
	return Const[T]{ptr: p}
}

// Get returns a copy of the borrowed value.
func (c Const[T]) Get() T {
	return *c.ptr
}

// IsNil reports whether c borrows nothing.
func (c Const[T]) IsNil() bool {
	return c.ptr == nil
}

// View calls project with the borrowed pointer and returns its result.
// project must not write through the pointer nor retain it after returning.
func View[T, R any](c Const[T], project func(*T) R) R {
	return project(c.ptr)
}
