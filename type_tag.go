package libevents

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// TypeTag identifies an ordered list of parameter types. Two tags are equal
// (==) iff both lists hold identical types at every position, so a tag can be
// used directly as the match key between a listener and an emission.
//
// The zero TypeTag describes nothing and never matches a listener.
type TypeTag struct {
	// sig is the canonical func type with the tagged parameters, no results
	// and no variadic tail. reflect guarantees a single Type per distinct
	// signature, which is what makes == meaningful.
	sig reflect.Type
}

func tagOf(params []reflect.Type) TypeTag {
	return TypeTag{sig: reflect.FuncOf(params, nil, false)}
}

func paramsOf(fnType reflect.Type) []reflect.Type {
	params := make([]reflect.Type, fnType.NumIn())
	for i := range params {
		params[i] = fnType.In(i)
	}
	return params
}

// IsZero reports whether t is the zero TypeTag.
func (t TypeTag) IsZero() bool {
	return t.sig == nil
}

// Len returns the number of parameters in the tag.
func (t TypeTag) Len() int {
	if t.sig == nil {
		return 0
	}
	return t.sig.NumIn()
}

// Param returns the i'th parameter type. It panics if i is out of range.
func (t TypeTag) Param(i int) reflect.Type {
	return t.sig.In(i)
}

// String renders the tag as a parenthesized parameter list, e.g. "(int, *int)".
func (t TypeTag) String() string {
	if t.sig == nil {
		return "<none>"
	}
	var sb strings.Builder
	sb.WriteByte('(')
	for i := 0; i < t.sig.NumIn(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.sig.In(i).String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// TagOfFunc returns the tag of fn's parameter list. fn must be a non-nil,
// non-variadic function; its results are ignored.
func TagOfFunc(fn any) (TypeTag, error) {
	if fn == nil {
		return TypeTag{}, ErrNilListener
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return TypeTag{}, errors.Wrapf(ErrNotFunc, "got %s", v.Type())
	}
	if v.IsNil() {
		return TypeTag{}, ErrNilListener
	}
	if v.Type().IsVariadic() {
		return TypeTag{}, errors.Wrapf(ErrVariadicListener, "got %s", v.Type())
	}
	return tagOf(paramsOf(v.Type())), nil
}

// TagOfArgs returns the tag formed by the dynamic types of args. It reports
// false when an argument is an untyped nil, which has no type to compare.
func TagOfArgs(args ...any) (TypeTag, bool) {
	params := make([]reflect.Type, len(args))
	for i, arg := range args {
		if arg == nil {
			return TypeTag{}, false
		}
		params[i] = reflect.TypeOf(arg)
	}
	return tagOf(params), true
}

func TagOf0() TypeTag {
	return tagOf(nil)
}

// TagOf1 returns the tag of a single parameter of static type A.
func TagOf1[A any]() TypeTag {
	return tagOf([]reflect.Type{reflect.TypeOf((*A)(nil)).Elem()})
}

func TagOf2[A, B any]() TypeTag {
	return tagOf([]reflect.Type{reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem()})
}

func TagOf3[A, B, C any]() TypeTag {
	return tagOf([]reflect.Type{reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem(), reflect.TypeOf((*C)(nil)).Elem()})
}

func TagOf4[A, B, C, D any]() TypeTag {
	return tagOf([]reflect.Type{
		reflect.TypeOf((*A)(nil)).Elem(), reflect.TypeOf((*B)(nil)).Elem(), reflect.TypeOf((*C)(nil)).Elem(), reflect.TypeOf((*D)(nil)).Elem(),
	})
}
