package libevents

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Route decodes the raw arguments of a frame and emits them on a Registry.
// The route fixes the Go types of the emission, so a remote frame reaches
// exactly the listeners a local EmitN with the same type arguments would.
type Route func(r Registry, event string, args []json.RawMessage) error

// Router maps event names to Routes.
type Router struct {
	routes map[string]Route
	mu     sync.RWMutex
}

func NewRouter() *Router {
	return &Router{routes: make(map[string]Route)}
}

// Handle sets the route for event, replacing any previous one.
func (rt *Router) Handle(event string, route Route) *Router {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.routes[event] = route
	return rt
}

// Dispatch decodes f with the route registered for f.Event and emits it on r.
func (rt *Router) Dispatch(r Registry, f Frame) error {
	rt.mu.RLock()
	route, ok := rt.routes[f.Event]
	rt.mu.RUnlock()

	if !ok {
		return errors.Wrapf(ErrNoRoute, "event %q", f.Event)
	}
	return route(r, f.Event, f.Args)
}

func checkArity(event string, args []json.RawMessage, want int) error {
	if len(args) != want {
		return errors.Wrapf(ErrArity, "event %q wants %d arguments, got %d", event, want, len(args))
	}
	return nil
}

// decodeArg decodes raw into a T. JSON is first decoded into generic values
// and then mapped onto T, honoring `json` struct tags. Numbers are kept as
// json.Number until their target is known.
func decodeArg[T any](event string, i int, raw json.RawMessage) (T, error) {
	var out T

	var generic any
	jd := json.NewDecoder(bytes.NewReader(raw))
	jd.UseNumber()
	if err := jd.Decode(&generic); err != nil {
		return out, errors.Wrapf(ErrDecode, "event %q argument %d: %s", event, i, err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &out,
		TagName:     "json",
		ErrorUnused: true,
		DecodeHook:  exactNumber,
	})
	if err != nil {
		return out, errors.WithStack(err)
	}
	if err := dec.Decode(generic); err != nil {
		return out, errors.Wrapf(ErrDecode, "event %q argument %d: %s", event, i, err)
	}
	return out, nil
}

var numberType = reflect.TypeOf(json.Number(""))

// exactNumber converts a json.Number into the numeric kind of its target.
// Fractions for integers and values out of the target's range are errors.
func exactNumber(_, to reflect.Type, data any) (any, error) {
	n, ok := data.(json.Number)
	if !ok || to == numberType {
		return data, nil
	}

	s := string(n)
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(s, 10, to.Bits())
		if err != nil {
			return nil, errors.Errorf("%s is not a valid %s", s, to)
		}
		return reflect.ValueOf(v).Convert(to).Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(s, 10, to.Bits())
		if err != nil {
			return nil, errors.Errorf("%s is not a valid %s", s, to)
		}
		return reflect.ValueOf(v).Convert(to).Interface(), nil
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(s, to.Bits())
		if err != nil {
			return nil, errors.Errorf("%s is not a valid %s", s, to)
		}
		return reflect.ValueOf(v).Convert(to).Interface(), nil
	case reflect.String:
		return nil, errors.Errorf("number %s cannot be decoded into %s", s, to)
	case reflect.Interface:
		return n.Float64()
	}
	return data, nil
}

// Route0 emits frames without arguments.
func Route0() Route {
	return func(r Registry, event string, args []json.RawMessage) error {
		if err := checkArity(event, args, 0); err != nil {
			return err
		}
		Emit0(r, event)
		return nil
	}
}

// Route1 decodes the single argument of a frame into an A and emits it as
// Emit1[A] would.
func Route1[A any]() Route {
	return func(r Registry, event string, args []json.RawMessage) error {
		if err := checkArity(event, args, 1); err != nil {
			return err
		}
		a, err := decodeArg[A](event, 0, args[0])
		if err != nil {
			return err
		}
		Emit1(r, event, a)
		return nil
	}
}

func Route2[A, B any]() Route {
	return func(r Registry, event string, args []json.RawMessage) error {
		if err := checkArity(event, args, 2); err != nil {
			return err
		}
		a, err := decodeArg[A](event, 0, args[0])
		if err != nil {
			return err
		}
		b, err := decodeArg[B](event, 1, args[1])
		if err != nil {
			return err
		}
		Emit2(r, event, a, b)
		return nil
	}
}

func Route3[A, B, C any]() Route {
	return func(r Registry, event string, args []json.RawMessage) error {
		if err := checkArity(event, args, 3); err != nil {
			return err
		}
		a, err := decodeArg[A](event, 0, args[0])
		if err != nil {
			return err
		}
		b, err := decodeArg[B](event, 1, args[1])
		if err != nil {
			return err
		}
		c, err := decodeArg[C](event, 2, args[2])
		if err != nil {
			return err
		}
		Emit3(r, event, a, b, c)
		return nil
	}
}

func Route4[A, B, C, D any]() Route {
	return func(r Registry, event string, args []json.RawMessage) error {
		if err := checkArity(event, args, 4); err != nil {
			return err
		}
		a, err := decodeArg[A](event, 0, args[0])
		if err != nil {
			return err
		}
		b, err := decodeArg[B](event, 1, args[1])
		if err != nil {
			return err
		}
		c, err := decodeArg[C](event, 2, args[2])
		if err != nil {
			return err
		}
		d, err := decodeArg[D](event, 3, args[3])
		if err != nil {
			return err
		}
		Emit4(r, event, a, b, c, d)
		return nil
	}
}
