package libevents

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// Frame is the wire representation of one emission:
//
//	{"event": "sum", "args": [1, 2]}
type Frame struct {
	Event string            `json:"event"`
	Args  []json.RawMessage `json:"args"`
}

// NewFrame marshals args into a Frame for event.
func NewFrame(event string, args ...any) (Frame, error) {
	raw := make([]json.RawMessage, len(args))
	for i, arg := range args {
		bts, err := json.Marshal(arg)
		if err != nil {
			return Frame{}, errors.Wrapf(err, "cannot encode argument %d of %q", i, event)
		}
		raw[i] = bts
	}
	return Frame{Event: event, Args: raw}, nil
}

func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{event=%q,args=%d}", f.Event, len(f.Args))
}

// DecodeFrame parses a frame. The "event" key is mandatory, even though its
// value may be empty; "args" may be omitted for argument-less events.
func DecodeFrame(data []byte) (Frame, error) {
	var aux struct {
		Event *string           `json:"event"`
		Args  []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return Frame{}, errors.Wrap(ErrMalformedFrame, err.Error())
	}
	if aux.Event == nil {
		return Frame{}, errors.Wrap(ErrMalformedFrame, "missing event")
	}
	return Frame{Event: *aux.Event, Args: aux.Args}, nil
}
