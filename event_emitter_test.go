package libevents

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingleListener(t *testing.T) {
	emitter := NewEmitter()
	var results []int

	On1(emitter, "event", func(data int) {
		results = append(results, data)
	})

	Emit1(emitter, "event", 42)

	assert.Equal(t, []int{42}, results)
}

func TestMultipleListenersRunInRegistrationOrder(t *testing.T) {
	emitter := NewEmitter()
	var out bytes.Buffer

	On2(emitter, "sum", func(a, b int) {
		fmt.Fprintf(&out, "a + b = %d\n", a+b)
	})
	On2(emitter, "sum", func(a, b int) {
		fmt.Fprintln(&out, "I don't even sum.")
	})

	Emit2(emitter, "sum", 1, 2)

	assert.Equal(t, "a + b = 3\nI don't even sum.\n", out.String())
}

func TestIdenticalListenersBothRun(t *testing.T) {
	emitter := NewEmitter()
	calls := 0
	inc := func(int) { calls++ }

	On1(emitter, "event", inc)
	On1(emitter, "event", inc)
	Emit1(emitter, "event", 7)

	assert.Equal(t, 2, calls)
}

func TestNoListeners(t *testing.T) {
	emitter := NewEmitter()

	assert.NotPanics(t, func() {
		Emit1(emitter, "never_registered", 100)
		Emit0(emitter, "never_registered")
		emitter.Emit("never_registered", "a", 1, nil)
	})
	assert.Empty(t, emitter.EventNames())
}

func TestMultipleEvents(t *testing.T) {
	emitter := NewEmitter()
	var event1Result, event2Result int

	On1(emitter, "event1", func(data int) {
		event1Result = data
	})
	On1(emitter, "event2", func(data int) {
		event2Result = data
	})

	Emit1(emitter, "event1", 5)
	Emit1(emitter, "event2", 15)

	assert.Equal(t, 5, event1Result)
	assert.Equal(t, 15, event2Result)
}

func TestMismatchedArgumentsAreSkipped(t *testing.T) {
	emitter := NewEmitter()
	called := false

	On2(emitter, "diff", func(a, b int) { called = true })

	Emit2(emitter, "diff", "x", "y")
	Emit1(emitter, "diff", 1)
	Emit2(emitter, "diff", int64(1), int64(2))
	Emit3(emitter, "diff", 1, 2, 3)
	emitter.Emit("diff", 1.0, 2.0)

	assert.False(t, called)
}

func TestOnlyMatchingListenersRunInOrder(t *testing.T) {
	emitter := NewEmitter()
	var order []string

	On1(emitter, "mixed", func(int) { order = append(order, "int#1") })
	On1(emitter, "mixed", func(string) { order = append(order, "string#1") })
	On2(emitter, "mixed", func(int, int) { order = append(order, "int,int") })
	On1(emitter, "mixed", func(int) { order = append(order, "int#2") })
	On1(emitter, "mixed", func(string) { order = append(order, "string#2") })

	Emit1(emitter, "mixed", 1)
	assert.Equal(t, []string{"int#1", "int#2"}, order)

	order = nil
	Emit1(emitter, "mixed", "s")
	assert.Equal(t, []string{"string#1", "string#2"}, order)
}

func TestMutableReferenceIsMutated(t *testing.T) {
	emitter := NewEmitter()
	On1(emitter, "counter++", func(c *int) { *c++ })

	counter := 0
	Emit1(emitter, "counter++", &counter)
	Emit1(emitter, "counter++", &counter)

	assert.Equal(t, 2, counter)
}

func TestValueParameterDoesNotMatchPointer(t *testing.T) {
	emitter := NewEmitter()
	var byValue, byPointer int

	On1(emitter, "n", func(n int) { byValue++ })
	On1(emitter, "n", func(n *int) { byPointer++ })

	n := 3
	Emit1(emitter, "n", n)
	Emit1(emitter, "n", &n)
	Emit1(emitter, "n", ConstOf(&n))

	assert.Equal(t, 1, byValue)
	assert.Equal(t, 1, byPointer)
}

func TestEmptyNameIsAnOrdinaryKey(t *testing.T) {
	emitter := NewEmitter()
	called := 0
	On0(emitter, "", func() { called++ })

	Emit0(emitter, "")
	Emit0(emitter, " ")

	assert.Equal(t, 1, called)
	assert.Equal(t, []string{""}, emitter.EventNames())
}

func TestNamesAreCaseSensitive(t *testing.T) {
	emitter := NewEmitter()
	called := 0
	On0(emitter, "Sum", func() { called++ })

	Emit0(emitter, "sum")
	Emit0(emitter, "SUM")
	Emit0(emitter, "Sum")

	assert.Equal(t, 1, called)
}

func TestRegistrationAfterEmitAffectsOnlyLaterEmits(t *testing.T) {
	emitter := NewEmitter()
	var got []string

	Emit1(emitter, "late", "early")
	On1(emitter, "late", func(s string) { got = append(got, s) })
	Emit1(emitter, "late", "later")

	assert.Equal(t, []string{"later"}, got)
}

func TestListenerRegisteringDuringEmitRunsNextTime(t *testing.T) {
	emitter := NewEmitter()
	calls := 0

	On0(emitter, "grow", func() {
		calls++
		On0(emitter, "grow", func() { calls += 100 })
	})

	Emit0(emitter, "grow")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, emitter.ListenerCount("grow"))

	Emit0(emitter, "grow")
	assert.Equal(t, 102, calls)
}

type employee struct {
	paid []int
}

func (e *employee) gotPaid(amount int) {
	e.paid = append(e.paid, amount)
}

func TestMethodValueListener(t *testing.T) {
	emitter := NewEmitter()
	e := &employee{}

	require.NoError(t, emitter.On("paycheck", e.gotPaid))
	On1(emitter, "paycheck", func(amount int) { e.gotPaid(amount * 2) })

	Emit1(emitter, "paycheck", 100)

	assert.Equal(t, []int{100, 200}, e.paid)
}

func TestDynamicOnAndEmit(t *testing.T) {
	emitter := NewEmitter()
	var got []string

	require.NoError(t, emitter.On("name", func(name string) {
		got = append(got, "name:"+name)
	}))
	require.NoError(t, emitter.On("name", func(name string, n int) error {
		got = append(got, fmt.Sprintf("%s x%d", name, n))
		return nil
	}))

	emitter.Emit("name", "John Doe")
	emitter.Emit("name", "John Doe", 2)
	emitter.Emit("name", "John Doe", int8(2))
	Emit2(emitter, "name", "Jane", 3)

	assert.Equal(t, []string{"name:John Doe", "John Doe x2", "Jane x3"}, got)
}

type handlerFunc func(int)

func TestNamedFuncTypeFallsBackToReflection(t *testing.T) {
	emitter := NewEmitter()
	var got int
	var h handlerFunc = func(n int) { got = n }

	require.NoError(t, emitter.On("named", h))
	Emit1(emitter, "named", 9)

	assert.Equal(t, 9, got)
}

func TestInterfaceTypedEmission(t *testing.T) {
	emitter := NewEmitter()
	var anyCalls, intCalls int

	On1(emitter, "v", func(any) { anyCalls++ })
	On1(emitter, "v", func(int) { intCalls++ })

	Emit1[any](emitter, "v", 1)
	Emit1[any](emitter, "v", nil)
	Emit1(emitter, "v", 1)
	emitter.Emit("v", 1)

	assert.Equal(t, 2, anyCalls)
	assert.Equal(t, 2, intCalls)
}

func TestDynamicEmitWithUntypedNilMatchesNothing(t *testing.T) {
	emitter := NewEmitter()
	called := false
	On1(emitter, "v", func(any) { called = true })
	On1(emitter, "v", func(*int) { called = true })

	emitter.Emit("v", nil)

	assert.False(t, called)
}

func TestDynamicEmitTypedNilPointer(t *testing.T) {
	emitter := NewEmitter()
	var got *int
	called := false
	On1(emitter, "v", func(p *int) { called, got = true, p })

	emitter.Emit("v", (*int)(nil))

	assert.True(t, called)
	assert.Nil(t, got)
}

func TestOnRejectsInvalidListeners(t *testing.T) {
	emitter := NewEmitter()

	cases := []struct {
		name string
		fn   any
		want error
	}{
		{name: "nil", fn: nil, want: ErrNilListener},
		{name: "typed nil func", fn: (func(int))(nil), want: ErrNilListener},
		{name: "not a func", fn: 42, want: ErrNotFunc},
		{name: "variadic", fn: func(xs ...int) {}, want: ErrVariadicListener},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := emitter.On("bad", tc.fn)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)

			var invalid *ErrInvalidListener
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, "bad", invalid.Event())
		})
	}

	assert.Zero(t, emitter.ListenerCount("bad"))
}

func TestTypedOnPanicsOnNil(t *testing.T) {
	emitter := NewEmitter()

	assert.Panics(t, func() {
		On1[int](emitter, "nil", nil)
	})
	assert.Zero(t, emitter.ListenerCount("nil"))
}

func TestZeroValueEmitter(t *testing.T) {
	var emitter Emitter
	got := ""

	Emit1(&emitter, "greet", "before")
	On1(&emitter, "greet", func(s string) { got = s })
	Emit1(&emitter, "greet", "hello")

	assert.Equal(t, "hello", got)
}

func TestListenerPanicPropagates(t *testing.T) {
	emitter := NewEmitter()
	On0(emitter, "boom", func() { panic("listener failed") })

	assert.PanicsWithValue(t, "listener failed", func() {
		Emit0(emitter, "boom")
	})
}

func TestEventNamesAndCounts(t *testing.T) {
	emitter := NewEmitter()
	On0(emitter, "b", func() {})
	On0(emitter, "a", func() {})
	On1(emitter, "a", func(int) {})

	assert.Equal(t, []string{"a", "b"}, emitter.EventNames())
	assert.Equal(t, 2, emitter.ListenerCount("a"))
	assert.Equal(t, 1, emitter.ListenerCount("b"))
	assert.Equal(t, 0, emitter.ListenerCount("c"))
}

func TestFourArguments(t *testing.T) {
	emitter := NewEmitter()
	var got string

	On4(emitter, "four", func(a int, b string, c bool, d float64) {
		got = fmt.Sprint(a, b, c, d)
	})
	require.NoError(t, emitter.On("four", func(a int, b string, c bool) {
		got = "three"
	}))

	Emit4(emitter, "four", 1, "x", true, 2.5)
	assert.Equal(t, "1 x true 2.5", got)

	Emit3(emitter, "four", 1, "x", true)
	assert.Equal(t, "three", got)
}

func TestRegistrationIsLogged(t *testing.T) {
	var out bytes.Buffer
	emitter := NewEmitter(WithLogger(NewWriterLogger(&out)))

	On2(emitter, "sum", func(a, b int) {})
	Emit1(emitter, "sum", "no match")

	assert.Contains(t, out.String(), "DEBUG [event=sum]: registered listener (int, int)")
	assert.Equal(t, 1, bytes.Count(out.Bytes(), []byte("\n")))
}
