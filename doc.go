// Package libevents implements a synchronous, string-keyed event emitter
// whose listeners may have any signature.
//
// Listeners are registered under an event name and remember the exact
// ordered list of their parameter types (their TypeTag). An emission names
// an event and supplies arguments; every listener under that name whose
// TypeTag equals the types of the arguments runs, inline and in registration
// order. Listeners of other signatures are skipped without notice, so one
// name can carry several unrelated payload shapes.
//
//	e := libevents.NewEmitter()
//	libevents.On2(e, "sum", func(a, b int) { fmt.Println("a + b =", a+b) })
//	libevents.Emit2(e, "sum", 1, 2)        // a + b = 3
//	libevents.Emit1(e, "sum", "x")         // nothing, (string) != (int, int)
//
// # Mutation and borrowing
//
// Arguments are matched by type exactly, without conversion. A listener
// taking *T mutates the caller's value and only runs for emissions of *T.
// A listener taking Const[T] gets read-only access to the caller's value and
// only runs for emissions of Const[T]. A listener taking T gets a copy.
//
//	counter := 0
//	libevents.On1(e, "counter++", func(c *int) { *c++ })
//	libevents.Emit1(e, "counter++", &counter) // counter == 1
//
// # Static and dynamic registration
//
// On0..On4 and Emit0..Emit4 are checked at compile time and tag emissions
// with their type arguments. Emitter.On and Emitter.Emit take any function
// and any arguments and work from dynamic types instead; Emitter.On rejects
// non-functions and variadic functions with an *ErrInvalidListener.
//
// # Bridge
//
// Server and Client carry emissions over websocket frames. A Router decides
// the Go types each remote event is decoded into, so remote frames obey the
// same exact-match rules as local emissions.
package libevents
