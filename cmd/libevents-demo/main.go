// Command libevents-demo walks through the emitter's behaviour: shared event
// names, mismatched payloads, method values, read-only and mutable borrows.
// With -bridge it also serves a websocket bridge and publishes to it.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/sonirico/libevents"
)

// noCopy may be embedded into structs which must not be copied after first
// use; go vet's copylocks check flags copies.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type ticket struct {
	noCopy noCopy
	n      int
}

type employee struct {
	out io.Writer
}

func (e employee) gotPaid(amount int) {
	fmt.Fprintf(e.out, "Just made $%d!, time to party!.\n", amount)
}

func runDemo(out io.Writer, logger libevents.Logger) {
	emitter := libevents.NewEmitter(libevents.WithLogger(logger))

	libevents.On2(emitter, "diff", func(a, b int) { fmt.Fprintf(out, "a - b = %d\n", a-b) })
	libevents.Emit2(emitter, "diff", 1, 2)
	// strings never reach an (int, int) listener
	libevents.Emit2(emitter, "diff", "x", "y")

	libevents.On2(emitter, "sum", func(a, b int) { fmt.Fprintf(out, "a + b = %d\n", a+b) })
	libevents.On2(emitter, "sum", func(a, b int) { fmt.Fprintln(out, "I don't even sum.") })
	libevents.Emit2(emitter, "sum", 1, 2)

	e := employee{out: out}
	libevents.On1(emitter, "paycheck", e.gotPaid)
	libevents.Emit1(emitter, "paycheck", 100)

	tk := &ticket{n: 42}
	libevents.On1(emitter, "no_copy_read", func(c libevents.Const[ticket]) {
		fmt.Fprintf(out, "NoCopy is: %d\n", libevents.View(c, func(t *ticket) int { return t.n }))
	})
	libevents.On1(emitter, "no_copy_modify", func(t *ticket) {
		t.n = 69
		fmt.Fprintf(out, "NoCopy is now: %d\n", t.n)
	})
	libevents.Emit1(emitter, "no_copy_read", libevents.ConstOf(tk))
	libevents.Emit1(emitter, "no_copy_modify", tk)
	fmt.Fprintf(out, "NoCopy is now: %d\n", tk.n)

	if err := emitter.On("name_received", func(name string) {
		fmt.Fprintf(out, "My name is: %s\n", name)
	}); err != nil {
		logger.Errorf("cannot register listener: %s", err)
	}
	emitter.Emit("name_received", "John Doe")

	counter := 0
	libevents.On1(emitter, "counter++", func(c *int) { *c++ })
	libevents.Emit1(emitter, "counter++", &counter)
	libevents.Emit1(emitter, "counter++", &counter)
	fmt.Fprintf(out, "Counter: %d\n", counter)

	libevents.Emit1(emitter, "never_registered", counter)
}

// runBridge serves a bridge per cfg, publishes one "sum" frame to it and
// waits for the listener to run.
func runBridge(ctx context.Context, out io.Writer, logger libevents.Logger, cfg libevents.BridgeConfig) error {
	emitter := libevents.NewSyncEmitter(libevents.WithLogger(logger))
	router := libevents.NewRouter().Handle("sum", libevents.Route2[int, int]())

	received := make(chan struct{})
	libevents.On2(emitter, "sum", func(a, b int) {
		fmt.Fprintf(out, "remote a + b = %d\n", a+b)
		close(received)
	})

	server := libevents.NewServer(emitter, router,
		libevents.WithServerConfig(cfg),
		libevents.WithServerLogger(logger),
	)
	client := libevents.NewClient(libevents.StaticDialParams(cfg.URL()),
		libevents.WithClientConfig(cfg),
		libevents.WithClientLogger(logger),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Listen)
	})
	g.Go(func() error {
		defer cancel()

		if err := client.Connect(gctx); err != nil {
			return err
		}
		defer client.Close()

		if err := client.Publish("sum", 1, 2); err != nil {
			return err
		}

		select {
		case <-received:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("no listener ran for the published frame")
		case <-gctx.Done():
			return gctx.Err()
		}
	})

	return g.Wait()
}

func run() error {
	var (
		bridge     = flag.Bool("bridge", false, "also run the websocket bridge demo")
		configPath = flag.String("config", "", "bridge YAML config file")
		debug      = flag.Bool("debug", false, "log listener registrations")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := libevents.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	runDemo(os.Stdout, logger)

	if !*bridge {
		return nil
	}

	cfg := libevents.DefaultBridgeConfig()
	if *configPath != "" {
		var err error
		if cfg, err = libevents.LoadBridgeConfig(*configPath); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return errors.Wrap(runBridge(ctx, os.Stdout, logger, cfg), "bridge demo failed")
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
