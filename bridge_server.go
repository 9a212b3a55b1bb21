package libevents

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"golang.org/x/sync/errgroup"
)

type (
	// Server accepts websocket connections and turns every text or binary
	// frame into an emission on its Registry, through a Router.
	//
	// Frames are dispatched synchronously in the connection's goroutine.
	// Dispatches from different connections are serialized by the server, so
	// the Registry only needs its own locking if other code uses it
	// concurrently as well.
	Server struct {
		registry Registry
		router   *Router
		logger   Logger
		metrics  *Metrics
		upgrader websocket.FastHTTPUpgrader

		path      string
		readLimit int64

		dispatchMu sync.Mutex

		connsMu sync.Mutex
		conns   map[string]*websocket.Conn
	}

	ServerOption func(*Server)
)

func WithServerLogger(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithServerMetrics(metrics *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = metrics
	}
}

// WithServerConfig applies the path, read limit and handshake timeout of cfg.
func WithServerConfig(cfg BridgeConfig) ServerOption {
	return func(s *Server) {
		s.path = cfg.Path
		s.readLimit = cfg.ReadLimit
		s.upgrader.HandshakeTimeout = cfg.HandshakeTimeout
	}
}

func NewServer(registry Registry, router *Router, opts ...ServerOption) *Server {
	s := &Server{
		registry: registry,
		router:   router,
		logger:   NewNoopLogger(),
		conns:    make(map[string]*websocket.Conn),
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(*fasthttp.RequestCtx) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = loggerOrNoop(s.logger).WithField("type", "bridge_server")
	return s
}

// Handler returns the fasthttp handler serving the websocket endpoint.
// Requests for any other path than the configured one get a 404.
func (s *Server) Handler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if s.path != "" && string(ctx.Path()) != s.path {
			ctx.Error(fasthttp.StatusMessage(fasthttp.StatusNotFound), fasthttp.StatusNotFound)
			return
		}
		if err := s.upgrader.Upgrade(ctx, s.serveConn); err != nil {
			s.logger.Warnf("cannot upgrade connection from %s: %s", ctx.RemoteAddr(), err)
		}
	}
}

// Serve serves the websocket endpoint on ln until ctx is done. Open
// connections are closed with a "going away" close frame on shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	ln = &onceCloseListener{Listener: ln}
	srv := &fasthttp.Server{
		Handler: s.Handler(),
		Name:    "libevents",
		Logger:  fasthttpLogger{s.logger},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Infof("serving bridge on %s", ln.Addr())
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		s.closeConns()
		// srv.Serve may not have registered ln yet, in which case Shutdown
		// would leave it accepting.
		_ = ln.Close()
		return srv.Shutdown()
	})

	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "bridge server")
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "bridge server: cannot listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// HandleFrame decodes one raw frame and dispatches it. A listener panic is
// recovered and returned as an error so one bad frame cannot take the
// server down.
func (s *Server) HandleFrame(data []byte) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.observeFrame(err, time.Since(start))
	}()

	f, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	return s.dispatch(f)
}

func (s *Server) dispatch(f Frame) (err error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("listener for event %q panicked: %v", f.Event, r)
		}
	}()

	return s.router.Dispatch(s.registry, f)
}

func (s *Server) serveConn(conn *websocket.Conn) {
	id := uuid.NewString()
	logger := s.logger.WithField("conn", id)

	s.track(id, conn)
	defer s.untrack(id)
	s.metrics.connOpened()
	defer s.metrics.connClosed()

	if s.readLimit > 0 {
		conn.SetReadLimit(s.readLimit)
	}

	logger.Debugf("connection opened from %s", conn.RemoteAddr())

	for {
		// message types from ReadMessage are either binary or text
		_, bts, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugln("connection closed by peer")
			} else {
				logger.Infof("error occurred on websocket read: %s", err)
			}
			return
		}

		if err := s.HandleFrame(bts); err != nil {
			logger.Warnf("dropping frame: %s", err)
		}
	}
}

func (s *Server) track(id string, conn *websocket.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	s.conns[id] = conn
}

func (s *Server) untrack(id string) {
	s.connsMu.Lock()
	conn, ok := s.conns[id]
	delete(s.conns, id)
	s.connsMu.Unlock()

	if ok {
		_ = conn.Close()
	}
}

func (s *Server) closeConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()

	deadline := time.Now().Add(time.Second)
	for _, conn := range s.conns {
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			deadline,
		)
		_ = conn.Close()
	}
}

// onceCloseListener lets both Serve and fasthttp's Shutdown close the
// listener; only the first Close reaches the wrapped one.
type onceCloseListener struct {
	net.Listener
	once sync.Once
	err  error
}

func (l *onceCloseListener) Close() error {
	l.once.Do(func() {
		l.err = l.Listener.Close()
	})
	return l.err
}

// fasthttpLogger routes fasthttp's internal messages to a Logger.
type fasthttpLogger struct {
	logger Logger
}

func (l fasthttpLogger) Printf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}
