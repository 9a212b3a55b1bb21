package libevents

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
)

type (
	CloseChan chan struct{}

	DialParams struct {
		URL    url.URL
		Header http.Header
	}

	// DialParamsGetter is called before every dial attempt, so credentials
	// carried in the URL or headers may be refreshed between attempts.
	DialParamsGetter func(ctx context.Context) (DialParams, error)

	BackoffFunc func(attempts int) time.Duration

	// Client publishes frames to a bridge Server over a single websocket.
	// Publish is safe for concurrent use.
	Client struct {
		params       DialParamsGetter
		dialer       *websocket.Dialer
		logger       Logger
		backoff      BackoffFunc
		dialAttempts int
		keepAlive    time.Duration
		writeTimeout time.Duration

		// conn is set by Connect and guarded by writeMu.
		conn    *websocket.Conn
		writeMu sync.Mutex

		closeC          CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
	}

	ClientOption func(*Client)
)

// StaticDialParams always dials rawURL. An unparsable URL fails every dial.
func StaticDialParams(rawURL string) DialParamsGetter {
	return func(context.Context) (DialParams, error) {
		u, err := url.Parse(rawURL)
		if err != nil {
			return DialParams{}, errors.Wrapf(err, "invalid url %q", rawURL)
		}
		return DialParams{URL: *u}, nil
	}
}

func WithClientLogger(logger Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

func WithBackoff(backoff BackoffFunc) ClientOption {
	return func(c *Client) {
		c.backoff = backoff
	}
}

func WithDialAttempts(attempts int) ClientOption {
	return func(c *Client) {
		c.dialAttempts = attempts
	}
}

// WithKeepAlive makes the client send a ping every interval. Zero disables it.
func WithKeepAlive(interval time.Duration) ClientOption {
	return func(c *Client) {
		c.keepAlive = interval
	}
}

// WithClientConfig applies the keep-alive, dial attempts and handshake
// timeout of cfg.
func WithClientConfig(cfg BridgeConfig) ClientOption {
	return func(c *Client) {
		c.keepAlive = cfg.KeepAlive
		c.dialAttempts = cfg.DialAttempts
		dialer := *c.dialer
		dialer.HandshakeTimeout = cfg.HandshakeTimeout
		c.dialer = &dialer
	}
}

func NewClient(params DialParamsGetter, opts ...ClientOption) *Client {
	c := &Client{
		params:       params,
		dialer:       websocket.DefaultDialer,
		logger:       NewNoopLogger(),
		backoff:      ExponentialBackoffSeconds,
		dialAttempts: 1,
		writeTimeout: time.Second,
		closeC:       make(CloseChan),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = loggerOrNoop(c.logger).WithField("type", "bridge_client")
	return c
}

// Connect dials the server, retrying up to the configured number of attempts
// with backoff, and starts the connection's background routines, which stop
// when ctx is done or the client is closed.
func (c *Client) Connect(ctx context.Context) error {
	var conn *websocket.Conn
	for attempts := 1; ; attempts++ {
		var err error
		conn, err = c.dial(ctx)
		if err == nil {
			break
		}
		if attempts >= c.dialAttempts || errors.Is(err, ErrTerminated) {
			return err
		}

		ttw := c.backoff(attempts)
		c.logger.Infof("cannot connect after %s, waiting %s", err, ttw)

		select {
		case <-ctx.Done():
			return errors.Wrap(ErrTerminated, ctx.Err().Error())
		case <-time.After(ttw):
		}
	}

	go c.read(conn)
	go c.run(ctx)

	return nil
}

// Publish encodes args into a frame for event and sends it.
func (c *Client) Publish(event string, args ...any) error {
	f, err := NewFrame(event, args...)
	if err != nil {
		return err
	}
	return c.PublishFrame(f)
}

func (c *Client) PublishFrame(f Frame) error {
	data, err := f.Encode()
	if err != nil {
		return errors.Wrapf(err, "cannot encode %s", f)
	}

	c.logger.Debugf("=> [DATA] %s", data)
	return c.write(websocket.TextMessage, data)
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (c *Client) Close() {
	c.setCloseReason(ErrTerminated)
	c.writeMu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(c.writeTimeout),
		)
	}
	c.writeMu.Unlock()
	c.safeClose()
}

// CloseChan returns a channel that is closed once the connection is gone.
func (c *Client) CloseChan() CloseChan {
	return c.closeC
}

// CloseErr explains why the connection was closed.
func (c *Client) CloseErr() error {
	select {
	case <-c.closeC:
		return c.closeReason
	default:
		return nil
	}
}

// dial opens the connection and stores it, unless the client was closed
// in the meantime.
func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	p, err := c.params(ctx)
	if err != nil {
		c.logger.Errorf("cannot fetch dial params: %s", err)
		return nil, errors.Wrap(ErrCannotConnect, err.Error())
	}

	conn, resp, err := c.dialer.DialContext(ctx, p.URL.String(), p.Header)
	if err = handleDialError(resp, err); err != nil {
		c.logger.Errorf("connection err to %s: %s", p.URL.String(), err)
		return nil, err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeC:
		_ = conn.Close()
		return nil, c.CloseErr()
	default:
	}

	c.logger.Debugf("success opening connection to %s", p.URL.String())
	c.conn = conn
	return conn, nil
}

// read drains incoming frames so control frames (pong, close) get processed.
func (c *Client) read(conn *websocket.Conn) {
	defer c.safeClose()

	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.setCloseReason(ErrConnectionClosed)
			} else {
				c.setCloseReason(errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error()))
			}
			return
		}
	}
}

func (c *Client) run(ctx context.Context) {
	var tick <-chan time.Time
	if c.keepAlive > 0 {
		ticker := time.NewTicker(c.keepAlive)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.setCloseReason(ErrTerminated)
			c.safeClose()
			return
		case <-c.closeC:
			return
		case <-tick:
			c.logger.Debugln("=> [PING]")
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.logger.Warnf("cannot send ping: %s", err)
			}
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	select {
	case <-c.closeC:
		return c.CloseErr()
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return errors.Wrap(ErrConnectionClosed, "not connected")
	}

	deadline := time.Now().Add(c.writeTimeout)

	var err error
	if messageType == websocket.PingMessage {
		err = c.conn.WriteControl(websocket.PingMessage, data, deadline)
	} else {
		_ = c.conn.SetWriteDeadline(deadline)
		err = c.conn.WriteMessage(messageType, data)
	}

	if err != nil {
		err = errors.Wrap(ErrConnectionClosed, err.Error())
		c.setCloseReason(err)
		go c.safeClose()
	}
	return err
}

func (c *Client) safeClose() {
	c.closeOnce.Do(c.close)
}

func (c *Client) close() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}
	close(c.closeC)
}

func (c *Client) setCloseReason(err error) {
	c.closeReasonOnce.Do(func() {
		c.closeReason = err
	})
}

func handleDialError(resp *http.Response, err error) error {
	// 1. Check HTTP errors first
	var msg string

	if resp != nil && resp.Body != nil {
		bts, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr == nil {
			msg = string(bts)
		}
	}
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		return errors.Wrap(ErrRateLimit, msg)
	}

	// 2. Network errors
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}

func ExponentialBackoff(attempts int) float64 {
	return (math.Pow(2.0, float64(attempts)) - 1) / 2
}

func ExponentialBackoffSeconds(attempts int) time.Duration {
	return time.Duration(ExponentialBackoff(attempts) * float64(time.Second))
}
