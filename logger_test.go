package libevents

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFormat(t *testing.T) {
	var out bytes.Buffer
	logger := NewWriterLogger(&out).(*writerLogger)
	logger.clock = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.WithField("b", 2).WithField("a", 1).Infof("hello %s", "world")
	logger.Warnln("bare")

	assert.Equal(t,
		"[2024-01-02 03:04:05] INFO [a=1, b=2]: hello world\n"+
			"[2024-01-02 03:04:05] WARN: bare\n",
		out.String(),
	)
}

func TestWriterLoggerWithFieldDoesNotLeak(t *testing.T) {
	var out bytes.Buffer
	root := NewWriterLogger(&out)

	_ = root.WithField("conn", "1")
	root.Error("plain")

	assert.NotContains(t, out.String(), "conn=1")
}

func TestSlogLogger(t *testing.T) {
	var out bytes.Buffer
	handler := slog.NewTextHandler(&out, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	logger := NewSlogLogger(slog.New(handler))

	logger.WithField("event", "sum").Debugf("registered listener %s", TagOf2[int, int]())

	assert.Equal(t, "level=DEBUG msg=\"registered listener (int, int)\" event=sum\n", out.String())
}

func TestEmitterLogsRegistrationsOnly(t *testing.T) {
	logger := new(mockLogger)
	logger.On("WithField", "event", "sum").Return(logger).Once()
	logger.On("Debugf", "registered listener %s", TagOf2[int, int]()).Return().Once()

	emitter := NewEmitter(WithLogger(logger))
	On2(emitter, "sum", func(a, b int) {})
	Emit2(emitter, "sum", 1, 2)
	Emit1(emitter, "sum", "mismatch")
	Emit0(emitter, "unknown")

	logger.AssertExpectations(t)
}

func TestServerWarnsOnDroppedFrames(t *testing.T) {
	logger := new(mockLogger)
	dropped := make(chan struct{}, 1)
	logger.On("WithField", mock.Anything, mock.Anything).Return(logger)
	logger.On("Debugf", mock.Anything, mock.Anything).Return().Maybe()
	logger.On("Warnf", "dropping frame: %s", mock.Anything).Return().Run(func(mock.Arguments) {
		dropped <- struct{}{}
	}).Once()

	fx := startBridgeWith(t, NewEmitter(), NewRouter(), WithServerLogger(logger))
	client := fx.client()
	require.NoError(t, client.Connect(context.Background()))
	defer client.Close()

	require.NoError(t, client.Publish("unrouted"))

	select {
	case <-dropped:
	case <-time.After(5 * time.Second):
		t.Fatal("dropped frame was not logged")
	}
}
