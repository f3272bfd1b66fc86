package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
)

// Level is the tone of a user-visible notice.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Error   Level = "error"
)

// Notice is a transient user-visible message, rendered by the client as a toast.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

func Successf(format string, args ...interface{}) Notice {
	return Notice{Level: Success, Message: fmt.Sprintf(format, args...)}
}

func Infof(format string, args ...interface{}) Notice {
	return Notice{Level: Info, Message: fmt.Sprintf(format, args...)}
}

func Errorf(format string, args ...interface{}) Notice {
	return Notice{Level: Error, Message: fmt.Sprintf(format, args...)}
}

// Record is a notice with the context it was raised in.
type Record struct {
	Scope     string    `json:"-"`
	Service   string    `json:"service"`
	Action    string    `json:"action"`
	Notice    Notice    `json:"notice"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink receives every notice raised by the services. Emit must not block for long;
// failures are the sink's own concern.
type Sink interface {
	Emit(ctx context.Context, rec Record)
	Close(ctx context.Context) error
}

// History is implemented by sinks that keep what they receive.
type History interface {
	Recent(ctx context.Context, scope string, limit int64) ([]Record, error)
}

// Emitter stamps and forwards notices to a Sink.
type Emitter struct {
	sink    Sink
	service string
	now     func() time.Time
}

func NewEmitter(sink Sink, service string) *Emitter {
	if sink == nil {
		sink = Discard{}
	}
	return &Emitter{sink: sink, service: service, now: time.Now}
}

// Emit records n and returns it for inclusion in the response.
func (e *Emitter) Emit(ctx context.Context, scope, action string, n Notice) Notice {
	if e == nil {
		return n
	}
	e.sink.Emit(ctx, Record{
		Scope:     scope,
		Service:   e.service,
		Action:    action,
		Notice:    n,
		CreatedAt: e.now().UTC(),
	})
	return n
}

// Discard drops all notices.
type Discard struct{}

func (Discard) Emit(context.Context, Record) {}
func (Discard) Close(context.Context) error  { return nil }

// LogSink writes notices to a zap logger.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(_ context.Context, rec Record) {
	s.logger.Info("notice",
		zap.String("scope", rec.Scope),
		zap.String("service", rec.Service),
		zap.String("action", rec.Action),
		zap.String("level", string(rec.Notice.Level)),
		zap.String("message", rec.Notice.Message),
	)
}

func (s *LogSink) Close(context.Context) error { return nil }

// Open builds the sink selected by cfg.Audit.Driver.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Audit.Driver)) {
	case "", "log":
		return NewLogSink(logger), nil
	case "none":
		return Discard{}, nil
	case "mongo", "mongodb":
		return NewMongoSink(ctx, cfg.MongoDB, logger)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Audit.Driver)
	}
}
