// driver/redisearch.go
//
// Thin shim over github.com/redis/go-redis/v9 that satisfies the Transport
// interface the command builders send through, and adds pipeline batching,
// OpenTelemetry spans and slog debug lines.
//
// Usage:
//
//	import (
//	    "github.com/redis/go-redis/v9"
//	    "github.com/manojoshi/redisearch/driver"
//	)
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	conn := driver.NewConn(rdb, driver.WithLogger(slog.Default()))
//	res, _ := search.NewBuilder("idx").Query("@title:hello").Run(ctx, conn)
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the OpenTelemetry instrumentation scope used by Conn.
const TracerName = "redisearch.driver"

// Executor sends one command and returns its raw reply.
type Executor interface {
	Do(ctx context.Context, args ...interface{}) (any, error)
}

// Pipeliner sends a batch of commands in one round trip. The result holds
// one entry per command, in submission order: the reply, or the error the
// server returned for that command.
type Pipeliner interface {
	Pipeline(ctx context.Context, cmds [][]interface{}) ([]any, error)
}

// Transport is what the builders need from a connection.
type Transport interface {
	Executor
	Pipeliner
}

// Conn implements Transport on top of any redis.UniversalClient: a plain
// client, a cluster client, a ring or a failover client.
type Conn struct {
	client redis.UniversalClient
	tracer trace.Tracer
	logger *slog.Logger
}

// ConnOption configures a Conn.
type ConnOption func(*Conn)

// WithLogger sets the logger that receives one debug line per command.
func WithLogger(l *slog.Logger) ConnOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) ConnOption {
	return func(c *Conn) {
		if t != nil {
			c.tracer = t
		}
	}
}

// NewConn wraps an existing go-redis client.
func NewConn(c redis.UniversalClient, opts ...ConnOption) *Conn {
	conn := &Conn{
		client: c,
		tracer: otel.Tracer(TracerName),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(conn)
	}
	return conn
}

// Client returns the wrapped client.
func (rc *Conn) Client() redis.UniversalClient { return rc.client }

// Do satisfies the Executor interface.
func (rc *Conn) Do(ctx context.Context, args ...interface{}) (any, error) {
	// span for tracing & slow-query logging
	ctx, span := rc.tracer.Start(ctx, "redis.do")
	defer span.End()

	start := time.Now()
	res, err := rc.client.Do(ctx, args...).Result()
	elapsed := time.Since(start)

	cmd := stringifyCmd(args)
	span.SetAttributes(
		attribute.String("redis.cmd", cmd),
		attribute.Float64("redis.duration_ms", float64(elapsed.Milliseconds())),
	)
	if err != nil && err != redis.Nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	rc.logger.DebugContext(ctx, "redis command",
		slog.String("cmd", cmd),
		slog.Duration("elapsed", elapsed),
		slog.Any("error", err),
	)
	return res, err
}

// Pipeline executes a batch of commands and returns raw results.
// Helpful when you need to issue many FT.SEARCH calls at once.
func (rc *Conn) Pipeline(ctx context.Context, cmds [][]interface{}) ([]any, error) {
	ctx, span := rc.tracer.Start(ctx, "redis.pipeline")
	defer span.End()
	span.SetAttributes(attribute.Int("redis.pipeline.size", len(cmds)))

	pipe := rc.client.Pipeline()
	results := make([]*redis.Cmd, len(cmds))
	for i, cmd := range cmds {
		results[i] = pipe.Do(ctx, cmd...)
	}

	start := time.Now()
	// Exec reports the first failed command; per-command errors are
	// returned in the slice instead.
	_, execErr := pipe.Exec(ctx)
	elapsed := time.Since(start)
	span.SetAttributes(attribute.Float64("redis.duration_ms", float64(elapsed.Milliseconds())))

	out := make([]any, len(results))
	failed := 0
	for i, r := range results {
		if err := r.Err(); err != nil {
			out[i] = err
			failed++
		} else {
			out[i] = r.Val()
		}
	}

	rc.logger.DebugContext(ctx, "redis pipeline",
		slog.Int("size", len(cmds)),
		slog.Int("failed", failed),
		slog.Duration("elapsed", elapsed),
	)

	// a transport failure leaves every command without a reply
	if execErr != nil && failed == len(results) && len(results) > 0 && !isReplyError(execErr) {
		span.RecordError(execErr)
		span.SetStatus(codes.Error, execErr.Error())
		return nil, fmt.Errorf("driver: pipeline: %w", execErr)
	}
	return out, nil
}

// Close conveniently closes the underlying client.
func (rc *Conn) Close() error { return rc.client.Close() }

// ----------------------------------------------------------------------------
// internal helpers
// ----------------------------------------------------------------------------

func stringifyCmd(args []interface{}) string {
	var sb strings.Builder
	for i, a := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(toString(a))
	}
	return sb.String()
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
