package api

import (
	"context"
	"fmt"

	grpc_logging "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/recovery"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/logging"
	"github.com/signalsfoundry/indoor-coverage-sim/internal/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDMetadataKey = "x-request-id"

// RequestIDUnaryServerInterceptor ensures a request_id is present on the
// context, sourcing it from inbound metadata if provided, and attaches a
// per-request logger annotated with request_id and method.
func RequestIDUnaryServerInterceptor(base logging.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if incoming := firstHeader(md, requestIDMetadataKey); incoming != "" {
				ctx = logging.ContextWithRequestID(ctx, incoming)
			}
		}

		ctx, reqLog := logging.WithRequestLogger(ctx, base.With(logging.String("method", info.FullMethod)))
		ctx = logging.ContextWithLogger(ctx, reqLog)

		if id := logging.RequestIDFromContext(ctx); id != "" {
			_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, id))
		}
		return handler(ctx, req)
	}
}

// UnaryInterceptors returns the interceptor chain used by the coverage
// server: request IDs, tracing, RPC metrics, call logging, and panic
// recovery. collector may be nil.
func UnaryInterceptors(base logging.Logger, collector *observability.RPCCollector) []grpc.UnaryServerInterceptor {
	if base == nil {
		base = logging.Noop()
	}
	chain := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(base),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		chain = append(chain, collector.UnaryServerInterceptor())
	}
	return append(chain,
		grpc_logging.UnaryServerInterceptor(middlewareLogger(base),
			grpc_logging.WithLogOnEvents(grpc_logging.FinishCall),
		),
		grpc_recovery.UnaryServerInterceptor(
			grpc_recovery.WithRecoveryHandlerContext(recoverPanic(base)),
		),
	)
}

// middlewareLogger adapts Logger to the go-grpc-middleware logging API,
// preferring the request-scoped logger when one is on the context.
func middlewareLogger(base logging.Logger) grpc_logging.Logger {
	return grpc_logging.LoggerFunc(func(ctx context.Context, lvl grpc_logging.Level, msg string, fields ...any) {
		log := logging.FromContext(ctx, base)
		fs := make([]logging.Field, 0, len(fields)/2)
		for i := 0; i+1 < len(fields); i += 2 {
			key, ok := fields[i].(string)
			if !ok {
				key = fmt.Sprint(fields[i])
			}
			fs = append(fs, logging.Any(key, fields[i+1]))
		}

		switch lvl {
		case grpc_logging.LevelDebug:
			log.Debug(ctx, msg, fs...)
		case grpc_logging.LevelWarn:
			log.Warn(ctx, msg, fs...)
		case grpc_logging.LevelError:
			log.Error(ctx, msg, fs...)
		default:
			log.Info(ctx, msg, fs...)
		}
	})
}

func recoverPanic(base logging.Logger) grpc_recovery.RecoveryHandlerFuncContext {
	return func(ctx context.Context, p any) error {
		logging.FromContext(ctx, base).Error(ctx, "recovered from panic in handler",
			logging.String("panic", fmt.Sprint(p)),
		)
		return status.Error(codes.Internal, "internal error")
	}
}

func firstHeader(md metadata.MD, key string) string {
	if md == nil {
		return ""
	}
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}
