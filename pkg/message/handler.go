package message

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Handler is a function that processes an incoming request message.
// Handlers answer through msg.Respond; a returned error is logged by the
// middleware and never redelivered.
type Handler func(ctx context.Context, msg *NATSMsg) error

// Middleware is a function that wraps a handler to add additional functionality
type Middleware func(Handler) Handler

// Chain chains multiple middlewares together. The first middleware is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(h Handler) Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

// RecoveryMiddleware recovers from panics in message handlers
func RecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *NATSMsg) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()
			return next(ctx, msg)
		}
	}
}

// LoggingMiddleware logs message processing using structured logging
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *NATSMsg) error {
			fields := []zap.Field{
				zap.String("subject", msg.Subject),
				zap.Int("size_bytes", len(msg.Data)),
			}
			if msg.CorrelationID != "" {
				fields = append(fields, zap.String("correlation_id", msg.CorrelationID))
			}

			start := time.Now()
			logger.Debug("Processing message", fields...)
			err := next(ctx, msg)
			fields = append(fields, zap.Duration("duration", time.Since(start)))
			if err != nil {
				logger.Error("Error processing message", append(fields, zap.Error(err))...)
			} else {
				logger.Debug("Successfully processed message", fields...)
			}
			return err
		}
	}
}

// TimeoutMiddleware bounds the handler with a deadline
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *NATSMsg) error {
			if timeout <= 0 {
				return next(ctx, msg)
			}
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return next(ctx, msg)
		}
	}
}

// ValidationMiddleware rejects empty payloads before they reach the handler
func ValidationMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, msg *NATSMsg) error {
			if len(msg.Data) == 0 {
				return fmt.Errorf("message on %s has an empty payload", msg.Subject)
			}
			return next(ctx, msg)
		}
	}
}
