// Package service exposes an action registry over NATS request/reply.
//
// Three subjects are served under a common prefix, all in one queue group:
//
//	<subject>.invoke    message.Request   -> message.Response
//	<subject>.snapshot  message.SnapshotRequest -> message.StorageResponse
//	<subject>.restore   message.RestoreRequest  -> message.StorageResponse
//	<subject>.release   message.ReleaseRequest  -> message.ReleaseResponse
//
// Graph handles created by invocations live in the service's handle store and
// are addressed by id in later requests until they are released.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wehubfusion/Daedalus/pkg/actions"
	"github.com/wehubfusion/Daedalus/pkg/concurrency"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/handles"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/message"
	"github.com/wehubfusion/Daedalus/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Options configures a Service. Zero values get defaults in New.
type Options struct {
	Subject string
	Queue   string

	// Strategy is the batch strategy used when a request does not name one
	Strategy      iteration.Strategy
	MaxConcurrent int
	MaxInFlight   int
	Timeout       time.Duration

	// Breaker sheds requests after repeated handler failures. Nil keeps the limiter's default.
	Breaker *concurrency.CircuitBreaker

	Registry  *actions.Registry
	Handles   *handles.Store
	Snapshots storage.SnapshotStore
	Logger    *zap.Logger
	Tracer    trace.Tracer
}

// Service executes invocations received over NATS
type Service struct {
	subject       string
	queue         string
	strategy      iteration.Strategy
	maxConcurrent int
	timeout       time.Duration

	registry  *actions.Registry
	handles   *handles.Store
	codec     *message.Codec
	snapshots storage.SnapshotStore
	limiter   *concurrency.Limiter
	logger    *zap.Logger
	tracer    trace.Tracer

	mu       sync.Mutex
	subs     []*nats.Subscription
	inFlight sync.WaitGroup
}

// New creates a service. A nil Registry is an error; everything else is optional.
func New(opts Options) (*Service, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("action registry cannot be nil")
	}
	if opts.Subject == "" {
		opts.Subject = "daedalus"
	}
	if opts.Queue == "" {
		opts.Queue = opts.Subject + "-workers"
	}
	if opts.Strategy == "" {
		opts.Strategy = iteration.StrategySequential
	}
	if opts.MaxInFlight <= 0 {
		opts.MaxInFlight = 8
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Handles == nil {
		opts.Handles = handles.NewStore()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("daedalus/service")
	}

	return &Service{
		subject:       opts.Subject,
		queue:         opts.Queue,
		strategy:      opts.Strategy,
		maxConcurrent: opts.MaxConcurrent,
		timeout:       opts.Timeout,
		registry:      opts.Registry,
		handles:       opts.Handles,
		codec:         message.NewCodec(opts.Handles),
		snapshots:     opts.Snapshots,
		limiter:       concurrency.NewLimiter(opts.MaxInFlight, concurrency.WithCircuitBreaker(opts.Breaker)),
		logger:        opts.Logger,
		tracer:        opts.Tracer,
	}, nil
}

// Handles returns the store holding the graph handles of this service
func (s *Service) Handles() *handles.Store {
	return s.handles
}

// Limiter returns the in-flight request limiter
func (s *Service) Limiter() *concurrency.Limiter {
	return s.limiter
}

// Start subscribes to the service subjects on conn
func (s *Service) Start(conn *nats.Conn) error {
	if conn == nil {
		return sdkerrors.ErrNotConnected
	}

	routes := []struct {
		suffix string
		handle func(context.Context, []byte) []byte
	}{
		{"invoke", s.HandleInvoke},
		{"snapshot", s.HandleSnapshot},
		{"restore", s.HandleRestore},
		{"release", s.HandleRelease},
	}

	for _, route := range routes {
		subject := s.subject + "." + route.suffix
		sub, err := conn.QueueSubscribe(subject, s.queue, s.callback(route.handle))
		if err != nil {
			_ = s.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()

		s.logger.Info("Subscribed",
			zap.String("subject", subject),
			zap.String("queue", s.queue))
	}
	return nil
}

// Stop drains the subscriptions and waits for in-flight requests
func (s *Service) Stop() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	var firstErr error
	for _, sub := range subs {
		if err := sub.Drain(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to drain %s: %w", sub.Subject, err)
		}
	}

	// Callbacks stop once a drained subscription becomes invalid
	deadline := time.Now().Add(s.timeout)
	for _, sub := range subs {
		for sub.IsValid() && time.Now().Before(deadline) {
			time.Sleep(10 * time.Millisecond)
		}
	}
	s.inFlight.Wait()
	return firstErr
}

func (s *Service) callback(handle func(context.Context, []byte) []byte) nats.MsgHandler {
	handler := message.Chain(
		message.RecoveryMiddleware(),
		message.LoggingMiddleware(s.logger),
		message.TimeoutMiddleware(s.timeout),
		message.ValidationMiddleware(),
	)(func(ctx context.Context, msg *message.NATSMsg) error {
		return msg.Respond(handle(ctx, msg.Data))
	})

	return func(m *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), propagation.HeaderCarrier(m.Header))
		msg := message.FromNATSMsg(m)

		s.inFlight.Add(1)
		err := s.limiter.Go(ctx, func() error {
			defer s.inFlight.Done()
			if err := handler(ctx, msg); err != nil {
				s.respondError(msg, err)
				return err
			}
			return nil
		})
		if err != nil {
			s.inFlight.Done()
			s.logger.Warn("Rejected message",
				zap.String("subject", msg.Subject),
				zap.Error(err))
			s.respondError(msg, sdkerrors.NewInternalError(msg.Subject, "service is overloaded", "SERVICE_UNAVAILABLE", err))
		}
	}
}

func (s *Service) respondError(msg *message.NATSMsg, err error) {
	resp := message.NewResponse(msg.CorrelationID)
	resp.Error = message.NewErrorInfo(err)
	data, encErr := resp.ToBytes()
	if encErr != nil {
		return
	}
	if rErr := msg.Respond(data); rErr != nil {
		s.logger.Error("Failed to send error response",
			zap.String("subject", msg.Subject),
			zap.Error(rErr))
	}
}

// HandleInvoke executes an encoded message.Request and returns the encoded message.Response.
// Invocations are independent: a failed invocation reports its error and partial
// outputs without stopping the others.
func (s *Service) HandleInvoke(ctx context.Context, data []byte) []byte {
	req, err := message.RequestFromBytes(data)
	if err != nil {
		return s.encode(s.failed("", sdkerrors.NewBadRequestError("request", "invalid request payload", "INVALID_REQUEST", err)))
	}

	strategy := s.strategy
	if req.Strategy != "" {
		strategy = iteration.ParseStrategy(req.Strategy)
	}

	ctx, span := s.tracer.Start(ctx, "service.HandleInvoke",
		trace.WithAttributes(
			attribute.String("request.correlation_id", req.CorrelationID),
			attribute.String("request.strategy", string(strategy)),
			attribute.Int("request.invocations", len(req.Invocations)),
		))
	defer span.End()

	items := make([]any, len(req.Invocations))
	for i, inv := range req.Invocations {
		items[i] = inv
	}

	it := iteration.NewIterator(iteration.Config{Strategy: strategy, MaxConcurrent: s.maxConcurrent})
	results, err := it.Process(ctx, items, func(ctx context.Context, item any, _ int) (any, error) {
		return s.invoke(ctx, item.(message.Invocation)), nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return s.encode(s.failed(req.CorrelationID, err))
	}

	resp := message.NewResponse(req.CorrelationID)
	for _, r := range results {
		resp.Results = append(resp.Results, r.(message.Result))
	}
	if resp.Failed() {
		span.SetStatus(codes.Error, "one or more invocations failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}
	return s.encode(resp)
}

func (s *Service) invoke(ctx context.Context, inv message.Invocation) message.Result {
	start := time.Now()
	result := message.Result{Action: inv.Action, Outputs: []json.RawMessage{}}

	args, err := s.codec.DecodeArguments(inv.Arguments)
	if err != nil {
		result.Error = message.NewErrorInfo(sdkerrors.WithAction(err, inv.Action))
		if result.Error.Action == "" {
			result.Error.Action = inv.Action
		}
		result.DurationMs = time.Since(start).Milliseconds()
		return result
	}

	outputs, execErr := s.registry.Execute(ctx, inv.Action, iteration.Parallel(inv.Parallel), args)

	encoded, encErr := s.codec.EncodeTerms(outputs)
	if encErr != nil && execErr == nil {
		execErr = sdkerrors.NewInternalError(inv.Action, "failed to encode outputs", "OUTPUT_ENCODING_FAILED", encErr)
	}
	if encErr == nil {
		result.Outputs = encoded
	}
	result.Error = message.NewErrorInfo(execErr)
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// HandleSnapshot persists the graph behind a handle
func (s *Service) HandleSnapshot(ctx context.Context, data []byte) []byte {
	var req message.SnapshotRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.encode(storageFailure("", sdkerrors.NewBadRequestError("snapshot", "invalid snapshot payload", "INVALID_REQUEST", err)))
	}
	resp := &message.StorageResponse{CorrelationID: req.CorrelationID, Handle: req.Handle}

	if s.snapshots == nil {
		resp.Error = message.NewErrorInfo(sdkerrors.NewInternalError("snapshot", "snapshot storage is not configured", "STORAGE_NOT_CONFIGURED", nil))
		return s.encode(resp)
	}

	h, ok := s.handles.Get(req.Handle)
	if !ok {
		resp.Error = message.NewErrorInfo(sdkerrors.NewNotFoundError(req.Handle, "unknown handle", "HANDLE_NOT_FOUND"))
		return s.encode(resp)
	}
	q, ok := h.(graph.Queryer)
	if !ok {
		resp.Error = message.NewErrorInfo(sdkerrors.NewValueShapeError("graph handle", h))
		return s.encode(resp)
	}

	snapshot, err := graph.Take(q)
	if err != nil {
		resp.Error = message.NewErrorInfo(sdkerrors.NewInternalError(req.Handle, "failed to take snapshot", "SNAPSHOT_FAILED", err))
		return s.encode(resp)
	}

	ref, err := s.snapshots.Save(ctx, req.Path, snapshot)
	if err != nil {
		resp.Error = message.NewErrorInfo(err)
		return s.encode(resp)
	}

	s.logger.Info("Graph snapshot saved",
		zap.String("handle", req.Handle),
		zap.String("reference", ref),
		zap.String("snapshot", storage.Describe(snapshot)))
	resp.Reference = ref
	return s.encode(resp)
}

// HandleRestore loads a snapshot into a new graph and returns its handle
func (s *Service) HandleRestore(ctx context.Context, data []byte) []byte {
	var req message.RestoreRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.encode(storageFailure("", sdkerrors.NewBadRequestError("restore", "invalid restore payload", "INVALID_REQUEST", err)))
	}
	resp := &message.StorageResponse{CorrelationID: req.CorrelationID}

	if s.snapshots == nil {
		resp.Error = message.NewErrorInfo(sdkerrors.NewInternalError("restore", "snapshot storage is not configured", "STORAGE_NOT_CONFIGURED", nil))
		return s.encode(resp)
	}

	snapshot, err := s.snapshots.Load(ctx, req.Path)
	if err != nil {
		resp.Error = message.NewErrorInfo(err)
		return s.encode(resp)
	}

	g, err := graph.Restore(snapshot)
	if err != nil {
		resp.Error = message.NewErrorInfo(sdkerrors.NewInternalError(req.Path, "failed to restore graph", "RESTORE_FAILED", err))
		return s.encode(resp)
	}

	resp.Handle = s.handles.Put(g)
	resp.Reference = req.Path
	s.logger.Info("Graph restored",
		zap.String("path", req.Path),
		zap.String("handle", resp.Handle),
		zap.String("snapshot", storage.Describe(snapshot)))
	return s.encode(resp)
}

// HandleRelease drops handles from the store. Graphs that are no longer
// referenced by any handle become garbage. Releasing a graph does not release
// read-only views created from it.
func (s *Service) HandleRelease(ctx context.Context, data []byte) []byte {
	var req message.ReleaseRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return s.encode(&message.ReleaseResponse{
			Released: []string{},
			Error:    message.NewErrorInfo(sdkerrors.NewBadRequestError("release", "invalid release payload", "INVALID_REQUEST", err)),
		})
	}
	resp := &message.ReleaseResponse{CorrelationID: req.CorrelationID, Released: []string{}}
	if len(req.Handles) == 0 {
		resp.Error = message.NewErrorInfo(sdkerrors.NewBadRequestError("release", "no handles to release", "HANDLES_REQUIRED", nil))
		return s.encode(resp)
	}

	for _, id := range req.Handles {
		if s.handles.Delete(id) {
			resp.Released = append(resp.Released, id)
		} else {
			resp.Unknown = append(resp.Unknown, id)
		}
	}

	s.logger.Info("Handles released",
		zap.Int("released", len(resp.Released)),
		zap.Int("unknown", len(resp.Unknown)),
		zap.Int("remaining", s.handles.Len()))
	return s.encode(resp)
}

func (s *Service) failed(correlationID string, err error) *message.Response {
	resp := message.NewResponse(correlationID)
	resp.Error = message.NewErrorInfo(err)
	return resp
}

func storageFailure(correlationID string, err error) *message.StorageResponse {
	return &message.StorageResponse{CorrelationID: correlationID, Error: message.NewErrorInfo(err)}
}

func (s *Service) encode(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		return []byte(`{"error":{"type":"INTERNAL","message":"failed to encode response"}}`)
	}
	return data
}
