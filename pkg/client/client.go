package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	natsclient "github.com/nats-io/nats.go"
	"github.com/wehubfusion/Daedalus/internal/nats"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

// Requester sends a request and waits for the reply. *nats.Conn implements it.
type Requester interface {
	RequestMsgWithContext(ctx context.Context, msg *natsclient.Msg) (*natsclient.Msg, error)
}

// Client talks to a Daedalus action service over NATS request/reply.
//
// Example usage:
//
//	c := client.NewClient("nats://localhost:4222", "daedalus")
//	if err := c.Connect(ctx); err != nil {
//	    logger.Fatal("Failed to connect", zap.Error(err))
//	}
//	defer c.Close()
//
//	resp, err := c.Invoke(ctx, message.NewRequest().
//	    WithInvocation("graph/create", false, message.MustValue("directedsparse")))
type Client struct {
	conn      *natsclient.Conn
	requester Requester
	config    *nats.ConnectionConfig
	subject   string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient creates a client for the service listening under subject
func NewClient(url, subject string) *Client {
	return NewClientWithConfig(nats.DefaultConnectionConfig(url), subject)
}

// NewClientWithConfig creates a client with custom connection parameters
func NewClientWithConfig(config *nats.ConnectionConfig, subject string) *Client {
	if subject == "" {
		subject = "daedalus"
	}
	return &Client{
		config:  config,
		subject: subject,
		timeout: 30 * time.Second,
		logger:  zap.NewNop(),
	}
}

// NewClientWithRequester creates a client wired to r instead of a NATS connection.
// Useful for tests.
func NewClientWithRequester(r Requester, subject string) *Client {
	c := NewClientWithConfig(nil, subject)
	c.requester = r
	return c
}

// SetLogger sets a custom zap logger for the client
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger != nil {
		c.logger = logger
		if c.config != nil {
			c.config.Logger = logger
		}
	}
}

// SetTimeout bounds every request that has no earlier context deadline
func (c *Client) SetTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.timeout = timeout
	}
}

// Connect establishes the NATS connection
func (c *Client) Connect(ctx context.Context) error {
	if c.conn != nil && c.conn.IsConnected() {
		return nil
	}
	if c.config == nil {
		return sdkerrors.NewBadRequestError("", "client has no connection config", "CONFIG_MISSING", nil)
	}

	conn, err := nats.Connect(ctx, c.config)
	if err != nil {
		return sdkerrors.NewInternalError("", "failed to connect to NATS", "CONNECTION_FAILED", err)
	}
	c.conn = conn
	c.requester = conn

	c.logger.Info("Connected to action service",
		zap.String("url", conn.ConnectedUrl()),
		zap.String("subject", c.subject))
	return nil
}

// Close drains and closes the NATS connection
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	if err := nats.Close(c.conn); err != nil {
		return sdkerrors.NewInternalError("", "failed to close connection", "CLOSE_FAILED", err)
	}
	c.conn = nil
	c.requester = nil
	return nil
}

// IsConnected reports whether requests can be sent
func (c *Client) IsConnected() bool {
	if c.conn != nil {
		return nats.IsConnected(c.conn)
	}
	return c.requester != nil
}

// Invoke sends req and returns the service response. Invocation failures are
// reported inside the response; the error covers transport and decoding only.
func (c *Client) Invoke(ctx context.Context, req *message.Request) (*message.Response, error) {
	if req == nil {
		return nil, sdkerrors.NewBadRequestError("request", "request cannot be nil", "REQUEST_NIL", nil)
	}
	if req.CorrelationID == "" {
		req.CorrelationID = uuid.NewString()
	}

	data, err := req.ToBytes()
	if err != nil {
		return nil, sdkerrors.NewInternalError("request", "failed to encode request", "ENCODE_FAILED", err)
	}

	reply, err := c.request(ctx, "invoke", req.CorrelationID, data)
	if err != nil {
		return nil, err
	}

	resp, err := message.ResponseFromBytes(reply)
	if err != nil {
		return nil, sdkerrors.NewInternalError("response", "failed to decode response", "DECODE_FAILED", err)
	}
	return resp, nil
}

// Snapshot persists the graph behind handle under path and returns the blob reference
func (c *Client) Snapshot(ctx context.Context, handle, path string) (string, error) {
	resp, err := c.storageCall(ctx, "snapshot", message.SnapshotRequest{
		CorrelationID: uuid.NewString(),
		Handle:        handle,
		Path:          path,
	})
	if err != nil {
		return "", err
	}
	return resp.Reference, nil
}

// Restore loads the snapshot at path into a new graph and returns its handle id
func (c *Client) Restore(ctx context.Context, path string) (string, error) {
	resp, err := c.storageCall(ctx, "restore", message.RestoreRequest{
		CorrelationID: uuid.NewString(),
		Path:          path,
	})
	if err != nil {
		return "", err
	}
	return resp.Handle, nil
}

// Release drops handles from the service's store and returns the ids that were
// released. Unknown ids are ignored.
func (c *Client) Release(ctx context.Context, handles ...string) ([]string, error) {
	req := message.ReleaseRequest{CorrelationID: uuid.NewString(), Handles: handles}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, sdkerrors.NewInternalError("release", "failed to encode request", "ENCODE_FAILED", err)
	}

	reply, err := c.request(ctx, "release", req.CorrelationID, data)
	if err != nil {
		return nil, err
	}

	var resp message.ReleaseResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, sdkerrors.NewInternalError("release", "failed to decode response", "DECODE_FAILED", err)
	}
	if resp.Error != nil {
		return nil, remoteError(resp.Error)
	}
	if len(resp.Unknown) > 0 {
		c.logger.Debug("Released unknown handles", zap.Strings("handles", resp.Unknown))
	}
	return resp.Released, nil
}

func (c *Client) storageCall(ctx context.Context, suffix string, req any) (*message.StorageResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, sdkerrors.NewInternalError(suffix, "failed to encode request", "ENCODE_FAILED", err)
	}

	var correlationID string
	switch r := req.(type) {
	case message.SnapshotRequest:
		correlationID = r.CorrelationID
	case message.RestoreRequest:
		correlationID = r.CorrelationID
	}

	reply, err := c.request(ctx, suffix, correlationID, data)
	if err != nil {
		return nil, err
	}

	var resp message.StorageResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, sdkerrors.NewInternalError(suffix, "failed to decode response", "DECODE_FAILED", err)
	}
	if resp.Error != nil {
		return nil, remoteError(resp.Error)
	}
	return &resp, nil
}

func (c *Client) request(ctx context.Context, suffix, correlationID string, data []byte) ([]byte, error) {
	if c.requester == nil {
		return nil, sdkerrors.ErrNotConnected
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg := natsclient.NewMsg(c.subject + "." + suffix)
	msg.Data = data
	msg.Header.Set(message.CorrelationHeader, correlationID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	start := time.Now()
	reply, err := c.requester.RequestMsgWithContext(ctx, msg)
	if err != nil {
		c.logger.Error("Request failed",
			zap.String("subject", msg.Subject),
			zap.String("correlation_id", correlationID),
			zap.Error(err))
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s request: %w: %w", suffix, sdkerrors.ErrTimeout, err)
		}
		return nil, sdkerrors.NewInternalError(msg.Subject, "request failed", "REQUEST_FAILED", err)
	}

	c.logger.Debug("Request completed",
		zap.String("subject", msg.Subject),
		zap.String("correlation_id", correlationID),
		zap.Duration("duration", time.Since(start)))
	return reply.Data, nil
}

// remoteError turns an ErrorInfo from the service back into an AppError
func remoteError(info *message.ErrorInfo) error {
	return &sdkerrors.AppError{
		Type:    sdkerrors.ParseErrorType(info.Type),
		Action:  info.Action,
		Code:    info.Code,
		Message: info.Message,
	}
}
