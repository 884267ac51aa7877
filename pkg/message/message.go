package message

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// CorrelationHeader carries the correlation id of a request on NATS messages
const CorrelationHeader = "Correlation-Id"

// Invocation asks for one action to be executed
type Invocation struct {
	// Action is the registry name of the action, e.g. "graph/neighborsmultiple"
	Action string `json:"action"`

	// Parallel selects concurrency-safe result containers
	Parallel bool `json:"parallel,omitempty"`

	// Arguments are encoded terms, see Codec
	Arguments []json.RawMessage `json:"arguments"`
}

// Request is a batch of independent invocations.
// Invocations never see each other's outputs except through shared handles.
type Request struct {
	// CorrelationID is a unique identifier for tracking the request across the system
	CorrelationID string `json:"correlationId,omitempty"`

	// Strategy is the batch strategy: "sequential" (default) or "parallel"
	Strategy string `json:"strategy,omitempty"`

	// Invocations are executed independently, results keep their order
	Invocations []Invocation `json:"invocations"`

	// CreatedAt is the timestamp when the request was created
	CreatedAt string `json:"createdAt"`
}

// ErrorInfo is the wire form of an action error
type ErrorInfo struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Action  string `json:"action,omitempty"`
	Message string `json:"message"`
}

// NewErrorInfo converts err to its wire form. Errors that are not AppErrors
// are reported as INTERNAL.
func NewErrorInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{
		Type:    sdkerrors.TypeOf(err).String(),
		Message: err.Error(),
	}
	var appErr *sdkerrors.AppError
	if errors.As(err, &appErr) {
		info.Code = appErr.Code
		info.Action = appErr.Action
	}
	return info
}

// Result is the outcome of one invocation. Outputs hold whatever the action
// produced, including the partial outputs of a failed invocation.
type Result struct {
	Action     string            `json:"action"`
	Outputs    []json.RawMessage `json:"outputs"`
	Error      *ErrorInfo        `json:"error,omitempty"`
	DurationMs int64             `json:"durationMs"`
}

// Response answers a Request
type Response struct {
	CorrelationID string     `json:"correlationId,omitempty"`
	Results       []Result   `json:"results"`
	Error         *ErrorInfo `json:"error,omitempty"`
	CreatedAt     string     `json:"createdAt"`
}

// SnapshotRequest asks for the graph behind Handle to be persisted under Path
type SnapshotRequest struct {
	CorrelationID string `json:"correlationId,omitempty"`
	Handle        string `json:"handle"`
	Path          string `json:"path"`
}

// RestoreRequest asks for the snapshot at Path to be loaded as a new handle
type RestoreRequest struct {
	CorrelationID string `json:"correlationId,omitempty"`
	Path          string `json:"path"`
}

// StorageResponse answers snapshot and restore requests
type StorageResponse struct {
	CorrelationID string     `json:"correlationId,omitempty"`
	Handle        string     `json:"handle,omitempty"`
	Reference     string     `json:"reference,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
}

// ReleaseRequest asks for handles to be dropped from the service's store
type ReleaseRequest struct {
	CorrelationID string   `json:"correlationId,omitempty"`
	Handles       []string `json:"handles"`
}

// ReleaseResponse lists which handles were dropped and which were unknown
type ReleaseResponse struct {
	CorrelationID string     `json:"correlationId,omitempty"`
	Released      []string   `json:"released"`
	Unknown       []string   `json:"unknown,omitempty"`
	Error         *ErrorInfo `json:"error,omitempty"`
}

// NewRequest creates an empty request with a timestamp
func NewRequest() *Request {
	return &Request{CreatedAt: time.Now().Format(time.RFC3339)}
}

// WithCorrelationID sets the correlation ID for the request
func (r *Request) WithCorrelationID(correlationID string) *Request {
	r.CorrelationID = correlationID
	return r
}

// WithStrategy sets the batch strategy
func (r *Request) WithStrategy(strategy string) *Request {
	r.Strategy = strategy
	return r
}

// WithInvocation appends an invocation
func (r *Request) WithInvocation(action string, parallel bool, arguments ...json.RawMessage) *Request {
	r.Invocations = append(r.Invocations, Invocation{
		Action:    action,
		Parallel:  parallel,
		Arguments: arguments,
	})
	return r
}

// ToBytes serializes the request to JSON bytes
func (r *Request) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

// RequestFromBytes deserializes a request from JSON bytes
func RequestFromBytes(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// NewResponse creates a response for correlationID
func NewResponse(correlationID string) *Response {
	return &Response{
		CorrelationID: correlationID,
		Results:       []Result{},
		CreatedAt:     time.Now().Format(time.RFC3339),
	}
}

// ToBytes serializes the response to JSON bytes
func (r *Response) ToBytes() ([]byte, error) {
	return json.Marshal(r)
}

// ResponseFromBytes deserializes a response from JSON bytes
func ResponseFromBytes(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Failed reports whether the response or any of its results carries an error
func (r *Response) Failed() bool {
	if r.Error != nil {
		return true
	}
	for _, res := range r.Results {
		if res.Error != nil {
			return true
		}
	}
	return false
}

// NATSMsg is a request received over core NATS
type NATSMsg struct {
	// Subject is the subject the message was received on
	Subject string

	// Reply is the reply subject (if applicable)
	Reply string

	// CorrelationID is taken from the CorrelationHeader, if present
	CorrelationID string

	// Data is the raw payload
	Data []byte

	natsMsg *nats.Msg
}

// FromNATSMsg wraps a NATS message
func FromNATSMsg(m *nats.Msg) *NATSMsg {
	msg := &NATSMsg{
		Subject: m.Subject,
		Reply:   m.Reply,
		Data:    m.Data,
		natsMsg: m,
	}
	if m.Header != nil {
		msg.CorrelationID = m.Header.Get(CorrelationHeader)
	}
	return msg
}

// Respond sends data back to the reply subject. Messages without a reply subject are ignored.
func (m *NATSMsg) Respond(data []byte) error {
	if m.natsMsg == nil || m.Reply == "" {
		return nil
	}
	return m.natsMsg.Respond(data)
}
