// Package wire implements the bridge over a newline-delimited JSON
// connection to an agent injected into the target process. Each message is
// one JSON envelope per line; replies carry the request's ID so the client
// can correlate them.
package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the kind of message.
type MessageType string

const (
	// Client → agent
	MsgResolveClass MessageType = "resolve_class"
	MsgEnumerate    MessageType = "enumerate_classes"
	MsgOverloads    MessageType = "overloads"
	MsgInstall      MessageType = "install"
	MsgConstruct    MessageType = "construct"

	// Agent → client
	MsgReply MessageType = "reply"
	MsgError MessageType = "error"
)

// Envelope wraps all wire messages.
type Envelope struct {
	Type      MessageType `json:"type"`
	ID        string      `json:"id"`
	InReplyTo string      `json:"in_reply_to,omitempty"`
	Timestamp string      `json:"ts"`
	Payload   any         `json:"payload,omitempty"`
}

// NewEnvelope creates a new envelope with auto-generated ID and timestamp.
func NewEnvelope(msgType MessageType, payload any) *Envelope {
	return &Envelope{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	}
}

// Reply creates a reply envelope correlated to a request.
func Reply(req *Envelope, payload any) *Envelope {
	env := NewEnvelope(MsgReply, payload)
	env.InReplyTo = req.ID
	return env
}

// ErrorReply creates an error envelope correlated to a request.
func ErrorReply(req *Envelope, p ErrorPayload) *Envelope {
	env := NewEnvelope(MsgError, p)
	env.InReplyTo = req.ID
	return env
}

// ResolveClassRequest asks the agent to look up a class by binary name.
type ResolveClassRequest struct {
	Class string `json:"class"`
}

// ClassReply carries a resolved class handle.
type ClassReply struct {
	Name string `json:"name"`
	Ref  string `json:"ref"`
}

// EnumerateReply carries the loaded class list.
type EnumerateReply struct {
	Names []string `json:"names"`
}

// OverloadsRequest asks for every overload of a method.
type OverloadsRequest struct {
	ClassRef string `json:"class_ref"`
	Class    string `json:"class"`
	Method   string `json:"method"`
}

// OverloadInfo is one overload in an OverloadsReply.
type OverloadInfo struct {
	Params []string `json:"params"`
	Ref    string   `json:"ref"`
}

// OverloadsReply lists a method's overloads. An unknown method is an empty
// list, not an error.
type OverloadsReply struct {
	Overloads []OverloadInfo `json:"overloads"`
}

// InstallRequest asks the agent to patch one overload. The body is the
// declarative replacement the agent compiles in-process.
type InstallRequest struct {
	MethodRef string          `json:"method_ref"`
	Body      json.RawMessage `json:"body"`
}

// ConstructRequest asks the agent to build an interface instance with the
// given per-method behavior table.
type ConstructRequest struct {
	Interface string            `json:"interface"`
	Behavior  map[string]string `json:"behavior"`
}

// ObjectReply carries a constructed instance's handle.
type ObjectReply struct {
	Ref string `json:"ref"`
}

// ErrorPayload describes a failed request. Code selects the error the
// client surfaces; Class and Method name the target the agent was working
// on so failure records read fully qualified.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Class   string `json:"class,omitempty"`
	Method  string `json:"method,omitempty"`
}

// Error codes the agent may send.
const (
	CodeClassNotFound    = "class_not_found"
	CodeMethodNotFound   = "method_not_found"
	CodeOverloadMismatch = "overload_mismatch"
	CodeInstallFailed    = "install_failed"
)

// Encoder writes envelopes as JSON lines.
type Encoder struct {
	w  io.Writer
	mu sync.Mutex
}

// NewEncoder creates an encoder for the given writer.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes an envelope as a single JSON line.
func (e *Encoder) Encode(env *Envelope) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	_, err = fmt.Fprintf(e.w, "%s\n", data)
	return err
}

// Decoder reads envelopes from JSON lines.
type Decoder struct {
	scanner *bufio.Scanner
}

// NewDecoder creates a decoder for the given reader.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Class enumerations can be large
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Decoder{scanner: scanner}
}

// Decode reads the next envelope.
func (d *Decoder) Decode() (*Envelope, error) {
	if !d.scanner.Scan() {
		if err := d.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}

	line := d.scanner.Bytes()
	if len(line) == 0 {
		return d.Decode() // Skip empty lines
	}

	var env Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// GetPayload extracts and unmarshals the payload into the target type.
func (e *Envelope) GetPayload(target any) error {
	if e.Payload == nil {
		return nil
	}

	// Payload comes as map[string]any from JSON, re-marshal to unmarshal
	// into the concrete struct
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
