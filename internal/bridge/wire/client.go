package wire

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/joss/unpin/internal/bridge"
	"github.com/joss/unpin/internal/logging"
)

// Client is a bridge.Bridge backed by an NDJSON connection to an in-process
// agent. Requests are strictly serialized: one outstanding request at a
// time, the reply is the next correlated envelope on the stream.
type Client struct {
	enc    *Encoder
	dec    *Decoder
	closer io.Closer

	mu  sync.Mutex
	log *logging.Logger
}

// NewClient wraps an established connection.
func NewClient(rw io.ReadWriter) *Client {
	c := &Client{
		enc: NewEncoder(rw),
		dec: NewDecoder(rw),
		log: logging.New("wire"),
	}
	if closer, ok := rw.(io.Closer); ok {
		c.closer = closer
	}
	return c
}

// Dial connects to an agent listening on a TCP address.
func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", bridge.ErrConnection, addr, err)
	}
	return NewClient(conn), nil
}

// Close closes the underlying connection when it is closable.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// ResolveClass implements bridge.Bridge.
func (c *Client) ResolveClass(ctx context.Context, name string) (bridge.ClassHandle, error) {
	var reply ClassReply
	err := c.roundTrip(ctx, MsgResolveClass, ResolveClassRequest{Class: name}, &reply)
	if err != nil {
		return bridge.ClassHandle{}, err
	}
	return bridge.ClassHandle{Name: reply.Name, Ref: reply.Ref}, nil
}

// LoadedClassNames implements bridge.Bridge.
func (c *Client) LoadedClassNames(ctx context.Context) ([]string, error) {
	var reply EnumerateReply
	if err := c.roundTrip(ctx, MsgEnumerate, nil, &reply); err != nil {
		return nil, err
	}
	return reply.Names, nil
}

// Overloads implements bridge.Bridge.
func (c *Client) Overloads(ctx context.Context, class bridge.ClassHandle, method string) ([]bridge.MethodHandle, error) {
	var reply OverloadsReply
	err := c.roundTrip(ctx, MsgOverloads, OverloadsRequest{
		ClassRef: class.Ref,
		Class:    class.Name,
		Method:   method,
	}, &reply)
	if err != nil {
		return nil, err
	}

	handles := make([]bridge.MethodHandle, 0, len(reply.Overloads))
	for _, o := range reply.Overloads {
		handles = append(handles, bridge.MethodHandle{
			Class:  class.Name,
			Name:   method,
			Params: o.Params,
			Ref:    o.Ref,
		})
	}
	return handles, nil
}

// Install implements bridge.Bridge.
func (c *Client) Install(ctx context.Context, method bridge.MethodHandle, body bridge.Body) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	return c.roundTrip(ctx, MsgInstall, InstallRequest{
		MethodRef: method.Ref,
		Body:      raw,
	}, nil)
}

// Construct implements bridge.Bridge.
func (c *Client) Construct(ctx context.Context, iface bridge.ClassHandle, behavior bridge.Behavior) (bridge.ObjectHandle, error) {
	table := make(map[string]string, len(behavior))
	for method, result := range behavior {
		table[method] = string(result)
	}

	var reply ObjectReply
	err := c.roundTrip(ctx, MsgConstruct, ConstructRequest{
		Interface: iface.Name,
		Behavior:  table,
	}, &reply)
	if err != nil {
		return bridge.ObjectHandle{}, err
	}
	return bridge.ObjectHandle{Interface: iface.Name, Ref: reply.Ref}, nil
}

// roundTrip sends one request and blocks for its correlated reply.
func (c *Client) roundTrip(ctx context.Context, msgType MessageType, payload, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", bridge.ErrConnection, err)
	}

	req := NewEnvelope(msgType, payload)
	if err := c.enc.Encode(req); err != nil {
		return fmt.Errorf("%w: send %s: %v", bridge.ErrConnection, msgType, err)
	}

	for {
		env, err := c.dec.Decode()
		if err != nil {
			return fmt.Errorf("%w: read reply: %v", bridge.ErrConnection, err)
		}
		if env.InReplyTo != req.ID {
			// Stale reply from an aborted exchange. Skip it.
			c.log.Debug("stray_reply", map[string]any{"id": env.ID, "in_reply_to": env.InReplyTo})
			continue
		}

		if env.Type == MsgError {
			var p ErrorPayload
			if err := env.GetPayload(&p); err != nil {
				return fmt.Errorf("%w: malformed error reply: %v", bridge.ErrConnection, err)
			}
			return mapError(req, p)
		}

		if out == nil {
			return nil
		}
		return env.GetPayload(out)
	}
}

// mapError converts an agent error payload into the bridge error taxonomy.
// Older agents omit the class/method fields; the overloads path recovers
// them from the request instead.
func mapError(req *Envelope, p ErrorPayload) error {
	class, method := p.Class, p.Method
	if class == "" {
		var r OverloadsRequest
		if req.GetPayload(&r) == nil {
			class, method = r.Class, r.Method
		}
	}

	switch p.Code {
	case CodeClassNotFound:
		if class == "" {
			class = p.Message
		}
		return &bridge.ClassNotFoundError{Class: class}
	case CodeMethodNotFound:
		return &bridge.MethodNotFoundError{Class: class, Method: method}
	case CodeOverloadMismatch:
		return &bridge.OverloadMismatchError{Class: class, Method: method}
	case CodeInstallFailed:
		return &bridge.InstallError{Class: class, Method: method, Reason: p.Message}
	default:
		return fmt.Errorf("%w: agent error %s: %s", bridge.ErrConnection, p.Code, p.Message)
	}
}
