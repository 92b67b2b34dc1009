// Package client implements the calling peer of the protocol: framed
// request/response exchanges over pooled connections, with optional
// registry-based discovery.
package client

import (
	"fmt"
	"sync"

	"objrpc/codec"
	"objrpc/loadbalance"
	"objrpc/message"
	"objrpc/protocol"
	"objrpc/registry"
	"objrpc/transport"
)

// responseMaxLen caps response frames on the client side. Responses (file
// contents in particular) routinely exceed the server's request cap, so this
// is a separate, much larger bound.
const responseMaxLen uint32 = 1 << 20

// RemoteError carries an ("error", message) reply from the server. The call
// reached the server and was answered; only the handler (or the request
// shape) failed.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// Client issues RPC calls. Safe for concurrent use; concurrency is bounded
// by the per-address pool size, and each borrowed connection carries exactly
// one request/response exchange at a time.
type Client struct {
	registry registry.Registry    // nil for direct clients
	balancer loadbalance.Balancer // nil for direct clients
	service  string
	addr     string // fixed address for direct clients

	codec    codec.Codec
	poolSize int

	mu    sync.Mutex
	pools map[string]*transport.Pool
}

// Dial creates a client bound to a single server address.
func Dial(addr string, poolSize int) *Client {
	return &Client{
		addr:     addr,
		codec:    codec.GetCodec(codec.CodecTypeMsgpack),
		poolSize: poolSize,
		pools:    make(map[string]*transport.Pool),
	}
}

// NewClient creates a discovery client: every call resolves the service's
// instances through reg and picks one via bal.
func NewClient(reg registry.Registry, bal loadbalance.Balancer, service string, poolSize int) *Client {
	return &Client{
		registry: reg,
		balancer: bal,
		service:  service,
		codec:    codec.GetCodec(codec.CodecTypeMsgpack),
		poolSize: poolSize,
		pools:    make(map[string]*transport.Pool),
	}
}

// Call invokes method with positional arguments.
func (c *Client) Call(method string, args ...any) (any, error) {
	return c.roundTrip(&message.Request{Method: method, Args: message.PositionalArgs(args...)})
}

// CallKeyword invokes method with keyword arguments.
func (c *Client) CallKeyword(method string, kwargs map[string]any) (any, error) {
	return c.roundTrip(&message.Request{Method: method, Args: message.KeywordArgs(kwargs)})
}

func (c *Client) pickAddr() (string, error) {
	if c.registry == nil {
		return c.addr, nil
	}
	instances, err := c.registry.Discover(c.service)
	if err != nil {
		return "", err
	}
	instance, err := c.balancer.Pick(instances)
	if err != nil {
		return "", err
	}
	return instance.Addr, nil
}

func (c *Client) pool(addr string) *transport.Pool {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pools[addr]
	if !ok {
		p = transport.NewPool(addr, c.poolSize, nil)
		c.pools[addr] = p
	}
	return p
}

// roundTrip sends one request frame and reads one response frame on a
// borrowed connection. Any transport failure marks the connection unusable
// so it is discarded rather than returned to the pool.
func (c *Client) roundTrip(req *message.Request) (any, error) {
	addr, err := c.pickAddr()
	if err != nil {
		return nil, err
	}
	pool := c.pool(addr)
	conn, err := pool.Get()
	if err != nil {
		return nil, err
	}
	defer pool.Put(conn)

	body, err := c.codec.Encode(req.Envelope())
	if err != nil {
		return nil, err
	}
	if err := protocol.WriteFrame(conn, body); err != nil {
		conn.MarkUnusable()
		return nil, err
	}

	respBody, err := protocol.ReadFrame(conn.Reader(), responseMaxLen)
	if err != nil {
		conn.MarkUnusable()
		return nil, err
	}
	var decoded any
	if err := c.codec.Decode(respBody, &decoded); err != nil {
		conn.MarkUnusable()
		return nil, err
	}
	resp, err := message.ParseResponse(decoded)
	if err != nil {
		conn.MarkUnusable()
		return nil, err
	}

	if resp.Status == message.StatusError {
		msg, _ := resp.Payload.(string)
		return nil, &RemoteError{Message: msg}
	}
	return resp.Payload, nil
}

// Close shuts down every connection pool.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pools {
		p.Close()
	}
	c.pools = make(map[string]*transport.Pool)
}
