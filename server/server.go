// Package server implements the framed RPC server: banner greeting, frame
// read/write loop, request decoding, dispatch, and lifecycle control.
//
// Connection pipeline:
//
//	Accept conn → handleConn (one goroutine per connection)
//	  → write Banner
//	  → loop: ReadFrame → decode → middleware chain → dispatch → encode → WriteFrame
//
// Requests on one connection are served strictly in order: the loop reads a
// frame, produces its response, and writes it before reading the next frame.
// There is no pipelining, so responses can never be reordered relative to
// their requests.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"objrpc/codec"
	"objrpc/dispatch"
	"objrpc/message"
	"objrpc/middleware"
	"objrpc/protocol"
	"objrpc/registry"
)

// ErrAlreadyRunning is returned by Run when the server has been started and
// not yet stopped. This is lifecycle misuse by the caller, deliberately a
// distinct error from anything connection-level.
var ErrAlreadyRunning = errors.New("server already running")

// Server owns the dispatch table, the listening socket, and the accept loop.
// Construct with NewServer; the zero value is not usable.
type Server struct {
	table       *dispatch.Table
	codec       codec.Codec
	maxFrameLen uint32

	mu       sync.Mutex   // guards listener across Run/Stop
	listener net.Listener // nil when not running
	wg       sync.WaitGroup
	shutdown atomic.Bool // set during Stop to suppress the Accept error

	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // middleware(middleware(...(dispatchHandler)))

	registry      registry.Registry // nil unless Advertise was called
	serviceName   string
	advertiseAddr string
}

// NewServer creates a server over the given (immutable) dispatch table,
// speaking msgpack on the wire.
func NewServer(table *dispatch.Table) *Server {
	return &Server{
		table:       table,
		codec:       codec.GetCodec(codec.CodecTypeMsgpack),
		maxFrameLen: protocol.MaxFrameLen,
	}
}

// Use registers a middleware. Middlewares apply in registration order,
// outermost first. Must be called before Run.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// SetCodec replaces the wire codec. Must be called before Run.
func (svr *Server) SetCodec(c codec.Codec) {
	svr.codec = c
}

// Advertise makes Run register the server in reg under serviceName with the
// given routable address, and Stop deregister it. The advertise address is
// separate from the bind address because "0.0.0.0:port" is not routable.
func (svr *Server) Advertise(reg registry.Registry, serviceName, addr string) {
	svr.registry = reg
	svr.serviceName = serviceName
	svr.advertiseAddr = addr
}

// Run binds 0.0.0.0:port and starts the accept loop on its own goroutine,
// returning once the listener is live. Calling Run on a running server
// returns ErrAlreadyRunning; after a completed Stop the server may be
// started again. Port 0 binds an ephemeral port (see Addr).
func (svr *Server) Run(port int) error {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener != nil {
		return ErrAlreadyRunning
	}

	listener, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return err
	}

	// Build the middleware chain once at startup, not per request:
	// Chain(A, B, C)(dispatchHandler) → A(B(C(dispatchHandler))).
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatchHandler)

	if svr.registry != nil {
		err := svr.registry.Register(svr.serviceName, registry.ServiceInstance{
			Addr: svr.advertiseAddr,
		}, 10) // TTL 10s, renewed by KeepAlive
		if err != nil {
			listener.Close()
			return err
		}
	}

	svr.shutdown.Store(false)
	svr.listener = listener
	go svr.acceptLoop(listener)
	return nil
}

// Addr returns the listen address, or nil when the server is not running.
func (svr *Server) Addr() net.Addr {
	svr.mu.Lock()
	defer svr.mu.Unlock()
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// acceptLoop serves until the listener closes. Each accepted connection gets
// its own goroutine; within a connection, requests stay sequential.
func (svr *Server) acceptLoop(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Stop closes the listener to unblock Accept; the shutdown flag
			// tells that intentional close apart from a real error.
			if !svr.shutdown.Load() {
				log.Printf("accept: %v", err)
			}
			return
		}
		go svr.handleConn(conn)
	}
}

// handleConn owns one accepted connection from greeting to close.
func (svr *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	if _, err := conn.Write([]byte(protocol.Banner)); err != nil {
		return
	}

	for {
		body, err := protocol.ReadFrame(conn, svr.maxFrameLen)
		if errors.Is(err, protocol.ErrFrameTooLong) {
			// The declared body was never read, so the stream position is
			// unknown. Report the oversize condition, then drop the
			// connection rather than misparse leftover bytes as a prefix.
			svr.writeResponse(conn, message.Error("CMD too long"))
			return
		}
		if err != nil {
			return // peer closed or transport fault
		}
		resp := svr.serveRequest(body)
		if err := svr.writeResponse(conn, resp); err != nil {
			return
		}
	}
}

// serveRequest turns one request frame into a response envelope. Every
// failure — decode, shape, lookup, handler — is contained here and becomes a
// well-formed ("error", message) reply; nothing propagates out to break the
// connection loop.
func (svr *Server) serveRequest(body []byte) *message.Response {
	svr.wg.Add(1)
	defer svr.wg.Done()

	var decoded any
	if err := svr.codec.Decode(body, &decoded); err != nil {
		return message.Error(err.Error())
	}
	req, err := message.ParseRequest(decoded)
	if err != nil {
		return message.Error(err.Error())
	}
	return svr.handler(context.Background(), req)
}

// dispatchHandler is the innermost handler wrapped by the middleware chain:
// table lookup, argument binding, invocation.
func (svr *Server) dispatchHandler(ctx context.Context, req *message.Request) *message.Response {
	h, err := svr.table.Lookup(req.Method)
	if err != nil {
		return message.Error(err.Error())
	}
	result, err := h.Invoke(req.Args)
	if err != nil {
		return message.Error(err.Error())
	}
	return message.OK(result)
}

// writeResponse encodes the envelope and writes it as one frame.
func (svr *Server) writeResponse(conn net.Conn, resp *message.Response) error {
	body, err := svr.codec.Encode(resp.Envelope())
	if err != nil {
		log.Printf("encode response: %v", err)
		body, err = svr.codec.Encode(message.Error("response encoding failed").Envelope())
		if err != nil {
			return err
		}
	}
	return protocol.WriteFrame(conn, body)
}

// Stop shuts the server down:
//  1. Deregister from the registry, if advertised, so clients stop routing
//     new calls here.
//  2. Set the shutdown flag, then close the listener — a blocked Accept
//     returns immediately and the accept loop exits.
//  3. Wait for in-flight requests, bounded by timeout.
//
// Stop on a stopped server is a no-op. After Stop returns, Run may be called
// again.
func (svr *Server) Stop(timeout time.Duration) error {
	svr.mu.Lock()
	listener := svr.listener
	svr.listener = nil
	svr.mu.Unlock()
	if listener == nil {
		return nil
	}

	if svr.registry != nil {
		if err := svr.registry.Deregister(svr.serviceName, svr.advertiseAddr); err != nil {
			log.Printf("deregister: %v", err)
		}
	}

	// Flag before close, so the accept loop reads the close as intentional.
	svr.shutdown.Store(true)
	listener.Close()

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for in-flight requests")
	}
}
