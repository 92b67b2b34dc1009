// Package transport provides the client-side connection pool.
//
// Connections are borrowed exclusively: one request/response exchange at a
// time per connection, matching the server's strictly sequential serving
// loop. A buffered channel serves as the FIFO pool — channels are
// goroutine-safe and blocking on empty comes built in.
package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
)

// Conn is one pooled connection. The server's greeting line was consumed
// through the buffered reader at dial time, so all further reads must go
// through Reader or frame bytes sitting in the buffer are lost.
type Conn struct {
	net.Conn
	br       *bufio.Reader
	unusable bool
}

// Reader returns the buffered read side of the connection.
func (c *Conn) Reader() io.Reader { return c.br }

// MarkUnusable flags the connection so Put discards it instead of pooling
// it. Call it after any transport error: the stream position is unknown.
func (c *Conn) MarkUnusable() { c.unusable = true }

// Pool manages reusable connections to a single address.
type Pool struct {
	mu       sync.Mutex
	conns    chan *Conn
	addr     string
	maxConns int
	curConns int
	factory  func() (net.Conn, error)
}

// NewPool creates a pool of at most maxConns connections to addr, dialed
// lazily. A nil factory defaults to a plain TCP dial.
func NewPool(addr string, maxConns int, factory func() (net.Conn, error)) *Pool {
	if factory == nil {
		factory = func() (net.Conn, error) { return net.Dial("tcp", addr) }
	}
	return &Pool{
		conns:    make(chan *Conn, maxConns),
		addr:     addr,
		maxConns: maxConns,
		factory:  factory,
	}
}

// ErrPoolClosed is returned by Get after Close.
var ErrPoolClosed = errors.New("connection pool closed")

// errPoolExhausted signals createNew lost the race for the last slot; Get
// falls back to blocking on a returned connection.
var errPoolExhausted = errors.New("connection pool exhausted")

// Get retrieves a connection:
//  1. a pooled one when available,
//  2. a freshly dialed one while under the limit,
//  3. otherwise it blocks until a connection is returned.
func (p *Pool) Get() (*Conn, error) {
	for {
		select {
		case conn := <-p.conns:
			if conn == nil {
				return nil, ErrPoolClosed
			}
			if conn.unusable {
				p.discard(conn)
				continue
			}
			return conn, nil
		default:
		}

		conn, err := p.createNew()
		if err == nil {
			return conn, nil
		}
		if !errors.Is(err, errPoolExhausted) {
			return nil, err
		}

		// At capacity: block until a connection comes back.
		conn = <-p.conns
		if conn == nil {
			return nil, ErrPoolClosed
		}
		if conn.unusable {
			p.discard(conn) // frees a slot; retry dials fresh
			continue
		}
		return conn, nil
	}
}

// Put returns a connection to the pool. Unusable connections are closed and
// their slot freed for a future dial.
func (p *Pool) Put(conn *Conn) {
	if conn.unusable {
		p.discard(conn)
		return
	}
	p.conns <- conn
}

func (p *Pool) discard(conn *Conn) {
	conn.Close()
	p.mu.Lock()
	p.curConns--
	p.mu.Unlock()
}

// Close shuts down the pool and closes every pooled connection. Borrowed
// connections are the borrower's to close (MarkUnusable + Put).
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	close(p.conns)
	for conn := range p.conns {
		conn.Close()
		p.curConns--
	}
	return nil
}

// createNew dials a connection and consumes the server greeting — a raw
// line with no length prefix, sent once per connection before any frame.
func (p *Pool) createNew() (*Conn, error) {
	p.mu.Lock()
	if p.curConns >= p.maxConns {
		p.mu.Unlock()
		return nil, errPoolExhausted
	}
	p.curConns++
	p.mu.Unlock()

	netConn, err := p.factory()
	if err != nil {
		p.release()
		return nil, err
	}

	br := bufio.NewReader(netConn)
	banner, err := br.ReadString('\n')
	if err != nil {
		netConn.Close()
		p.release()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if !strings.HasPrefix(banner, "RPC srv") {
		netConn.Close()
		p.release()
		return nil, fmt.Errorf("unexpected greeting %q", strings.TrimSpace(banner))
	}

	return &Conn{Conn: netConn, br: br}, nil
}

func (p *Pool) release() {
	p.mu.Lock()
	p.curConns--
	p.mu.Unlock()
}
