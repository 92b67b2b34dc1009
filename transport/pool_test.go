package transport

import (
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"objrpc/protocol"
)

// startBannerServer accepts connections, writes the greeting, and holds the
// connection open. Returns the address and a counter of accepted conns.
func startBannerServer(t *testing.T, banner string) (string, *atomic.Int64) {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	var accepted atomic.Int64
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			accepted.Add(1)
			conn.Write([]byte(banner))
			// Hold the connection; the test closes via listener teardown.
		}
	}()
	return listener.Addr().String(), &accepted
}

func TestGetConsumesBanner(t *testing.T) {
	addr, _ := startBannerServer(t, protocol.Banner)
	pool := NewPool(addr, 2, nil)
	defer pool.Close()

	conn, err := pool.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	defer pool.Put(conn)

	// The greeting must be gone from the stream: a read now would see frame
	// bytes only. Check by verifying the buffered reader is empty.
	if n := conn.br.Buffered(); n != 0 {
		t.Errorf("%d stray bytes after greeting", n)
	}
}

func TestGetRejectsBadGreeting(t *testing.T) {
	addr, _ := startBannerServer(t, "HTTP/1.1 400 Bad Request\n")
	pool := NewPool(addr, 1, nil)
	defer pool.Close()

	_, err := pool.Get()
	if err == nil {
		t.Fatal("expected error for non-RPC greeting")
	}
	if !strings.Contains(err.Error(), "unexpected greeting") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPutGetReuses(t *testing.T) {
	addr, accepted := startBannerServer(t, protocol.Banner)
	pool := NewPool(addr, 4, nil)
	defer pool.Close()

	conn, err := pool.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	pool.Put(conn)

	again, err := pool.Get()
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	pool.Put(again)

	if got := accepted.Load(); got != 1 {
		t.Errorf("expected 1 dialed connection, got %d", got)
	}
}

func TestUnusableConnIsDiscarded(t *testing.T) {
	addr, accepted := startBannerServer(t, protocol.Banner)
	pool := NewPool(addr, 4, nil)
	defer pool.Close()

	conn, err := pool.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	conn.MarkUnusable()
	pool.Put(conn)

	fresh, err := pool.Get()
	if err != nil {
		t.Fatalf("Get after discard failed: %v", err)
	}
	pool.Put(fresh)

	if got := accepted.Load(); got != 2 {
		t.Errorf("expected a fresh dial after discard, got %d accepts", got)
	}
}

func TestGetBlocksAtCapacity(t *testing.T) {
	addr, _ := startBannerServer(t, protocol.Banner)
	pool := NewPool(addr, 1, nil)
	defer pool.Close()

	conn, err := pool.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	got := make(chan *Conn, 1)
	go func() {
		c, err := pool.Get()
		if err != nil {
			t.Errorf("blocked Get failed: %v", err)
			return
		}
		got <- c
	}()

	select {
	case <-got:
		t.Fatal("Get should block while the pool is exhausted")
	case <-time.After(100 * time.Millisecond):
	}

	pool.Put(conn)
	select {
	case c := <-got:
		pool.Put(c)
	case <-time.After(time.Second):
		t.Fatal("Get did not unblock after Put")
	}
}
