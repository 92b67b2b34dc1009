// Package protocol implements the length-prefixed frame layer of the objrpc
// wire protocol.
//
// Every frame is a 4-byte big-endian unsigned length followed by exactly that
// many bytes of serialized envelope. The receiver reads the prefix first to
// learn the body length, then reads exactly that many bytes — this is what
// delimits messages on the TCP byte stream.
//
// Frame format:
//
//	0        4
//	┌────────┬───────────────┐
//	│ length │     body      │
//	│ uint32 │ length bytes  │
//	└────────┴───────────────┘
//
// A connection begins with a raw greeting line (Banner) written by the server
// immediately after accept, with no length prefix. Everything after the
// banner is frames.
package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

const (
	// MaxFrameLen caps the declared body length accepted by the server's
	// read path. A zero-length frame (empty body) is valid.
	MaxFrameLen uint32 = 1000

	// PrefixSize is the byte width of the length prefix.
	PrefixSize = 4

	// Banner is sent raw once per connection, before any frame.
	Banner = "RPC srv 1.0\n"
)

// ErrFrameTooLong is returned by ReadFrame when the declared length exceeds
// maxLen. The body has NOT been consumed, so the stream position past the
// prefix is unknown; the caller must answer with an error frame and close the
// connection instead of reading on.
var ErrFrameTooLong = errors.New("frame too long")

// ReadFrame reads one complete frame from r. The length prefix and body are
// both read with io.ReadFull, so a peer that disconnects mid-frame surfaces
// as io.EOF (nothing read) or io.ErrUnexpectedEOF (partial read) — a short
// body is never returned.
func ReadFrame(r io.Reader, maxLen uint32) ([]byte, error) {
	var prefix [PrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint32(prefix[:])
	if length > maxLen {
		return nil, ErrFrameTooLong
	}
	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

// WriteFrame writes a length prefix for payload followed by the payload
// itself. io.Writer's contract guarantees the full byte count is written
// unless an error is returned, so no partial-write accumulation is needed.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [PrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return nil
}
