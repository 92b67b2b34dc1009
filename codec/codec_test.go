package codec

import (
	"bytes"
	"testing"
)

// asInt64 normalizes the integer types a codec may hand back for a wire
// integer, so tests don't depend on signed/unsigned decode details.
func asInt64(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return n
	case uint64:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		t.Fatalf("expected integer, got %T (%v)", v, v)
		return 0
	}
}

func TestMsgpackRequestRoundTrip(t *testing.T) {
	c := &MsgpackCodec{}

	data, err := c.Encode([]any{"mult", []any{3, 4}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pair, ok := decoded.([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("expected 2-element pair, got %T (%v)", decoded, decoded)
	}
	if pair[0] != "mult" {
		t.Errorf("method: got %v, want mult", pair[0])
	}
	args, ok := pair[1].([]any)
	if !ok || len(args) != 2 {
		t.Fatalf("expected 2 positional args, got %T (%v)", pair[1], pair[1])
	}
	if asInt64(t, args[0]) != 3 || asInt64(t, args[1]) != 4 {
		t.Errorf("args: got %v, want [3 4]", args)
	}
}

func TestMsgpackKeywordArgs(t *testing.T) {
	c := &MsgpackCodec{}

	data, err := c.Encode([]any{"div", map[string]any{"a": 10, "b": 2}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pair := decoded.([]any)
	kwargs, ok := pair[1].(map[string]any)
	if !ok {
		t.Fatalf("expected map[string]any, got %T", pair[1])
	}
	if asInt64(t, kwargs["a"]) != 10 || asInt64(t, kwargs["b"]) != 2 {
		t.Errorf("kwargs: got %v", kwargs)
	}
}

func TestMsgpackResponseRoundTrip(t *testing.T) {
	c := &MsgpackCodec{}

	data, err := c.Encode([]any{"OK", 12})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pair := decoded.([]any)
	if pair[0] != "OK" {
		t.Errorf("status: got %v, want OK", pair[0])
	}
	if asInt64(t, pair[1]) != 12 {
		t.Errorf("payload: got %v, want 12", pair[1])
	}
}

func TestMsgpackBytesPayload(t *testing.T) {
	c := &MsgpackCodec{}
	contents := []byte{0x00, 0x01, 0xfe, 0xff, 'h', 'i'}

	data, err := c.Encode([]any{"OK", contents})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pair := decoded.([]any)
	got, ok := pair[1].([]byte)
	if !ok {
		t.Fatalf("expected []byte payload, got %T", pair[1])
	}
	if !bytes.Equal(got, contents) {
		t.Errorf("payload mismatch: got %v, want %v", got, contents)
	}
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := &JSONCodec{}

	data, err := c.Encode([]any{"mult", []any{3, 4}})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded any
	if err := c.Decode(data, &decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	pair, ok := decoded.([]any)
	if !ok || len(pair) != 2 {
		t.Fatalf("expected 2-element pair, got %T", decoded)
	}
	if pair[0] != "mult" {
		t.Errorf("method: got %v, want mult", pair[0])
	}
	args := pair[1].([]any)
	if args[0].(float64) != 3 || args[1].(float64) != 4 {
		t.Errorf("args: got %v, want [3 4]", args)
	}
}

func TestGetCodec(t *testing.T) {
	if GetCodec(CodecTypeMsgpack).Type() != CodecTypeMsgpack {
		t.Error("expected msgpack codec")
	}
	if GetCodec(CodecTypeJSON).Type() != CodecTypeJSON {
		t.Error("expected JSON codec")
	}
}
