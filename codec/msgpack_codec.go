package codec

import (
	"reflect"

	ugorji "github.com/ugorji/go/codec"
)

// msgpackHandle is shared by all MsgpackCodec instances (the handle is
// goroutine-safe once configured). RawToString makes msgpack strings decode
// as Go strings rather than []byte, and MapType makes maps decode as
// map[string]any so keyword arguments can be inspected without a second
// conversion pass.
var msgpackHandle = func() *ugorji.MsgpackHandle {
	h := &ugorji.MsgpackHandle{}
	h.RawToString = true
	h.WriteExt = true
	h.MapType = reflect.TypeOf(map[string]any(nil))
	return h
}()

// MsgpackCodec is the wire codec. Envelopes are encoded as two-element
// msgpack arrays; file payloads ride as msgpack bin.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Encode(v any) ([]byte, error) {
	var buf []byte
	if err := ugorji.NewEncoderBytes(&buf, msgpackHandle).Encode(v); err != nil {
		return nil, err
	}
	return buf, nil
}

func (c *MsgpackCodec) Decode(data []byte, v any) error {
	return ugorji.NewDecoderBytes(data, msgpackHandle).Decode(v)
}

func (c *MsgpackCodec) Type() CodecType {
	return CodecTypeMsgpack
}
