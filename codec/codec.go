// Package codec serializes envelopes to and from frame bodies.
//
// Msgpack is the wire format; JSON is kept as an alternate codec for
// debugging and for peers that cannot speak msgpack.
package codec

type CodecType byte

const (
	CodecTypeMsgpack CodecType = 0
	CodecTypeJSON    CodecType = 1
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	Type() CodecType // 0=Msgpack, 1=JSON
}

func GetCodec(codecType CodecType) Codec {
	if codecType == CodecTypeJSON {
		return &JSONCodec{}
	}

	return &MsgpackCodec{}
}
