package stream

import (
	"github.com/kbukum/streamkit/codec"
)

// Base64Decode decodes base64 text delivered in arbitrary chunks into
// bytes. Line breaks are ignored. Invalid input is a fatal DecodeError
// unless the decoder is configured with codec.InvalidSkip through
// WithDecoderOptions.
func Base64Decode[T Text](opts ...Option) *Stream[T, []byte] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return newStream[T, []byte]("base64-decode", &decodeTransformer[T]{dec: codec.NewDecoder(o.decoder...)}, opts)
}

type decodeTransformer[T Text] struct {
	dec *codec.Decoder
}

func (d *decodeTransformer[T]) Transform(chunk T, push func([]byte)) error {
	out, err := d.dec.Decode([]byte(chunk))
	if len(out) > 0 {
		push(out)
	}
	return err
}

func (d *decodeTransformer[T]) Flush(push func([]byte)) error {
	out, err := d.dec.Flush()
	if len(out) > 0 {
		push(out)
	}
	return err
}

func (d *decodeTransformer[T]) Reset() { d.dec.Reset() }

// Base64Encode encodes bytes delivered in arbitrary chunks as padded
// base64 text without line wrapping.
func Base64Encode[T Text](opts ...Option) *Stream[T, string] {
	return newStream[T, string]("base64-encode", &encodeTransformer[T]{enc: codec.NewEncoder()}, opts)
}

type encodeTransformer[T Text] struct {
	enc *codec.Encoder
}

func (e *encodeTransformer[T]) Transform(chunk T, push func(string)) error {
	if out := e.enc.Encode([]byte(chunk)); len(out) > 0 {
		push(string(out))
	}
	return nil
}

func (e *encodeTransformer[T]) Flush(push func(string)) error {
	if out := e.enc.Flush(); len(out) > 0 {
		push(string(out))
	}
	return nil
}

func (e *encodeTransformer[T]) Reset() { e.enc.Reset() }
