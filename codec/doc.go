// Package codec provides base64 encoders and decoders that accept input in
// arbitrarily split chunks.
//
// A Decoder holds back the 0-3 characters that do not yet form a complete
// 4-character group and prepends them to the next chunk, so the decoded
// output is identical no matter where the input was split. An Encoder does
// the same with 0-2 bytes. Line breaks in encoded input are ignored.
//
//	dec := codec.NewDecoder(codec.WithFlush(codec.FlushRaw))
//	out, err := dec.Decode(chunk)
//	...
//	rest, err := dec.Flush()
//
// NewDecodeWriter and NewEncodeWriter adapt both to io.Writer.
package codec
