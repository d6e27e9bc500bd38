package codec

import "io"

// DecodeWriter decodes base64 text written to it into an underlying writer.
// Close flushes the final group; it does not close the underlying writer.
type DecodeWriter struct {
	w   io.Writer
	dec *Decoder
}

// NewDecodeWriter returns a DecodeWriter writing decoded bytes to w.
func NewDecodeWriter(w io.Writer, opts ...DecoderOption) *DecodeWriter {
	return &DecodeWriter{w: w, dec: NewDecoder(opts...)}
}

// Write decodes p. It reports len(p) consumed unless decoding or the
// underlying write fails.
func (dw *DecodeWriter) Write(p []byte) (int, error) {
	out, err := dw.dec.Decode(p)
	if len(out) > 0 {
		if _, werr := dw.w.Write(out); werr != nil {
			return 0, werr
		}
	}
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close decodes the final group.
func (dw *DecodeWriter) Close() error {
	out, err := dw.dec.Flush()
	if len(out) > 0 {
		if _, werr := dw.w.Write(out); werr != nil {
			return werr
		}
	}
	return err
}

// EncodeWriter encodes bytes written to it as base64 text into an
// underlying writer. Close writes the padded final group; it does not
// close the underlying writer.
type EncodeWriter struct {
	w   io.Writer
	enc *Encoder
}

// NewEncodeWriter returns an EncodeWriter writing base64 text to w.
func NewEncodeWriter(w io.Writer) *EncodeWriter {
	return &EncodeWriter{w: w, enc: NewEncoder()}
}

// Write encodes p.
func (ew *EncodeWriter) Write(p []byte) (int, error) {
	if out := ew.enc.Encode(p); len(out) > 0 {
		if _, err := ew.w.Write(out); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Close writes the final group.
func (ew *EncodeWriter) Close() error {
	if out := ew.enc.Flush(); len(out) > 0 {
		_, err := ew.w.Write(out)
		return err
	}
	return nil
}
