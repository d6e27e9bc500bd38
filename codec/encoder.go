package codec

import "encoding/base64"

// Encoder encodes bytes delivered in arbitrary chunks as standard padded
// base64 without line wrapping. It is not safe for concurrent use.
type Encoder struct {
	tail [2]byte
	n    int
}

// NewEncoder creates an Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Pending returns the number of bytes held back for the next chunk.
func (e *Encoder) Pending() int { return e.n }

// Reset discards any held back bytes.
func (e *Encoder) Reset() { e.n = 0 }

// Encode encodes every complete 3-byte group formed by the held back bytes
// and p. The result is nil when no group completed.
func (e *Encoder) Encode(p []byte) []byte {
	total := e.n + len(p)
	full := total - total%3
	if full == 0 {
		e.n += copy(e.tail[e.n:], p)
		return nil
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(full))
	w := 0
	if e.n > 0 {
		var group [3]byte
		copy(group[:], e.tail[:e.n])
		copy(group[e.n:], p[:3-e.n])
		base64.StdEncoding.Encode(out, group[:])
		w = 4
		p = p[3-e.n:]
		full -= 3
	}
	base64.StdEncoding.Encode(out[w:], p[:full])
	e.n = copy(e.tail[:], p[full:])
	return out
}

// Flush encodes the held back bytes, if any, as a padded final group.
func (e *Encoder) Flush() []byte {
	if e.n == 0 {
		return nil
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(e.n))
	base64.StdEncoding.Encode(out, e.tail[:e.n])
	e.n = 0
	return out
}
