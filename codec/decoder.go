package codec

import (
	"bytes"
	"encoding/base64"
	stderrors "errors"
	"fmt"

	"github.com/kbukum/streamkit/errors"
)

const groupSize = 4

var alphabet = func() (t [256]bool) {
	for _, c := range []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/=") {
		t[c] = true
	}
	return t
}()

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithFlush sets the policy for an unpadded final group.
func WithFlush(p FlushPolicy) DecoderOption {
	return func(d *Decoder) { d.flush = p }
}

// WithInvalid sets the policy for characters outside the alphabet.
func WithInvalid(p InvalidPolicy) DecoderOption {
	return func(d *Decoder) { d.invalid = p }
}

// Decoder decodes standard base64 text delivered in arbitrary chunks.
// It is not safe for concurrent use.
type Decoder struct {
	flush   FlushPolicy
	invalid InvalidPolicy

	tail    []byte  // < 4 significant characters carried to the next chunk
	tailPos []int64 // input offsets of tail
	read    int64   // input characters consumed
	err     error   // sticky after a fatal decode error
}

// NewDecoder creates a Decoder. Defaults are FlushPad and InvalidFail.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{
		tail:    make([]byte, 0, groupSize),
		tailPos: make([]int64, 0, groupSize),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Pending returns the number of characters held back for the next chunk.
func (d *Decoder) Pending() int { return len(d.tail) }

// Reset discards the tail, the offset counter and any sticky error.
func (d *Decoder) Reset() {
	d.tail = d.tail[:0]
	d.tailPos = d.tailPos[:0]
	d.read = 0
	d.err = nil
}

// Decode decodes every complete group formed by the tail and p and keeps
// the remainder. Under InvalidFail the returned error is a fatal
// DecodeError and out holds the bytes decoded before the bad character.
func (d *Decoder) Decode(p []byte) ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	base := d.read
	d.read += int64(len(p))

	buf := make([]byte, 0, len(d.tail)+len(p))
	buf = append(buf, d.tail...)
	var last recent
	for _, pos := range d.tailPos {
		last.push(pos)
	}

	badAt := int64(-1)
	for i, c := range p {
		if c == '\n' || c == '\r' {
			continue
		}
		if !alphabet[c] {
			if d.invalid == InvalidFail {
				badAt = base + int64(i)
				break
			}
			continue
		}
		buf = append(buf, c)
		last.push(base + int64(i))
	}

	n := len(buf) - len(buf)%groupSize
	out, k, err := d.decodeGroups(nil, buf[:n])
	if err != nil {
		d.err = errors.Decode(d.offsetOf(k, p, base), err)
		return out, d.err
	}
	if badAt >= 0 {
		d.err = errors.Decode(badAt, fmt.Errorf("illegal base64 character %q", p[badAt-base]))
		return out, d.err
	}

	d.tail = append(d.tail[:0], buf[n:]...)
	d.tailPos = append(d.tailPos[:0], last.tail(len(buf)-n)...)
	return out, nil
}

// Flush decodes the final group, if any, according to the flush policy.
func (d *Decoder) Flush() ([]byte, error) {
	if d.err != nil {
		return nil, d.err
	}
	tail, pos := d.tail, d.tailPos
	d.tail, d.tailPos = d.tail[:0], d.tailPos[:0]

	if d.flush == FlushRaw {
		tail = bytes.TrimRight(tail, "=")
	}
	switch len(tail) {
	case 0:
		return nil, nil
	case 1:
		if d.invalid == InvalidSkip {
			return nil, nil
		}
		d.err = errors.Decode(pos[0], fmt.Errorf("truncated final group %q", tail))
		return nil, d.err
	}

	enc := base64.RawStdEncoding
	group := tail
	if d.flush == FlushPad {
		enc = base64.StdEncoding
		group = append(append([]byte(nil), tail...), bytes.Repeat([]byte("="), groupSize-len(tail))...)
	}
	out := make([]byte, enc.DecodedLen(len(group)))
	nw, err := enc.Decode(out, group)
	if err != nil {
		if d.invalid == InvalidSkip {
			return nil, nil
		}
		idx := 0
		var cie base64.CorruptInputError
		if stderrors.As(err, &cie) && int(cie) < len(pos) {
			idx = int(cie)
		}
		d.err = errors.Decode(pos[idx], err)
		return out[:nw], d.err
	}
	return out[:nw], nil
}

// decodeGroups appends the decoding of src, a whole number of groups, to
// dst. A group holding '=' ends a segment so concatenated padded encodings
// decode. On failure it returns the index into src of the bad character.
func (d *Decoder) decodeGroups(dst, src []byte) ([]byte, int, error) {
	for start := 0; start < len(src); {
		end := start
		for end < len(src) {
			g := src[end : end+groupSize]
			end += groupSize
			if bytes.IndexByte(g, '=') >= 0 {
				break
			}
		}

		seg := src[start:end]
		at := len(dst)
		dst = append(dst, make([]byte, base64.StdEncoding.DecodedLen(len(seg)))...)
		nw, err := base64.StdEncoding.Decode(dst[at:], seg)
		dst = dst[:at+nw]
		if err == nil {
			start = end
			continue
		}

		k := start
		var cie base64.CorruptInputError
		if stderrors.As(err, &cie) {
			k += int(cie)
		}
		if d.invalid == InvalidFail {
			return dst, k, err
		}
		// Drop the group holding the bad character and go on after it.
		start = k - k%groupSize + groupSize
	}
	return dst, 0, nil
}

// offsetOf maps index k of the significant characters (tail first, then
// the kept characters of p) back to an input offset.
func (d *Decoder) offsetOf(k int, p []byte, base int64) int64 {
	if k < len(d.tailPos) {
		return d.tailPos[k]
	}
	k -= len(d.tailPos)
	for i, c := range p {
		if c == '\n' || c == '\r' || !alphabet[c] {
			continue
		}
		if k == 0 {
			return base + int64(i)
		}
		k--
	}
	return base + int64(len(p))
}

// recent remembers the offsets of the last few significant characters.
type recent struct {
	pos [groupSize - 1]int64
}

func (r *recent) push(p int64) {
	copy(r.pos[:], r.pos[1:])
	r.pos[len(r.pos)-1] = p
}

func (r *recent) tail(k int) []int64 {
	return r.pos[len(r.pos)-k:]
}
