package stream

import (
	"strings"

	"github.com/kbukum/streamkit/errors"
)

// Split re-chunks text at delim ("\n" when empty). A trailing piece that
// is not followed by delim is emitted at end if it is not empty.
func Split[T Text](delim string, opts ...Option) *Stream[T, T] {
	if delim == "" {
		delim = "\n"
	}
	return newStream("split", &splitter[T]{delim: delim}, opts)
}

type splitter[T Text] struct {
	delim string
	rest  string
}

func (s *splitter[T]) Transform(chunk T, push func(T)) error {
	pieces := strings.Split(s.rest+string(chunk), s.delim)
	for _, p := range pieces[:len(pieces)-1] {
		push(T(p))
	}
	s.rest = pieces[len(pieces)-1]
	return nil
}

func (s *splitter[T]) Flush(push func(T)) error {
	if s.rest != "" {
		push(T(s.rest))
	}
	s.rest = ""
	return nil
}

func (s *splitter[T]) Reset() { s.rest = "" }

// Join emits delim ("\n" when empty) as a chunk of its own between
// consecutive chunks.
func Join[T Text](delim string, opts ...Option) *Stream[T, T] {
	if delim == "" {
		delim = "\n"
	}
	first := true
	return newStream("join", TransformFunc[T, T](func(chunk T, push func(T)) error {
		if !first {
			push(T(delim))
		}
		first = false
		push(chunk)
		return nil
	}), opts)
}

// ToLower converts every chunk to lower case.
func ToLower[T Text](opts ...Option) *Stream[T, T] {
	return newStream("to-lower", TransformFunc[T, T](func(chunk T, push func(T)) error {
		push(T(strings.ToLower(string(chunk))))
		return nil
	}), opts)
}

// ToUpper converts every chunk to upper case.
func ToUpper[T Text](opts ...Option) *Stream[T, T] {
	return newStream("to-upper", TransformFunc[T, T](func(chunk T, push func(T)) error {
		push(T(strings.ToUpper(string(chunk))))
		return nil
	}), opts)
}

// DropUntil drops text until token has been seen, even when token spans
// chunk boundaries, then passes everything through. The text after the
// token, or from the token on if emitMatch is set, is emitted as one chunk
// when not empty. It panics if token is empty.
func DropUntil[T Text](token string, emitMatch bool, opts ...Option) *Stream[T, T] {
	if token == "" {
		panic(errors.InvalidArgument("token", "must not be empty"))
	}
	return newStream("drop-until", &dropper[T]{token: token, emitMatch: emitMatch}, opts)
}

type dropper[T Text] struct {
	token     string
	emitMatch bool
	found     bool
	buf       string
}

func (d *dropper[T]) Transform(chunk T, push func(T)) error {
	if d.found {
		push(chunk)
		return nil
	}
	d.buf += string(chunk)
	n := strings.Index(d.buf, d.token)
	if n < 0 {
		// Only a suffix shorter than the token can start a match.
		if keep := len(d.token) - 1; len(d.buf) > keep {
			d.buf = d.buf[len(d.buf)-keep:]
		}
		return nil
	}
	d.found = true
	if !d.emitMatch {
		n += len(d.token)
	}
	rest := d.buf[n:]
	d.buf = ""
	if rest != "" {
		push(T(rest))
	}
	return nil
}

func (d *dropper[T]) Flush(func(T)) error {
	d.buf = ""
	return nil
}

func (d *dropper[T]) Reset() {
	d.found = false
	d.buf = ""
}
