package stream

import (
	"regexp"
	"slices"
)

// Unique drops chunks that have been seen before.
func Unique[T comparable](opts ...Option) *Stream[T, T] {
	return newStream("unique", &uniq[T]{seen: make(map[T]struct{})}, opts)
}

type uniq[T comparable] struct {
	seen map[T]struct{}
}

func (u *uniq[T]) Transform(chunk T, push func(T)) error {
	if _, ok := u.seen[chunk]; ok {
		return nil
	}
	u.seen[chunk] = struct{}{}
	push(chunk)
	return nil
}

func (u *uniq[T]) Flush(func(T)) error {
	clear(u.seen)
	return nil
}

func (u *uniq[T]) Reset() { clear(u.seen) }

// Without drops chunks equal to any of values.
func Without[T comparable](values []T, opts ...Option) *Stream[T, T] {
	values = slices.Clone(values)
	return newStream("without", TransformFunc[T, T](func(chunk T, push func(T)) error {
		if !slices.Contains(values, chunk) {
			push(chunk)
		}
		return nil
	}), opts)
}

// DropUntilChunk drops whole chunks until match returns true, then passes
// everything through. The matching chunk itself is emitted only if
// emitMatch is set.
func DropUntilChunk[T any](match Predicate[T], emitMatch bool, opts ...Option) *Stream[T, T] {
	mustFunc("match", match == nil)
	found := false
	return newStream("drop-until-chunk", TransformFunc[T, T](func(chunk T, push func(T)) error {
		if found {
			push(chunk)
			return nil
		}
		if found = match(chunk); found && emitMatch {
			push(chunk)
		}
		return nil
	}), opts)
}

// ChunkEquals matches chunks equal to v.
func ChunkEquals[T comparable](v T) Predicate[T] {
	return func(chunk T) bool { return chunk == v }
}

// ChunkMatches matches text chunks containing a match of re.
func ChunkMatches[T Text](re *regexp.Regexp) Predicate[T] {
	mustFunc("regexp", re == nil)
	return func(chunk T) bool { return re.MatchString(string(chunk)) }
}
