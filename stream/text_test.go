package stream

import (
	"context"
	"regexp"
	"slices"
	"strings"
	"testing"
)

const blahText = "hello this is blah and I am streaming blah"

// chunked splits s into pieces of n bytes.
func chunked(s string, n int) []string {
	var out []string
	for len(s) > n {
		out = append(out, s[:n])
		s = s[n:]
	}
	return append(out, s)
}

// words pipes text through Split(" ") and Join(" ") into last and returns
// what last emits.
func words(t *testing.T, last *Stream[string, string], input string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	split := Split[string](" ")
	Pipe(Pipe(split, Join[string](" ")), last)
	go func() { _ = Feed(ctx, split, slices.Values(chunked(input, 3))) }()

	out, err := Collect[string](ctx, last)
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return strings.Join(out, "")
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		delim  string
		chunks []string
		want   []string
	}{
		{"across chunks", " ", []string{"he", "llo wo", "rld"}, []string{"hello", "world"}},
		{"default newline", "", []string{"a\nb", "\nc\n"}, []string{"a", "b", "c"}},
		{"empty middle", ",", []string{"a,,b"}, []string{"a", "", "b"}},
		{"multi byte delim", "--", []string{"a-", "-b-", "-c"}, []string{"a", "b", "c"}},
		{"no delim", " ", []string{"abc"}, []string{"abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := run[string, string](t, Split[string](tt.delim), tt.chunks...)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitBytes(t *testing.T) {
	got, _, err := run[[]byte, []byte](t, Split[[]byte]("\n"), []byte("one\ntw"), []byte("o\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || string(got[0]) != "one" || string(got[1]) != "two" {
		t.Errorf("got %q", got)
	}
}

func TestJoin(t *testing.T) {
	got, _, err := run[string, string](t, Join[string](", "), "a", "b", "c")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", ", ", "b", ", ", "c"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	if got := words(t, Map(func(s string) string { return s }), blahText); got != blahText {
		t.Errorf("got %q", got)
	}
}

func TestDropUntil(t *testing.T) {
	tests := []struct {
		token     string
		emitMatch bool
		want      string
	}{
		{"blah", false, " and I am streaming blah"},
		{"blah", true, "blah and I am streaming blah"},
		{"s bla", false, "h and I am streaming blah"},
		{"s bla", true, "s blah and I am streaming blah"},
		{"missing", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := words(t, DropUntil[string](tt.token, tt.emitMatch), blahText); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDropUntilSingleChunks(t *testing.T) {
	got, _, err := run[string, string](t, DropUntil[string]("XY", false), "aaX", "Ybb", "cc")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"bb", "cc"}; !slices.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDropUntilChunk(t *testing.T) {
	tests := []struct {
		name      string
		match     Predicate[string]
		emitMatch bool
		want      string
	}{
		{"equals", ChunkEquals("blah"), false, " and I am streaming blah"},
		{"equals emit", ChunkEquals("blah"), true, "blah and I am streaming blah"},
		{"regexp", ChunkMatches[string](regexp.MustCompile(`(?i)bLaH`)), false, " and I am streaming blah"},
		{"regexp emit", ChunkMatches[string](regexp.MustCompile(`(?i)bLaH`)), true, "blah and I am streaming blah"},
		{"func", func(c string) bool { return c == "blah" }, false, " and I am streaming blah"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := words(t, DropUntilChunk(tt.match, tt.emitMatch), blahText); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCase(t *testing.T) {
	lower, _, _ := run[string, string](t, ToLower[string](), "HeLLo", " WORLD")
	upper, _, _ := run[[]byte, []byte](t, ToUpper[[]byte](), []byte("abc"))
	if joined(lower) != "hello world" {
		t.Errorf("ToLower = %q", joined(lower))
	}
	if joined(upper) != "ABC" {
		t.Errorf("ToUpper = %q", joined(upper))
	}
}

func TestUniqueAndWithout(t *testing.T) {
	uniq, _, _ := run[string, string](t, Unique[string](), "a", "b", "a", "c", "b")
	if want := []string{"a", "b", "c"}; !slices.Equal(uniq, want) {
		t.Errorf("Unique = %q", uniq)
	}

	rest, _, _ := run[int, int](t, Without([]int{2, 4}), 1, 2, 3, 4, 5)
	if want := []int{1, 3, 5}; !slices.Equal(rest, want) {
		t.Errorf("Without = %v", rest)
	}
}
