package engine

import (
	"bytes"
	"reflect"
	"testing"
)

func TestSearch(t *testing.T) {
	e := New()
	ingest(t, e, "foo bar\nbaz\nfoo")

	tests := []struct {
		name   string
		needle string
		want   []int
	}{
		{"two lines", "foo", []int{0, 2}},
		{"empty needle", "", []int{}},
		{"absent", "zzz", []int{}},
		{"longer than buffer", "foo bar\nbaz\nfoo and more", []int{}},
		{"single byte", "a", []int{0, 1}},
		{"whole line", "baz", []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Search([]byte(tt.needle)); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Search(%q) = %v, want %v", tt.needle, got, tt.want)
			}
		})
	}
}

func TestSearchDeduplicatesWithinLine(t *testing.T) {
	e := New()
	ingest(t, e, "aaaa\nb\naa")
	if got := e.Search([]byte("a")); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("Search(a) = %v, want [0 2]", got)
	}
	if got := e.Search([]byte("aa")); !reflect.DeepEqual(got, []int{0, 2}) {
		t.Fatalf("Search(aa) = %v, want [0 2]", got)
	}
}

func TestSearchIgnoresTerminators(t *testing.T) {
	e := New()
	ingest(t, e, "ab\r\ncd\n")
	if got := e.Search([]byte("b\r")); len(got) != 0 {
		t.Fatalf("Search(b\\r) = %v, want none", got)
	}
	if got := e.Search([]byte("b\r\nc")); len(got) != 0 {
		t.Fatalf("Search across lines = %v, want none", got)
	}
	if got := e.Search([]byte("\n")); len(got) != 0 {
		t.Fatalf("Search(\\n) = %v, want none", got)
	}
}

func TestSearchSkipsCrossingMatch(t *testing.T) {
	// The first "a\nb" crosses a terminator; the scan must continue and
	// still find the in-line hit on line 2.
	e := New()
	ingest(t, e, "xa\nbx\nab")
	if got := e.Search([]byte("ab")); !reflect.DeepEqual(got, []int{2}) {
		t.Fatalf("Search(ab) = %v, want [2]", got)
	}
}

func TestSearchPendingCR(t *testing.T) {
	e := New()
	ingest(t, e, "x\nab\r")
	if got := e.Search([]byte("b\r")); len(got) != 0 {
		t.Fatalf("Search(b\\r) = %v, want none", got)
	}
	if got := e.Search([]byte("ab")); !reflect.DeepEqual(got, []int{1}) {
		t.Fatalf("Search(ab) = %v, want [1]", got)
	}
}

func TestSearchEmptyEngine(t *testing.T) {
	if got := New().Search([]byte("a")); len(got) != 0 {
		t.Fatalf("Search on empty engine = %v, want none", got)
	}
}

func TestSearchFuncFoldASCII(t *testing.T) {
	e := New()
	ingest(t, e, "ERROR one\nwarn\nan Error\nterror?\n")
	got := e.SearchFunc(FoldASCII([]byte("error")))
	if !reflect.DeepEqual(got, []int{0, 2, 3}) {
		t.Fatalf("SearchFunc(FoldASCII(error)) = %v, want [0 2 3]", got)
	}
}

func TestFoldASCIIIndex(t *testing.T) {
	tests := []struct {
		haystack, needle string
		want             int
	}{
		{"Hello World", "world", 6},
		{"Hello World", "WORLD", 6},
		{"aAaB", "ab", 2},
		{"short", "longer needle", -1},
		{"no match here", "xyz", -1},
		{"1-2-3", "-3", 3},
		{"anything", "", 0},
	}
	for _, tt := range tests {
		if got := FoldASCII([]byte(tt.needle)).Index([]byte(tt.haystack)); got != tt.want {
			t.Errorf("FoldASCII(%q).Index(%q) = %d, want %d", tt.needle, tt.haystack, got, tt.want)
		}
	}
}

func TestLiteralCopiesNeedle(t *testing.T) {
	needle := []byte("abc")
	f := Literal(needle)
	needle[0] = 'z'
	if got := f.Index([]byte("xxabc")); got != 2 {
		t.Fatalf("Index = %d, want 2", got)
	}
}

func TestSearchMatchesNaive(t *testing.T) {
	input := bytes.Repeat([]byte("alpha beta\r\ngamma\ndelta alpha\rbeta\n\n"), 50)
	e := New()
	ingest(t, e, string(input))

	for _, needle := range []string{"alpha", "beta", "a", "ta\r", "gamma\ndelta", "eta"} {
		var want []int
		for i, line := range allLines(e) {
			if bytes.Contains([]byte(line), []byte(needle)) {
				want = append(want, i)
			}
		}
		if want == nil {
			want = []int{}
		}
		if got := e.Search([]byte(needle)); !reflect.DeepEqual(got, want) {
			t.Fatalf("Search(%q) = %v, want %v", needle, got, want)
		}
	}
}
