package memview

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAppend(t *testing.T) {
	var mv MemView
	mv.Append(New([]byte("hello ")))
	mv.Append(New([]byte("prince!")))
	if mv.String() != "hello prince!" {
		t.Errorf(`expected "hello prince!" got "%s"`, mv.String())
	} else if mv.Len() != int64(len("hello prince!")) {
		t.Errorf(`expected new length %d, got %d`, len("hello prince!"), mv.Len())
	}
}

func TestDeepCopy(t *testing.T) {
	mv1 := New([]byte("hello"))
	mv2 := mv1.DeepCopy()
	mv2.Append(New([]byte(" prince!")))
	mv1.Append(New([]byte(" pineapple!")))

	if mv1.String() != "hello pineapple!" {
		t.Errorf(`expected "hello pineapple!" got "%s"`, mv1.String())
	}
	if mv2.String() != "hello prince!" {
		t.Errorf(`expected "hello prince!" got "%s"`, mv2.String())
	}
}

func TestIndex(t *testing.T) {
	testCases := []struct {
		name     string
		parts    []string
		sep      string
		start    int64
		expected int64
	}{
		{"simple", []string{"GET / HTTP/1.1"}, " ", 0, 3},
		{"not found", []string{"GET/HTTP"}, " ", 0, -1},
		{"split across chunks", []string{"GET ", "/ HTTP/1.1"}, " ", 0, 3},
		{"needle split across chunks", []string{"foo\r", "\nbar"}, "\r\n", 0, 3},
		{"needle longer than remainder", []string{"ab"}, "abc", 0, -1},
		{"start offset", []string{"aaXbb"}, "X", 1, 2},
		{"empty needle", []string{"abc"}, "", 0, 0},
	}

	for _, tc := range testCases {
		var mv MemView
		for _, p := range tc.parts {
			mv.Append(New([]byte(p)))
		}

		got := mv.Index(tc.start, []byte(tc.sep))
		if got != tc.expected {
			t.Errorf("[%s] Index(%d, %q) = %d, want %d", tc.name, tc.start, tc.sep, got, tc.expected)
		}
	}
}

func TestSubViewAcrossChunks(t *testing.T) {
	var mv MemView
	mv.Append(New([]byte("hello ")))
	mv.Append(New([]byte("cruel ")))
	mv.Append(New([]byte("world")))

	got := mv.SubView(4, 13).String()
	want := "o cruel w"
	if got != want {
		t.Errorf("SubView = %q, want %q", got, want)
	}
}

func TestEqual(t *testing.T) {
	var left MemView
	left.Append(New([]byte("ab")))
	left.Append(New([]byte("cd")))

	right := New([]byte("abcd"))

	if diff := cmp.Diff(left.String(), right.String()); diff != "" {
		t.Fatalf("sanity check on String() representations differs: %s", diff)
	}
	if !left.Equal(right) {
		t.Errorf("expected %v to equal %v across differing chunk boundaries", left, right)
	}

	notEqual := New([]byte("abce"))
	if left.Equal(notEqual) {
		t.Errorf("expected %v to not equal %v", left, notEqual)
	}
}
