package service

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPreviewKeepsRuneBoundary(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"abcdef", 3, "abc..."},
		{"aé", 2, "a..."}, // é 占两个字节，截断点落在其中
		{"日本語", 4, "日..."},
		{"日本語", 6, "日本..."},
	}
	for _, tc := range cases {
		got := preview(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("preview(%q, %d): want=%q got=%q", tc.in, tc.n, tc.want, got)
		}
		if !utf8.ValidString(got) {
			t.Errorf("preview(%q, %d) produced invalid UTF-8", tc.in, tc.n)
		}
	}

	long := strings.Repeat("ü", 300)
	if got := preview(long, 200); !utf8.ValidString(got) || len(got) > 203 {
		t.Fatalf("long preview: %d bytes valid=%v", len(got), utf8.ValidString(got))
	}
}
