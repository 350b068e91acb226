package tui

import (
	"strings"
	"testing"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestRenderInputLine_WidthAndCounter(t *testing.T) {
	cases := []struct {
		name    string
		width   int
		input   string
		counter string
	}{
		{name: "plain", width: 40, input: "Buy milk"},
		{name: "counter", width: 40, input: "Buy milk", counter: "8/200"},
		{name: "overflow", width: 20, input: strings.Repeat("x", 60), counter: "60/200"},
		{name: "counter dropped when too narrow", width: 14, input: "abc", counter: "123/200"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := renderInputLine(tc.width, tc.input, tc.counter)
			if w := xansi.StringWidth(got); w != tc.width {
				t.Fatalf("expected width %d; got %d (%q)", tc.width, w, xansi.Strip(got))
			}
		})
	}

	plain := xansi.Strip(renderInputLine(40, "Buy milk", "8/200"))
	if !strings.HasSuffix(plain, " 8/200") {
		t.Fatalf("expected counter pinned right; got %q", plain)
	}
	if narrow := xansi.Strip(renderInputLine(14, "abc", "123/200")); strings.Contains(narrow, "123/200") {
		t.Fatalf("expected counter dropped on a narrow line; got %q", narrow)
	}
}

func TestRenderInputLine_FlattensNewlines(t *testing.T) {
	got := xansi.Strip(renderInputLine(30, "a\r\nb\nc", ""))
	if strings.ContainsAny(got, "\r\n") {
		t.Fatalf("expected a single line; got %q", got)
	}
	if !strings.Contains(got, "a b c") {
		t.Fatalf("expected newlines replaced by spaces; got %q", got)
	}
}

func TestTitleCounter(t *testing.T) {
	if got := xansi.Strip(titleCounter("héllo", 200)); got != "5/200" {
		t.Fatalf("expected rune count; got %q", got)
	}
	if got := xansi.Strip(titleCounter(strings.Repeat("x", 200), 200)); got != "200/200" {
		t.Fatalf("expected 200/200; got %q", got)
	}
}
