package tui

import (
	"strings"
	"testing"

	"taskflow-cli/internal/store"

	xansi "github.com/charmbracelet/x/ansi"
)

func TestThemePreference_EnvThenConfig(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG_DIR", t.TempDir())
	t.Setenv("TASKFLOW_TUI_THEME", "")

	if got := themePreference(); got != "auto" {
		t.Fatalf("expected auto without env or config; got %q", got)
	}

	if err := store.SaveConfig(&store.Config{TUI: &store.TUIConfig{Theme: "Light"}}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	if got := themePreference(); got != "light" {
		t.Fatalf("expected config theme light; got %q", got)
	}

	t.Setenv("TASKFLOW_TUI_THEME", "dark")
	if got := themePreference(); got != "dark" {
		t.Fatalf("expected env to win; got %q", got)
	}

	t.Setenv("TASKFLOW_TUI_THEME", "purple")
	if got := themePreference(); got != "auto" {
		t.Fatalf("expected unknown theme to fall back to auto; got %q", got)
	}
}

func TestRenderMarkdown(t *testing.T) {
	t.Setenv("TASKFLOW_CONFIG_DIR", t.TempDir())
	t.Setenv("TASKFLOW_TUI_THEME", "dark")

	if got := renderMarkdown("   ", 40); got != "" {
		t.Fatalf("expected empty render for blank input; got %q", got)
	}

	out := xansi.Strip(renderMarkdown("**bold** words\n\n- one\n- two", 40))
	for _, want := range []string{"bold words", "one", "two"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in rendered markdown; got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "**") {
		t.Fatalf("expected emphasis markers to be rendered; got:\n%s", out)
	}
	for _, ln := range strings.Split(out, "\n") {
		if w := xansi.StringWidth(ln); w > 40 {
			t.Fatalf("line wider than wrap width (%d): %q", w, ln)
		}
	}
}

func TestFitWidth(t *testing.T) {
	t.Parallel()

	if got := fitWidth("abc", 5); got != "abc  " {
		t.Fatalf("expected padding; got %q", got)
	}
	if got := fitWidth("abcdef", 4); got != "abc…" {
		t.Fatalf("expected ellipsis cut; got %q", got)
	}
	if got := fitWidth("abc", 0); got != "" {
		t.Fatalf("expected empty for zero width; got %q", got)
	}
}
