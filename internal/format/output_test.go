package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type fakeRows struct{}

func (fakeRows) TableHeaders() []string { return []string{"ID", "TITLE"} }
func (fakeRows) TableRows() [][]string  { return [][]string{{"1", "Buy milk"}, {"2", "Walk dog"}} }

func TestWriteJSON_Envelope(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"data": map[string]any{"ok": true}}, "", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var env map[string]any
	if err := json.Unmarshal(buf.Bytes(), &env); err != nil {
		t.Fatalf("expected valid JSON; got %q: %v", buf.String(), err)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected data key; got %#v", env)
	}
	if strings.Count(buf.String(), "\n") != 1 {
		t.Fatalf("expected compact single-line output; got %q", buf.String())
	}
}

func TestWriteJSON_Pretty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, map[string]any{"a": 1}, "json", true); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "\n  \"a\": 1") {
		t.Fatalf("expected indented output; got %q", buf.String())
	}
}

func TestWriteTable_Tabler(t *testing.T) {
	var buf bytes.Buffer
	env := map[string]any{"data": fakeRows{}, "_hints": []string{"taskflow tasks show 1"}}
	if err := Write(&buf, env, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"ID", "TITLE", "Buy milk", "Walk dog", "hint: taskflow tasks show 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteTable_ObjectFallback(t *testing.T) {
	var buf bytes.Buffer
	v := struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}{true, "ann"}
	if err := Write(&buf, map[string]any{"data": v}, "table", false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "authenticated") || !strings.Contains(out, "true") || !strings.Contains(out, "ann") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if strings.Index(out, "authenticated") > strings.Index(out, "username") {
		t.Fatalf("expected keys sorted:\n%s", out)
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, 1, "edn", false); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
