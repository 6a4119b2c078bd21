package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedMessagesRender(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out, err := c.Render("help.body", map[string]string{"Prefix": "!"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "!평가 시작") {
		t.Fatalf("prefix not applied: %s", out)
	}
	if _, err := c.Render("help.body", map[string]string{}); err == nil {
		t.Fatalf("missing field should fail")
	}
	if got := c.Text("does.not.exist", nil); got != "does.not.exist" {
		t.Fatalf("Text fallback = %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("error:\n  room: \"closed\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("error.room", nil); got != "closed" {
		t.Fatalf("override not applied: %q", got)
	}
	if !c.Has("help.header") {
		t.Fatalf("embedded keys should survive overrides")
	}

	if err := os.WriteFile(filepath.Join(dir, "b.yml"), []byte("error:\n  room: \"again\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("duplicate override keys should fail")
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("limits:\n  max: 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir); err == nil {
		t.Fatalf("numeric leaf should be rejected")
	}
}
