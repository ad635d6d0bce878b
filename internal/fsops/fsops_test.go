package fsops_test

import (
	"path/filepath"
	"testing"

	"github.com/temirov/llm-prompter/internal/fsops"
)

func TestListFilesAndWriteText_InMemory(t *testing.T) {
	mem := fsops.NewMem()
	ops := fsops.NewOps(mem)

	// Seed directories/files in memory
	if err := mem.MkdirAll("/payload/nested", 0o755); err != nil {
		t.Fatalf("mkdir nested: %v", err)
	}
	if err := mem.WriteFile("/payload/b.txt", []byte("second"), 0o644); err != nil {
		t.Fatalf("write b.txt: %v", err)
	}
	if err := mem.WriteFile("/payload/a.txt", []byte("first"), 0o644); err != nil {
		t.Fatalf("write a.txt: %v", err)
	}
	if err := mem.WriteFile("/payload/.hidden", []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write hidden: %v", err)
	}
	if err := mem.WriteFile("/payload/nested/c.txt", []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write nested: %v", err)
	}

	names, err := ops.ListFiles("/payload")
	if err != nil {
		t.Fatalf("list files: %v", err)
	}
	if len(names) != 2 || names[0] != "a.txt" || names[1] != "b.txt" {
		t.Fatalf("expected [a.txt b.txt], got %v", names)
	}

	text, readErr := ops.ReadText("/payload/a.txt")
	if readErr != nil {
		t.Fatalf("read a.txt: %v", readErr)
	}
	if text != "first" {
		t.Fatalf("expected %q, got %q", "first", text)
	}

	destination := filepath.Join("/answers", "a.txt", "answer-000-000.txt")
	if err := ops.WriteText(destination, "answer"); err != nil {
		t.Fatalf("write text: %v", err)
	}
	if !ops.FileExists(destination) {
		t.Fatalf("destination should exist after write")
	}
}

func TestListFilesMissingDirectory(t *testing.T) {
	ops := fsops.NewOps(fsops.NewMem())
	if _, err := ops.ListFiles("/absent"); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
