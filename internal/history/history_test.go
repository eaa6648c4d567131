package history

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad_MissingFile(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "no-such-file"))

	lines, err := h.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lines != nil {
		t.Errorf("expected nil lines, got %v", lines)
	}
}

func TestAppendAndLoad(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "history"))

	if err := h.Append([]string{"x := 1", "fmt.Println(x)"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := h.Append([]string{"x + 1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	lines, err := h.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := []string{"x := 1", "fmt.Println(x)", "x + 1"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %v, got %v", want, lines)
	}
}

func TestAppend_FiltersDirectives(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "history"))

	err := h.Append([]string{":import fmt", "x := 1", ":quit", ""})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	lines, err := h.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	want := []string{"x := 1"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("expected %v, got %v", want, lines)
	}
}

func TestAppend_AllFilteredWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := New(path)

	if err := h.Append([]string{":help", ":quit"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected no file to be created")
	}
}

func TestAppend_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history")
	h := New(path)

	if err := h.Append([]string{"x := 1"}); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected history file to exist: %v", err)
	}
}

func TestCandidates_MostRecentFirstUnique(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "history"))

	err := h.Append([]string{"a", "b", "a", "c"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := h.Candidates(0)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}

	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestCandidates_Limit(t *testing.T) {
	h := New(filepath.Join(t.TempDir(), "history"))

	err := h.Append([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := h.Candidates(2)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}

	want := []string{"c", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
