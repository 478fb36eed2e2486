package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafeWriteFileCreatesParents(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "out", "manifest.json")
	data, err := PrettyJSON(map[string]int{"specimens": 3})
	if err != nil {
		t.Fatalf("pretty json: %v", err)
	}
	if err := SafeWriteFile(p, data); err != nil {
		t.Fatalf("safe write: %v", err)
	}
	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "{\n  \"specimens\": 3\n}" {
		t.Fatalf("unexpected content: %q", got)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind: %v", err)
	}
}
