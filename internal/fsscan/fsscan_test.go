package fsscan

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestScanBaseNameMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.c"), "")
	writeFile(t, filepath.Join(dir, "src", "b.go"), "")

	fs := &OS{CaseSensitive: true}
	matches, err := fs.Scan(dir, `(.+)\.c$`, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1: %+v", len(matches), matches)
	}
	if len(matches[0].Numbered) != 1 || matches[0].Numbered[0] != "a" {
		t.Fatalf("unexpected captures: %+v", matches[0])
	}
}

func TestScanFullRecursiveMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "nested", "a.c"), "")

	fs := &OS{CaseSensitive: true}
	matches, err := fs.Scan(dir, `src/nested/.*\.c$`, true)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
}

func TestScanNamedCaptures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "widget.c"), "")

	fs := &OS{CaseSensitive: true}
	matches, err := fs.Scan(dir, `(?P<stem>.+)\.c$`, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matches) != 1 || matches[0].Named["stem"] != "widget" {
		t.Fatalf("unexpected matches: %+v", matches)
	}
}

func TestScanCaseInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.TXT"), "")

	fs := &OS{CaseSensitive: false}
	matches, err := fs.Scan(dir, `readme\.txt$`, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected a case-insensitive match, got %d", len(matches))
	}
}

func TestScanCaseSensitiveNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "README.TXT"), "")

	fs := &OS{CaseSensitive: true}
	matches, err := fs.Scan(dir, `readme\.txt$`, false)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no match under case-sensitive comparison, got %d", len(matches))
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	fs := &OS{CaseSensitive: true}
	if !fs.Exists(filepath.Join(dir, "a.txt")) {
		t.Fatalf("expected a.txt to exist")
	}
	if fs.Exists(filepath.Join(dir, "b.txt")) {
		t.Fatalf("expected b.txt to not exist")
	}
}

func TestRegexExists(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	defer os.Chdir(wd)
	writeFile(t, filepath.Join(dir, "marker.lock"), "")
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	fs := &OS{CaseSensitive: true}
	if !fs.RegexExists(`marker\.lock$`) {
		t.Fatalf("expected RegexExists to find marker.lock")
	}
	if fs.RegexExists(`nonexistent\.lock$`) {
		t.Fatalf("expected RegexExists to find nothing")
	}
}

func TestReadFileListSkipsMissingWithWarning(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	writeFile(t, present, "x")
	listPath := filepath.Join(dir, "list.txt")
	writeFile(t, listPath, present+"\n\n  \nmissing-file.txt\n")

	fs := &OS{CaseSensitive: true}
	entries, warnings, err := fs.ReadFileList(listPath)
	if err != nil {
		t.Fatalf("ReadFileList: %v", err)
	}
	if len(entries) != 1 || entries[0] != present {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d: %v", len(warnings), warnings)
	}
}

func TestCanonicalizeSlashes(t *testing.T) {
	got := canonicalizeSlashes("a//b///c")
	if got != "a/b/c" {
		t.Fatalf("got %q", got)
	}
}
