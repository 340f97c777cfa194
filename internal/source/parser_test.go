package source

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeExport creates a temp export file and returns a DiscoveredFile for it.
func writeExport(t *testing.T, name, content string) DiscoveredFile {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	format, _ := FormatForPath(path)
	return DiscoveredFile{Path: path, Format: format}
}

func TestParseFile_JSONArray(t *testing.T) {
	df := writeExport(t, "orders.json", `[
		{"id":"1","completedAt":"2024-03-01T08:00:00Z","totalActualCost":"100.50"},
		{"id":"2","completedAt":null,"totalActualCost":20},
		"not an object"
	]`)

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 2 {
		t.Fatalf("Records = %d, want 2", len(result.Records))
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if got := result.Records[0].TotalActualCost.Value().String(); got != "100.5" {
		t.Errorf("actual = %s, want 100.5", got)
	}
}

func TestParseFile_Envelope(t *testing.T) {
	for _, key := range []string{"data", "items", "workOrders"} {
		df := writeExport(t, "page.json", `{"`+key+`":[{"id":"a"},{"id":"b"}],"total":2}`)
		result := ParseFile(df)
		if result.Err != nil {
			t.Fatalf("%s: %v", key, result.Err)
		}
		if len(result.Records) != 2 {
			t.Errorf("%s: Records = %d, want 2", key, len(result.Records))
		}
	}
}

func TestParseFile_UnknownEnvelope(t *testing.T) {
	df := writeExport(t, "other.json", `{"results":[]}`)
	result := ParseFile(df)
	if !errors.Is(result.Err, ErrUnrecognizedDocument) {
		t.Fatalf("err = %v, want ErrUnrecognizedDocument", result.Err)
	}
}

func TestParseFile_JSONLDedup(t *testing.T) {
	df := writeExport(t, "orders.jsonl", strings.Join([]string{
		`{"id":"wo-1","totalActualCost":"10"}`,
		`{broken`,
		``,
		`{"id":"wo-2","totalActualCost":"20"}`,
		`{"id":"wo-1","totalActualCost":"15"}`,
		`{"totalActualCost":"5"}`,
	}, "\n"))

	result := ParseFile(df)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if len(result.Records) != 3 {
		t.Fatalf("Records = %d, want 3", len(result.Records))
	}
	if result.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", result.Duplicates)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
	if got := result.Records[0].TotalActualCost.Value().String(); got != "15" {
		t.Errorf("wo-1 actual = %s, want the later value 15", got)
	}
}

func TestParseFile_Missing(t *testing.T) {
	result := ParseFile(DiscoveredFile{Path: filepath.Join(t.TempDir(), "nope.json")})
	if result.Err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestScanDirAndDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "b.jsonl", "c.ndjson", "notes.txt", ".hidden/d.json"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	files, err := ScanDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("ScanDir found %d files, want 3: %+v", len(files), files)
	}
	if files[1].Format != FormatJSONL || files[2].Format != FormatJSONL {
		t.Errorf("formats = %v %v", files[1].Format, files[2].Format)
	}

	txt := filepath.Join(dir, "notes.txt")
	found, err := Discover([]string{dir, txt})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 4 || found[3].Format != FormatJSON {
		t.Errorf("Discover = %+v", found)
	}
}
