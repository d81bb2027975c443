package extractor

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/use-agent/tabgate/models"
)

func TestWriteCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	rows := [][]string{
		{"Name", "Age", "City"},
		{"Li, Wei", "27", "Shanghai"},
		{`He said "hi"`, "1", "a\nb"},
	}

	if err := writeCSV(path, rows); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back CSV: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\ngot  %v\nwant %v", got, rows)
	}
}

func TestWriteCSV_QuotingAndTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := writeCSV(path, [][]string{{"Li, Wei", "27"}}); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	// Comma forces quoting of the first field only; the file ends in exactly
	// one newline and carries no BOM.
	want := "\"Li, Wei\",27\n"
	if string(data) != want {
		t.Errorf("file content = %q, want %q", string(data), want)
	}
}

func TestWriteCSV_OverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := writeCSV(path, [][]string{{"old1"}, {"old2"}, {"old3"}}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := writeCSV(path, [][]string{{"new"}}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "new\n" {
		t.Errorf("second write did not fully replace the file, got %q", string(data))
	}
}

func TestWriteCSV_CreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.csv")

	if err := writeCSV(path, [][]string{{"x"}}); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")

	if err := writeCSV(path, nil); err != nil {
		t.Fatalf("writeCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("empty table should produce an empty file, got %q", string(data))
	}
}

func TestWriteCSV_UnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// A file where a directory is needed makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := writeCSV(filepath.Join(blocker, "sub", "out.csv"), [][]string{{"x"}})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}

	var sessErr *models.SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("expected SessionError, got %T: %v", err, err)
	}
	if sessErr.Code != models.ErrCodeIOWrite {
		t.Errorf("error code = %s, want %s", sessErr.Code, models.ErrCodeIOWrite)
	}
}

func TestParseThenWrite_UnicodePlain(t *testing.T) {
	tableHTML := `<table><tr><td>名前</td><td>年齢</td></tr><tr><td>Müller</td><td>42</td></tr></table>`

	rows, err := parseTableHTML(tableHTML)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := writeCSV(path, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(string(data), "\xef\xbb\xbf") {
		t.Error("output must be plain UTF-8 without a BOM")
	}
	if !strings.Contains(string(data), "名前,年齢\n") {
		t.Errorf("unexpected content: %q", string(data))
	}
}
