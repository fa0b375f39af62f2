package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"report.pdf", true},
		{"REPORT.PDF", true},
		{"data.xlsx", true},
		{"scan.jpeg", true},
		{"notes.txt", false},
		{"script.sh", false},
		{"archive.pdf.exe", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := AllowedFile(tt.name); got != tt.want {
			t.Errorf("AllowedFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// makeFileHeader builds a real multipart.FileHeader by round-tripping a
// form through the HTTP machinery.
func makeFileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	w.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestSaveGeneratesUniqueStoredNames(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	fh := makeFileHeader(t, "Quarterly Report.PDF", []byte("pdf bytes"))
	a, err := fs.Save(fh)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := fs.Save(fh)
	if err != nil {
		t.Fatalf("Save again: %v", err)
	}
	if a == b {
		t.Error("two saves of the same file share a stored name")
	}
	if !strings.HasSuffix(a, ".pdf") {
		t.Errorf("stored name %q lost the extension", a)
	}

	data, err := os.ReadFile(fs.Path(a))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "pdf bytes" {
		t.Errorf("content mismatch: %q", data)
	}
}

func TestPathStaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	got := fs.Path("../../etc/passwd")
	if filepath.Dir(got) != dir {
		t.Errorf("Path escaped the uploads dir: %q", got)
	}
	if filepath.Base(got) != "passwd" {
		t.Errorf("unexpected base: %q", got)
	}
}
