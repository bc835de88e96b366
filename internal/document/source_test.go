package document

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	docx := buildDocx(t, testDocumentXML)

	tests := []struct {
		name    string
		head    []byte
		ext     string
		want    Format
		wantErr bool
	}{
		{name: "docx", head: docx, ext: ".docx", want: FormatDocx},
		{name: "plain text", head: []byte("hello world"), ext: ".txt", want: FormatText},
		{name: "markdown", head: []byte("# title"), ext: ".md", want: FormatText},
		{name: "html by extension", head: []byte("<p>x</p>"), ext: ".html", want: FormatHTML},
		{name: "html by content", head: []byte("<!DOCTYPE html><html></html>"), ext: "", want: FormatHTML},
		{name: "text without extension", head: []byte("notes"), ext: "", want: FormatText},
		{name: "png", head: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), ext: ".txt", wantErr: true},
		{name: "pdf", head: []byte("%PDF-1.7\n"), ext: ".pdf", wantErr: true},
		{name: "binary", head: []byte{'a', 0, 'b'}, ext: ".txt", wantErr: true},
		{name: "unknown extension", head: []byte("text"), ext: ".csv", wantErr: true},
		{name: "text named docx", head: []byte("not a zip"), ext: ".docx", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := detect(tt.head, tt.ext)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("detect() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("detect() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("detect() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEnumerate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.docx", "c.html", ".hidden.txt", "a_masked_output.txt", "image.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o750); err != nil {
		t.Fatal(err)
	}

	got, err := Enumerate(dir)
	if err != nil {
		t.Fatalf("Enumerate() error = %v", err)
	}
	want := []string{"a.docx", "b.txt", "c.html"}
	if len(got) != len(want) {
		t.Fatalf("Enumerate() = %v, want %v", got, want)
	}
	for i, w := range want {
		if got[i] != filepath.Join(dir, w) {
			t.Errorf("Enumerate()[%d] = %s, want %s", i, got[i], w)
		}
	}
}

func TestOutputName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/in/contract.docx": "contract.docx_masked_output.txt",
		"/in/contract.html": "contract.html_masked_output.txt",
		"notes.txt":         "notes.txt_masked_output.txt",
		"README":            "README_masked_output.txt",
	}
	for in, want := range tests {
		if got := OutputName(in); got != want {
			t.Errorf("OutputName(%q) = %q, want %q", in, got, want)
		}
	}
}
