package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func texts(l *Lyrics) []string { return l.Texts() }

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	content := []byte("[Verse 1]\nHello darkness\r\n\n  my old friend  \n[Chorus]\nsilence")
	got, err := e.ExtractBytes(content, ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := []string{"Hello darkness", "my old friend", "silence"}
	if !reflect.DeepEqual(texts(got), want) {
		t.Errorf("got %q, want %q", texts(got), want)
	}
	if got.Lines[0].Timed {
		t.Error("plain lines are not timed")
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Lines[0].Text != "hello\uFFFDworld" {
		t.Errorf("got %q", got.Lines[0].Text)
	}
}

func TestExtractBytes_unknownExtension(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("one\ntwo"), ".lyrics")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got.Lines) != 2 {
		t.Errorf("got %v", got.Lines)
	}
}

func TestExtractBytes_lrc(t *testing.T) {
	e := NewExtractor()
	content := []byte(`[ti:Starman]
[ar:David Bowie]
[length:04:10]
[00:12.50]Didn't know what time it was
[00:05]There's a starman
[01:02.3][00:20.123]waiting in the sky
[00:30.00]
`)
	got, err := e.ExtractBytes(content, ".lrc")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got.Title != "Starman" || got.Artist != "David Bowie" {
		t.Errorf("tags: %q %q", got.Title, got.Artist)
	}
	want := []Line{
		{Time: 5 * time.Second, Timed: true, Text: "There's a starman"},
		{Time: 12*time.Second + 500*time.Millisecond, Timed: true, Text: "Didn't know what time it was"},
		{Time: 20*time.Second + 123*time.Millisecond, Timed: true, Text: "waiting in the sky"},
		{Time: time.Minute + 2*time.Second + 300*time.Millisecond, Timed: true, Text: "waiting in the sky"},
	}
	if !reflect.DeepEqual(got.Lines, want) {
		t.Errorf("got %+v\nwant %+v", got.Lines, want)
	}
}

func TestExtractBytes_lrcOffset(t *testing.T) {
	got, err := NewExtractor().ExtractBytes([]byte("[offset:+500]\n[00:00.20]a\n[00:02.00]b"), ".lrc")
	if err != nil {
		t.Fatal(err)
	}
	if got.Lines[0].Time != 0 || got.Lines[1].Time != 1500*time.Millisecond {
		t.Errorf("got %+v", got.Lines)
	}
	if _, err := NewExtractor().ExtractBytes([]byte("[00:75.00]bad"), ".lrc"); err == nil {
		t.Error("expected error for seconds >= 60")
	}
}

func TestExtract_file(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Space Oddity.txt")
	if err := os.WriteFile(path, []byte("Ground control\nto Major Tom"), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got.Title != "Space Oddity" || len(got.Lines) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	_, err := NewExtractor().Extract(filepath.Join(t.TempDir(), "nope.lrc"))
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

const docxBody = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

// minimalDocx returns a minimal .docx zip bytes with word/document.xml containing body.
func minimalDocx(body string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(docxBody + body + `</w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

// minimalDocxWithContentTypes returns a .docx zip with [Content_Types].xml pointing to a custom document path.
func minimalDocxWithContentTypes(text, docPath string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + docPath + `" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(docxBody + `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	body := `<w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">Is this the </w:t></w:r><w:r><w:t>real life?</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Is this</w:t><w:br/><w:t>just fantasy &amp; more</w:t></w:r></w:p>` +
		`<w:p><w:r><w:tab/><w:t>[Bridge]</w:t></w:r></w:p>`
	got, err := NewExtractor().ExtractBytes(minimalDocx(body), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := []string{"Is this the real life?", "Is this", "just fantasy & more"}
	if !reflect.DeepEqual(texts(got), want) {
		t.Errorf("got %q, want %q", texts(got), want)
	}
}

func TestExtractBytes_docxWithDocument2(t *testing.T) {
	content := minimalDocxWithContentTypes("Content from document2", "word/document2.xml")
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Text != "Content from document2" {
		t.Errorf("got %+v", got.Lines)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("plain"), ".docx"); err == nil {
		t.Error("expected error")
	}
}

func TestExtractBytes_pdfInvalid(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

func TestPageNumber(t *testing.T) {
	tests := map[string]bool{
		"3":                 true,
		"- 12 -":            true,
		"Page 2":            true,
		"page 2 of 5":       true,
		"3 little birds":    false,
		"Hello darkness":    false,
		"Page of the story": false,
	}
	for line, want := range tests {
		if got := pageNumber.MatchString(line); got != want {
			t.Errorf("pageNumber(%q) = %v, want %v", line, got, want)
		}
	}
}
