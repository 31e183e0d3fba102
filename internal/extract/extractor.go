// Package extract reads lyric files into ordered, optionally timed lines.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Line is one lyric line. Time is set only for timed sources such as .lrc.
type Line struct {
	Time  time.Duration
	Timed bool
	Text  string
}

// Lyrics is the parsed content of a lyric source.
type Lyrics struct {
	Title  string
	Artist string
	Lines  []Line
}

// Texts returns the line texts in order.
func (l *Lyrics) Texts() []string {
	out := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		out[i] = line.Text
	}
	return out
}

// SupportedExtensions lists the file extensions Extract understands.
var SupportedExtensions = []string{".lrc", ".txt", ".md", ".pdf", ".docx"}

// Extractor reads lyric files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its lyric lines.
func (e *Extractor) Extract(path string) (*Lyrics, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	lyrics, err := e.ExtractBytes(content, ext)
	if err != nil {
		return nil, err
	}
	if lyrics.Title == "" {
		lyrics.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return lyrics, nil
}

// ExtractBytes parses content based on the given extension.
// ext should include the leading dot (e.g. ".lrc"). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Lyrics, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".lrc":
		return parseLRC(extractPlain(content))
	case ".pdf":
		return extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	default:
		text = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return &Lyrics{Lines: splitLines(text)}, nil
}
