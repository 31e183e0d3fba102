package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageNumber matches footer lines such as "3", "- 3 -" or "Page 3 of 4".
var pageNumber = regexp.MustCompile(`(?i)^(page\s+)?[-\s]*\d+[-\s]*(of\s+\d+)?$`)

// extractPDF reads the lyric lines of every page in order. Page-number
// footers are dropped; title and artist come from the document info.
func extractPDF(content []byte) (*Lyrics, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	lyrics := &Lyrics{}
	if info := r.Trailer().Key("Info"); !info.IsNull() {
		lyrics.Title = strings.TrimSpace(info.Key("Title").Text())
		lyrics.Artist = strings.TrimSpace(info.Key("Author").Text())
	}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		for _, line := range splitLines(text) {
			if pageNumber.MatchString(line.Text) {
				continue
			}
			lyrics.Lines = append(lyrics.Lines, line)
		}
	}
	return lyrics, nil
}
