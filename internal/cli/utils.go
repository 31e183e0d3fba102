// Package cli renders kashi results for the terminal.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/kashi/internal/models"
	"github.com/hyperjump/kashi/pkg/utils"
)

// OutputFormat selects how results are written.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one tab-separated line per lyric line.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

const textWidth = 60

// WriteAssignResponse writes ad-hoc assignment results to w.
func WriteAssignResponse(w io.Writer, resp *models.AssignResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, resp)
	case OutputCompact:
		for _, l := range resp.Lines {
			fmt.Fprintf(w, "%d\t%s\t%s\n", l.Index, compactAssignments(l.Assignments, l.Error), l.Text)
		}
		return nil
	default:
		fmt.Fprintf(w, "\nAssigned %d lines in %dms (%d with unknown words)\n\n", len(resp.Lines), resp.TookMS, resp.Incomplete)
		for _, l := range resp.Lines {
			writeLineText(w, l.Index, -1, l.Text, l.Missing, l.Empty, l.Error, l.Assignments)
		}
		return nil
	}
}

// WriteSongDetail writes a stored song and its line assignments to w.
func WriteSongDetail(w io.Writer, detail *models.SongDetail, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, detail)
	case OutputCompact:
		for _, l := range detail.Lines {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.LineIndex, formatTime(l.TimeMS),
				compactAssignments(l.Assignments, l.Error), l.Text)
		}
		return nil
	default:
		s := detail.Song
		fmt.Fprintf(w, "\n%s\n", songHeading(s))
		fmt.Fprintf(w, "ID: %s\n", s.ID)
		if s.Source != "" {
			fmt.Fprintf(w, "Source: %s\n", s.Source)
		}
		fmt.Fprintf(w, "Lines: %d\n\n", len(detail.Lines))
		for _, l := range detail.Lines {
			writeLineText(w, l.LineIndex, l.TimeMS, l.Text, l.Missing, l.Empty, l.Error, l.Assignments)
		}
		return nil
	}
}

// WriteCategories writes a category listing to w.
func WriteCategories(w io.Writer, cats []models.Category, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, cats)
	}
	for _, c := range cats {
		if format == OutputCompact {
			fmt.Fprintf(w, "%s\t%s\n", c.ID, c.Name)
			continue
		}
		fmt.Fprintf(w, "%-16s %s\n", c.ID, utils.Truncate(c.Name, textWidth))
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeLineText(w io.Writer, index int, timeMS int64, text string, missing []string, empty bool, errMsg string, as []models.Assignment) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	prefix := fmt.Sprintf("#%d", index)
	if timeMS >= 0 {
		prefix += " [" + formatTime(timeMS) + "]"
	}
	fmt.Fprintf(w, "%s %s\n", prefix, utils.Truncate(text, textWidth))
	switch {
	case errMsg != "":
		fmt.Fprintf(w, "  error: %s\n", errMsg)
		return
	case empty:
		fmt.Fprintln(w, "  (no known words; ranking is arbitrary)")
	case len(missing) > 0:
		fmt.Fprintf(w, "  unknown: %s\n", strings.Join(missing, ", "))
	}
	for _, a := range as {
		fmt.Fprintf(w, "  %d. %-40s %.4f\n", a.Rank+1, utils.Truncate(categoryLabel(a), 40), a.Score)
	}
}

func categoryLabel(a models.Assignment) string {
	if a.CategoryName == "" {
		return a.CategoryID
	}
	return a.CategoryName + " (" + a.CategoryID + ")"
}

func compactAssignments(as []models.Assignment, errMsg string) string {
	if errMsg != "" {
		return "!"
	}
	ids := make([]string, len(as))
	for i, a := range as {
		ids[i] = a.CategoryID
	}
	return strings.Join(ids, ",")
}

func songHeading(s *models.Song) string {
	switch {
	case s.Title != "" && s.Artist != "":
		return s.Artist + " - " + s.Title
	case s.Title != "":
		return s.Title
	default:
		return s.ID
	}
}

// formatTime renders a millisecond timestamp as mm:ss.cc, or "-" when untimed.
func formatTime(ms int64) string {
	if ms < 0 {
		return "-"
	}
	return fmt.Sprintf("%02d:%02d.%02d", ms/60000, (ms/1000)%60, (ms%1000)/10)
}
