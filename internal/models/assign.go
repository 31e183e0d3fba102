package models

import (
	"fmt"

	"github.com/hyperjump/kashi/internal/lyrics"
)

// AssignRequest asks for categories of ad-hoc lyric lines.
// Exactly one of Lines (pre-tokenized) and Text must be set.
type AssignRequest struct {
	Lines   [][]string      `json:"lines,omitempty"`
	Text    string          `json:"text,omitempty"`
	TopN    int             `json:"top_n,omitempty"`
	Options *lyrics.Options `json:"options,omitempty"`
}

// Validate checks the request and caps TopN to maxTopN. A zero TopN becomes defaultTopN.
func (r *AssignRequest) Validate(defaultTopN, maxTopN int) error {
	if len(r.Lines) == 0 && r.Text == "" {
		return fmt.Errorf("lines or text is required")
	}
	if len(r.Lines) > 0 && r.Text != "" {
		return fmt.Errorf("lines and text are mutually exclusive")
	}
	if r.TopN < 0 {
		return fmt.Errorf("top_n must be non-negative")
	}
	if r.TopN == 0 {
		r.TopN = defaultTopN
	}
	if maxTopN > 0 && r.TopN > maxTopN {
		r.TopN = maxTopN
	}
	return nil
}

// LineAssignment is the response entry for one assigned line.
type LineAssignment struct {
	Index       int          `json:"index"`
	Text        string       `json:"text,omitempty"`
	Tokens      []string     `json:"tokens"`
	Missing     []string     `json:"missing,omitempty"`
	Empty       bool         `json:"empty,omitempty"`
	Error       string       `json:"error,omitempty"`
	Assignments []Assignment `json:"assignments"`
}

// AssignResponse is the response for an assign request.
type AssignResponse struct {
	Lines []*LineAssignment `json:"lines"`
	// Incomplete counts lines with at least one token missing from the vocabulary.
	Incomplete int   `json:"incomplete"`
	TookMS     int64 `json:"took_ms"`
}
