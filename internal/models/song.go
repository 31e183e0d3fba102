// Package models defines core data structures for songs, lyric lines and category assignments.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Song is a stored lyric source.
type Song struct {
	ID        string    `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Artist    string    `json:"artist,omitempty" db:"artist"`
	Source    string    `json:"source,omitempty" db:"source"`
	LineCount int       `json:"line_count" db:"line_count"`
	// Options is the JSON of the assigner options the lines were assigned with.
	Options     string    `json:"options,omitempty" db:"options"`
	SourceMtime int64     `json:"-" db:"source_mtime"`
	SourceSize  int64     `json:"-" db:"source_size"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// SongLine is one lyric line of a song together with its assignment.
type SongLine struct {
	SongID    string `json:"song_id" db:"song_id"`
	LineIndex int    `json:"line_index" db:"line_index"`
	// TimeMS is the line timestamp for timed sources, -1 otherwise.
	TimeMS      int64        `json:"time_ms" db:"time_ms"`
	Text        string       `json:"text" db:"text"`
	Tokens      []string     `json:"tokens" db:"tokens"`
	Missing     []string     `json:"missing,omitempty" db:"missing"`
	Empty       bool         `json:"empty,omitempty" db:"empty"`
	Error       string       `json:"error,omitempty" db:"error"`
	Assignments []Assignment `json:"assignments" db:"-"`
}

// Assignment is one ranked category for a line.
type Assignment struct {
	Rank         int     `json:"rank" db:"rank"`
	CategoryID   string  `json:"category_id" db:"category_id"`
	CategoryName string  `json:"category_name,omitempty" db:"category_name"`
	Score        float64 `json:"score" db:"score"`
}

// SongInput is the input for processing a song.
type SongInput struct {
	ID     string `json:"id,omitempty"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
	// Lyrics is the raw lyric text.
	Lyrics string `json:"lyrics"`
	// Format is a file extension such as ".lrc" or ".txt". Empty means plain text.
	Format string `json:"format,omitempty"`
	Source string `json:"-"`
}

// Validate ensures the input has lyrics and normalizes the format to a
// lowercase extension.
func (in *SongInput) Validate() error {
	if in.Lyrics == "" {
		return fmt.Errorf("lyrics cannot be empty")
	}
	in.Format = strings.ToLower(in.Format)
	if in.Format != "" && in.Format[0] != '.' {
		in.Format = "." + in.Format
	}
	return nil
}

// SongDetail is a song with its lines and assignments.
type SongDetail struct {
	Song  *Song       `json:"song"`
	Lines []*SongLine `json:"lines"`
}

// Category is one entry of the image-category taxonomy. Tokens holds the
// tokens of each separator-delimited sub-phrase of Name once the category
// has been built.
type Category struct {
	ID     string     `json:"id" db:"id"`
	Name   string     `json:"name" db:"name"`
	Tokens [][]string `json:"tokens,omitempty" db:"tokens"`
}
