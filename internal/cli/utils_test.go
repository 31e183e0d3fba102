package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/kashi/internal/models"
)

func sampleResponse() *models.AssignResponse {
	return &models.AssignResponse{
		TookMS:     7,
		Incomplete: 1,
		Lines: []*models.LineAssignment{
			{
				Index:   0,
				Text:    "my dog runs",
				Tokens:  []string{"dog", "runs"},
				Missing: []string{"runs"},
				Assignments: []models.Assignment{
					{Rank: 0, CategoryID: "n-dog", CategoryName: "dog", Score: 0.97},
					{Rank: 1, CategoryID: "n-fish", CategoryName: "goldfish", Score: 0.12},
				},
			},
			{Index: 1, Text: "la la", Tokens: []string{}, Empty: true, Assignments: []models.Assignment{}},
			{Index: 2, Text: "broken", Error: "weigh line: boom", Assignments: []models.Assignment{}},
		},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"TEXT", OutputText, false},
		{"compact", OutputCompact, false},
		{"json", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteAssignResponse_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAssignResponse(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.AssignResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(decoded.Lines) != 3 || decoded.Lines[0].Assignments[0].CategoryID != "n-dog" {
		t.Errorf("decoded: %+v", decoded.Lines)
	}
}

func TestWriteAssignResponse_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAssignResponse(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Assigned 3 lines in 7ms (1 with unknown words)",
		"#0 my dog runs",
		"unknown: runs",
		"1. dog (n-dog)",
		"0.9700",
		"no known words",
		"error: weigh line: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteAssignResponse_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteAssignResponse(&buf, sampleResponse(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "0\tn-dog,n-fish\tmy dog runs" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[2] != "2\t!\tbroken" {
		t.Errorf("line 2 = %q", lines[2])
	}
}

func TestWriteSongDetail(t *testing.T) {
	detail := &models.SongDetail{
		Song: &models.Song{ID: "file:abc", Title: "Sea", Artist: "Band", Source: "/lyrics/sea.lrc"},
		Lines: []*models.SongLine{
			{LineIndex: 0, TimeMS: 65430, Text: "the ocean", Assignments: []models.Assignment{{CategoryID: "n-fish", CategoryName: "goldfish", Score: 0.9}}},
			{LineIndex: 1, TimeMS: -1, Text: "untimed", Assignments: []models.Assignment{}},
		},
	}

	var text bytes.Buffer
	if err := WriteSongDetail(&text, detail, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Band - Sea", "Source: /lyrics/sea.lrc", "#0 [01:05.43] the ocean", "#1 untimed"} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var compact bytes.Buffer
	if err := WriteSongDetail(&compact, detail, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(compact.String(), "0\t01:05.43\tn-fish\tthe ocean\n1\t-\t\tuntimed\n") {
		t.Errorf("compact = %q", compact.String())
	}
}

func TestWriteCategories(t *testing.T) {
	cats := []models.Category{{ID: "n-dog", Name: "dog, domestic dog"}, {ID: "n-fish", Name: "goldfish"}}
	var buf bytes.Buffer
	if err := WriteCategories(&buf, cats, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "n-dog\tdog, domestic dog\nn-fish\tgoldfish\n" {
		t.Errorf("compact = %q", buf.String())
	}
	buf.Reset()
	if err := WriteCategories(&buf, cats, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded []models.Category
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil || len(decoded) != 2 {
		t.Errorf("json = %s (%v)", buf.String(), err)
	}
}

func TestFormatTime(t *testing.T) {
	for ms, want := range map[int64]string{-1: "-", 0: "00:00.00", 5500: "00:05.50", 125990: "02:05.99"} {
		if got := formatTime(ms); got != want {
			t.Errorf("formatTime(%d) = %q, want %q", ms, got, want)
		}
	}
}
