package tokenize

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tok, err := New()
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercase and stopwords", "The Night is Young", []string{"night", "young"}},
		{"punctuation", "Hello, darkness, my old friend!", []string{"hello", "darkness", "old", "friend"}},
		{"digits dropped", "99 red balloons", []string{"red", "balloons"}},
		{"mixed alnum dropped", "route66 forever", []string{"forever"}},
		{"unicode letters kept", "Café au lait", []string{"café", "au", "lait"}},
		{"empty", "", []string{}},
		{"only stopwords", "and the of", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q)=%v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStopwordOptions(t *testing.T) {
	tok, err := New(
		WithAdditionalStopwords("Baby", "yeah"),
		WithRemovedStopwords("you", "yeah"),
	)
	if err != nil {
		t.Fatal(err)
	}
	got := tok.Tokenize("yeah baby you shine")
	want := []string{"yeah", "you", "shine"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !tok.IsStopword("the") || tok.IsStopword("you") || !tok.IsStopword("BABY") {
		t.Error("unexpected stopword membership")
	}
}

func TestTokenizeCategory(t *testing.T) {
	tok, _ := New()
	got := tok.TokenizeCategory("tench, Tinca tinca", "")
	want := [][]string{{"tench"}, {"tinca", "tinca"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	got = tok.TokenizeCategory("great white shark|man-eater", "|")
	if len(got) != 2 || !reflect.DeepEqual(got[0], []string{"great", "white", "shark"}) {
		t.Errorf("got %v", got)
	}
}

func TestTokenizeLines(t *testing.T) {
	tok, _ := New()
	got := tok.TokenizeLines([]string{"blue moon", "", "of the"})
	if len(got) != 3 || len(got[0]) != 2 || len(got[1]) != 0 || len(got[2]) != 0 {
		t.Errorf("got %v", got)
	}
}
