// Package tokenize turns lyric lines and category names into word tokens.
package tokenize

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	unicodetok "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// DefaultCategorySeparator splits a category name into sub-phrases.
const DefaultCategorySeparator = ","

// Tokenizer splits text into lowercase alphabetic word tokens and removes stopwords.
type Tokenizer struct {
	tokenizer analysis.Tokenizer
	lower     analysis.TokenFilter
	stopwords map[string]bool
}

type options struct {
	additional []string
	removed    []string
}

// Option configures a Tokenizer.
type Option func(*options)

// WithAdditionalStopwords adds words to the English stopword list.
func WithAdditionalStopwords(words ...string) Option {
	return func(o *options) {
		o.additional = append(o.additional, words...)
	}
}

// WithRemovedStopwords keeps words that would otherwise be dropped. Removal
// wins over addition.
func WithRemovedStopwords(words ...string) Option {
	return func(o *options) {
		o.removed = append(o.removed, words...)
	}
}

// New returns a Tokenizer whose stopwords are the English list plus additions minus removals.
func New(opts ...Option) (*Tokenizer, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	tm := analysis.NewTokenMap()
	if err := tm.LoadBytes(en.EnglishStopWords); err != nil {
		return nil, fmt.Errorf("load english stopwords: %w", err)
	}
	t := &Tokenizer{
		tokenizer: unicodetok.NewUnicodeTokenizer(),
		lower:     lowercase.NewLowerCaseFilter(),
		stopwords: make(map[string]bool, len(tm)+len(o.additional)),
	}
	for w := range tm {
		t.stopwords[w] = true
	}
	for _, w := range o.additional {
		t.stopwords[strings.ToLower(w)] = true
	}
	for _, w := range o.removed {
		delete(t.stopwords, strings.ToLower(w))
	}
	return t, nil
}

// IsStopword reports whether w is dropped by the tokenizer.
func (t *Tokenizer) IsStopword(w string) bool {
	return t.stopwords[strings.ToLower(w)]
}

// Tokenize returns the kept tokens of text in order.
func (t *Tokenizer) Tokenize(text string) []string {
	stream := t.lower.Filter(t.tokenizer.Tokenize([]byte(text)))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		term := string(tok.Term)
		if !isAlpha(term) || t.stopwords[term] {
			continue
		}
		out = append(out, term)
	}
	return out
}

// TokenizeLines tokenizes every line independently.
func (t *Tokenizer) TokenizeLines(lines []string) [][]string {
	out := make([][]string, len(lines))
	for i, l := range lines {
		out[i] = t.Tokenize(l)
	}
	return out
}

// TokenizeCategory splits a category name on sep and tokenizes each
// sub-phrase. An empty sep uses DefaultCategorySeparator.
func (t *Tokenizer) TokenizeCategory(name, sep string) [][]string {
	if sep == "" {
		sep = DefaultCategorySeparator
	}
	phrases := strings.Split(name, sep)
	out := make([][]string, len(phrases))
	for i, p := range phrases {
		out[i] = t.Tokenize(p)
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
