// Package pipeline runs lyrics through tokenizing, vectorizing and category
// assignment, and stores the per-line results.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperjump/kashi/internal/categories"
	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/embedding"
	"github.com/hyperjump/kashi/internal/extract"
	"github.com/hyperjump/kashi/internal/fileid"
	"github.com/hyperjump/kashi/internal/lyrics"
	"github.com/hyperjump/kashi/internal/models"
	"github.com/hyperjump/kashi/internal/storage"
	"github.com/hyperjump/kashi/internal/tokenize"
	"github.com/hyperjump/kashi/internal/vector"
	"go.uber.org/zap"
)

var (
	// ErrNoCategories is returned when assigning before any category set is loaded.
	ErrNoCategories = errors.New("no categories loaded")
	// ErrInvalidOptions wraps errors from per-request assigner options.
	ErrInvalidOptions = errors.New("invalid assign options")
)

// Settings are the assignment settings of one run. They are stored with
// each song so a change invalidates previously processed files.
type Settings struct {
	Options       lyrics.Options `json:"options"`
	TopN          int            `json:"top_n"`
	Window        int            `json:"window"`
	WindowOverlap int            `json:"window_overlap"`
}

// SettingsFromConfig returns the settings described by an assign config section.
func SettingsFromConfig(cfg *config.AssignConfig) Settings {
	return Settings{
		Options:       cfg.Options(),
		TopN:          cfg.TopN,
		Window:        cfg.Window,
		WindowOverlap: cfg.WindowOverlap,
	}
}

func (s Settings) fingerprint() string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Pipeline assigns categories to lyric lines and persists songs.
type Pipeline struct {
	storage    storage.Storage
	tokenizer  *tokenize.Tokenizer
	vectorizer *lyrics.Vectorizer
	extractor  *extract.Extractor
	settings   Settings
	assigner   *lyrics.Assigner
	workers    int
	logger     *zap.Logger

	mu  sync.RWMutex
	set *categories.Set
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a logger for debug output (file processed, song deleted, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithWorkers limits how many lines are assigned concurrently.
func WithWorkers(n int) Option {
	return func(p *Pipeline) { p.workers = n }
}

// WithExtractor replaces the default lyric extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Pipeline) { p.extractor = e }
}

// New creates a pipeline. set may be nil until categories are built; assigning
// then fails with ErrNoCategories.
func New(
	store storage.Storage,
	tok *tokenize.Tokenizer,
	emb embedding.Embedder,
	set *categories.Set,
	settings Settings,
	opts ...Option,
) (*Pipeline, error) {
	if settings.TopN <= 0 {
		settings.TopN = 1
	}
	if settings.Window <= 0 {
		settings.Window = 1
	}
	a, err := lyrics.NewAssigner(settings.Options)
	if err != nil {
		return nil, fmt.Errorf("build assigner: %w", err)
	}
	p := &Pipeline{
		storage:    store,
		tokenizer:  tok,
		vectorizer: lyrics.NewVectorizer(emb),
		extractor:  extract.NewExtractor(),
		settings:   settings,
		assigner:   a,
		logger:     zap.NewNop(),
		set:        set,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Settings returns the default assignment settings.
func (p *Pipeline) Settings() Settings {
	return p.settings
}

// Categories returns the current category set, or nil.
func (p *Pipeline) Categories() *categories.Set {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.set
}

// SetCategories swaps in a rebuilt category set.
func (p *Pipeline) SetCategories(set *categories.Set) {
	p.mu.Lock()
	p.set = set
	p.mu.Unlock()
}

// Metric returns the similarity metric of the default assigner.
func (p *Pipeline) Metric() vector.Similarity {
	return p.assigner.Metric()
}

// Tokenizer returns the tokenizer used for lyric text.
func (p *Pipeline) Tokenizer() *tokenize.Tokenizer {
	return p.tokenizer
}

// Request is one ad-hoc assignment. Set exactly one of Texts and Tokens.
type Request struct {
	Texts  []string
	Tokens [][]string
	// TopN overrides the configured number of categories per line when positive.
	TopN int
	// Options, when non-nil, replaces the configured assigner options.
	Options *lyrics.Options
}

// Assign tokenizes, vectorizes and assigns the lines of req without storing anything.
func (p *Pipeline) Assign(ctx context.Context, req *Request) (*models.AssignResponse, error) {
	start := time.Now()
	set := p.Categories()
	if set == nil || set.Len() == 0 {
		return nil, ErrNoCategories
	}
	a := p.assigner
	if req.Options != nil {
		var err error
		if a, err = lyrics.NewAssigner(*req.Options); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
		}
	}
	topN := p.settings.TopN
	if req.TopN > 0 {
		topN = req.TopN
	}
	tokens := req.Tokens
	if tokens == nil {
		tokens = p.tokenizer.TokenizeLines(req.Texts)
	}

	lines, incomplete, err := p.vectorizer.VectorizeSong(ctx, tokens)
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}
	windows, err := lyrics.Windows(lines, p.settings.Window, p.settings.WindowOverlap)
	if err != nil {
		return nil, err
	}
	merged := make([]*lyrics.Line, len(windows))
	for i, w := range windows {
		merged[i] = w.Line
	}
	ids, candidates := set.Candidates()
	results, err := lyrics.AssignSong(ctx, a, merged, candidates, topN, p.workers)
	if err != nil {
		return nil, err
	}

	resp := &models.AssignResponse{Lines: make([]*models.LineAssignment, len(windows)), Incomplete: incomplete}
	for i, w := range windows {
		la := &models.LineAssignment{
			Index:       i,
			Tokens:      nonNil(w.Line.Tokens),
			Missing:     w.Line.Missing,
			Assignments: []models.Assignment{},
		}
		if req.Texts != nil {
			la.Text = strings.Join(req.Texts[w.Start:w.End], " / ")
		}
		lr := results[i]
		if lr.Err != nil {
			la.Error = lr.Err.Error()
			resp.Lines[i] = la
			continue
		}
		la.Empty = lr.Result.Empty
		for rank, j := range lr.Result.Selection {
			c := set.At(j)
			asg := models.Assignment{Rank: rank, CategoryID: ids[j], CategoryName: c.Name}
			if lr.Result.Scores != nil {
				asg.Score = lr.Result.Scores[j]
			}
			la.Assignments = append(la.Assignments, asg)
		}
		resp.Lines[i] = la
	}
	resp.TookMS = time.Since(start).Milliseconds()
	return resp, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// SplitText parses raw lyrics in the given format (a file extension, plain
// text when empty) into preprocessed line texts.
func (p *Pipeline) SplitText(text, format string) ([]string, error) {
	if format != "" && format[0] != '.' {
		format = "." + format
	}
	parsed, err := p.extractor.ExtractBytes([]byte(text), strings.ToLower(format))
	if err != nil {
		return nil, fmt.Errorf("extract lyrics: %w", err)
	}
	return preprocessLines(parsed), nil
}

func preprocessLines(parsed *extract.Lyrics) []string {
	texts := make([]string, len(parsed.Lines))
	for i, l := range parsed.Lines {
		texts[i] = Preprocess(l.Text)
	}
	return texts
}

// ProcessSong parses in, assigns every line and stores the song. A new
// random ID is used when in.ID is empty.
func (p *Pipeline) ProcessSong(ctx context.Context, in *models.SongInput) (*models.SongDetail, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	parsed, err := p.extractor.ExtractBytes([]byte(in.Lyrics), in.Format)
	if err != nil {
		return nil, fmt.Errorf("extract lyrics: %w", err)
	}
	song := &models.Song{ID: in.ID, Title: in.Title, Artist: in.Artist, Source: in.Source}
	if song.ID == "" {
		song.ID = fileid.NewSongID()
	}
	return p.store(ctx, song, parsed)
}

func (p *Pipeline) store(ctx context.Context, song *models.Song, parsed *extract.Lyrics) (*models.SongDetail, error) {
	if song.Title == "" {
		song.Title = parsed.Title
	}
	if song.Artist == "" {
		song.Artist = parsed.Artist
	}
	resp, err := p.Assign(ctx, &Request{Texts: preprocessLines(parsed)})
	if err != nil {
		return nil, err
	}

	step := p.settings.Window - p.settings.WindowOverlap
	lines := make([]*models.SongLine, len(resp.Lines))
	for i, la := range resp.Lines {
		line := &models.SongLine{
			LineIndex:   la.Index,
			TimeMS:      -1,
			Text:        la.Text,
			Tokens:      la.Tokens,
			Missing:     la.Missing,
			Empty:       la.Empty,
			Error:       la.Error,
			Assignments: la.Assignments,
		}
		if first := parsed.Lines[i*step]; first.Timed {
			line.TimeMS = first.Time.Milliseconds()
		}
		lines[i] = line
	}
	song.Options = p.settings.fingerprint()
	if err := p.storage.SaveSong(ctx, song, lines); err != nil {
		return nil, fmt.Errorf("failed to store song: %w", err)
	}
	p.logger.Debug("song stored",
		zap.String("song_id", song.ID),
		zap.Int("lines", len(lines)),
		zap.Int("incomplete", resp.Incomplete),
	)
	return &models.SongDetail{Song: song, Lines: lines}, nil
}

// ProcessFile reads a lyric file and stores its assignment. The song ID is
// derived from the absolute path so reprocessing replaces the previous
// result. If allowedExts is non-empty, the file's extension must be in it.
// Files unchanged since they were stored with the same settings are skipped.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, allowedExts []string) error {
	p.logger.Debug("pipeline processing file", zap.String("path", path))
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", absPath)
	}
	songID := fileid.SongID(absPath)
	if p.unchanged(ctx, songID, absPath, info) {
		p.logger.Debug("pipeline skipping unchanged file", zap.String("path", absPath))
		return nil
	}
	parsed, err := p.extractor.Extract(absPath)
	if err != nil {
		return fmt.Errorf("extract lyrics: %w", err)
	}
	song := &models.Song{
		ID:          songID,
		Source:      absPath,
		SourceMtime: info.ModTime().UnixNano(),
		SourceSize:  info.Size(),
	}
	if existing, err := p.storage.GetSong(ctx, songID); err == nil {
		song.CreatedAt = existing.CreatedAt
	}
	if _, err := p.store(ctx, song, parsed); err != nil {
		return err
	}
	p.logger.Debug("pipeline file processed", zap.String("path", absPath), zap.String("song_id", songID))
	return nil
}

func (p *Pipeline) unchanged(ctx context.Context, songID, absPath string, info os.FileInfo) bool {
	song, err := p.storage.GetSong(ctx, songID)
	if err != nil {
		return false
	}
	return song.Source == absPath &&
		song.SourceMtime == info.ModTime().UnixNano() &&
		song.SourceSize == info.Size() &&
		song.Options == p.settings.fingerprint()
}

// ProcessDirectory walks dir recursively and processes each regular file whose
// extension is in allowedExts (all files when empty). Returns the number of
// files processed and the first error encountered, if any.
func (p *Pipeline) ProcessDirectory(ctx context.Context, dir string, allowedExts []string) (n int, err error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("not a directory: %s", absDir)
	}
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		if err := p.ProcessFile(ctx, path, allowedExts); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}

// DeleteSong removes a song and its assignments.
func (p *Pipeline) DeleteSong(ctx context.Context, id string) error {
	p.logger.Debug("pipeline deleting song", zap.String("id", id))
	if err := p.storage.DeleteSong(ctx, id); err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}
	return nil
}

// DeleteFile removes the song stored for a lyric file path.
func (p *Pipeline) DeleteFile(ctx context.Context, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	return p.DeleteSong(ctx, fileid.SongID(absPath))
}
