// Package main is the kashi CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/kashi/internal/cli"
	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/fileid"
	"github.com/hyperjump/kashi/internal/lyrics"
	"github.com/hyperjump/kashi/internal/models"
	"github.com/hyperjump/kashi/internal/pipeline"
	"github.com/hyperjump/kashi/internal/server"
	"github.com/hyperjump/kashi/internal/storage"
	"github.com/hyperjump/kashi/internal/watcher"
	"github.com/hyperjump/kashi/pkg/utils"
	"go.uber.org/zap"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kashi/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, a config.yaml
// in the current directory takes precedence so that a checkout can run with
// its own config. Returns the config and the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(fallback); err == nil {
				path = fallback
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "assign":
		runAssign()
	case "song":
		runSong()
	case "show":
		runShow()
	case "delete":
		runDelete()
	case "categories":
		runCategories()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kashi version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// fatalf prints to stderr and exits with status 1.
func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, creates the logger and initializes all components.
func setup(configPath string, debug bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (watch events, per-line assignment, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()
	logger.Info("config loaded", zap.String("config_path", resolvedConfigPath), zap.Bool("debug", cfg.Debug || *debug))

	p := components.Pipeline
	exts := cfg.Watch.Extensions
	handler := watcher.HandlerFuncs{
		OnProcess: func(ctx context.Context, path string) {
			if err := p.ProcessFile(ctx, path, exts); err != nil && !errors.Is(err, pipeline.ErrNoCategories) {
				logger.Warn("watch process file failed", zap.String("path", path), zap.Error(err))
			}
		},
		OnRemove: func(ctx context.Context, path string) {
			if err := p.DeleteFile(ctx, path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
	}
	watchSvc := watcher.New(cfg.Watch.Directories, exts, handler,
		watcher.WithLogger(logger),
		watcher.WithRecursive(cfg.Watch.RecursiveOrDefault()),
	)
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if err := watchSvc.Start(watchCtx); err != nil {
		logger.Fatal("Failed to start watcher", zap.Error(err))
	}
	go watchSvc.SyncExistingFiles()

	srv := server.NewServer(p, components.Storage, &cfg.Server, logger, watchSvc, resolvedConfigPath, cfg)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// reorderArgs moves flags that follow positional arguments to the front so
// that flag.Parse sees them: the flag package stops at the first non-flag.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' && a != "-" {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// parseIndexRange parses a comma-separated list of token positions such as "0,-1".
func parseIndexRange(s string) (lyrics.IndexRange, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make(lyrics.IndexRange, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid idx-range entry %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

// assignFlags are the per-run assigner overrides.
type assignFlags struct {
	weighing   string
	similarity string
	selection  string
	idxRange   string
	concavity  float64
}

func (a *assignFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&a.weighing, "weighing", "", "weighing preset: equal, cone, first or last")
	fs.StringVar(&a.similarity, "similarity", "", "similarity preset: cosine or euclid")
	fs.StringVar(&a.selection, "selection", "", "selection preset: max_max or mean_max")
	fs.StringVar(&a.idxRange, "idx-range", "", "token positions to weigh, e.g. 0,-1")
	fs.Float64Var(&a.concavity, "concavity", lyrics.DefaultConcavity, "cone weighing concavity")
}

// options overlays the flags that were set on base. It returns nil when no
// assigner flag was given so the configured assigner is reused.
func (a *assignFlags) options(fs *flag.FlagSet, base lyrics.Options) (*lyrics.Options, error) {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if !set["weighing"] && !set["similarity"] && !set["selection"] && !set["idx-range"] && !set["concavity"] {
		return nil, nil
	}
	opts := base
	if set["weighing"] {
		opts.Weighing = a.weighing
		if !set["idx-range"] {
			opts.IdxRange = nil
		}
	}
	if set["similarity"] {
		opts.Similarity = a.similarity
	}
	if set["selection"] {
		opts.Selection = a.selection
	}
	if set["idx-range"] {
		r, err := parseIndexRange(a.idxRange)
		if err != nil {
			return nil, err
		}
		opts.IdxRange = r
	}
	if set["concavity"] {
		c := a.concavity
		opts.Concavity = &c
	}
	return &opts, nil
}

func printAssignUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kashi assign [flags] <lyrics-file | ->\n\n")
	fmt.Fprintf(fs.Output(), "Assigns each lyric line to its closest categories without storing anything.\n")
	fmt.Fprintf(fs.Output(), "Use - to read plain text from stdin, or --text for a single line.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kashi assign song.lrc
  kashi assign --top-n 5 --weighing cone song.txt
  kashi assign --text "the ocean is calling" --output json
  cat verses.txt | kashi assign --server "" -
`)
}

func runAssign() {
	args := reorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = assign directly without a running server)")
	text := fs.String("text", "", "lyric text to assign instead of a file")
	topN := fs.Int("top-n", 0, "categories per line (default from config)")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	var af assignFlags
	af.register(fs)
	fs.Usage = func() { printAssignUsage(fs) }
	_ = fs.Parse(args)

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	body, ext, err := readLyricsInput(*text, fs.Args())
	if err != nil {
		printAssignUsage(fs)
		fatalf("%v", err)
	}

	var resp *models.AssignResponse
	if *serverURL != "" {
		opts, err := af.options(fs, lyrics.Options{})
		if err != nil {
			fatalf("%v", err)
		}
		req := map[string]interface{}{"text": body, "format": ext, "top_n": *topN}
		if opts != nil {
			req["options"] = opts
		}
		resp = &models.AssignResponse{}
		if err := postJSON(*serverURL+"/api/v1/assign", req, http.StatusOK, resp); err != nil {
			fatalf("Assign failed: %v", err)
		}
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		opts, err := af.options(fs, cfg.Assign.Options())
		if err != nil {
			fatalf("%v", err)
		}
		texts, err := components.Pipeline.SplitText(body, ext)
		if err != nil {
			fatalf("Parse failed: %v", err)
		}
		resp, err = components.Pipeline.Assign(context.Background(), &pipeline.Request{Texts: texts, TopN: *topN, Options: opts})
		if err != nil {
			fatalf("Assign failed: %v", err)
		}
	}
	if err := cli.WriteAssignResponse(os.Stdout, resp, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// readLyricsInput returns the lyric text and its format extension from
// --text, stdin ("-") or a file path.
func readLyricsInput(text string, args []string) (string, string, error) {
	if text != "" {
		return text, "", nil
	}
	if len(args) < 1 {
		return "", "", fmt.Errorf("a lyrics file, - or --text is required")
	}
	if args[0] == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", err
		}
		return string(b), "", nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", "", err
	}
	return string(b), strings.ToLower(filepath.Ext(args[0])), nil
}

func runSong() {
	args := reorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("song", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format for a single file: text, compact or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: kashi song [flags] <lyrics-file-or-directory>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	path := fs.Arg(0)

	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fatalf("Failed to stat path: %v", err)
	}
	if info.IsDir() {
		n, err := components.Pipeline.ProcessDirectory(ctx, path, cfg.Watch.Extensions)
		if err != nil {
			fatalf("Processing directory failed: %v", err)
		}
		fmt.Printf("Processed %d song(s) from %s\n", n, path)
		return
	}
	// A single named file is processed whatever its extension.
	if err := components.Pipeline.ProcessFile(ctx, path, nil); err != nil {
		fatalf("Processing failed: %v", err)
	}
	abs, _ := filepath.Abs(path)
	detail, err := songDetail(ctx, components.Storage, fileid.SongID(abs))
	if err != nil {
		fatalf("Load song failed: %v", err)
	}
	if err := cli.WriteSongDetail(os.Stdout, detail, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func songDetail(ctx context.Context, store storage.Storage, id string) (*models.SongDetail, error) {
	song, err := store.GetSong(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := store.GetSongLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SongDetail{Song: song, Lines: lines}, nil
}

// resolveSongID accepts a song id or the path of a lyric file that was stored.
func resolveSongID(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		if abs, err := filepath.Abs(arg); err == nil {
			return fileid.SongID(abs)
		}
	}
	return arg
}

func runShow() {
	args := reorderArgs(os.Args[2:])
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Println("Usage: kashi show [flags] <song-id | lyrics-file>")
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	id := resolveSongID(fs.Arg(0))

	var detail *models.SongDetail
	if *serverURL != "" {
		detail = &models.SongDetail{}
		if err := getJSON(*serverURL+"/api/v1/songs/"+url.PathEscape(id), detail); err != nil {
			fatalf("Show failed: %v", err)
		}
	} else {
		_, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		detail, err = songDetail(context.Background(), components.Storage, id)
		if err != nil {
			fatalf("Show failed: %v", err)
		}
	}
	if err := cli.WriteSongDetail(os.Stdout, detail, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kashi delete [flags] <song-id | lyrics-file>")
		os.Exit(1)
	}
	id := resolveSongID(fs.Arg(0))

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	if err := components.Pipeline.DeleteSong(context.Background(), id); err != nil {
		fatalf("Deletion failed: %v", err)
	}
	fmt.Printf("Song deleted: %s\n", id)
}

func runCategories() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kashi categories <build|list|show> [flags]")
		fmt.Println("  kashi categories build [--from file]   Vectorize the taxonomy and save the category index")
		fmt.Println("  kashi categories list                  List built categories")
		fmt.Println("  kashi categories show <id>             Show one category and its nearest neighbours")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("categories", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	from := fs.String("from", "", "taxonomy file (default: categories.path from config)")
	nearest := fs.Int("nearest", 5, "neighbours to show with 'show'")
	outputFormat := fs.String("output", "text", "output format: text, compact or json")
	_ = fs.Parse(reorderArgs(os.Args[3:]))

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}
	cfg, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()
	ctx := context.Background()

	switch sub {
	case "build":
		path := *from
		if path == "" {
			path = cfg.Categories.Path
		}
		if path == "" {
			fatalf("No taxonomy file: set categories.path or pass --from")
		}
		res, err := buildCategories(ctx, cfg, components, path, logger)
		if err != nil {
			fatalf("Build failed: %v", err)
		}
		fmt.Printf("Built %d categories into %s\n", res.Set.Len(), cfg.Storage.CategoryIndexPath)
		for _, c := range res.Dropped {
			fmt.Printf("  dropped %s (%s): no known words\n", c.ID, c.Name)
		}
	case "list":
		if components.Categories == nil {
			fatalf("%v", pipeline.ErrNoCategories)
		}
		if err := cli.WriteCategories(os.Stdout, components.Categories.Categories(), format); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "show":
		if fs.NArg() < 1 {
			fatalf("Usage: kashi categories show [--nearest k] <id>")
		}
		set := components.Categories
		if set == nil {
			fatalf("%v", pipeline.ErrNoCategories)
		}
		id := fs.Arg(0)
		c, ok := set.Get(id)
		if !ok {
			fatalf("Category not found: %s", id)
		}
		if err := cli.WriteCategories(os.Stdout, []models.Category{c}, format); err != nil {
			fatalf("Output failed: %v", err)
		}
		if *nearest <= 0 || format == cli.OutputJSON {
			return
		}
		vec, _ := set.Vector(id)
		hits, err := set.Nearest(ctx, vec, *nearest+1, components.Pipeline.Metric())
		if err != nil {
			fatalf("Nearest failed: %v", err)
		}
		fmt.Println("\nNearest:")
		for _, h := range hits {
			if h.ID == id {
				continue
			}
			other, _ := set.Get(h.ID)
			fmt.Printf("  %-16s %.4f  %s\n", h.ID, h.Score, utils.Truncate(other.Name, 50))
		}
	default:
		fatalf("Unknown categories subcommand: %s", sub)
	}
}

// statusResponse is the shape of GET /api/v1/status.
type statusResponse struct {
	Songs          int64                  `json:"songs"`
	Lines          int64                  `json:"lines"`
	Categories     int                    `json:"categories"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		s, err := localStatus(context.Background(), cfg, components)
		if err != nil {
			fatalf("Status failed: %v", err)
		}
		status = *s
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fatalf("Output failed: %v", err)
		}
	case "text":
		writeStatusText(os.Stdout, &status)
	default:
		fatalf("Unknown output format %q; use text or json", *outputFormat)
	}
}

func localStatus(ctx context.Context, cfg *config.Config, c *Components) (*statusResponse, error) {
	songs, err := c.Storage.CountSongs(ctx)
	if err != nil {
		return nil, fmt.Errorf("count songs: %w", err)
	}
	lines, err := c.Storage.CountLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("count lines: %w", err)
	}
	s := &statusResponse{Songs: songs, Lines: lines}
	if c.Categories != nil {
		s.Categories = c.Categories.Len()
	}
	opts := cfg.Assign.Options()
	s.Config = map[string]interface{}{
		"weighing":            opts.Weighing,
		"similarity":          opts.Similarity,
		"selection":           opts.Selection,
		"top_n":               cfg.Assign.TopN,
		"embedding_provider":  cfg.Embedding.Provider,
		"vector_cache":        cfg.Embedding.Cache.Backend,
		"database_path":       cfg.Storage.DatabasePath,
		"category_index_path": cfg.Storage.CategoryIndexPath,
	}
	if n, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.CategoryIndexPath, cfg.Storage.VectorCachePath); err == nil {
		s.DiskUsageBytes = &n
	}
	return s, nil
}

func writeStatusText(w io.Writer, s *statusResponse) {
	fmt.Fprintf(w, "songs:              %d   # stored songs\n", s.Songs)
	fmt.Fprintf(w, "lines:              %d   # assigned lines (or windows)\n", s.Lines)
	fmt.Fprintf(w, "categories:         %d   # categories in the built index\n", s.Categories)
	if s.DiskUsageBytes != nil {
		fmt.Fprintf(w, "disk_usage_bytes:   %d   # database + indices on disk\n", *s.DiskUsageBytes)
	}
	if len(s.Config) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# configuration")
	for _, key := range []string{"weighing", "similarity", "selection", "top_n", "window", "embedding_provider", "vector_cache", "database_path", "category_index_path"} {
		if v, ok := s.Config[key]; ok {
			fmt.Fprintf(w, "%-19s %v\n", key+":", v)
		}
	}
}

func runWatch() {
	if len(os.Args) < 3 {
		fmt.Println("Usage: kashi watch <add|remove|list> [path]")
		fmt.Println("  kashi watch add <path>     Add lyrics directory to watch")
		fmt.Println("  kashi watch remove <path>  Remove directory from watch")
		fmt.Println("  kashi watch list           List watched directories")
		os.Exit(1)
	}
	sub := os.Args[2]
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	serverURL := fs.String("server", defaultServerURL, "server URL")
	_ = fs.Parse(reorderArgs(os.Args[3:]))
	endpoint := *serverURL + "/api/v1/watch/directories"

	switch sub {
	case "add":
		if fs.NArg() < 1 {
			fatalf("Usage: kashi watch add <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		if err := postJSON(endpoint, map[string]interface{}{"path": path, "sync": true}, http.StatusCreated, nil); err != nil {
			fatalf("Add failed: %v", err)
		}
		fmt.Printf("Added: %s\n", path)
	case "remove":
		if fs.NArg() < 1 {
			fatalf("Usage: kashi watch remove <path>")
		}
		path, _ := filepath.Abs(fs.Arg(0))
		req, _ := http.NewRequest(http.MethodDelete, endpoint+"?path="+url.QueryEscape(path), nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			fatalf("Request failed: %v", err)
		}
		defer resp.Body.Close()
		if err := checkStatus(resp, http.StatusOK); err != nil {
			fatalf("Remove failed: %v", err)
		}
		fmt.Printf("Removed: %s\n", path)
	case "list":
		var out struct {
			Directories []string `json:"directories"`
		}
		if err := getJSON(endpoint, &out); err != nil {
			fatalf("List failed: %v", err)
		}
		for _, d := range out.Directories {
			fmt.Println(d)
		}
	default:
		fatalf("Unknown watch subcommand: %s", sub)
	}
}

func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	b, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}

// postJSON posts body and decodes the response into out when out is non-nil.
func postJSON(endpoint string, body interface{}, want int, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, want); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func getJSON(endpoint string, out interface{}) error {
	resp, err := http.Get(endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func printUsage() {
	fmt.Println(`kashi - Assign lyric lines to image categories

Usage:
  kashi server [flags]                  Start the HTTP server and directory watcher
  kashi assign [flags] <file | ->       Assign lyric lines without storing them
  kashi song [flags] <file-or-dir>      Assign and store songs from lyric files
  kashi show [flags] <id | file>        Show a stored song with its assignments
  kashi delete [flags] <id | file>      Delete a stored song
  kashi categories <build|list|show>    Build or inspect the category index
  kashi status [flags]                  Show storage and index status
  kashi watch <add|remove|list>         Manage watched lyric directories
  kashi version                         Show version
  kashi help                            Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kashi/config.yaml)
  --server string    Server URL for assign, show, status and watch (default: http://localhost:8080).
                     Use --server "" to work on local storage without a running server.
  --output string    Output format: text, compact or json (default: text)

Assign Flags:
  --text string        Lyric text to assign instead of a file
  --top-n int          Categories per line (default from config)
  --weighing string    equal, cone, first or last
  --similarity string  cosine or euclid
  --selection string   max_max or mean_max
  --idx-range string   Token positions to weigh, e.g. 0,-1
  --concavity float    Cone weighing concavity

Server Flags:
  --debug            Enable debug logging

Examples:
  kashi categories build --from categories.yaml
  kashi server
  kashi assign song.lrc
  kashi assign --weighing last --output compact song.txt
  kashi song ~/lyrics
  kashi show ~/lyrics/sea.lrc
  kashi status --output json
  kashi watch add ~/lyrics`)
}
