package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kashi/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS songs (
		id TEXT PRIMARY KEY,
		title TEXT,
		artist TEXT,
		source TEXT,
		line_count INTEGER NOT NULL DEFAULT 0,
		options TEXT,
		source_mtime INTEGER NOT NULL DEFAULT 0,
		source_size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_songs_created_at ON songs(created_at);

	CREATE TABLE IF NOT EXISTS song_lines (
		song_id TEXT NOT NULL,
		line_index INTEGER NOT NULL,
		time_ms INTEGER NOT NULL DEFAULT -1,
		text TEXT NOT NULL,
		tokens TEXT NOT NULL,
		missing TEXT,
		empty INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		PRIMARY KEY (song_id, line_index),
		FOREIGN KEY (song_id) REFERENCES songs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS line_assignments (
		song_id TEXT NOT NULL,
		line_index INTEGER NOT NULL,
		rank INTEGER NOT NULL,
		category_id TEXT NOT NULL,
		score REAL NOT NULL,
		PRIMARY KEY (song_id, line_index, rank),
		FOREIGN KEY (song_id, line_index) REFERENCES song_lines(song_id, line_index) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_assignments_category ON line_assignments(category_id);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		tokens TEXT
	);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateSong inserts a song.
func (s *SQLiteStorage) CreateSong(ctx context.Context, song *models.Song) error {
	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO songs (id, title, artist, source, line_count, options, source_mtime, source_size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ID, song.Title, song.Artist, song.Source, song.LineCount, song.Options, song.SourceMtime, song.SourceSize,
		song.CreatedAt, song.UpdatedAt,
	)
	return err
}

// GetSong returns a song by ID.
func (s *SQLiteStorage) GetSong(ctx context.Context, id string) (*models.Song, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, artist, source, line_count, options, source_mtime, source_size, created_at, updated_at
		 FROM songs WHERE id = ?`, id,
	)
	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return song, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSong(row rowScanner) (*models.Song, error) {
	var song models.Song
	var title, artist, source, options sql.NullString
	if err := row.Scan(&song.ID, &title, &artist, &source, &song.LineCount, &options,
		&song.SourceMtime, &song.SourceSize, &song.CreatedAt, &song.UpdatedAt); err != nil {
		return nil, err
	}
	song.Title, song.Artist, song.Source, song.Options = title.String, artist.String, source.String, options.String
	return &song, nil
}

// UpdateSong updates the metadata of an existing song.
func (s *SQLiteStorage) UpdateSong(ctx context.Context, song *models.Song) error {
	song.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE songs SET title = ?, artist = ?, source = ?, line_count = ?, options = ?,
		   source_mtime = ?, source_size = ?, updated_at = ?
		 WHERE id = ?`,
		song.Title, song.Artist, song.Source, song.LineCount, song.Options,
		song.SourceMtime, song.SourceSize, song.UpdatedAt, song.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("song %s: %w", song.ID, ErrNotFound)
	}
	return nil
}

// DeleteSong removes a song with its lines and assignments. Deleting a
// missing song is not an error.
func (s *SQLiteStorage) DeleteSong(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteLines(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteLines(ctx context.Context, tx *sql.Tx, songID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM line_assignments WHERE song_id = ?`, songID); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM song_lines WHERE song_id = ?`, songID)
	return err
}

// ListSongs returns songs, newest first, with offset and limit.
func (s *SQLiteStorage) ListSongs(ctx context.Context, offset, limit int) ([]*models.Song, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, source, line_count, options, source_mtime, source_size, created_at, updated_at
		 FROM songs ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []*models.Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, err
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

// SaveSong upserts song and replaces its lines and assignments.
// CreatedAt of an existing song is preserved.
func (s *SQLiteStorage) SaveSong(ctx context.Context, song *models.Song, lines []*models.SongLine) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	if song.CreatedAt.IsZero() {
		song.CreatedAt = now
	}
	song.UpdatedAt = now
	song.LineCount = len(lines)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO songs (id, title, artist, source, line_count, options, source_mtime, source_size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, artist = excluded.artist, source = excluded.source,
		   line_count = excluded.line_count, options = excluded.options,
		   source_mtime = excluded.source_mtime, source_size = excluded.source_size,
		   updated_at = excluded.updated_at`,
		song.ID, song.Title, song.Artist, song.Source, song.LineCount, song.Options, song.SourceMtime, song.SourceSize,
		song.CreatedAt, song.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert song: %w", err)
	}
	if err := deleteLines(ctx, tx, song.ID); err != nil {
		return fmt.Errorf("delete old lines: %w", err)
	}

	lineStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO song_lines (song_id, line_index, time_ms, text, tokens, missing, empty, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer lineStmt.Close()
	assignStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO line_assignments (song_id, line_index, rank, category_id, score)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer assignStmt.Close()

	for _, line := range lines {
		line.SongID = song.ID
		tokens, err := json.Marshal(nonNil(line.Tokens))
		if err != nil {
			return fmt.Errorf("failed to marshal tokens: %w", err)
		}
		missing, err := json.Marshal(nonNil(line.Missing))
		if err != nil {
			return fmt.Errorf("failed to marshal missing tokens: %w", err)
		}
		if _, err := lineStmt.ExecContext(ctx, song.ID, line.LineIndex, line.TimeMS, line.Text,
			string(tokens), string(missing), line.Empty, line.Error); err != nil {
			return fmt.Errorf("insert line %d: %w", line.LineIndex, err)
		}
		for _, a := range line.Assignments {
			if _, err := assignStmt.ExecContext(ctx, song.ID, line.LineIndex, a.Rank, a.CategoryID, a.Score); err != nil {
				return fmt.Errorf("insert assignment %d/%d: %w", line.LineIndex, a.Rank, err)
			}
		}
	}
	return tx.Commit()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// GetSongLines returns the lines of a song ordered by line index, each with
// its assignments ordered by rank. Category names are filled from the
// stored taxonomy when available.
func (s *SQLiteStorage) GetSongLines(ctx context.Context, songID string) ([]*models.SongLine, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT song_id, line_index, time_ms, text, tokens, missing, empty, error
		 FROM song_lines WHERE song_id = ? ORDER BY line_index`,
		songID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*models.SongLine
	byIndex := make(map[int]*models.SongLine)
	for rows.Next() {
		var line models.SongLine
		var tokens string
		var missing, lineErr sql.NullString
		if err := rows.Scan(&line.SongID, &line.LineIndex, &line.TimeMS, &line.Text, &tokens, &missing, &line.Empty, &lineErr); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tokens), &line.Tokens); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tokens: %w", err)
		}
		if missing.String != "" {
			if err := json.Unmarshal([]byte(missing.String), &line.Missing); err != nil {
				return nil, fmt.Errorf("failed to unmarshal missing tokens: %w", err)
			}
		}
		line.Error = lineErr.String
		line.Assignments = []models.Assignment{}
		lines = append(lines, &line)
		byIndex[line.LineIndex] = &line
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	arows, err := s.db.QueryContext(ctx,
		`SELECT a.line_index, a.rank, a.category_id, COALESCE(c.name, ''), a.score
		 FROM line_assignments a LEFT JOIN categories c ON c.id = a.category_id
		 WHERE a.song_id = ? ORDER BY a.line_index, a.rank`,
		songID,
	)
	if err != nil {
		return nil, err
	}
	defer arows.Close()
	for arows.Next() {
		var idx int
		var a models.Assignment
		if err := arows.Scan(&idx, &a.Rank, &a.CategoryID, &a.CategoryName, &a.Score); err != nil {
			return nil, err
		}
		if line, ok := byIndex[idx]; ok {
			line.Assignments = append(line.Assignments, a)
		}
	}
	return lines, arows.Err()
}

// ReplaceCategories stores cats as the taxonomy, in order, replacing any previous one.
func (s *SQLiteStorage) ReplaceCategories(ctx context.Context, cats []models.Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO categories (id, position, name, tokens) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cats {
		tokens, err := json.Marshal(c.Tokens)
		if err != nil {
			return fmt.Errorf("failed to marshal category tokens: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, i, c.Name, string(tokens)); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// ListCategories returns the stored taxonomy in order.
func (s *SQLiteStorage) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, tokens FROM categories ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, rows.Err()
}

// GetCategory returns a stored category by ID.
func (s *SQLiteStorage) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, tokens FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return c, err
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	var tokens sql.NullString
	if err := row.Scan(&c.ID, &c.Name, &tokens); err != nil {
		return nil, err
	}
	if tokens.String != "" && tokens.String != "null" {
		if err := json.Unmarshal([]byte(tokens.String), &c.Tokens); err != nil {
			return nil, fmt.Errorf("failed to unmarshal category tokens: %w", err)
		}
	}
	return &c, nil
}

// CountSongs returns the total number of songs.
func (s *SQLiteStorage) CountSongs(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM songs`)
}

// CountLines returns the total number of stored lyric lines.
func (s *SQLiteStorage) CountLines(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM song_lines`)
}

// CountCategories returns the number of stored categories.
func (s *SQLiteStorage) CountCategories(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM categories`)
}

func (s *SQLiteStorage) count(ctx context.Context, query string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
