// Package storage defines the persistence interface for songs, lyric lines,
// their category assignments and the category taxonomy.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/kashi/internal/models"
)

// ErrNotFound is returned when a song or category does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines song, line and category persistence operations.
type Storage interface {
	// Song operations
	CreateSong(ctx context.Context, song *models.Song) error
	GetSong(ctx context.Context, id string) (*models.Song, error)
	UpdateSong(ctx context.Context, song *models.Song) error
	DeleteSong(ctx context.Context, id string) error
	ListSongs(ctx context.Context, offset, limit int) ([]*models.Song, error)

	// SaveSong creates or replaces a song together with all of its lines
	// and assignments in one transaction.
	SaveSong(ctx context.Context, song *models.Song, lines []*models.SongLine) error
	GetSongLines(ctx context.Context, songID string) ([]*models.SongLine, error)

	// Category operations
	ReplaceCategories(ctx context.Context, cats []models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)

	// Stats
	CountSongs(ctx context.Context) (int64, error)
	CountLines(ctx context.Context) (int64, error)
	CountCategories(ctx context.Context) (int64, error)

	Close() error
}
