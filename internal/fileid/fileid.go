// Package fileid derives song IDs: stable ones from lyric file paths and
// random ones for uploaded lyrics.
package fileid

import (
	"path/filepath"

	"github.com/google/uuid"
)

const (
	filePrefix   = "file:"
	uploadPrefix = "song:"
)

// namespace scopes the name-based UUIDs so they cannot collide with other v5 users.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("kashi:lyric-file"))

// SongID returns a stable song ID for the given absolute path.
// Same path always yields the same ID, so reprocessing a file replaces its result.
func SongID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	return filePrefix + uuid.NewSHA1(namespace, []byte(normalized)).String()
}

// NewSongID returns a fresh random ID for lyrics that have no backing file.
func NewSongID() string {
	return uploadPrefix + uuid.NewString()
}

// IsFileID reports whether id was derived from a file path.
func IsFileID(id string) bool {
	return len(id) > len(filePrefix) && id[:len(filePrefix)] == filePrefix
}
