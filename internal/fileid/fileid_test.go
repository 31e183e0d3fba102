package fileid

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSongID(t *testing.T) {
	id1 := SongID("/lyrics/song.lrc")
	id2 := SongID("/lyrics/song.lrc")
	if id1 != id2 {
		t.Errorf("same path should give same ID: %q vs %q", id1, id2)
	}
	if !strings.HasPrefix(id1, filePrefix) {
		t.Errorf("ID should have prefix %q: got %q", filePrefix, id1)
	}
	if len(id1) != len(filePrefix)+36 {
		t.Errorf("ID should carry a UUID: got %q", id1)
	}
	if !IsFileID(id1) {
		t.Errorf("IsFileID(%q) = false", id1)
	}
}

func TestSongID_differentPaths(t *testing.T) {
	if SongID("/lyrics/a.lrc") == SongID("/lyrics/b.lrc") {
		t.Error("different paths should give different IDs")
	}
}

func TestSongID_normalized(t *testing.T) {
	id1 := SongID("/lyrics/a")
	id2 := SongID("/lyrics/a/")
	id3 := SongID("/lyrics/./a")
	if id1 != id2 || id1 != id3 {
		t.Errorf("equivalent paths should match: %q %q %q", id1, id2, id3)
	}
	if SongID(filepath.Join("/lyrics", "sub", "..", "a")) != id1 {
		t.Error("joined path should normalize")
	}
}

func TestNewSongID(t *testing.T) {
	a, b := NewSongID(), NewSongID()
	if a == b {
		t.Error("random IDs should differ")
	}
	if !strings.HasPrefix(a, uploadPrefix) || IsFileID(a) {
		t.Errorf("upload ID = %q", a)
	}
}
