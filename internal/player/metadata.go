package player

import (
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"

	"github.com/olivier-w/audioverlay/internal/media"
)

// Metadata holds track information shown in the status line.
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// ReadMetadata reads ID3v2 tags from MP3 files. Other formats, and MP3s
// without a title tag, are named after the file.
func ReadMetadata(path string) Metadata {
	if format, ok := media.Detect(path); ok && format == media.MP3 {
		if m, ok := readID3(path); ok {
			return m
		}
	}
	base := filepath.Base(path)
	return Metadata{Title: strings.TrimSuffix(base, filepath.Ext(base))}
}

func readID3(path string) (Metadata, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return Metadata{}, false
	}
	defer tag.Close()
	m := Metadata{
		Title:  strings.TrimSpace(tag.Title()),
		Artist: strings.TrimSpace(tag.Artist()),
		Album:  strings.TrimSpace(tag.Album()),
	}
	return m, m.Title != ""
}

// Label is "Artist - Title", or just the title when the artist is unknown.
func (m Metadata) Label() string {
	if m.Artist == "" {
		return m.Title
	}
	return m.Artist + " - " + m.Title
}
