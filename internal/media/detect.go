package media

import (
	"path/filepath"
	"strings"
)

// Format is a decodable audio container.
type Format string

const (
	MP3  Format = "mp3"
	WAV  Format = "wav"
	FLAC Format = "flac"
	OGG  Format = "ogg"
)

// extOrder keeps SupportedExtsList stable.
var extOrder = []string{".mp3", ".wav", ".flac", ".ogg"}

var audioExts = map[string]Format{
	".mp3":  MP3,
	".wav":  WAV,
	".flac": FLAC,
	".ogg":  OGG,
}

// Detect returns the format implied by path's extension.
func Detect(path string) (Format, bool) {
	f, ok := audioExts[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsSupportedExt returns true if the extension is a decodable audio format.
func IsSupportedExt(ext string) bool {
	_, ok := audioExts[strings.ToLower(ext)]
	return ok
}

// SupportedExtsList returns a human-readable list of supported formats.
func SupportedExtsList() string {
	return strings.Join(extOrder, ", ")
}
