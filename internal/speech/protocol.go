package speech

import (
	"encoding/base64"
	"encoding/binary"
	"math"
)

// MessageType tags every line the sidecar prints.
type MessageType string

const (
	TypeStatus     MessageType = "status"
	TypeReady      MessageType = "ready"
	TypeWord       MessageType = "word"
	TypeTranscript MessageType = "transcript"
	TypeError      MessageType = "error"
)

// Word is one recognized word. Timestamp is Unix milliseconds on the
// sidecar's clock.
type Word struct {
	Word       string  `json:"word,omitempty"`
	Timestamp  int64   `json:"timestamp,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Message is one decoded line from the sidecar. Only the fields belonging
// to Type are set; a word message fills the embedded Word.
type Message struct {
	Type     MessageType `json:"type"`
	Status   string      `json:"status,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Message  string      `json:"message,omitempty"`
	Word
	Text  string `json:"text,omitempty"`
	Words []Word `json:"words,omitempty"`
}

type command struct {
	Type string `json:"type"`
}

type initCommand struct {
	Type           string  `json:"type"`
	Model          string  `json:"model"`
	Language       *string `json:"language"`
	DemucsModel    string  `json:"demucsModel"`
	SegmentSeconds float64 `json:"segmentSeconds"`
	StepSeconds    float64 `json:"stepSeconds"`
}

type audioCommand struct {
	Type       string `json:"type"`
	Samples    string `json:"samples"`
	SampleRate int    `json:"sampleRate"`
}

// encodeSamples packs mono samples as base64 little-endian float32.
func encodeSamples(samples []float32) string {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}
