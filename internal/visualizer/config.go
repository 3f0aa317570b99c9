package visualizer

import (
	"maps"

	"github.com/olivier-w/audioverlay/internal/stage"
)

// Keys every Config carries.
const (
	KeySensitivity = "sensitivity"
	KeyColorScheme = "colorScheme"
)

// Config maps parameter names to values. Configs are merged, never replaced.
type Config map[string]any

// BaseConfig returns the defaults shared by every module.
func BaseConfig() Config {
	return Config{
		KeySensitivity: 1.0,
		KeyColorScheme: stage.DefaultPalette,
	}
}

// Clone returns a shallow copy.
func (c Config) Clone() Config {
	if c == nil {
		return Config{}
	}
	return maps.Clone(c)
}

// Merge copies every key of partial into c, leaving other keys untouched.
func (c Config) Merge(partial Config) {
	maps.Copy(c, partial)
}

// Float returns key as a float64, or fallback when missing or not numeric.
func (c Config) Float(key string, fallback float64) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return fallback
}

// Bool returns key as a bool, or fallback.
func (c Config) Bool(key string, fallback bool) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return fallback
}

// String returns key as a string, or fallback.
func (c Config) String(key string, fallback string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return fallback
}

// Sensitivity is the numeric multiplier applied to audio-driven motion.
func (c Config) Sensitivity() float64 {
	return c.Float(KeySensitivity, 1.0)
}

// Palette resolves colorScheme against the stage palette table.
func (c Config) Palette() stage.Gradient {
	return stage.Palette(c.String(KeyColorScheme, stage.DefaultPalette))
}

// FieldType is the kind of control a settings surface renders for a field.
type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldSelect  FieldType = "select"
	FieldColor   FieldType = "color"
)

// Field declares one tunable parameter. The engine passes schemas through
// without interpreting them.
type Field struct {
	Type    FieldType
	Label   string
	Default any
	Min     *float64
	Max     *float64
	Step    *float64
	Options []string
}

// ConfigSchema maps field names to their declarations.
type ConfigSchema map[string]Field

// Float is a helper for the optional numeric bounds of a Field.
func Float(v float64) *float64 { return &v }

// Defaults returns BaseConfig overlaid with every field's default.
func (s ConfigSchema) Defaults() Config {
	cfg := BaseConfig()
	for name, f := range s {
		if f.Default != nil {
			cfg[name] = f.Default
		}
	}
	return cfg
}

// CommonSchema declares the two fields every module shares.
func CommonSchema() ConfigSchema {
	return ConfigSchema{
		KeySensitivity: {
			Type:    FieldNumber,
			Label:   "Sensitivity",
			Default: 1.0,
			Min:     Float(0.1),
			Max:     Float(4),
			Step:    Float(0.1),
		},
		KeyColorScheme: {
			Type:    FieldSelect,
			Label:   "Color scheme",
			Default: stage.DefaultPalette,
			Options: stage.PaletteNames(),
		},
	}
}

// With returns a copy of s extended with extra fields.
func (s ConfigSchema) With(extra ConfigSchema) ConfigSchema {
	out := maps.Clone(s)
	if out == nil {
		out = ConfigSchema{}
	}
	maps.Copy(out, extra)
	return out
}
