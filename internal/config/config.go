package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/screenhop/internal/geometry"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 4

// SupportedVersions lists every schema version the loader accepts.
var SupportedVersions = []int{CurrentVersion}

const (
	// BaseSensitivity is the sensitivity value that leaves deltas unscaled.
	BaseSensitivity = 1000

	DefaultPartialScrollTimeout = 1000000 // µs
	DefaultOffscreenSensitivity = 1000
	DefaultScrollUnit           = 120

	// MaxCoordinate bounds every rectangle coordinate so that scaled
	// products stay within int64.
	MaxCoordinate = int64(1) << 40
)

// ConstraintMode selects what happens when the pointer would leave every
// configured screen.
type ConstraintMode int

const (
	// ConstraintFree lets the pointer leave all screens and become untracked.
	ConstraintFree ConstraintMode = 0
	// ConstraintConfine pins the pointer inside the last occupied screen.
	ConstraintConfine ConstraintMode = 1
	// ConstraintClamp confines like ConstraintConfine and reports motion
	// pushed against the boundary scaled by offscreen_sensitivity.
	ConstraintClamp ConstraintMode = 2
)

func (m ConstraintMode) String() string {
	switch m {
	case ConstraintFree:
		return "free"
	case ConstraintConfine:
		return "confine"
	case ConstraintClamp:
		return "clamp"
	default:
		return "constraint(" + strconv.Itoa(int(m)) + ")"
	}
}

// Valid reports whether m is a known mode.
func (m ConstraintMode) Valid() bool {
	return m >= ConstraintFree && m <= ConstraintClamp
}

// Screen is one physical display in the global coordinate space.
type Screen struct {
	X           int64  `yaml:"x" json:"x" toml:"x"`
	Y           int64  `yaml:"y" json:"y" toml:"y"`
	W           int64  `yaml:"w" json:"w" toml:"w"`
	H           int64  `yaml:"h" json:"h" toml:"h"`
	Sensitivity uint32 `yaml:"sensitivity" json:"sensitivity" toml:"sensitivity"`
	// ScrollUnit is the number of hi-res scroll units in one full unit for
	// this screen. 1 disables coalescing.
	ScrollUnit int64 `yaml:"scroll_unit,omitempty" json:"scroll_unit,omitempty" toml:"scroll_unit,omitempty"`
}

// Rect returns the screen rectangle.
func (s Screen) Rect() geometry.Rect {
	return geometry.Rect{X: s.X, Y: s.Y, W: s.W, H: s.H}
}

// Mapping redirects crossings of FromScreen's FromEdge to ToScreen.
type Mapping struct {
	FromScreen  int           `yaml:"from_screen" json:"from_screen" toml:"from_screen"`
	FromEdge    geometry.Edge `yaml:"from_edge" json:"from_edge" toml:"from_edge"`
	ToScreen    int           `yaml:"to_screen" json:"to_screen" toml:"to_screen"`
	EntryOffset int64         `yaml:"entry_offset" json:"entry_offset" toml:"entry_offset"`
	SpanOffset  int64         `yaml:"span_offset,omitempty" json:"span_offset,omitempty" toml:"span_offset,omitempty"`
	SpanLength  int64         `yaml:"span_length,omitempty" json:"span_length,omitempty" toml:"span_length,omitempty"`
}

// LoggingConfig configures diagnostics.
type LoggingConfig struct {
	// Level controls slog verbosity: debug, info, warn, error.
	Level string `yaml:"level,omitempty" json:"level,omitempty" toml:"level,omitempty"`
	// Journal is the transition journal path. Empty disables the journal.
	Journal string `yaml:"journal,omitempty" json:"journal,omitempty" toml:"journal,omitempty"`
	// MaxSizeMB is the journal size before rotation (default: 10).
	MaxSizeMB int `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty" toml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated journals kept (default: 3).
	MaxFiles int `yaml:"max_files,omitempty" json:"max_files,omitempty" toml:"max_files,omitempty"`
}

// Config is one complete, validated configuration activation.
type Config struct {
	Version              int            `yaml:"version" json:"version" toml:"version"`
	UnmappedPassthrough  bool           `yaml:"unmapped_passthrough" json:"unmapped_passthrough" toml:"unmapped_passthrough"`
	PartialScrollTimeout uint64         `yaml:"partial_scroll_timeout" json:"partial_scroll_timeout" toml:"partial_scroll_timeout"`
	IntervalOverride     uint32         `yaml:"interval_override" json:"interval_override" toml:"interval_override"`
	ConstraintMode       ConstraintMode `yaml:"constraint_mode" json:"constraint_mode" toml:"constraint_mode"`
	OffscreenSensitivity uint32         `yaml:"offscreen_sensitivity" json:"offscreen_sensitivity" toml:"offscreen_sensitivity"`
	Screens              []Screen       `yaml:"screens" json:"screens" toml:"screens"`
	Mappings             []Mapping      `yaml:"mappings" json:"mappings" toml:"mappings"`
	Logging              LoggingConfig  `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`
}

// DefaultConfig mirrors the device defaults: two 16:9 screens side by side.
func DefaultConfig() *Config {
	return &Config{
		Version:              CurrentVersion,
		UnmappedPassthrough:  true,
		PartialScrollTimeout: DefaultPartialScrollTimeout,
		IntervalOverride:     0,
		ConstraintMode:       ConstraintFree,
		OffscreenSensitivity: DefaultOffscreenSensitivity,
		Screens: []Screen{
			{X: 0, Y: 0, W: 16000000, H: 9000000, Sensitivity: 4000, ScrollUnit: DefaultScrollUnit},
			{X: 16000000, Y: 0, W: 16000000, H: 9000000, Sensitivity: 4000, ScrollUnit: DefaultScrollUnit},
		},
		Mappings: []Mapping{},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: 10,
			MaxFiles:  3,
		},
	}
}

// Rects returns the screen rectangles in configured order.
func (c *Config) Rects() []geometry.Rect {
	out := make([]geometry.Rect, len(c.Screens))
	for i, s := range c.Screens {
		out[i] = s.Rect()
	}
	return out
}

// Validate checks every load-time invariant. The first violation is
// returned as a *ConfigError.
func (c *Config) Validate() error {
	if !versionSupported(c.Version) {
		return newError(ErrUnsupportedVersion, "version", fmt.Errorf("version %d is not supported (supported: %v)", c.Version, SupportedVersions))
	}
	if !c.ConstraintMode.Valid() {
		return newError(ErrInvalidConstraint, "constraint_mode", fmt.Errorf("constraint_mode must be 0 (free), 1 (confine) or 2 (clamp), got %d", int(c.ConstraintMode)))
	}
	if len(c.Screens) == 0 {
		return newError(ErrNoScreens, "screens", fmt.Errorf("at least one screen is required"))
	}

	seen := make(map[geometry.Rect]int, len(c.Screens))
	for i, s := range c.Screens {
		path := fmt.Sprintf("screens.%d", i)
		if s.W <= 0 || s.H <= 0 {
			return newError(ErrInvalidScreen, path, fmt.Errorf("w and h must be > 0, got %dx%d", s.W, s.H))
		}
		if s.Sensitivity == 0 {
			return newError(ErrInvalidScreen, path+".sensitivity", fmt.Errorf("sensitivity must be > 0"))
		}
		if s.ScrollUnit < 1 {
			return newError(ErrInvalidScreen, path+".scroll_unit", fmt.Errorf("scroll_unit must be >= 1"))
		}
		if outOfRange(s.X) || outOfRange(s.Y) || outOfRange(s.X+s.W) || outOfRange(s.Y+s.H) {
			return newError(ErrInvalidScreen, path, fmt.Errorf("coordinates must stay within ±%d", MaxCoordinate))
		}
		r := s.Rect()
		if prev, dup := seen[r]; dup {
			return newError(ErrDuplicateGeometry, path, fmt.Errorf("screen %d duplicates the geometry of screen %d (%s)", i, prev, r))
		}
		seen[r] = i
	}

	for i, m := range c.Mappings {
		path := fmt.Sprintf("mappings.%d", i)
		if m.FromScreen < 0 || m.FromScreen >= len(c.Screens) {
			return newError(ErrMappingScreen, path+".from_screen", fmt.Errorf("from_screen %d does not exist (%d screens)", m.FromScreen, len(c.Screens)))
		}
		if m.ToScreen < 0 || m.ToScreen >= len(c.Screens) {
			return newError(ErrMappingScreen, path+".to_screen", fmt.Errorf("to_screen %d does not exist (%d screens)", m.ToScreen, len(c.Screens)))
		}
		if !m.FromEdge.Side() {
			return newError(ErrMalformed, path+".from_edge", fmt.Errorf("from_edge must be left, right, top or bottom"))
		}
		if m.SpanLength < 0 || m.SpanOffset < 0 {
			return newError(ErrMalformed, path, fmt.Errorf("span_offset and span_length must be >= 0"))
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return newError(ErrMalformed, "logging.level", fmt.Errorf("level must be one of: debug, info, warn, error"))
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxFiles < 0 {
		return newError(ErrMalformed, "logging", fmt.Errorf("max_size_mb and max_files must be >= 0"))
	}
	return nil
}

// Warnings returns accepted-but-ineffective settings.
func (c *Config) Warnings() []string {
	var out []string
	if c.ConstraintMode == ConstraintFree && c.OffscreenSensitivity != DefaultOffscreenSensitivity {
		out = append(out, "offscreen_sensitivity has no effect when constraint_mode is 0 (free)")
	}
	if c.ConstraintMode == ConstraintConfine && c.OffscreenSensitivity != DefaultOffscreenSensitivity {
		out = append(out, "offscreen_sensitivity has no effect when constraint_mode is 1 (confine)")
	}
	return out
}

// Marshal encodes the effective configuration in format.
func (c *Config) Marshal(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(c); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return yaml.Marshal(c)
	}
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	out.Screens = append([]Screen(nil), c.Screens...)
	out.Mappings = append([]Mapping(nil), c.Mappings...)
	return &out
}

func versionSupported(v int) bool {
	for _, s := range SupportedVersions {
		if s == v {
			return true
		}
	}
	return false
}

func outOfRange(v int64) bool {
	return v > MaxCoordinate || v < -MaxCoordinate
}
