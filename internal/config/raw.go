package config

import (
	"fmt"

	"github.com/1broseidon/screenhop/internal/geometry"
)

// Raw types mirror the on-disk document. Pointer fields distinguish
// "absent" from zero so defaults can be applied afterwards.

type RawScreen struct {
	X           *int64  `yaml:"x" toml:"x"`
	Y           *int64  `yaml:"y" toml:"y"`
	W           *int64  `yaml:"w" toml:"w"`
	H           *int64  `yaml:"h" toml:"h"`
	Sensitivity *uint32 `yaml:"sensitivity" toml:"sensitivity"`
	ScrollUnit  *int64  `yaml:"scroll_unit" toml:"scroll_unit"`
}

type RawMapping struct {
	FromScreen  *int           `yaml:"from_screen" toml:"from_screen"`
	FromEdge    *geometry.Edge `yaml:"from_edge" toml:"from_edge"`
	ToScreen    *int           `yaml:"to_screen" toml:"to_screen"`
	EntryOffset *int64         `yaml:"entry_offset" toml:"entry_offset"`
	SpanOffset  *int64         `yaml:"span_offset" toml:"span_offset"`
	SpanLength  *int64         `yaml:"span_length" toml:"span_length"`
}

type RawLoggingConfig struct {
	Level     *string `yaml:"level" toml:"level"`
	Journal   *string `yaml:"journal" toml:"journal"`
	MaxSizeMB *int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxFiles  *int    `yaml:"max_files" toml:"max_files"`
}

type RawConfig struct {
	Version              *int              `yaml:"version" toml:"version"`
	UnmappedPassthrough  *bool             `yaml:"unmapped_passthrough" toml:"unmapped_passthrough"`
	PartialScrollTimeout *uint64           `yaml:"partial_scroll_timeout" toml:"partial_scroll_timeout"`
	IntervalOverride     *uint32           `yaml:"interval_override" toml:"interval_override"`
	ConstraintMode       *int              `yaml:"constraint_mode" toml:"constraint_mode"`
	OffscreenSensitivity *uint32           `yaml:"offscreen_sensitivity" toml:"offscreen_sensitivity"`
	Screens              []RawScreen       `yaml:"screens" toml:"screens"`
	Mappings             []RawMapping      `yaml:"mappings" toml:"mappings"`
	Logging              *RawLoggingConfig `yaml:"logging" toml:"logging"`
}

// BuildEffectiveConfig applies defaults to raw. Screens have no default
// when a document is present: an empty or missing list is rejected by
// Validate.
func BuildEffectiveConfig(raw RawConfig) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Screens = nil

	if raw.Version != nil {
		cfg.Version = *raw.Version
	}
	if raw.UnmappedPassthrough != nil {
		cfg.UnmappedPassthrough = *raw.UnmappedPassthrough
	}
	if raw.PartialScrollTimeout != nil {
		cfg.PartialScrollTimeout = *raw.PartialScrollTimeout
	}
	if raw.IntervalOverride != nil {
		cfg.IntervalOverride = *raw.IntervalOverride
	}
	if raw.ConstraintMode != nil {
		cfg.ConstraintMode = ConstraintMode(*raw.ConstraintMode)
	}
	if raw.OffscreenSensitivity != nil {
		cfg.OffscreenSensitivity = *raw.OffscreenSensitivity
	}

	for i, rs := range raw.Screens {
		s, err := rs.effective(i)
		if err != nil {
			return nil, err
		}
		cfg.Screens = append(cfg.Screens, s)
	}

	cfg.Mappings = make([]Mapping, 0, len(raw.Mappings))
	for i, rm := range raw.Mappings {
		m, err := rm.effective(i)
		if err != nil {
			return nil, err
		}
		cfg.Mappings = append(cfg.Mappings, m)
	}

	if l := raw.Logging; l != nil {
		if l.Level != nil {
			cfg.Logging.Level = *l.Level
		}
		if l.Journal != nil {
			cfg.Logging.Journal = *l.Journal
		}
		if l.MaxSizeMB != nil {
			cfg.Logging.MaxSizeMB = *l.MaxSizeMB
		}
		if l.MaxFiles != nil {
			cfg.Logging.MaxFiles = *l.MaxFiles
		}
	}
	return cfg, nil
}

func (r RawScreen) effective(i int) (Screen, error) {
	path := fmt.Sprintf("screens.%d", i)
	if r.W == nil {
		return Screen{}, newError(ErrInvalidScreen, path, fmt.Errorf("w is required"))
	}
	if r.H == nil {
		return Screen{}, newError(ErrInvalidScreen, path, fmt.Errorf("h is required"))
	}
	s := Screen{
		W:           *r.W,
		H:           *r.H,
		Sensitivity: BaseSensitivity,
		ScrollUnit:  DefaultScrollUnit,
	}
	if r.X != nil {
		s.X = *r.X
	}
	if r.Y != nil {
		s.Y = *r.Y
	}
	if r.Sensitivity != nil {
		s.Sensitivity = *r.Sensitivity
	}
	if r.ScrollUnit != nil {
		s.ScrollUnit = *r.ScrollUnit
	}
	return s, nil
}

func (r RawMapping) effective(i int) (Mapping, error) {
	path := fmt.Sprintf("mappings.%d", i)
	if r.FromScreen == nil || r.ToScreen == nil {
		return Mapping{}, newError(ErrMalformed, path, fmt.Errorf("from_screen and to_screen are required"))
	}
	if r.FromEdge == nil {
		return Mapping{}, newError(ErrMalformed, path, fmt.Errorf("from_edge is required"))
	}
	m := Mapping{
		FromScreen: *r.FromScreen,
		FromEdge:   *r.FromEdge,
		ToScreen:   *r.ToScreen,
	}
	if r.EntryOffset != nil {
		m.EntryOffset = *r.EntryOffset
	}
	if r.SpanOffset != nil {
		m.SpanOffset = *r.SpanOffset
	}
	if r.SpanLength != nil {
		m.SpanLength = *r.SpanLength
	}
	return m, nil
}
