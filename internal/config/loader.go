package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	File   string
	Line   int
	Column int
}

// Format is an on-disk configuration encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFor picks a format from the file extension, defaulting to YAML.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unknown format %q (expected yaml, json or toml)", s)
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // document path -> value position (YAML/JSON only)
	File    string            // empty when defaults were used
	Format  Format
}

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "screenhop", "config.yaml"), nil
}

// LoadFromPath loads and validates path. A missing file yields the
// built-in defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	exists, err := pathExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return &LoadResult{
			Config:  DefaultConfig(),
			Sources: map[string]Source{},
			Format:  FormatFor(path),
		}, nil
	}

	canon, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(canon)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read: %w", canon, err)
	}

	res, err := parse(data, FormatFor(canon), canon)
	if err != nil {
		return nil, err
	}
	res.File = canon
	return res, nil
}

// Parse decodes and validates a configuration document.
func Parse(data []byte, format Format) (*Config, error) {
	res, err := parse(data, format, "")
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func parse(data []byte, format Format, file string) (*LoadResult, error) {
	var raw RawConfig
	sources := map[string]Source{}

	switch format {
	case FormatTOML:
		if err := decodeStrictTOML(data, &raw); err != nil {
			return nil, malformed(file, err)
		}
	case FormatYAML, FormatJSON:
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, malformed(file, fmt.Errorf("failed to parse %s: %w", format, err))
		}
		if err := decodeStrictYAML(data, &raw); err != nil {
			return nil, malformed(file, err)
		}
		sources = collectSources(&doc, file)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}

	cfg, err := BuildEffectiveConfig(raw)
	if err != nil {
		return nil, attachSourceContext(err, sources, file)
	}
	if err := cfg.Validate(); err != nil {
		return nil, attachSourceContext(err, sources, file)
	}
	return &LoadResult{Config: cfg, Sources: sources, Format: format}, nil
}

func malformed(file string, err error) error {
	return &ConfigError{
		Kind:   ErrMalformed,
		Source: Source{Kind: SourceFile, File: file},
		Err:    err,
	}
}

func decodeStrictYAML(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func decodeStrictTOML(data []byte, out any) error {
	md, err := toml.Decode(string(data), out)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("unknown field(s): %s", strings.Join(keys, ", "))
	}
	return nil
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return real, nil
}

func pathExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func collectSources(doc *yaml.Node, file string) map[string]Source {
	out := make(map[string]Source)
	if doc == nil {
		return out
	}
	node := doc
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	collectSourcesRec(node, file, "", out)
	return out
}

func collectSourcesRec(node *yaml.Node, file string, prefix string, out map[string]Source) {
	if node == nil {
		return
	}
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode := node.Content[i]
			valNode := node.Content[i+1]
			path := keyNode.Value
			if prefix != "" {
				path = prefix + "." + keyNode.Value
			}
			out[path] = sourceOf(valNode, file)
			collectSourcesRec(valNode, file, path, out)
		}
	case yaml.SequenceNode:
		if prefix != "" {
			out[prefix] = sourceOf(node, file)
		}
		for i, item := range node.Content {
			path := strconv.Itoa(i)
			if prefix != "" {
				path = prefix + "." + path
			}
			out[path] = sourceOf(item, file)
			collectSourcesRec(item, file, path, out)
		}
	}
}

func sourceOf(node *yaml.Node, file string) Source {
	return Source{Kind: SourceFile, File: file, Line: node.Line, Column: node.Column}
}

// attachSourceContext resolves the closest recorded position for a
// ConfigError path, walking up to parent paths when the exact key is
// absent (for example a missing "w" inside screens.1).
func attachSourceContext(err error, sources map[string]Source, file string) error {
	var cerr *ConfigError
	if !errors.As(err, &cerr) {
		return err
	}
	if file != "" {
		cerr.Source = Source{Kind: SourceFile, File: file}
	}
	for path := cerr.Path; path != ""; path = parentPath(path) {
		if src, ok := sources[path]; ok {
			cerr.Source = src
			break
		}
	}
	return cerr
}

func parentPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[:i]
}
