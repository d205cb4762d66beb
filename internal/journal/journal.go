// Package journal keeps a rotating, human-readable record of pointer
// transitions, confinements, drops and configuration changes.
package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/1broseidon/screenhop/internal/engine"
)

// Level defines the journal verbosity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Action is the kind of entry being recorded.
type Action string

const (
	ActionTransition Action = "TRANSITION"
	ActionExit       Action = "EXIT"
	ActionConfined   Action = "CONFINED"
	ActionWarning    Action = "WARNING"
	ActionReload     Action = "RELOAD"
	ActionReject     Action = "RELOAD-REJECTED"
	ActionSuspend    Action = "SUSPEND"
	ActionResume     Action = "RESUME"
	ActionDevice     Action = "DEVICE"
)

func actionLevel(action Action) Level {
	switch action {
	case ActionConfined:
		return LevelDebug
	case ActionWarning, ActionReject:
		return LevelWarn
	default:
		return LevelInfo
	}
}

type Config struct {
	Enabled   bool
	Level     Level
	FilePath  string
	MaxSizeMB int
	MaxFiles  int
}

// Journal appends entries to FilePath, rotating it at MaxSizeMB. A nil or
// disabled Journal discards everything.
type Journal struct {
	mu          sync.Mutex
	file        *os.File
	config      Config
	currentSize int64
	now         func() time.Time
}

func Open(cfg Config) (*Journal, error) {
	if !cfg.Enabled {
		return &Journal{config: cfg, now: time.Now}, nil
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 3
	}

	dir := filepath.Dir(cfg.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory %s: %w", dir, err)
	}

	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal %s: %w", cfg.FilePath, err)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat journal: %w", err)
	}

	return &Journal{
		file:        f,
		config:      cfg,
		currentSize: stat.Size(),
		now:         time.Now,
	}, nil
}

// Record writes one entry. device may be empty for engine-wide entries.
func (j *Journal) Record(action Action, device string, details map[string]any) {
	if j == nil || !j.config.Enabled {
		return
	}
	if actionLevel(action) < j.config.Level {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return
	}

	maxBytes := int64(j.config.MaxSizeMB) * 1024 * 1024
	if j.currentSize >= maxBytes {
		if err := j.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "journal rotation failed: %v\n", err)
		}
		if j.file == nil {
			return
		}
	}

	var sb strings.Builder
	sb.WriteString(j.now().Format("2006-01-02 15:04:05.000"))
	sb.WriteString(" [")
	sb.WriteString(string(action))
	sb.WriteString("]")
	if device != "" {
		sb.WriteString(" device=")
		sb.WriteString(device)
	}

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch val := details[k].(type) {
		case string:
			fmt.Fprintf(&sb, " %s=%q", k, val)
		default:
			fmt.Fprintf(&sb, " %s=%v", k, val)
		}
	}
	sb.WriteString("\n")

	n, err := j.file.WriteString(sb.String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to write journal entry: %v\n", err)
		return
	}
	j.currentSize += int64(n)
}

// Event records the journal-worthy subset of engine output.
func (j *Journal) Event(ev engine.OutEvent) {
	if j == nil || !j.config.Enabled {
		return
	}
	switch ev.Kind {
	case engine.OutTransition:
		tr := ev.Transition
		if tr == nil {
			return
		}
		details := map[string]any{
			"from":  tr.From,
			"to":    tr.To,
			"via":   string(tr.Via),
			"entry": fmt.Sprintf("%d,%d", tr.Entry.X, tr.Entry.Y),
		}
		if tr.Edge != "" {
			details["edge"] = tr.Edge
		}
		if tr.Via == engine.ViaMapping {
			details["rule"] = tr.Rule
		}
		action := ActionTransition
		if tr.To == engine.Untracked {
			action = ActionExit
		}
		j.Record(action, ev.Device, details)
	case engine.OutConfined:
		j.Record(ActionConfined, ev.Device, map[string]any{
			"screen":   ev.Screen,
			"edge":     ev.Reason,
			"feedback": fmt.Sprintf("%d,%d", ev.DX, ev.DY),
		})
	case engine.OutWarning:
		j.Record(ActionWarning, ev.Device, map[string]any{
			"screen":  ev.Screen,
			"message": ev.Message,
		})
	}
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	return err
}

// rotate shifts journal -> journal.1 -> ... -> journal.MaxFiles, dropping
// the oldest.
func (j *Journal) rotate() error {
	if j.file != nil {
		j.file.Close()
		j.file = nil
	}

	basePath := j.config.FilePath
	for i := j.config.MaxFiles; i >= 1; i-- {
		oldPath := fmt.Sprintf("%s.%d", basePath, i)
		if i == j.config.MaxFiles {
			os.Remove(oldPath)
			continue
		}
		os.Rename(oldPath, fmt.Sprintf("%s.%d", basePath, i+1))
	}

	if err := os.Rename(basePath, basePath+".1"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate journal: %w", err)
	}

	f, err := os.OpenFile(basePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open new journal: %w", err)
	}
	j.file = f
	j.currentSize = 0
	return nil
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
