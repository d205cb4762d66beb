package daemon

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/1broseidon/screenhop/internal/engine"
)

// DefaultDevice names events whose producer did not set a device.
const DefaultDevice = "default"

const maxLineBytes = 64 * 1024

// Sink receives every batch of events produced by the engine. Emit may be
// called from several goroutines.
type Sink interface {
	Emit(events []engine.OutEvent) error
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	mu  sync.Mutex
	w   io.Writer
	enc *json.Encoder
}

func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w, enc: json.NewEncoder(w)}
}

func (s *JSONSink) Emit(events []engine.OutEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range events {
		if err := s.enc.Encode(ev); err != nil {
			return fmt.Errorf("failed to write event: %w", err)
		}
	}
	return nil
}

// readEvents decodes JSON lines from r and sends them on out until EOF or
// ctx is cancelled. Malformed lines are logged and skipped.
func readEvents(ctx context.Context, r io.Reader, out chan<- engine.RawEvent, logger *slog.Logger) error {
	defer close(out)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 || data[0] == '#' {
			continue
		}

		var ev engine.RawEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			logger.Warn("skipping malformed input", "line", line, "error", err)
			continue
		}
		if ev.Device == "" {
			ev.Device = DefaultDevice
		}

		select {
		case out <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
