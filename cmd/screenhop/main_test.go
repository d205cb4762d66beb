package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
)

func TestDecodeEvents(t *testing.T) {
	in := `{"kind":"motion","time":1,"dx":5}
{"kind":"scroll","device":"wheel","time":2,"v":120}{"kind":"button","time":3,"button":1,"pressed":true}
`
	events, err := decodeEvents(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decodeEvents error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Kind != engine.RawMotion || events[0].DX != 5 {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Device != "wheel" || events[1].V != 120 {
		t.Fatalf("unexpected second event %+v", events[1])
	}
	if !events[2].Pressed || events[2].Button != 1 {
		t.Fatalf("unexpected third event %+v", events[2])
	}

	if _, err := decodeEvents(strings.NewReader(`{"kind":"motion","bogus":1}`)); err == nil {
		t.Fatal("expected error for unknown field")
	}
	if _, err := decodeEvents(strings.NewReader(`{"kind":`)); err == nil {
		t.Fatal("expected error for truncated input")
	}
}

func TestWriteTopology(t *testing.T) {
	cfg, err := config.Parse([]byte(`version: 4
screens:
  - {x: 0, y: 0, w: 100, h: 50}
  - {x: 100, y: 0, w: 100, h: 50}
mappings:
  - {from_screen: 1, from_edge: right, to_screen: 0, span_length: 20}
`), config.FormatYAML)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	topo, err := engine.New(engine.Options{}).Load(cfg)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var buf bytes.Buffer
	writeTopology(&buf, topo.Describe())
	out := buf.String()

	for _, want := range []string{
		"constraint_mode: free",
		"  0: 100x50+0+0 sensitivity=1000 scroll_unit=120",
		"     right  -> 1 (shared 50)",
		"     left   -> 0 (shared 50)",
		"  0: 1.right -> 0 entry_offset=0 span=0+20",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestJournalConfig(t *testing.T) {
	jc := journalConfig(config.LoggingConfig{Level: "debug", MaxSizeMB: 5})
	if jc.Enabled {
		t.Fatal("journal enabled without a path")
	}

	jc = journalConfig(config.LoggingConfig{Journal: "/tmp/j.log", Level: "warn", MaxFiles: 2})
	if !jc.Enabled || jc.FilePath != "/tmp/j.log" || jc.MaxFiles != 2 {
		t.Fatalf("unexpected journal config %+v", jc)
	}
}

func TestOpenOutput_None(t *testing.T) {
	w, closeFn, err := openOutput("none")
	if err != nil {
		t.Fatalf("openOutput error: %v", err)
	}
	defer closeFn()
	if w != nil {
		t.Fatal("expected nil writer for none")
	}
}

func TestScreenLabel(t *testing.T) {
	if got := screenLabel(engine.Untracked); got != "untracked" {
		t.Fatalf("screenLabel(Untracked) = %q", got)
	}
	if got := screenLabel(2); got != "2" {
		t.Fatalf("screenLabel(2) = %q", got)
	}
}
