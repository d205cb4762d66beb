package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/daemon"
	"github.com/1broseidon/screenhop/internal/engine"
)

func runSimulate(args []string) int {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop simulate [--config PATH] [--device NAME] [--input PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Replay raw events through a private engine and print the translated")
		fmt.Fprintln(os.Stderr, "events as JSON lines. The running daemon is not involved.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Example:")
		fmt.Fprintln(os.Stderr, `  echo '{"kind":"motion","time":1,"dx":500}' | screenhop simulate`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	path := fs.String("config", "", "Config file path (default: ~/.config/screenhop/config.yaml)")
	device := fs.String("device", daemon.DefaultDevice, "Device for events that do not name one")
	input := fs.String("input", "-", "Raw event file, or - for stdin")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "simulate takes no arguments")
		fs.Usage()
		return 2
	}

	p, err := configPathOr(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	res, err := config.LoadFromPath(p)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	in, closeIn, err := openInput(*input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeIn()

	events, err := decodeEvents(in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	out, status, err := engine.Simulate(res.Config, *device, events, newLogger(res.Config.Logging.Level))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := daemon.NewJSONSink(os.Stdout).Emit(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Fprintf(os.Stderr, "final: device=%s screen=%s pos=%d,%d\n",
		status.Device, screenLabel(status.Screen), status.Position.X, status.Position.Y)
	return 0
}

// decodeEvents reads a stream of JSON event objects. Newlines between
// objects are optional.
func decodeEvents(r io.Reader) ([]engine.RawEvent, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var events []engine.RawEvent
	for {
		var ev engine.RawEvent
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", len(events)+1, err)
		}
		events = append(events, ev)
	}
}
