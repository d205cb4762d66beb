package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/x11"
)

func printScreensUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: screenhop screens <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  detect    Print a configuration built from the X server's monitors")
}

func runScreens(args []string) int {
	if len(args) == 0 {
		printScreensUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "detect":
		return runScreensDetect(args[1:])
	case "help", "-h", "--help":
		printScreensUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown screens command: %s\n\n", args[0])
		printScreensUsage(os.Stderr)
		return 2
	}
}

func runScreensDetect(args []string) int {
	fs := flag.NewFlagSet("detect", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop screens detect [--units-per-pixel N] [--sensitivity N] [--format yaml|json|toml]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Query RandR for the active monitors and print a configuration with one")
		fmt.Fprintln(os.Stderr, "screen per monitor. Mirrored monitors are listed once.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	unitsPerPixel := fs.Int64("units-per-pixel", x11.DefaultUnitsPerPixel, "Global units per pixel")
	sensitivity := fs.Uint("sensitivity", config.BaseSensitivity, "Sensitivity for every screen")
	formatName := fs.String("format", "yaml", "Output format: yaml, json or toml")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *unitsPerPixel <= 0 || *sensitivity == 0 {
		fmt.Fprintln(os.Stderr, "--units-per-pixel and --sensitivity must be positive")
		return 2
	}
	format, err := config.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	monitors, screens, err := x11.Detect(*unitsPerPixel, uint32(*sensitivity))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range monitors {
		fmt.Fprintf(os.Stderr, "monitor %d %s: %dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}

	cfg := config.DefaultConfig()
	cfg.Screens = screens
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := cfg.Marshal(format)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(string(data))
	return 0
}
