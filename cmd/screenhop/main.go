package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/geometry"
	"github.com/1broseidon/screenhop/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "suspend":
		os.Exit(runControl("suspend", os.Args[2:]))
	case "resume":
		os.Exit(runControl("resume", os.Args[2:]))
	case "switch":
		os.Exit(runSwitch(os.Args[2:]))
	case "topology":
		os.Exit(runTopology(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "simulate":
		os.Exit(runSimulate(os.Args[2:]))
	case "screens":
		os.Exit(runScreens(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: screenhop <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Translate a raw event stream (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  reload              Reload the daemon configuration")
	fmt.Fprintln(w, "  suspend             Pass events through untranslated")
	fmt.Fprintln(w, "  resume              Resume translation")
	fmt.Fprintln(w, "  switch [device]     Move a pointer to the next screen")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  topology            Show screens, neighbours and mappings")
	fmt.Fprintln(w, "  simulate            Replay raw events through a private engine")
	fmt.Fprintln(w, "  screens detect      Build screens from the X server's monitors")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  watch               Live view of the daemon")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'screenhop <command> --help' for command-specific options.")
}

// configPathOr returns path, or the default configuration path when empty.
func configPathOr(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return config.DefaultConfigPath()
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output status as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *jsonOut {
		return printJSON(status)
	}

	st := status.Stats
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("config_path:    %s\n", status.ConfigPath)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Printf("generation:     %d\n", st.Generation)
	fmt.Printf("suspended:      %v\n", st.Suspended)
	fmt.Printf("events:         %d\n", st.Events)
	fmt.Printf("transitions:    %d (mapped %d, exits %d, retracks %d)\n", st.Transitions, st.Mapped, st.Exits, st.Retracks)
	fmt.Printf("confined:       %d\n", st.Confined)
	fmt.Printf("dropped:        %d\n", st.Dropped)
	fmt.Printf("warnings:       %d\n", st.Warnings)
	fmt.Printf("devices:        %d\n", len(status.Devices))
	for _, d := range status.Devices {
		fmt.Printf("- %s screen=%s pos=%d,%d\n", d.Device, screenLabel(d.Screen), d.Position.X, d.Position.Y)
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its configuration file. An invalid file is")
		fmt.Fprintln(os.Stderr, "rejected and the active configuration stays in place.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "reload takes no arguments")
		fs.Usage()
		return 2
	}

	data, err := ipc.NewClient().Reload()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("generation: %d\n", data.Generation)
	fmt.Printf("screens:    %d\n", data.Screens)
	fmt.Printf("mappings:   %d\n", data.Mappings)
	return 0
}

// runControl handles the argument-free suspend and resume commands.
func runControl(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: screenhop %s\n", name)
		fmt.Fprintln(os.Stderr, "")
		if name == "suspend" {
			fmt.Fprintln(os.Stderr, "Stop translating: events pass through unchanged until resume.")
		} else {
			fmt.Fprintln(os.Stderr, "Resume translating after suspend.")
		}
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	var err error
	if name == "suspend" {
		err = client.Suspend()
	} else {
		err = client.Resume()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSwitch(args []string) int {
	fs := flag.NewFlagSet("switch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop switch [device]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move the device's pointer to the centre of the next screen.")
		fmt.Fprintln(os.Stderr, "The default device is used when none is given.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "switch takes at most one device")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().SwitchScreen(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runTopology(args []string) int {
	fs := flag.NewFlagSet("topology", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop topology [--config PATH] [--live] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show every screen with its neighbours on each edge, and the edge mappings.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	path := fs.String("config", "", "Config file path (default: ~/.config/screenhop/config.yaml)")
	live := fs.Bool("live", false, "Query the running daemon instead of reading the config file")
	jsonOut := fs.Bool("json", false, "Output the topology as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "topology takes no arguments")
		fs.Usage()
		return 2
	}

	var view engine.View
	if *live {
		v, err := ipc.NewClient().GetTopology()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		view = *v
	} else {
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
		t, err := engine.New(engine.Options{Logger: newLogger("warn")}).Load(res.Config)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		view = t.Describe()
	}

	if *jsonOut {
		return printJSON(view)
	}
	writeTopology(os.Stdout, view)
	return 0
}

func writeTopology(w io.Writer, v engine.View) {
	fmt.Fprintf(w, "generation:      %d\n", v.Generation)
	fmt.Fprintf(w, "constraint_mode: %s\n", v.ConstraintMode)
	fmt.Fprintf(w, "passthrough:     %v\n", v.UnmappedPassthrough)
	fmt.Fprintf(w, "bounds:          %s\n", formatRect(v.Bounds))
	fmt.Fprintln(w, "screens:")
	for _, s := range v.Screens {
		fmt.Fprintf(w, "  %d: %s sensitivity=%d scroll_unit=%d\n", s.Index, formatRect(s.Rect), s.Sensitivity, s.ScrollUnit)
		for _, e := range geometry.Edges {
			for _, n := range s.Neighbors[e.String()] {
				fmt.Fprintf(w, "     %-6s -> %d (shared %d)\n", e, n.Screen, n.Shared)
			}
		}
	}
	if len(v.Mappings) == 0 {
		return
	}
	fmt.Fprintln(w, "mappings:")
	for i, m := range v.Mappings {
		fmt.Fprintf(w, "  %d: %d.%s -> %d entry_offset=%d", i, m.FromScreen, m.FromEdge, m.ToScreen, m.EntryOffset)
		if m.SpanLength > 0 {
			fmt.Fprintf(w, " span=%d+%d", m.SpanOffset, m.SpanLength)
		}
		fmt.Fprintln(w)
	}
}

func formatRect(r geometry.Rect) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.W, r.H, r.X, r.Y)
}

func screenLabel(screen int) string {
	if screen == engine.Untracked {
		return "untracked"
	}
	return fmt.Sprintf("%d", screen)
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// sortedWarnings returns a copy of warnings in a stable order.
func sortedWarnings(warnings []string) []string {
	out := append([]string(nil), warnings...)
	sort.Strings(out)
	return out
}
