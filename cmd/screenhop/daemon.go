package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/1broseidon/screenhop/internal/config"
	"github.com/1broseidon/screenhop/internal/daemon"
	"github.com/1broseidon/screenhop/internal/engine"
	"github.com/1broseidon/screenhop/internal/ipc"
	"github.com/1broseidon/screenhop/internal/journal"
	"github.com/1broseidon/screenhop/internal/runtimepath"
	"github.com/1broseidon/screenhop/internal/x11"
)

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("daemon", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: screenhop daemon [--config PATH] [--input PATH] [--output PATH] [--x11-warp]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Read raw pointer events (one JSON object per line), translate them across")
		fmt.Fprintln(os.Stderr, "the configured screens and write the results. Runs in the foreground and")
		fmt.Fprintln(os.Stderr, "serves status and control commands on the runtime socket.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Signals: SIGHUP reloads the configuration, SIGINT/SIGTERM stop the daemon.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	path := fs.String("config", "", "Config file path (default: ~/.config/screenhop/config.yaml)")
	input := fs.String("input", "-", "Raw event source file, or - for stdin")
	output := fs.String("output", "-", "Translated event destination file, - for stdout, or none")
	warp := fs.Bool("x11-warp", false, "Warp the X pointer to every translated position")
	unitsPerPixel := fs.Int64("units-per-pixel", x11.DefaultUnitsPerPixel, "Global units per X pixel for --x11-warp")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "daemon takes no arguments")
		fs.Usage()
		return 2
	}

	if err := ipc.NewClient().Ping(); err == nil {
		fmt.Fprintln(os.Stderr, "screenhop daemon is already running")
		return 1
	}

	configPath, err := configPathOr(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	res, err := config.LoadFromPath(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	cfg := res.Config
	if res.File == "" {
		log.Printf("No config at %s, using built-in defaults", configPath)
	}
	for _, w := range cfg.Warnings() {
		log.Printf("Warning: %s", w)
	}

	logger := newLogger(cfg.Logging.Level)

	jnl, err := journal.Open(journalConfig(cfg.Logging))
	if err != nil {
		log.Printf("Warning: journal disabled: %v", err)
		jnl = nil
	}
	defer jnl.Close()

	eng := engine.New(engine.Options{Logger: logger})
	if _, err := eng.Load(cfg); err != nil {
		log.Printf("Failed to activate config: %v", err)
		return 1
	}

	in, closeIn, err := openInput(*input)
	if err != nil {
		log.Printf("Failed to open input: %v", err)
		return 1
	}
	defer closeIn()

	var sinks []daemon.Sink
	out, closeOut, err := openOutput(*output)
	if err != nil {
		log.Printf("Failed to open output: %v", err)
		return 1
	}
	defer closeOut()
	if out != nil {
		sinks = append(sinks, daemon.NewJSONSink(out))
	}

	if *warp {
		conn, err := x11.NewConnection()
		if err != nil {
			log.Printf("Failed to connect to X server: %v", err)
			return 1
		}
		defer conn.Close()
		sinks = append(sinks, x11.NewWarpSink(conn, *unitsPerPixel))

		// Start the default device where the X pointer already is.
		if ev, err := conn.PointerEvent(*unitsPerPixel); err != nil {
			log.Printf("Warning: %v", err)
		} else {
			eng.ProcessEvent(daemon.DefaultDevice, ev)
		}
	}

	runner := daemon.NewRunner(eng, daemon.RunnerConfig{
		ConfigPath: configPath,
		Input:      in,
		Sinks:      sinks,
		Journal:    jnl,
		Logger:     logger,
	})

	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		log.Printf("Failed to resolve socket path: %v", err)
		return 1
	}
	ipcServer := ipc.NewServer(socketPath, runner, logger)
	if err := ipcServer.Start(); err != nil {
		log.Printf("Failed to start IPC server: %v", err)
		return 1
	}
	defer ipcServer.Stop()

	if pidPath, err := runtimepath.PIDPath(); err == nil {
		if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
			log.Printf("Warning: failed to write pid file: %v", err)
		} else {
			defer os.Remove(pidPath)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					if _, err := runner.Reload(); err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					log.Println("Config reloaded successfully")
				default:
					log.Println("Shutting down screenhop daemon...")
					cancel()
					return
				}
			}
		}
	}()

	log.Printf("screenhop daemon started (%d screens, socket %s)", len(cfg.Screens), socketPath)
	if err := runner.Run(ctx); err != nil {
		log.Printf("Input error: %v", err)
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func journalConfig(lc config.LoggingConfig) journal.Config {
	return journal.Config{
		Enabled:   lc.Journal != "",
		Level:     journal.ParseLevel(lc.Level),
		FilePath:  lc.Journal,
		MaxSizeMB: lc.MaxSizeMB,
		MaxFiles:  lc.MaxFiles,
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

// openOutput returns a nil writer for "none".
func openOutput(path string) (io.Writer, func(), error) {
	switch path {
	case "", "-":
		return os.Stdout, func() {}, nil
	case "none":
		return nil, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
