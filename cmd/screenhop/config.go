package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/1broseidon/screenhop/internal/config"
)

func printConfigUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  screenhop config validate [--config PATH]")
	fmt.Fprintln(os.Stderr, "  screenhop config print [--config PATH] [--defaults] [--format yaml|json|toml]")
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printConfigUsage()
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/screenhop/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
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
		for _, w := range sortedWarnings(res.Config.Warnings()) {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if res.File == "" {
			fmt.Printf("config: ok (no file at %s, built-in defaults)\n", p)
			return 0
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("config", "", "Config file path (default: ~/.config/screenhop/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		formatName := fs.String("format", "yaml", "Output format: yaml, json or toml")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		format, err := config.ParseFormat(*formatName)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
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
			cfg = res.Config
		}

		data, err := cfg.Marshal(format)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}
