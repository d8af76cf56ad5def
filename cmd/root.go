// Package cmd wires up the CLI flags and dispatches to the core modes.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"gomoss/config"
	"gomoss/internal/core"
	"gomoss/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X gomoss/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the appropriate gomoss mode.
func Execute(ctx context.Context, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	fs := flag.NewFlagSet("gomoss", flag.ContinueOnError)

	// ── account and server ───────────────────────────────────────
	fs.StringVarP(&cfg.UserID, "user", "u", cfg.UserID, "MOSS user id (or MOSS_USERID)")
	fs.StringVar(&cfg.Host, "server", cfg.Host, "MOSS server host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "MOSS server port")
	fs.DurationVarP(&cfg.Timeout, "timeout", "w", cfg.Timeout, "Connect timeout (e.g. 30s)")
	fs.BoolVar(&cfg.NoDNS, "no-dns", cfg.NoDNS, "Require a numeric server address")

	// ── MOSS options ─────────────────────────────────────────────
	fs.StringVarP(&cfg.Language, "language", "l", cfg.Language, "Source language (see --languages)")
	fs.IntVarP(&cfg.IgnoreLimit, "max-matches", "m", cfg.IgnoreLimit, "Ignore passages seen in more than N files")
	fs.StringVarP(&cfg.Comment, "comment", "c", cfg.Comment, "Comment shown on the report")
	fs.BoolVarP(&cfg.DirectoryMode, "directory", "d", cfg.DirectoryMode, "Treat each directory as one submission")
	fs.BoolVarP(&cfg.Experimental, "experimental", "x", cfg.Experimental, "Use the experimental server")
	fs.IntVarP(&cfg.MatchesToShow, "show", "n", cfg.MatchesToShow, "Number of matching files to show")

	// ── files ────────────────────────────────────────────────────
	fs.StringArrayVarP(&cfg.BaseFiles, "base", "b", cfg.BaseFiles, "Base (starter) file, glob or directory (repeatable)")
	fs.BoolVarP(&cfg.Recursive, "recursive", "r", cfg.Recursive, "Walk directory arguments")
	fs.BoolVar(&cfg.StrictFiles, "strict-files", cfg.StrictFiles, "Abort if any file cannot be read")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "Reach the server via SSH [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "Save the HTML report to this file")
	fs.BoolVar(&cfg.ListLanguages, "languages", false, "List accepted languages and exit")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Show what would be uploaded without connecting")
	fs.BoolVar(&cfg.Stats, "stats", false, "Print session metrics as JSON on stderr")

	var verbose int
	fs.CountVarP(&verbose, "verbose", "v", "Increase verbosity (repeatable)")

	// Read by loadConfig; registered here so they parse and show in help.
	fs.String("config", "", "TOML config file")
	fs.String("env-file", "", "dotenv file (default .env if present)")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("gomoss %s\n", version)
		return nil
	}

	if verbose > 0 {
		cfg.Verbose = verbose
	}
	cfg.Files = fs.Args()

	// ── tunnel spec ──────────────────────────────────────────────
	if err := cfg.ResolveTunnel(); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build and run ────────────────────────────────────────────
	logger := util.NewLogger(cfg.Verbose)

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// loadConfig applies defaults, the dotenv file, the TOML file and the
// MOSS_* environment, in that order.  --config and --env-file are
// picked out of args ahead of the real parse so that flags can still
// override every file value.
func loadConfig(args []string) (*config.Config, error) {
	var configPath, envFile string
	pre := flag.NewFlagSet("gomoss", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}
	pre.StringVar(&configPath, "config", "", "")
	pre.StringVar(&envFile, "env-file", "", "")
	pre.BoolP("help", "h", false, "")
	if err := pre.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if envFile != "" {
		if err := config.LoadEnvFile(cfg, envFile, true); err != nil {
			return nil, err
		}
	} else if err := config.LoadEnvFile(cfg, config.DefaultEnvFile, false); err != nil {
		return nil, err
	}
	if configPath != "" {
		if err := config.LoadFile(cfg, configPath); err != nil {
			return nil, err
		}
	}
	config.LoadFromEnv(cfg)
	return cfg, nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `gomoss – MOSS plagiarism detection client v%s

Uploads source files to a MOSS server and prints the report URL.

Usage:
  gomoss [options] -l <lang> <file|glob>...            Submit files
  gomoss [options] -l <lang> -d -r <dir>...            One submission per directory
  gomoss --languages                                   List languages

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  gomoss -u 123456789 -l python hw1/*.py
  gomoss -l java -b starter/Main.java -d -r submissions/
  gomoss -l c -c "Lab 3" -o lab3.html -m 5 lab3/*.c
  gomoss -T ta@login.cs.example.edu -l cc src/*.cc
  gomoss --config course.toml --dry-run -r submissions/
`)
}
