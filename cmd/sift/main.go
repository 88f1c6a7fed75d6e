package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ecakir/sift/internal/api"
	"github.com/ecakir/sift/internal/config"
	"github.com/ecakir/sift/internal/history"
	"github.com/ecakir/sift/internal/mcp"
	"github.com/ecakir/sift/internal/session"
	"github.com/ecakir/sift/internal/state"
	"github.com/ecakir/sift/internal/tui"
	"github.com/ecakir/sift/internal/web"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
        _  __ _
   ___ (_)/ _| |_
  / __|| | |_| __|
  \__ \| |  _| |_
  |___/|_|_|  \__|

  Email triage client

  Usage: sift <command> [options]
         sift --help`)
}

// baseDir resolves the local data directory, ~/.sift unless overridden.
func baseDir() (string, error) {
	if dir := os.Getenv("SIFT_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".sift"), nil
}

func main() {
	// Local .env wins over nothing, never over real environment.
	_ = godotenv.Load()

	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	dir, err := baseDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := state.Open(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open state: %v\n", err)
		os.Exit(1)
	}

	var opts []api.Option
	if cfg.RequestTimeoutSecs > 0 {
		opts = append(opts, api.WithTimeout(time.Duration(cfg.RequestTimeoutSecs)*time.Second))
	}
	client := api.New(cfg.APIURL, store, opts...)

	var sessOpts []session.Option
	if cfg.AutoLoginAfterRegister {
		sessOpts = append(sessOpts, session.WithAutoLoginAfterRegister())
	}
	sess := session.New(client, store, sessOpts...)

	var hist *history.Store
	if !cfg.HistoryDisabled {
		db, err := history.Init(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to initialize history: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()
		hist = history.NewStore(db)
	}

	env := &appEnv{cfg: cfg, client: client, store: store, sess: sess, hist: hist}

	// Long-running modes get their own entry points.
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "mcp":
			if err := mcp.Run(client, sess, hist, cfg, Version); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "web":
			addr := "127.0.0.1:8787"
			if len(os.Args) >= 3 {
				addr = os.Args[2]
			}
			if err := web.Run(addr, client, sess, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		case "dash":
			if err := tui.Run(client, sess, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	app := newCLIApp(env)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
