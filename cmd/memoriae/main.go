package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/harms-haus/memoriae/internal/automation"
	"github.com/harms-haus/memoriae/internal/automations"
	"github.com/harms-haus/memoriae/internal/cascade"
	"github.com/harms-haus/memoriae/internal/config"
	"github.com/harms-haus/memoriae/internal/db"
	"github.com/harms-haus/memoriae/internal/mcp"
	"github.com/harms-haus/memoriae/internal/ops"
	"github.com/harms-haus/memoriae/internal/pressure"
	"github.com/harms-haus/memoriae/internal/queue"
	"github.com/harms-haus/memoriae/internal/scheduler"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"store": true, "fetch": true, "update": true, "delete": true,
	"list": true, "category": true, "automation": true, "settings": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
                                  _
   _ __ ___  ___ _ __ ___  ___ _ (_)__ _ ___
  | '_ ' _ \/ _ \ '_ ' _ \/ _ \ '| / _' / _ \
  |_| |_| |_\___/_| |_| |_\___/_| |_\__,_\___|

  Idea garden with automation pressure

  Usage: memoriae <command> [options]
         memoriae --help
         memoriae serve

  MCP server mode requires piped input.`)
}

// engine bundles everything a running mode needs.
type engine struct {
	env    *ops.Env
	worker *queue.Worker
	sched  *scheduler.Scheduler
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".memoriae")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	// Logs go to stderr: stdout carries the MCP stdio transport.
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	reg := automation.NewRegistry()
	q := queue.New(database)
	if err := automations.RegisterAll(reg, q, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to register automations: %v\n", err)
		os.Exit(1)
	}
	store := pressure.NewStore(database)
	env := &ops.Env{
		DB:       database,
		Cfg:      cfg,
		Registry: reg,
		Queue:    q,
		Pressure: store,
		Cascade:  cascade.NewResolver(database, store, reg, cfg, logger),
		Logger:   logger,
	}
	eng := &engine{
		env:    env,
		worker: queue.NewWorker(q, reg, cfg, logger),
		sched:  scheduler.New(database, store, reg, cfg, logger),
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(eng)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'memoriae --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default): the worker and scheduler run alongside the
	// stdio transport so automations fire while a client is attached.
	eng.worker.Start()
	defer eng.worker.Stop()
	eng.sched.Start()
	defer eng.sched.Stop()

	if err := mcp.Run(env, eng.sched, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
