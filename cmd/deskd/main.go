package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/lfedronic/deskd/internal/command"
	"github.com/lfedronic/deskd/internal/config"
	"github.com/lfedronic/deskd/internal/content"
	"github.com/lfedronic/deskd/internal/env"
	"github.com/lfedronic/deskd/internal/ipc"
	"github.com/lfedronic/deskd/internal/layout"
	"github.com/lfedronic/deskd/internal/mcp"
	"github.com/lfedronic/deskd/internal/oplog"
	"github.com/lfedronic/deskd/internal/relay"
	"github.com/lfedronic/deskd/internal/server"
	"github.com/lfedronic/deskd/internal/store"
	"github.com/lfedronic/deskd/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "exec":
		os.Exit(runExec(os.Args[2:]))
	case "env":
		os.Exit(runEnv(os.Args[2:]))
	case "layout":
		os.Exit(runLayoutCmd(os.Args[2:]))
	case "undo":
		os.Exit(runUndoCmd(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "tui":
		os.Exit(runTUI(os.Args[2:]))
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
	fmt.Fprintln(w, "Usage: deskd <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve               Start the layout daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  exec                Run one layout command against the daemon")
	fmt.Fprintln(w, "  layout              Print the current layout tree")
	fmt.Fprintln(w, "  env                 Print the current pane geometry")
	fmt.Fprintln(w, "  undo                Revert the most recent layout mutation")
	fmt.Fprintln(w, "  reload              Ask the daemon to re-read its config")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  tui                 Open the interactive layout inspector")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'deskd <command> --help' for command-specific options.")
}

// socketFlag adds the shared --socket flag to a client subcommand.
func socketFlag(fs *flag.FlagSet) *string {
	return fs.String("socket", "", "Daemon socket path (default: runtime dir)")
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "", "Config file path (default: ~/.config/deskd/config.yaml)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd serve [--config PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start the layout daemon in the foreground: HTTP adapters, the IPC")
		fmt.Fprintln(os.Stderr, "socket, and live config reload.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, path, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	actionLog, err := newActionLog(cfg)
	if err != nil {
		log.Fatalf("Failed to open action log: %v", err)
	}
	defer actionLog.Close()

	st := store.New(layout.Seed())
	executor := command.New(st, command.Options{
		MaxSplitDepth: cfg.Layout.MaxSplitDepth,
		Log:           actionLog,
	})
	broker := relay.New()
	generators := content.NewRegistry()

	httpServer := server.NewServer(st, executor, broker, generators, cfg)

	geometry := func() env.Snapshot {
		if last, ok := st.Env(); ok {
			return env.ReportedGeometry{Last: last}.Measure(st.SnapshotTree())
		}
		g := env.WeightGeometry{Viewport: env.Viewport{
			W:   cfg.Viewport.Width,
			H:   cfg.Viewport.Height,
			DPR: cfg.Viewport.DPR,
		}}
		return g.Measure(st.SnapshotTree())
	}

	reloadChan := make(chan struct{}, 1)
	ipcServer, err := ipc.NewServer(st, executor, geometry, cfg.SocketPath, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	applyReload := func(next *config.Config) {
		*cfg = *next
		slog.Info("config reloaded",
			"addr", cfg.HTTP.Addr,
			"max_split_depth", cfg.Layout.MaxSplitDepth)
	}

	stopWatch, err := config.Watch(path, applyReload)
	if err != nil {
		slog.Warn("config watch unavailable", "error", err)
	} else {
		defer stopWatch()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					reloadFromDisk(path, applyReload)
					continue
				}
				slog.Info("shutting down", "signal", sig)
				cancel()
				return
			case <-reloadChan:
				reloadFromDisk(path, applyReload)
			}
		}
	}()

	slog.Info("daemon started", "addr", cfg.HTTP.Addr)
	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
	return 0
}

// loadConfig resolves the effective config and the path the watcher
// should follow. An explicit path must exist; the default path may not.
func loadConfig(explicit string) (*config.Config, string, error) {
	if explicit != "" {
		cfg, err := config.LoadFromPath(explicit)
		return cfg, explicit, err
	}
	path, err := config.DefaultConfigPath()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load()
	return cfg, path, err
}

func reloadFromDisk(path string, apply func(*config.Config)) {
	next, err := config.LoadFromPath(path)
	if err != nil {
		slog.Warn("config reload failed", "error", err)
		return
	}
	apply(next)
}

func newActionLog(cfg *config.Config) (*oplog.Logger, error) {
	logPath, err := cfg.LogFilePath()
	if err != nil {
		return nil, err
	}
	return oplog.New(oplog.Config{
		Enabled:   cfg.Logging.Enabled,
		Level:     oplog.ParseLevel(cfg.Logging.Level),
		FilePath:  logPath,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd status [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
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

	client := ipc.NewClient(*socket)
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("ready:          %v\n", status.Ready)
	fmt.Printf("pane_count:     %d\n", status.PaneCount)
	fmt.Printf("tab_count:      %d\n", status.TabCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runExec(args []string) int {
	fs := flag.NewFlagSet("exec", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	argsJSON := fs.String("args", "{}", "Command arguments as a JSON object")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd exec [--socket PATH] [--args JSON] <action>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run one layout command on the daemon and print its result.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Actions: addTab, activateTab, closeTab, splitPane, moveTab, getEnv")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Example:")
		fmt.Fprintln(os.Stderr, `  deskd exec --args '{"paneId":"quizPane","title":"Notes","contentId":"summary"}' addTab`)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exec requires exactly one <action>")
		fs.Usage()
		return 2
	}

	var cmdArgs map[string]any
	if err := json.Unmarshal([]byte(*argsJSON), &cmdArgs); err != nil {
		fmt.Fprintf(os.Stderr, "invalid --args: %v\n", err)
		return 2
	}

	client := ipc.NewClient(*socket)
	res, err := client.Exec(fs.Arg(0), cmdArgs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJSON(res)
	if !res.Success {
		return 1
	}
	return 0
}

func runLayoutCmd(args []string) int {
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd layout [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the daemon's layout tree and pane labels as JSON.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient(*socket)
	data, err := client.GetLayout()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJSON(data)
	return 0
}

func runEnv(args []string) int {
	fs := flag.NewFlagSet("env", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd env [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the daemon's pane geometry snapshot as JSON.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient(*socket)
	snap, err := client.GetEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printJSON(snap)
	return 0
}

func runUndoCmd(args []string) int {
	fs := flag.NewFlagSet("undo", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd undo [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Revert the daemon's most recent layout mutation.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient(*socket)
	res, err := client.Undo()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(res.Message)
	if !res.Success {
		return 1
	}
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd reload [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to re-read its configuration file.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	client := ipc.NewClient(*socket)
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reload requested")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  deskd config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  deskd config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskd/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/deskd/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		switch {
		case *printDefaults:
			cfg = config.Default()
		case *path == "":
			cfg, err = config.Load()
		default:
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(cfg)
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

func runTUI(args []string) int {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := socketFlag(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: deskd tui [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Interactive inspector for the running daemon: live layout tree and")
		fmt.Fprintln(os.Stderr, "pane geometry.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  tab       Switch between layout and environment views")
		fmt.Fprintln(os.Stderr, "  r         Refresh now")
		fmt.Fprintln(os.Stderr, "  u         Undo last layout mutation")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if err := tui.Run(*socket); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMCP(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: deskd mcp serve")
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(os.Stdout, "Usage: deskd mcp serve")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n", args[0])
		return 2
	}
}

func runMCPServe(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: deskd mcp serve")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. Designed to be invoked by MCP clients")
		fmt.Fprintln(os.Stdout, "such as Claude Code or Claude Desktop.")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Example (Claude Code):")
		fmt.Fprintln(os.Stdout, "  claude mcp add deskd -- deskd mcp serve")
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st := store.New(layout.Seed())
	executor := command.New(st, command.Options{MaxSplitDepth: cfg.Layout.MaxSplitDepth})
	srv := mcp.NewServer(st, executor, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := srv.Run(ctx); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
	return 0
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(string(data))
}
