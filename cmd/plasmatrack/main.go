package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plasmatrack/internal/activities"
	"plasmatrack/internal/config"
	"plasmatrack/internal/daemon"
	"plasmatrack/internal/database"
	"plasmatrack/internal/query"
	"plasmatrack/internal/reporter"
	"plasmatrack/pkg/detector"
	"plasmatrack/pkg/integrations/logind"

	flag "github.com/spf13/pflag"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const daemonChildEnv = "PLASMATRACK_DAEMON_CHILD"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "daemon":
		runForeground()
	case "start":
		startDaemon()
	case "stop":
		stopDaemon()
	case "status":
		showStatus()
	case "current":
		showCurrent()
	case "summary":
		showSummary()
	case "prune":
		pruneHistory()
	case "version":
		fmt.Printf("plasmatrack version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`plasmatrack - KDE activity time tracker

Usage:
  plasmatrack <command> [options]

Commands:
  daemon             Run the tracking daemon in the foreground
  start              Start the tracking daemon in the background
  stop               Stop the tracking daemon
  status             Show daemon status and recent errors
  current            Show the activity being tracked right now
  summary [options]  Summarize tracked time per activity
  prune [options]    Delete old closed intervals and error logs
  version            Show version information
  help               Show this help message

Options:
  summary --from DATE   Window start (YYYY-MM-DD HH:MM:SS, YYYY-MM-DD or DD/MM/YYYY)
  summary --to DATE     Window end (same formats)
  prune --keep DAYS     Keep history newer than DAYS days

Examples:
  plasmatrack start
  plasmatrack current
  plasmatrack summary --from 2024-01-01 --to 2024-02-01
  plasmatrack prune --keep 90
  plasmatrack stop

Environment Variables:
  PLASMATRACK_DB_PATH             Database file path
  PLASMATRACK_IDLE_TIMEOUT        Idle threshold in milliseconds
  PLASMATRACK_IDLE_POLL_INTERVAL  Idle poll interval in milliseconds
  PLASMATRACK_IDLE_BACKEND        Idle backend: auto, x11 or wayland
  PLASMATRACK_PID_FILE            PID file path
  PLASMATRACK_LOG_FILE            Daemon log file path
  PLASMATRACK_SOCKET              Query socket path
  PLASMATRACK_REQUEST_TIMEOUT     Query timeout in seconds
  PLASMATRACK_RETENTION_DAYS      Default retention window in days
  PLASMATRACK_CONFIG              Config file path

Version: %s
`, version)
}

func loadConfig() (*config.Config, *daemon.PIDFile) {
	cfg := config.New()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return cfg, daemon.NewPIDFile(cfg.Daemon.PIDFile)
}

func runForeground() {
	cfg, pf := loadConfig()

	running, pid, err := pf.Alive()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	runDaemon(cfg, pf, false)
}

func startDaemon() {
	cfg, pf := loadConfig()

	running, pid, err := pf.Alive()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if running {
		log.Fatalf("Daemon is already running (PID: %d)", pid)
	}

	if os.Getenv(daemonChildEnv) != "1" {
		// Parent process: fork and exit.
		daemonize(cfg)
		return
	}

	// Child process: run the daemon with logs in the log file.
	runDaemon(cfg, pf, true)
}

func runDaemon(cfg *config.Config, pf *daemon.PIDFile, detached bool) {
	if detached {
		logFile, err := os.OpenFile(cfg.Daemon.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			log.SetOutput(logFile)
			defer logFile.Close()
		}
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	repo := database.NewRepository(db)

	directory, err := activities.NewClient()
	if err != nil {
		log.Fatalf("Failed to connect to activity directory: %v", err)
	}
	defer directory.Close()

	watcher, err := detector.New(cfg.Idle.Backend, cfg.Idle.Timeout, cfg.Idle.PollInterval)
	if err != nil {
		log.Fatalf("Failed to initialize idle watcher: %v", err)
	}
	defer watcher.Close()
	log.Printf("Idle watcher initialized: %s", watcher.Backend())

	sleep, err := logind.NewListener()
	if err != nil {
		log.Fatalf("Failed to connect to logind: %v", err)
	}
	defer sleep.Close()

	if err := pf.Write(); err != nil {
		log.Fatalf("Failed to write PID file: %v", err)
	}
	defer pf.Remove()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := directory.Start(ctx); err != nil {
		log.Fatalf("Failed to start activity directory client: %v", err)
	}

	if cfg.Retention.Keep > 0 {
		pruneOnStartup(repo, cfg.Retention.Keep)
	}

	svc := daemon.NewService(repo, directory,
		daemon.NewActivitySource(directory),
		daemon.NewIdleSource(watcher),
		daemon.NewSleepSource(sleep),
	)

	rep := reporter.New(repo, directory)
	srv := query.NewServer(cfg.Query.SocketPath, cfg.Query.RequestTimeout, rep)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Failed to start query server: %v", err)
	}
	defer srv.Shutdown()
	log.Printf("Query server listening on %s", cfg.Query.SocketPath)

	log.Printf("Starting plasmatrack daemon...")
	log.Printf("Configuration:\n%s", cfg.String())

	if err := svc.Run(ctx); err != nil {
		log.Fatalf("Daemon failed: %v", err)
	}

	log.Println("Daemon stopped successfully")
}

// pruneOnStartup enforces the configured retention window once per
// daemon launch rather than on a timer.
func pruneOnStartup(repo *database.Repository, keep time.Duration) {
	cutoff := time.Now().Add(-keep)

	intervals, err := repo.DeleteClosedBefore(cutoff)
	if err != nil {
		log.Printf("retention: %v", err)
		return
	}
	errLogs, err := repo.DeleteErrorLogsBefore(cutoff)
	if err != nil {
		log.Printf("retention: %v", err)
		return
	}
	if intervals > 0 || errLogs > 0 {
		log.Printf("retention: removed %d intervals and %d error log entries older than %v", intervals, errLogs, keep)
	}
}

func daemonize(cfg *config.Config) {
	env := append(os.Environ(), daemonChildEnv+"=1")

	exe, err := os.Executable()
	if err != nil {
		log.Fatalf("Failed to resolve executable path: %v", err)
	}

	procAttr := &os.ProcAttr{
		Env:   env,
		Files: []*os.File{nil, nil, nil}, // stdin, stdout, stderr to /dev/null
		Sys: &syscall.SysProcAttr{
			Setsid: true, // Detach from the controlling terminal
		},
	}

	process, err := os.StartProcess(exe, os.Args, procAttr)
	if err != nil {
		log.Fatalf("Failed to start daemon process: %v", err)
	}

	fmt.Printf("Daemon started successfully (PID: %d)\n", process.Pid)
	fmt.Printf("Logs: %s\n", cfg.Daemon.LogFile)
}

func stopDaemon() {
	_, pf := loadConfig()

	running, pid, err := pf.Alive()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}
	if !running {
		fmt.Println("Daemon is not running")
		return
	}

	fmt.Printf("Stopping daemon (PID: %d)...\n", pid)
	if err := pf.Stop(5 * time.Second); err != nil {
		log.Fatalf("Failed to stop daemon: %v", err)
	}

	fmt.Println("Daemon stopped successfully")
}

func showStatus() {
	cfg, pf := loadConfig()

	running, pid, err := pf.Alive()
	if err != nil {
		log.Fatalf("Failed to check daemon status: %v", err)
	}

	if running {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
	} else {
		fmt.Println("Status: Not running")
	}
	fmt.Printf("Database: %s\n", databasePath(cfg))
	fmt.Printf("Socket: %s\n", cfg.Query.SocketPath)

	if running {
		client := query.NewClient(cfg.Query.SocketPath, cfg.Query.RequestTimeout)
		if out, err := client.Current(); err == nil {
			fmt.Printf("\n%s", out)
		} else {
			fmt.Printf("\nCould not query daemon: %v\n", err)
		}
	}

	showRecentErrors(cfg)
}

func databasePath(cfg *config.Config) string {
	if cfg.Database.Path != "" {
		return cfg.Database.Path
	}
	path, err := database.GetDefaultDBPath()
	if err != nil {
		return "(unresolved)"
	}
	return path
}

func showRecentErrors(cfg *config.Config) {
	path := databasePath(cfg)
	if _, err := os.Stat(path); err != nil {
		// No database yet, nothing recorded.
		return
	}

	db, err := database.Connect(path)
	if err != nil {
		return
	}
	defer db.Close()

	logs, err := database.NewRepository(db).RecentErrors(5)
	if err != nil || len(logs) == 0 {
		return
	}

	fmt.Printf("\nRecent errors:\n")
	for _, l := range logs {
		fmt.Printf("  %s  %-18s %s\n", l.Timestamp.Format("2006-01-02 15:04:05"), l.Component, l.Message)
	}
}

func showCurrent() {
	cfg, _ := loadConfig()

	client := query.NewClient(cfg.Query.SocketPath, cfg.Query.RequestTimeout)
	out, err := client.Current()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

func showSummary() {
	fs := flag.NewFlagSet("summary", flag.ExitOnError)
	from := fs.String("from", "", "window start date")
	to := fs.String("to", "", "window end date")
	fs.Parse(os.Args[2:])

	cfg, _ := loadConfig()

	// Date strings travel to the daemon as-is; it owns the parsing.
	client := query.NewClient(cfg.Query.SocketPath, cfg.Query.RequestTimeout)
	out, err := client.Summary(*from, *to)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(out)
}

func pruneHistory() {
	cfg, _ := loadConfig()

	fs := flag.NewFlagSet("prune", flag.ExitOnError)
	keep := fs.Int("keep", int(cfg.Retention.Keep/(24*time.Hour)), "keep history newer than this many days")
	fs.Parse(os.Args[2:])

	if *keep <= 0 {
		fmt.Fprintln(os.Stderr, "Error: no retention window; pass --keep DAYS or set PLASMATRACK_RETENTION_DAYS")
		os.Exit(1)
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	repo := database.NewRepository(db)
	cutoff := time.Now().AddDate(0, 0, -*keep)

	intervals, err := repo.DeleteClosedBefore(cutoff)
	if err != nil {
		log.Fatalf("Failed to prune intervals: %v", err)
	}
	errLogs, err := repo.DeleteErrorLogsBefore(cutoff)
	if err != nil {
		log.Fatalf("Failed to prune error logs: %v", err)
	}

	fmt.Printf("Removed %d intervals and %d error log entries older than %d days\n", intervals, errLogs, *keep)
}
