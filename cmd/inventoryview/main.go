package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/wesm/inventoryview/internal/config"
	"github.com/wesm/inventoryview/internal/db"
	"github.com/wesm/inventoryview/internal/server"
	"github.com/wesm/inventoryview/internal/sync"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const (
	watcherDebounce     = 500 * time.Millisecond
	browserPollInterval = 100 * time.Millisecond
	browserPollAttempts = 60
	shutdownTimeout     = 5 * time.Second

	logFileName = "debug.log"
	maxLogSize  = 10 << 20
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "report":
			runReport(os.Args[2:], os.Stdout)
			return
		case "use":
			runUse(os.Args[2:])
			return
		case "serve":
			runServe(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("inventoryview %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runServe(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`inventoryview %s - inventory reporting dashboard

Loads an inventory dataset (products, stock, suppliers, orders,
warehouses, customers) and serves aggregated reports, downloads,
and printable pages via a local web server.

Usage:
  inventoryview [flags]            Start the server (default command)
  inventoryview serve [flags]      Start the server (explicit)
  inventoryview report [flags]     Print one report to stdout
  inventoryview use <file>         Remember a dataset file
  inventoryview version            Show version information
  inventoryview help               Show this help

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8080)
  -no-browser         Don't open browser on startup
  -watch              Reload the dataset file when it changes (default true)

Dataset flags (serve and report):
  -data string        Dataset file (JSON or YAML)
  -seed int           Seed for synthetic trend series (default 1)

Report flags:
  -category string    Report category (default "financial")
  -type string        Report type (default "overview")
  -section string     Section report instead of category/type
  -range string       weekly, monthly, or yearly (default "monthly")
  -format string      text or json (default "text")

Environment variables:
  INVENTORYVIEW_DATA_DIR   Data directory (config, logs)
  INVENTORYVIEW_DATASET    Dataset file
  INVENTORYVIEW_BROWSER    Command used to open the browser

Without a dataset the bundled sample data is served. Configuration
is stored in ~/.inventoryview/ by default.
`, version)
}

func runServe(args []string) {
	cfg := mustLoadConfig(args)
	setupLogFile(cfg.DataDir)

	database := mustOpenDB(cfg)
	defer database.Close()

	engine := sync.NewEngine(database, cfg.DatasetPath, nil)
	runInitialLoad(engine)

	if cfg.Watch && cfg.DatasetPath != "" {
		stopWatcher := startFileWatcher(cfg, engine)
		defer stopWatcher()
	}

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv := server.New(cfg, database, engine,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)

	url := fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port)
	fmt.Printf("inventoryview %s listening at %s\n", version, url)

	if !cfg.NoBrowser {
		go openBrowser(cfg, url)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func mustLoadConfig(args []string) config.Config {
	fs := flag.NewFlagSet("inventoryview", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: inventoryview [serve] [flags]\n\nFlags:\n")
		fs.PrintDefaults()
	}
	config.RegisterServeFlags(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := loadConfig(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	return cfg
}

// loadConfig layers fs over the stored config, creates the data
// directory, and makes the dataset path absolute so watcher events
// match it.
func loadConfig(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(fs)
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return cfg, fmt.Errorf("creating data dir: %w", err)
	}
	if cfg.DatasetPath != "" {
		abs, err := filepath.Abs(cfg.DatasetPath)
		if err != nil {
			return cfg, fmt.Errorf("resolving dataset path: %w", err)
		}
		cfg.DatasetPath = abs
	}
	return cfg, nil
}

func mustOpenDB(cfg config.Config) *db.DB {
	path := cfg.DBPath
	if path == "" {
		path = db.Memory
	}
	database, err := db.Open(path)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	return database
}

func runInitialLoad(engine *sync.Engine) {
	source := engine.Path()
	if source == "" {
		source = "bundled sample data"
	}
	fmt.Printf("Loading %s...\n", source)
	stats, err := engine.Load(context.Background())
	if err != nil {
		log.Fatalf("loading dataset: %v", err)
	}
	fmt.Printf(
		"Loaded %d records (dataset %s, %d repaired fields)\n",
		stats.Records, stats.Version, stats.IssueCount(),
	)
	for _, issue := range stats.Issues {
		log.Printf("dataset: %s", issue)
	}
}

func startFileWatcher(
	cfg config.Config, engine *sync.Engine,
) func() {
	watcher, err := sync.NewWatcher(watcherDebounce, engine.OnChange)
	if err != nil {
		log.Printf("warning: file watcher unavailable: %v", err)
		return func() {}
	}
	watcher.Start()
	if err := watcher.WatchFile(cfg.DatasetPath); err != nil {
		log.Printf("warning: cannot watch %s: %v", cfg.DatasetPath, err)
		watcher.Stop()
		return func() {}
	}
	return watcher.Stop
}

// setupLogFile mirrors the standard logger into dataDir/debug.log,
// truncating the file first once it grows past maxLogSize.
func setupLogFile(dataDir string) {
	path := filepath.Join(dataDir, logFileName)
	truncateLogFile(path, maxLogSize)
	f, err := os.OpenFile(
		path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600,
	)
	if err != nil {
		log.Printf("warning: cannot open log file: %v", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stderr, f))
}

// truncateLogFile empties path when it is a regular file larger than
// limit. Symlinks and missing files are left alone.
func truncateLogFile(path string, limit int64) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	if info.Size() <= limit {
		return
	}
	if err := os.Truncate(path, 0); err != nil {
		log.Printf("warning: cannot truncate log file: %v", err)
	}
}

// browserCommand returns the command that opens url: the configured
// browser if any, else the platform default.
func browserCommand(cfg config.Config, url string) ([]string, error) {
	argv, err := cfg.BrowserCommand()
	if err != nil {
		return nil, err
	}
	if len(argv) > 0 {
		return append(argv, url), nil
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"open", url}, nil
	case "linux":
		return []string{"xdg-open", url}, nil
	case "windows":
		return []string{"rundll32",
			"url.dll,FileProtocolHandler", url}, nil
	}
	return nil, nil
}

func openBrowser(cfg config.Config, url string) {
	for range browserPollAttempts {
		time.Sleep(browserPollInterval)
		resp, err := http.Get(url + "/api/v1/stats")
		if err == nil {
			resp.Body.Close()
			break
		}
	}

	argv, err := browserCommand(cfg, url)
	if err != nil {
		log.Printf("warning: invalid browser command: %v", err)
		return
	}
	if len(argv) == 0 {
		return
	}
	_ = exec.Command(argv[0], argv[1:]...).Run()
}
