package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/shlex"
)

const (
	configFileName = "config.json"

	envDataDir = "INVENTORYVIEW_DATA_DIR"
	envDataset = "INVENTORYVIEW_DATASET"
	envBrowser = "INVENTORYVIEW_BROWSER"
)

// Config holds all application configuration.
type Config struct {
	Host      string `json:"host"`
	Port      int    `json:"port"`
	NoBrowser bool   `json:"no_browser"`
	DataDir   string `json:"data_dir"`
	// DatasetPath is a JSON or YAML dataset file. Empty means the
	// bundled seed dataset.
	DatasetPath string `json:"dataset,omitempty"`
	// DBPath is the SQLite file backing the dataset store. Empty
	// keeps the store in memory.
	DBPath string `json:"db_path,omitempty"`
	// Seed drives the synthetic trend series.
	Seed int64 `json:"seed"`
	// Browser is a command line used to open the UI, split with
	// shell quoting rules. Empty means the platform default.
	Browser      string        `json:"browser,omitempty"`
	Watch        bool          `json:"watch"`
	WriteTimeout time.Duration `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		Host:         "127.0.0.1",
		Port:         8080,
		DataDir:      filepath.Join(home, ".inventoryview"),
		Seed:         1,
		Watch:        true,
		WriteTimeout: 30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file, and env,
// without parsing CLI flags. Use this for subcommands that manage
// their own flag sets.
func LoadMinimal() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir decides where the config file lives, so its
	// env override applies first.
	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, configFileName)
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host        string `json:"host"`
		Port        int    `json:"port"`
		NoBrowser   *bool  `json:"no_browser"`
		DatasetPath string `json:"dataset"`
		DBPath      string `json:"db_path"`
		Seed        *int64 `json:"seed"`
		Browser     string `json:"browser"`
		Watch       *bool  `json:"watch"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.NoBrowser != nil {
		c.NoBrowser = *file.NoBrowser
	}
	if file.DatasetPath != "" {
		c.DatasetPath = c.resolvePath(file.DatasetPath)
	}
	if file.DBPath != "" {
		c.DBPath = c.resolvePath(file.DBPath)
	}
	if file.Seed != nil {
		c.Seed = *file.Seed
	}
	if file.Browser != "" {
		c.Browser = file.Browser
	}
	if file.Watch != nil {
		c.Watch = *file.Watch
	}
	return nil
}

// resolvePath makes config-file paths relative to the data dir.
func (c *Config) resolvePath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}

func (c *Config) loadEnv() {
	if v := os.Getenv(envDataset); v != "" {
		c.DatasetPath = v
	}
	if v := os.Getenv(envBrowser); v != "" {
		c.Browser = v
	}
}

// BrowserCommand splits Browser into argv. It returns nil when no
// browser command is configured.
func (c *Config) BrowserCommand() ([]string, error) {
	if c.Browser == "" {
		return nil, nil
	}
	args, err := shlex.Split(c.Browser)
	if err != nil {
		return nil, fmt.Errorf("parsing browser command: %w", err)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8080, "Port to listen on")
	fs.Bool(
		"no-browser", false,
		"Don't open browser on startup",
	)
	RegisterDataFlags(fs)
	fs.Bool("watch", true, "Reload the dataset file when it changes")
}

// RegisterDataFlags registers the dataset flags shared by every
// subcommand that reads reports.
func RegisterDataFlags(fs *flag.FlagSet) {
	fs.String("data", "", "Dataset file (JSON or YAML)")
	fs.Int64("seed", 1, "Seed for synthetic trend series")
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "no-browser":
			cfg.NoBrowser = f.Value.String() == "true"
		case "data":
			cfg.DatasetPath = f.Value.String()
		case "seed":
			cfg.Seed, _ = strconv.ParseInt(f.Value.String(), 10, 64)
		case "watch":
			cfg.Watch = f.Value.String() == "true"
		}
	})
}

// ResolveDataDir returns the effective data directory by applying
// defaults and environment overrides, without reading any files.
func ResolveDataDir() (string, error) {
	cfg, err := Default()
	if err != nil {
		return "", err
	}
	if v := os.Getenv(envDataDir); v != "" {
		cfg.DataDir = v
	}
	return cfg.DataDir, nil
}

// SaveDataset persists the dataset path to the config file,
// keeping any other keys already there.
func (c *Config) SaveDataset(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving dataset path: %w", err)
	}
	if err := c.save("dataset", abs); err != nil {
		return err
	}
	c.DatasetPath = abs
	return nil
}

func (c *Config) save(key string, value any) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	existing := make(map[string]any)
	data, err := os.ReadFile(c.configPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf(
				"existing config is invalid, cannot update: %w",
				err,
			)
		}
	}

	existing[key] = value
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(c.configPath(), out, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
