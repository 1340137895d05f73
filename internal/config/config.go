package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/atomicstack/keyspace-browser/internal/app"
	"github.com/atomicstack/keyspace-browser/internal/backend"
	"github.com/atomicstack/keyspace-browser/internal/keytree"
)

// Config captures runtime configuration for the application.
type Config struct {
	App      app.Config
	Logging  Logging
	Features Features
	Flags    map[string]string
	Args     []string
}

type Logging struct {
	FilePath  string
	Trace     bool
	MaxSizeMB int
}

type Features struct {
	Verbose bool
}

const (
	envStore         = "KEYSPACE_BROWSER_STORE"
	envSeed          = "KEYSPACE_BROWSER_SEED"
	envReadOnly      = "KEYSPACE_BROWSER_READ_ONLY"
	envSeparator     = "KEYSPACE_BROWSER_SEPARATOR"
	envFilter        = "KEYSPACE_BROWSER_FILTER"
	envFetchTimeout  = "KEYSPACE_BROWSER_FETCH_TIMEOUT"
	envCountInterval = "KEYSPACE_BROWSER_COUNT_INTERVAL"
	envWorkers       = "KEYSPACE_BROWSER_WORKERS"
	envWidth         = "KEYSPACE_BROWSER_WIDTH"
	envHeight        = "KEYSPACE_BROWSER_HEIGHT"
	envShowFooter    = "KEYSPACE_BROWSER_FOOTER"
	envVerbose       = "KEYSPACE_BROWSER_VERBOSE"
	envTrace         = "KEYSPACE_BROWSER_TRACE"
	envLogFile       = "KEYSPACE_BROWSER_LOG_FILE"
	envLogMaxSize    = "KEYSPACE_BROWSER_LOG_MAX_SIZE"
	envMetricsAddr   = "KEYSPACE_BROWSER_METRICS_ADDR"
)

const (
	defaultStore         = "memory://"
	defaultSeparator     = ":"
	defaultCountInterval = 5 * time.Second
)

// Flags holds the values bound to one flag set. Environment variables
// provide the defaults, so an explicit flag always wins.
type Flags struct {
	store         *string
	seed          *string
	readOnly      *bool
	separator     *string
	filter        *string
	fetchTimeout  *time.Duration
	countInterval *time.Duration
	workers       *int
	width         *int
	height        *int
	footer        *bool
	verbose       *bool
	trace         *bool
	logFile       *string
	logMaxSize    *int
	metricsAddr   *string
}

// Register defines every runtime flag on fs.
func Register(fs *pflag.FlagSet, environ []string) *Flags {
	env := parseEnv(environ)
	return &Flags{
		store:         fs.String("store", envOrDefault(env, envStore, defaultStore), "store URL (memory://, sqlite://, postgres://, consul://, etcd://, s3://)"),
		seed:          fs.String("seed", envOrDefault(env, envSeed, ""), "YAML fixture loaded into a memory:// store"),
		readOnly:      fs.Bool("read-only", envOrBool(env, envReadOnly, false), "reject writes such as adding keys"),
		separator:     fs.String("separator", envOrDefault(env, envSeparator, defaultSeparator), "namespace separator used to group keys (empty disables grouping)"),
		filter:        fs.String("filter", envOrDefault(env, envFilter, ""), "key filter applied to every database (substring, re:REGEX or ~fuzzy)"),
		fetchTimeout:  fs.Duration("fetch-timeout", envOrDuration(env, envFetchTimeout, backend.DefaultFetchTimeout), "give up on a key listing after this long"),
		countInterval: fs.Duration("count-interval", envOrDuration(env, envCountInterval, defaultCountInterval), "how often databases and key counts are polled"),
		workers:       fs.Int("workers", envOrInt(env, envWorkers, 0), "maximum concurrent fetch/render tasks for headless commands (0 is unbounded)"),
		width:         fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)"),
		height:        fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)"),
		footer:        fs.Bool("footer", envOrBool(env, envShowFooter, false), "enable footer hint row (disabled by default)"),
		verbose:       fs.Bool("verbose", envOrBool(env, envVerbose, false), "print success messages for actions"),
		trace:         fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging"),
		logFile:       fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file"),
		logMaxSize:    fs.Int("log-max-size", envOrInt(env, envLogMaxSize, 0), "rotate the log file after this many megabytes (0 keeps the default)"),
		metricsAddr:   fs.String("metrics-addr", envOrDefault(env, envMetricsAddr, ""), "serve Prometheus metrics on this address"),
	}
}

// Config assembles the configuration from the parsed flags. args is echoed
// for trace payloads.
func (f *Flags) Config(args []string) (Config, error) {
	if *f.width < 0 {
		return Config{}, fmt.Errorf("width must be >= 0 (got %d)", *f.width)
	}
	if *f.height < 0 {
		return Config{}, fmt.Errorf("height must be >= 0 (got %d)", *f.height)
	}

	cfg := Config{
		App: app.Config{
			Store:         strings.TrimSpace(*f.store),
			Seed:          *f.seed,
			ReadOnly:      *f.readOnly,
			Separator:     *f.separator,
			Filter:        *f.filter,
			FetchTimeout:  *f.fetchTimeout,
			CountInterval: *f.countInterval,
			Workers:       *f.workers,
			Width:         *f.width,
			Height:        *f.height,
			ShowFooter:    *f.footer,
			Verbose:       *f.verbose,
			MetricsAddr:   *f.metricsAddr,
		},
		Logging: Logging{
			FilePath:  *f.logFile,
			Trace:     *f.trace,
			MaxSizeMB: *f.logMaxSize,
		},
		Features: Features{
			Verbose: *f.verbose,
		},
		Flags: map[string]string{
			"store":         *f.store,
			"seed":          *f.seed,
			"readOnly":      strconv.FormatBool(*f.readOnly),
			"separator":     *f.separator,
			"filter":        *f.filter,
			"fetchTimeout":  f.fetchTimeout.String(),
			"countInterval": f.countInterval.String(),
			"workers":       strconv.Itoa(*f.workers),
			"width":         strconv.Itoa(*f.width),
			"height":        strconv.Itoa(*f.height),
			"footer":        strconv.FormatBool(*f.footer),
			"trace":         strconv.FormatBool(*f.trace),
			"verbose":       strconv.FormatBool(*f.verbose),
			"logFile":       *f.logFile,
			"logMaxSize":    strconv.Itoa(*f.logMaxSize),
			"metricsAddr":   *f.metricsAddr,
		},
		Args: append([]string(nil), args...),
	}
	return cfg, nil
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	fs := pflag.NewFlagSet("keyspace-browser", pflag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))
	flags := Register(fs, environ)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return flags.Config(args)
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects settings that would only fail later, once the UI is up.
func Validate(cfg Config) error {
	if !strings.Contains(cfg.App.Store, "://") {
		return errors.Errorf("store %q must be a URL such as memory://", cfg.App.Store)
	}
	if cfg.App.FetchTimeout <= 0 {
		return errors.Errorf("fetch-timeout must be positive (got %s)", cfg.App.FetchTimeout)
	}
	if cfg.App.CountInterval <= 0 {
		return errors.Errorf("count-interval must be positive (got %s)", cfg.App.CountInterval)
	}
	if cfg.App.Workers < 0 {
		return errors.Errorf("workers must be >= 0 (got %d)", cfg.App.Workers)
	}
	if cfg.Logging.MaxSizeMB < 0 {
		return errors.Errorf("log-max-size must be >= 0 (got %d)", cfg.Logging.MaxSizeMB)
	}
	if _, err := keytree.ParseFilter(cfg.App.Filter); err != nil {
		return err
	}
	return nil
}
