package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	// MissionNetCDFs is the per-vehicle directory that holds processed
	// mission files.
	MissionNetCDFs = "missionnetcdfs"

	DefaultVehicle  = "Dorado389"
	DefaultBasePath = "auv_data"
)

// verbosityLevels maps the -v count to a slog level name.
var verbosityLevels = []string{"warn", "info", "debug"}

// Config holds all run settings, populated from flags and environment
// variables.
type Config struct {
	Mission  string
	Vehicle  string
	BasePath string

	// InputPath and OutputPath default to the mission directory layout.
	InputPath  string
	OutputPath string

	LogLevel  string
	LogFormat string
	Plot      bool

	RulesFile       string
	MetricsTextfile string

	// StatusAddr serves health, status, and metrics during the run.
	// Disabled when empty.
	StatusAddr      string
	ShutdownTimeout time.Duration

	// Completion notification. Disabled when NotifyBrokers is empty.
	NotifyBrokers []string
	NotifyTopic   string
	NotifyTimeout time.Duration

	// CommandLine is the invocation recorded in output metadata.
	CommandLine string
}

// NotifyEnabled reports whether a completion event should be published.
func (c *Config) NotifyEnabled() bool { return len(c.NotifyBrokers) > 0 }

// MissionDir returns the directory holding the mission's files.
func (c *Config) MissionDir() string {
	return filepath.Join(c.BasePath, c.Vehicle, MissionNetCDFs, c.Mission)
}

// Load parses command-line args (without the program name) and reads
// environment variables, applying defaults where unset.
func Load(args []string) (*Config, error) {
	return load("align", args, io.Discard)
}

// LoadWithUsage is Load with flag errors and usage written to out.
func LoadWithUsage(program string, args []string, out io.Writer) (*Config, error) {
	return load(program, args, out)
}

func load(program string, args []string, out io.Writer) (*Config, error) {
	fs := flag.NewFlagSet(program, flag.ContinueOnError)
	fs.SetOutput(out)

	cfg := &Config{}
	fs.StringVar(&cfg.Mission, "mission", "", "Mission directory, e.g.: 2020.064.10")
	fs.StringVar(&cfg.Vehicle, "auv_name", DefaultVehicle, "Vehicle name, e.g. Dorado389, i2map, multibeam")
	fs.StringVar(&cfg.BasePath, "base_path", sharedcfg.EnvOrDefault("BASE_PATH", DefaultBasePath), "Base directory for mission data")
	fs.StringVar(&cfg.InputPath, "input", "", "Calibrated input file; overrides the mission layout")
	fs.StringVar(&cfg.OutputPath, "output", "", "Aligned output file; overrides the mission layout")
	fs.BoolVar(&cfg.Plot, "plot", false, "Plot data (not supported)")
	verbose := fs.Int("v", -1, "Verbosity level: 0 warn, 1 info, 2 debug")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg.LogLevel = sharedcfg.EnvOrDefault("LOG_LEVEL", "warn")
	if *verbose >= 0 {
		if *verbose >= len(verbosityLevels) {
			return nil, fmt.Errorf("invalid -v %d: must be 0, 1, or 2", *verbose)
		}
		cfg.LogLevel = verbosityLevels[*verbose]
	}
	cfg.LogFormat = sharedcfg.EnvOrDefault("LOG_FORMAT", "text")
	cfg.RulesFile = sharedcfg.EnvOrDefault("ALIGN_RULES_FILE", "")
	cfg.MetricsTextfile = sharedcfg.EnvOrDefault("METRICS_TEXTFILE", "")
	cfg.StatusAddr = sharedcfg.EnvOrDefault("STATUS_ADDR", "")
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	cfg.ShutdownTimeout = shutdownTimeout

	if brokers := sharedcfg.EnvOrDefault("NOTIFY_KAFKA_BROKERS", ""); brokers != "" {
		cfg.NotifyBrokers = sharedcfg.ParseBrokers(brokers)
	}
	cfg.NotifyTopic = sharedcfg.EnvOrDefault("NOTIFY_KAFKA_TOPIC", "auv-aligned-missions")
	notifyTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("NOTIFY_TIMEOUT", "10s"))
	if err != nil || notifyTimeout <= 0 {
		return nil, errors.New("invalid NOTIFY_TIMEOUT")
	}
	cfg.NotifyTimeout = notifyTimeout

	if cfg.Mission == "" && (cfg.InputPath == "" || cfg.OutputPath == "") {
		return nil, errors.New("-mission is required")
	}
	if cfg.Vehicle == "" {
		return nil, errors.New("-auv_name must not be empty")
	}
	if !validLevel(cfg.LogLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q", cfg.LogFormat)
	}
	if cfg.NotifyEnabled() && cfg.NotifyTopic == "" {
		return nil, errors.New("NOTIFY_KAFKA_TOPIC is required when NOTIFY_KAFKA_BROKERS is set")
	}

	if cfg.InputPath == "" {
		cfg.InputPath = filepath.Join(cfg.MissionDir(), fmt.Sprintf("%s_%s_cal.db", cfg.Vehicle, cfg.Mission))
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(cfg.MissionDir(), fmt.Sprintf("%s_%s_align.db", cfg.Vehicle, cfg.Mission))
	}
	cfg.CommandLine = strings.TrimSpace(program + " " + strings.Join(args, " "))

	return cfg, nil
}

func validLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}
