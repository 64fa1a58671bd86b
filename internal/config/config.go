// Package config handles application configuration and command-line argument parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/pelletier/go-toml/v2"

	"github.com/joe/batch-files/internal/pipeline"
)

// Exported constants.
const (
	// OutputSuffix is appended to the input directory to form the default output directory
	OutputSuffix = "-out"
	// DefaultLogLevel is used when no level is configured
	DefaultLogLevel = "info"
	// DefaultLogFormat is used when no format is configured
	DefaultLogFormat = "text"
)

// Exported variables.
var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds the application configuration
type Config struct {
	InputPath  string        `arg:"-i,--input" help:"Directory to process (walked recursively)"`
	OutputPath string        `arg:"-o,--output" help:"Output directory (default: <input>-out)"`
	Filter     string        `arg:"-f,--filter" help:"File name patterns separated by ';' or spaces, e.g. '*.wav;*.flac' (default: all files)"`
	Tool       string        `arg:"-t,--tool" help:"Program to run once per file (default: copy into the output directory)"`
	ToolArgs   string        `arg:"-a,--args" help:"Tool arguments; placeholders {input} {output} {outdir} {name} {stem}"`
	Workers    int           `arg:"-w,--workers" help:"Processing workers (0 = available parallelism, never fewer than 2)"`
	Timeout    time.Duration `arg:"--timeout" help:"Per-file tool time limit, e.g. 90s (0 = none)"`
	ConfigFile string        `arg:"--config" help:"TOML file supplying defaults for any flag not given"`
	LogFile    string        `arg:"--log-file" help:"Write the log to this file"`
	LogLevel   string        `arg:"--log-level" help:"debug|info|warn|error"`
	LogFormat  string        `arg:"--log-format" help:"text|json"`
	Plain      bool          `arg:"--plain" help:"Print plain progress lines instead of the terminal UI"`
}

// File mirrors Config for the optional TOML file.
type File struct {
	Input     string `toml:"input"`
	Output    string `toml:"output"`
	Filter    string `toml:"filter"`
	Tool      string `toml:"tool"`
	Args      string `toml:"args"`
	Workers   int    `toml:"workers"`
	Timeout   string `toml:"timeout"`
	LogFile   string `toml:"log_file"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Plain     bool   `toml:"plain"`
}

// Description returns the program description for go-arg
func (Config) Description() string {
	return "Apply a tool to every file under a directory, in parallel, with a live progress view"
}

// Version returns the version string for go-arg
func (Config) Version() string {
	return "batch-files 1.0.0"
}

// ParseFlags parses command-line flags and returns configuration.
// It exits the process on --help, --version, and usage errors.
func ParseFlags() (*Config, error) {
	probe := &Config{}
	parser := arg.MustParse(probe)

	cfg, err := Load(os.Args[1:])
	if err != nil {
		var usage *UsageError
		if errors.As(err, &usage) {
			parser.Fail(usage.Error())
		}

		return nil, err
	}

	return cfg, nil
}

// UsageError reports command-line arguments go-arg could not parse.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Load parses args on top of the TOML file named by --config, if any, and
// post-processes the result. Values given on the command line win.
func Load(args []string) (*Config, error) {
	probe := &Config{}

	err := parseArgs(probe, args)
	if err != nil {
		return nil, err
	}

	cfg := probe

	if probe.ConfigFile != "" {
		cfg, err = LoadFile(probe.ConfigFile)
		if err != nil {
			return nil, err
		}

		cfg.ConfigFile = probe.ConfigFile

		err = parseArgs(cfg, args)
		if err != nil {
			return nil, err
		}
	}

	return PostProcessConfig(cfg)
}

func parseArgs(dest *Config, args []string) error {
	parser, err := arg.NewParser(arg.Config{Program: "batch-files"}, dest)
	if err != nil {
		return fmt.Errorf("failed to build argument parser: %w", err)
	}

	err = parser.Parse(args)
	if err != nil {
		return &UsageError{Err: err}
	}

	return nil
}

// LoadFile reads a TOML configuration file into a Config.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is chosen by the user
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	var file File

	err = toml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := &Config{
		InputPath:  file.Input,
		OutputPath: file.Output,
		Filter:     file.Filter,
		Tool:       file.Tool,
		ToolArgs:   file.Args,
		Workers:    file.Workers,
		LogFile:    file.LogFile,
		LogLevel:   file.LogLevel,
		LogFormat:  file.LogFormat,
		Plain:      file.Plain,
	}

	if file.Timeout != "" {
		cfg.Timeout, err = time.ParseDuration(file.Timeout)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: timeout: %w", path, err)
		}
	}

	return cfg, nil
}

// PostProcessConfig applies defaults to a parsed config and validates it
func PostProcessConfig(cfg *Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}

	if cfg.OutputPath == "" && cfg.InputPath != "" {
		cfg.OutputPath = DefaultOutputPath(cfg.InputPath)
	}

	err := cfg.absolutize()
	if err != nil {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// absolutize resolves the input and output paths against the working directory.
func (cfg *Config) absolutize() error {
	for _, path := range []*string{&cfg.InputPath, &cfg.OutputPath} {
		if *path == "" {
			continue
		}

		abs, err := filepath.Abs(*path)
		if err != nil {
			return fmt.Errorf("%w: cannot resolve %s: %w", ErrInvalidConfig, *path, err)
		}

		*path = abs
	}

	return nil
}

// DefaultOutputPath returns the sibling directory <input>-out.
func DefaultOutputPath(input string) string {
	return filepath.Clean(input) + OutputSuffix
}

// Validate checks the configuration before a run is attempted
func (cfg *Config) Validate() error {
	if cfg.InputPath == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfig)
	}

	info, err := os.Stat(cfg.InputPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: input path does not exist: %s", ErrInvalidConfig, cfg.InputPath)
	}

	if err != nil {
		return fmt.Errorf("%w: cannot access input path: %w", ErrInvalidConfig, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: input path is not a directory: %s", ErrInvalidConfig, cfg.InputPath)
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative: %d", ErrInvalidConfig, cfg.Workers)
	}

	if cfg.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative: %v", ErrInvalidConfig, cfg.Timeout)
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q (valid: debug, info, warn, error)", ErrInvalidConfig, cfg.LogLevel)
	}

	switch strings.ToLower(cfg.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q (valid: text, json)", ErrInvalidConfig, cfg.LogFormat)
	}

	return nil
}

// ToRun converts the configuration into a pipeline run configuration
func (cfg *Config) ToRun() pipeline.RunConfiguration {
	return pipeline.RunConfiguration{
		InputDir:  cfg.InputPath,
		OutputDir: cfg.OutputPath,
		Filter:    cfg.Filter,
		Tool:      cfg.Tool,
		ToolArgs:  cfg.ToolArgs,
	}
}

// Parallelism returns the available parallelism to size the pool with.
func (cfg *Config) Parallelism() int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}

	return pipeline.AvailableParallelism()
}
