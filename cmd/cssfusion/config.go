package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/drgsn/cssfusion/internal/core"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config holds the validated configuration for one run
type Config struct {
	Locator         string
	OutputPath      string
	OutputType      core.OutputType
	Timeout         time.Duration
	MaxFileSize     int64
	MaxOutputSize   int64
	MaxDepth        int
	CheckSyntax     bool
	ResolveRelative bool
	Verbose         bool
	LogFile         string
}

// FileConfig is the content of a configuration file. Unset fields leave
// the flag defaults in place; flags given on the command line win over
// the file.
type FileConfig struct {
	Output          string `yaml:"output" toml:"output"`
	Timeout         string `yaml:"timeout" toml:"timeout"`
	MaxFileSize     string `yaml:"max_file_size" toml:"max_file_size"`
	MaxOutputSize   string `yaml:"max_output_size" toml:"max_output_size"`
	MaxDepth        int    `yaml:"max_depth" toml:"max_depth"`
	Check           *bool  `yaml:"check" toml:"check"`
	ResolveRelative *bool  `yaml:"resolve_relative" toml:"resolve_relative"`
	Verbose         *bool  `yaml:"verbose" toml:"verbose"`
	LogFile         string `yaml:"log_file" toml:"log_file"`
}

// loadFileConfig reads a YAML or TOML configuration file, chosen by
// extension. Unknown keys are rejected.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg FileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("invalid config file %s: unknown key %q", path, undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("invalid config file extension: must be .yaml, .yml, or .toml")
	}

	return &cfg, nil
}

// validateAndGetConfig merges flags and the optional config file and
// validates the result
func validateAndGetConfig(cmd *cobra.Command, args []string) (*Config, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return nil, fmt.Errorf("exactly one stylesheet locator is required")
	}

	fileCfg := &FileConfig{}
	if configPath != "" {
		loaded, err := loadFileConfig(configPath)
		if err != nil {
			return nil, err
		}
		fileCfg = loaded
	}

	flags := cmd.Flags()
	useFile := func(name string, set bool) bool {
		return set && !flags.Changed(name)
	}

	out := outputPath
	if useFile("output", fileCfg.Output != "") {
		out = fileCfg.Output
	}

	fetchTimeout := timeout
	if useFile("timeout", fileCfg.Timeout != "") {
		parsed, err := time.ParseDuration(fileCfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value: %w", err)
		}
		fetchTimeout = parsed
	}
	if fetchTimeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	fileSize := maxFileSize
	if useFile("max-file-size", fileCfg.MaxFileSize != "") {
		fileSize = fileCfg.MaxFileSize
	}
	maxFileSizeBytes, err := core.ParseSize(fileSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max-file-size value: %w", err)
	}

	outputSize := maxOutputSize
	if useFile("max-output-size", fileCfg.MaxOutputSize != "") {
		outputSize = fileCfg.MaxOutputSize
	}
	maxOutputSizeBytes, err := core.ParseSize(outputSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max-output-size value: %w", err)
	}

	depth := maxDepth
	if useFile("max-depth", fileCfg.MaxDepth != 0) {
		depth = fileCfg.MaxDepth
	}
	if depth <= 0 {
		return nil, fmt.Errorf("max-depth must be positive")
	}

	check := checkSyntax
	if useFile("check", fileCfg.Check != nil) {
		check = *fileCfg.Check
	}

	resolve := !noResolve
	if useFile("no-resolve", fileCfg.ResolveRelative != nil) {
		resolve = *fileCfg.ResolveRelative
	}

	beVerbose := verbose
	if useFile("verbose", fileCfg.Verbose != nil) {
		beVerbose = *fileCfg.Verbose
	}

	logPath := logFile
	if useFile("log-file", fileCfg.LogFile != "") {
		logPath = fileCfg.LogFile
	}

	outputType, err := core.OutputTypeFor(out)
	if err != nil {
		return nil, err
	}

	return &Config{
		Locator:         args[0],
		OutputPath:      out,
		OutputType:      outputType,
		Timeout:         fetchTimeout,
		MaxFileSize:     maxFileSizeBytes,
		MaxOutputSize:   maxOutputSizeBytes,
		MaxDepth:        depth,
		CheckSyntax:     check,
		ResolveRelative: resolve,
		Verbose:         beVerbose,
		LogFile:         logPath,
	}, nil
}
