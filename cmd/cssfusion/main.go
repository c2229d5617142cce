package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/drgsn/cssfusion/internal/core"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Command-line flags
var (
	outputPath    string
	configPath    string
	timeout       time.Duration
	maxFileSize   string
	maxOutputSize string
	maxDepth      int
	checkSyntax   bool
	noResolve     bool
	verbose       bool
	logFile       string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

// newRootCmd builds the command and binds its flags to the package-level
// flag variables, resetting them to their defaults
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cssfusion [flags] STYLESHEET",
		Short: "Cssfusion - flatten a stylesheet by inlining its @import rules",
		Long: `Cssfusion reads a stylesheet from a local path or an https URL, removes
comments and indentation, and replaces every @import url(...) rule with the
content of the imported stylesheet, recursively. The flattened CSS is written
to standard output or to the file given with --output.`,
		Args:          cobra.ExactArgs(1),
		RunE:          runFlatten,
		SilenceErrors: true,
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "output file path (.css, .json, .yaml or .yml)")
	flags.StringVar(&configPath, "config", "", "configuration file (.yaml, .yml or .toml)")
	flags.DurationVar(&timeout, "timeout", core.DefaultTimeout, "timeout for each remote fetch")
	flags.StringVar(&maxFileSize, "max-file-size", "10MB", "maximum size of a single stylesheet")
	flags.StringVar(&maxOutputSize, "max-output-size", "50MB", "maximum size of the output")
	flags.IntVar(&maxDepth, "max-depth", core.DefaultMaxDepth, "maximum length of an import chain")
	flags.BoolVar(&checkSyntax, "check", false, "check the flattened stylesheet for syntax errors")
	flags.BoolVar(&noResolve, "no-resolve", false, "use import locators as written instead of resolving them against the importing stylesheet")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log fetches and resolved imports")
	flags.StringVar(&logFile, "log-file", "", "write log messages to this file instead of stderr")

	return cmd
}

// main is the entry point of the application
func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runFlatten implements the main program logic
func runFlatten(cmd *cobra.Command, args []string) error {
	// Arguments are valid from here on; failures are not usage errors
	cmd.SilenceUsage = true

	config, err := validateAndGetConfig(cmd, args)
	if err != nil {
		return err
	}

	configureLogging(config.Verbose, config.LogFile)

	options := &core.MixOptions{
		OutputPath:      config.OutputPath,
		Stdout:          cmd.OutOrStdout(),
		MaxFileSize:     config.MaxFileSize,
		MaxOutputSize:   config.MaxOutputSize,
		MaxDepth:        config.MaxDepth,
		ResolveRelative: config.ResolveRelative,
		CheckSyntax:     config.CheckSyntax,
		OutputType:      config.OutputType,
	}

	loader := core.NewLoader(config.Timeout, config.MaxFileSize)
	mixer, err := core.NewMixer(options, loader)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := mixer.Mix(ctx, config.Locator)
	if err != nil {
		return err
	}

	generator, err := core.NewOutputGenerator(options)
	if err != nil {
		return fmt.Errorf("error creating output: %w", err)
	}

	if err := generator.Generate(result); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}

	if config.OutputPath != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Generated output: %s\n", config.OutputPath)
	}
	return nil
}

// configureLogging routes log messages to stderr, or to path when it is
// set. Only warnings and worse are shown unless verbose is set, which
// enables debug messages.
func configureLogging(verbose bool, path string) {
	var logPath *string
	if path != "" {
		logPath = &path
	}

	if verbose {
		commonlog.Configure(2, logPath)
		return
	}
	commonlog.Configure(-1, logPath)
}
