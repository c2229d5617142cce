package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// OutputGenerator writes a Result to a file or to the configured writer
type OutputGenerator struct {
	options *MixOptions
}

// report is the document written for JSON and YAML output.
type report struct {
	Source    string   `json:"source" yaml:"source"`
	Imports   []string `json:"imports" yaml:"imports"`
	RuleCount int      `json:"rule_count" yaml:"rule_count"`
	Content   string   `json:"content" yaml:"content"`
}

// NewOutputGenerator creates a new OutputGenerator instance
func NewOutputGenerator(options *MixOptions) (*OutputGenerator, error) {
	if options == nil {
		return nil, &MixError{Message: "output options are required"}
	}
	if options.OutputPath == "" && options.Stdout == nil {
		return nil, &MixError{Message: "either an output path or a writer is required"}
	}
	return &OutputGenerator{options: options}, nil
}

// OutputTypeFor derives the output type from an output path extension.
// An empty path selects plain CSS.
func OutputTypeFor(outputPath string) (OutputType, error) {
	if outputPath == "" {
		return OutputTypeCSS, nil
	}

	ext := strings.ToLower(filepath.Ext(outputPath))
	switch ext {
	case ".css":
		return OutputTypeCSS, nil
	case ".json":
		return OutputTypeJSON, nil
	case ".yaml", ".yml":
		return OutputTypeYAML, nil
	default:
		return "", fmt.Errorf("invalid output file extension: must be .css, .json, .yaml, or .yml")
	}
}

// Generate writes result. Without an output path the flattened CSS goes
// to the configured writer followed by a newline. Otherwise it is written
// to a temporary file that replaces the output path only once it is
// complete and within MaxOutputSize.
func (g *OutputGenerator) Generate(result *Result) error {
	if g.options.OutputPath == "" {
		if err := g.checkSize(int64(len(result.CSS))); err != nil {
			return err
		}
		_, err := fmt.Fprintln(g.options.Stdout, result.CSS)
		return err
	}

	// Create the temporary file next to the destination so the rename
	// stays on one filesystem
	tempFile, err := os.CreateTemp(filepath.Dir(g.options.OutputPath), ".cssfusion-*")
	if err != nil {
		return &MixError{
			File:    g.options.OutputPath,
			Message: fmt.Sprintf("error creating temporary file: %v", err),
		}
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	outputType := g.options.OutputType
	if outputType == "" {
		outputType = OutputTypeCSS
	}

	switch outputType {
	case OutputTypeCSS:
		_, err = io.WriteString(tempFile, result.CSS)
	case OutputTypeJSON:
		err = g.generateJSON(tempFile, result)
	case OutputTypeYAML:
		err = g.generateYAML(tempFile, result)
	default:
		err = &MixError{Message: fmt.Sprintf("unsupported output type: %s", outputType)}
	}
	if closeErr := tempFile.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	info, err := os.Stat(tempPath)
	if err != nil {
		return &MixError{Message: fmt.Sprintf("error checking output file size: %v", err)}
	}
	if err := g.checkSize(info.Size()); err != nil {
		return err
	}

	// Move temp file to final destination
	return os.Rename(tempPath, g.options.OutputPath)
}

func (g *OutputGenerator) checkSize(size int64) error {
	if g.options.MaxOutputSize > 0 && size > g.options.MaxOutputSize {
		return &MixError{
			File: g.options.OutputPath,
			Message: fmt.Sprintf("output size (%s) exceeds maximum allowed size (%s)",
				formatSize(size), formatSize(g.options.MaxOutputSize)),
		}
	}
	return nil
}

func newReport(result *Result) report {
	imports := result.Imports
	if imports == nil {
		imports = []string{}
	}
	return report{
		Source:    result.Source,
		Imports:   imports,
		RuleCount: len(result.Rules),
		Content:   result.CSS,
	}
}

// generateJSON writes the report in JSON format
func (g *OutputGenerator) generateJSON(w io.Writer, result *Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(newReport(result)); err != nil {
		return &MixError{Message: fmt.Sprintf("error encoding JSON: %v", err)}
	}
	return nil
}

// generateYAML writes the report in YAML format
func (g *OutputGenerator) generateYAML(w io.Writer, result *Result) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(newReport(result)); err != nil {
		return &MixError{Message: fmt.Sprintf("error encoding YAML: %v", err)}
	}
	if err := encoder.Close(); err != nil {
		return &MixError{Message: fmt.Sprintf("error encoding YAML: %v", err)}
	}
	return nil
}
