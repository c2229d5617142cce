package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

func setupRootCmd() (*bytes.Buffer, *bytes.Buffer) {
	// Reset the command and its flags completely
	rootCmd = newRootCmd()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return stdout, stderr
}

func writeStylesheets(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create test file %s: %v", name, err)
		}
	}
}

func TestFlattenToStdout(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{
		"main.css":        "@import url(base.css);\n/* site */\n.x {\n  color: red;\n}\n",
		"base.css":        "@import url(parts/reset.css);\n.y{color:blue}\n",
		"parts/reset.css": "html{margin:0}",
	})

	stdout, _ := setupRootCmd()
	rootCmd.SetArgs([]string{filepath.Join(tmpDir, "main.css")})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Command execution failed: %v", err)
	}

	expected := "html{margin:0}.y{color:blue}.x {color: red;}\n"
	if stdout.String() != expected {
		t.Errorf("Expected %q, got %q", expected, stdout.String())
	}
}

func TestRootCommandFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		expectedError string
	}{
		{
			name:          "no stylesheet",
			args:          []string{},
			expectedError: "accepts 1 arg(s), received 0",
		},
		{
			name:          "two stylesheets",
			args:          []string{"a.css", "b.css"},
			expectedError: "accepts 1 arg(s), received 2",
		},
		{
			name:          "invalid max file size format",
			args:          []string{"--max-file-size", "10Z", "main.css"},
			expectedError: "invalid max-file-size value: invalid size format: must end with B, KB, MB, GB, or TB",
		},
		{
			name:          "negative max output size",
			args:          []string{"--max-output-size", "-5MB", "main.css"},
			expectedError: "invalid max-output-size value: size must be a positive number",
		},
		{
			name:          "invalid output extension",
			args:          []string{"--output", "output.txt", "main.css"},
			expectedError: "invalid output file extension: must be .css, .json, .yaml, or .yml",
		},
		{
			name:          "zero max depth",
			args:          []string{"--max-depth", "0", "main.css"},
			expectedError: "max-depth must be positive",
		},
		{
			name:          "missing config file",
			args:          []string{"--config", "settings.ini", "main.css"},
			expectedError: "error reading config file: open settings.ini: no such file or directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupRootCmd()
			rootCmd.SetArgs(tt.args)
			err := rootCmd.Execute()

			if err == nil {
				t.Error("Expected error but got none")
				return
			}

			if err.Error() != tt.expectedError {
				t.Errorf("Expected error %q, got %q", tt.expectedError, err.Error())
			}
		})
	}
}

func TestUsageOnMissingStylesheet(t *testing.T) {
	stdout, stderr := setupRootCmd()
	rootCmd.SetArgs([]string{})

	if err := rootCmd.Execute(); err == nil {
		t.Fatal("Expected error but got none")
	}

	// cobra prints usage to the configured output writer
	printed := stdout.String() + stderr.String()
	if !strings.Contains(printed, "Usage:") {
		t.Errorf("Expected usage, got %q", printed)
	}
}

func TestRuntimeErrorsSkipUsage(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{
		"main.css": `@import "bare.css";`,
	})

	stdout, stderr := setupRootCmd()
	rootCmd.SetArgs([]string{filepath.Join(tmpDir, "main.css")})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "malformed @import") {
		t.Errorf("Expected malformed @import error, got %q", err.Error())
	}
	if printed := stdout.String() + stderr.String(); strings.Contains(printed, "Usage:") {
		t.Errorf("Did not expect usage for a runtime error, got %q", printed)
	}
}

func TestOutputContents(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{
		"main.css": "@import url(a.css);.x{color:red}",
		"a.css":    ".y{color:blue}",
	})

	tests := []struct {
		name       string
		outputFlag string
		check      func(t *testing.T, content []byte)
	}{
		{
			name:       "CSS output",
			outputFlag: "flat.css",
			check: func(t *testing.T, content []byte) {
				if string(content) != ".y{color:blue}.x{color:red}" {
					t.Errorf("Unexpected CSS output %q", content)
				}
			},
		},
		{
			name:       "JSON output",
			outputFlag: "flat.json",
			check: func(t *testing.T, content []byte) {
				var doc struct {
					Imports []string `json:"imports"`
					Content string   `json:"content"`
				}
				if err := json.Unmarshal(content, &doc); err != nil {
					t.Fatalf("Invalid JSON output: %v", err)
				}
				if len(doc.Imports) != 1 || doc.Imports[0] != filepath.Join(tmpDir, "a.css") {
					t.Errorf("Unexpected imports %v", doc.Imports)
				}
				if doc.Content != ".y{color:blue}.x{color:red}" {
					t.Errorf("Unexpected content %q", doc.Content)
				}
			},
		},
		{
			name:       "YAML output",
			outputFlag: "flat.yaml",
			check: func(t *testing.T, content []byte) {
				var doc struct {
					RuleCount int    `yaml:"rule_count"`
					Content   string `yaml:"content"`
				}
				if err := yaml.Unmarshal(content, &doc); err != nil {
					t.Fatalf("Invalid YAML output: %v", err)
				}
				if doc.RuleCount != 2 {
					t.Errorf("Expected 2 rules, got %d", doc.RuleCount)
				}
				if doc.Content != ".y{color:blue}.x{color:red}" {
					t.Errorf("Unexpected content %q", doc.Content)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outputPath := filepath.Join(tmpDir, tt.outputFlag)

			stdout, stderr := setupRootCmd()
			rootCmd.SetArgs([]string{
				"--output", outputPath,
				filepath.Join(tmpDir, "main.css"),
			})

			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("Command execution failed: %v", err)
			}

			if stdout.Len() != 0 {
				t.Errorf("Expected nothing on stdout, got %q", stdout.String())
			}
			if !strings.Contains(stderr.String(), "Generated output: "+outputPath) {
				t.Errorf("Expected generated output notice, got %q", stderr.String())
			}

			content, err := os.ReadFile(outputPath)
			if err != nil {
				t.Fatalf("Failed to read output file: %v", err)
			}
			tt.check(t, content)
		})
	}
}

func TestNoPartialOutputOnError(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{
		"a.css": "@import url(b.css);.a{}",
		"b.css": "@import url(a.css);.b{}",
	})
	outputPath := filepath.Join(tmpDir, "flat.css")

	setupRootCmd()
	rootCmd.SetArgs([]string{"-o", outputPath, filepath.Join(tmpDir, "a.css")})

	err := rootCmd.Execute()
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !strings.Contains(err.Error(), "import cycle") {
		t.Errorf("Expected import cycle error, got %q", err.Error())
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Errorf("Expected no output file, got %v", statErr)
	}
}

func TestVerboseLogsImports(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{
		"main.css": "@import url(a.css);.x{color:red}",
		"a.css":    ".y{color:blue}",
	})
	logPath := filepath.Join(tmpDir, "cssfusion.log")

	setupRootCmd()
	rootCmd.SetArgs([]string{"-v", "--log-file", logPath, filepath.Join(tmpDir, "main.css")})
	require.NoError(t, rootCmd.Execute())

	assert.True(t, commonlog.AllowLevel(commonlog.Debug, "cssfusion", "core"))

	// the log writer flushes on its own goroutine
	assert.Eventually(t, func() bool {
		content, err := os.ReadFile(logPath)
		return err == nil &&
			strings.Contains(string(content), "importing "+filepath.Join(tmpDir, "a.css")) &&
			strings.Contains(string(content), "reading "+filepath.Join(tmpDir, "main.css"))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestQuietLogsWarnings(t *testing.T) {
	tmpDir := t.TempDir()
	writeStylesheets(t, tmpDir, map[string]string{"main.css": ".x{}"})

	setupRootCmd()
	rootCmd.SetArgs([]string{"--log-file", filepath.Join(tmpDir, "cssfusion.log"), filepath.Join(tmpDir, "main.css")})
	require.NoError(t, rootCmd.Execute())

	assert.True(t, commonlog.AllowLevel(commonlog.Warning, "cssfusion", "core"))
	assert.False(t, commonlog.AllowLevel(commonlog.Info, "cssfusion", "core"))
	assert.False(t, commonlog.AllowLevel(commonlog.Debug, "cssfusion", "core"))
}
