package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/drgsn/cssfusion/internal/core/cleaner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStylesheets(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func defaultMixOptions() *MixOptions {
	return &MixOptions{
		MaxFileSize:     10 * 1024 * 1024,
		MaxDepth:        DefaultMaxDepth,
		ResolveRelative: true,
		OutputType:      OutputTypeCSS,
	}
}

func TestMixerMix(t *testing.T) {
	dir := setupStylesheets(t, map[string]string{
		"main.css": "/* entry */\n@import url(base.css);\n@import url(\"layout/grid.css\");\n\n.page {\n  color: red;\n}\n",
		"base.css": "@charset \"utf-8\";\nhtml {\n  margin: 0;\n}\n",
		"layout/grid.css": "@import url(../base.css);\n@media (max-width:100px){\n  .grid{display:block}\n}\n",
	})

	mixer, err := NewMixer(defaultMixOptions(), NewLoader(0, 0))
	require.NoError(t, err)

	main := filepath.Join(dir, "main.css")
	result, err := mixer.Mix(context.Background(), main)
	require.NoError(t, err)

	base := `@charset "utf-8";html {margin: 0;}`
	grid := "@media (max-width:100px){.grid{display:block}}"
	assert.Equal(t, base+base+grid+".page {color: red;}", result.CSS)
	assert.Equal(t, main, result.Source)
	assert.Equal(t, []string{
		filepath.Join(dir, "base.css"),
		filepath.Join(dir, "layout", "grid.css"),
		filepath.Join(dir, "base.css"),
	}, result.Imports)
	assert.Len(t, result.Rules, 6)
	assert.Equal(t, result.CSS, Render(result.Rules))
}

func TestMixerRoundTrip(t *testing.T) {
	inputs := []string{
		".x{color:red}",
		"a, b > c { color: red; margin: 0 auto; }",
		"@media (max-width:100px){.x{color:red}}",
		"@font-face{font-family:A}.x{font-family:A}",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			mixer, err := NewMixer(defaultMixOptions(), &mapFetcher{files: map[string]string{"in.css": input}})
			require.NoError(t, err)

			result, err := mixer.Mix(context.Background(), "in.css")
			require.NoError(t, err)
			assert.Equal(t, input, result.CSS)
			assert.Empty(t, result.Imports)
		})
	}
}

func TestMixerErrors(t *testing.T) {
	tests := []struct {
		name   string
		files  map[string]string
		target any
	}{
		{
			name:   "missing stylesheet",
			files:  map[string]string{},
			target: new(*IOError),
		},
		{
			name:   "bare import",
			files:  map[string]string{"main.css": `@import "bare.css";`},
			target: new(*MalformedDirectiveError),
		},
		{
			name: "cycle",
			files: map[string]string{
				"main.css": "@import url(a.css);",
				"a.css":    "@import url(main.css);",
			},
			target: new(*ImportCycleError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mixer, err := NewMixer(defaultMixOptions(), &mapFetcher{files: tt.files})
			require.NoError(t, err)

			result, err := mixer.Mix(context.Background(), "main.css")
			assert.Nil(t, result)
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.target), "unexpected error %T: %v", err, err)
		})
	}
}

func TestMixerCheckSyntax(t *testing.T) {
	options := defaultMixOptions()
	options.CheckSyntax = true

	mixer, err := NewMixer(options, &mapFetcher{files: map[string]string{
		"ok.css":  ".x{color:red}",
		"bad.css": ")(.x{color:red}",
	}})
	require.NoError(t, err)

	_, err = mixer.Mix(context.Background(), "ok.css")
	assert.NoError(t, err)

	// the tokenizer only balances braces; the selector is left to the parser
	_, err = mixer.Mix(context.Background(), "bad.css")
	var syntaxErr *cleaner.SyntaxError
	assert.True(t, errors.As(err, &syntaxErr), "expected SyntaxError, got %v", err)
}

func TestMixerValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *MixOptions
		fetcher Fetcher
		wantErr bool
	}{
		{
			name:    "valid",
			options: defaultMixOptions(),
			fetcher: &mapFetcher{},
		},
		{
			name:    "nil options",
			fetcher: &mapFetcher{},
			wantErr: true,
		},
		{
			name:    "nil fetcher",
			options: defaultMixOptions(),
			wantErr: true,
		},
		{
			name:    "negative depth",
			options: &MixOptions{MaxDepth: -1},
			fetcher: &mapFetcher{},
			wantErr: true,
		},
		{
			name:    "unsupported output type",
			options: &MixOptions{OutputType: "XML"},
			fetcher: &mapFetcher{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mixer, err := NewMixer(tt.options, tt.fetcher)
			require.NoError(t, err)

			err = mixer.ValidateOptions()
			if tt.wantErr {
				var mixErr *MixError
				assert.True(t, errors.As(err, &mixErr))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	mixer, err := NewMixer(defaultMixOptions(), &mapFetcher{})
	require.NoError(t, err)
	_, err = mixer.Mix(context.Background(), "")
	assert.Error(t, err)
}
