package core

import (
	"context"
	"fmt"

	"github.com/drgsn/cssfusion/internal/core/cleaner"
)

// Mixer handles the complete flattening process: load, clean, tokenize,
// flatten and render.
type Mixer struct {
	options   *MixOptions
	fetcher   Fetcher
	cleaner   *cleaner.Cleaner
	flattener *Flattener
}

// NewMixer creates a new Mixer instance with the given options. Stylesheets
// are loaded through fetcher.
func NewMixer(options *MixOptions, fetcher Fetcher) (*Mixer, error) {
	c, err := cleaner.NewCleaner(cleaner.DefaultOptions())
	if err != nil {
		return nil, err
	}

	return &Mixer{
		options:   options,
		fetcher:   fetcher,
		cleaner:   c,
		flattener: NewFlattener(fetcher, c, options),
	}, nil
}

// ValidateOptions checks if the provided options are valid
func (m *Mixer) ValidateOptions() error {
	if m.options == nil {
		return &MixError{Message: "options are required"}
	}

	if m.fetcher == nil {
		return &MixError{Message: "a stylesheet loader is required"}
	}

	if m.options.MaxFileSize < 0 {
		return &MixError{Message: "max file size cannot be negative"}
	}

	if m.options.MaxDepth < 0 {
		return &MixError{Message: "max depth cannot be negative"}
	}

	switch m.options.OutputType {
	case "", OutputTypeCSS, OutputTypeJSON, OutputTypeYAML:
		// Valid output types
	default:
		return &MixError{Message: fmt.Sprintf("unsupported output type: %s", m.options.OutputType)}
	}

	return nil
}

// Mix flattens the stylesheet named by locator.
func (m *Mixer) Mix(ctx context.Context, locator string) (*Result, error) {
	if err := m.ValidateOptions(); err != nil {
		return nil, err
	}
	if locator == "" {
		return nil, &MixError{Message: "stylesheet locator is required"}
	}

	text, err := m.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}

	rules, err := newSourceTokenizer(locator, m.cleaner.Clean(text)).collect()
	if err != nil {
		return nil, err
	}

	flat, err := m.flattener.Flatten(ctx, locator, rules)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Source:  locator,
		Imports: m.flattener.Imports(),
		Rules:   flat,
		CSS:     Render(flat),
	}
	log.Infof("flattened %s: %d imports, %d rules", locator, len(result.Imports), len(result.Rules))

	if m.options.CheckSyntax {
		if err := cleaner.CheckSyntax(ctx, []byte(result.CSS)); err != nil {
			return nil, fmt.Errorf("checking %s: %w", locator, err)
		}
	}

	return result, nil
}
