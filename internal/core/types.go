package core

import "io"

// Rule is one semantic element of a stylesheet. The set of implementations
// is closed: ImportRule and OpaqueRule are the only variants.
type Rule interface {
	// Render returns the rule's CSS text, delimiters included.
	Render() string

	isRule()
}

// ImportRule represents an `@import url(...)` directive.
type ImportRule struct {
	// Locator is the raw text found between the parentheses, trimmed of
	// surrounding blanks. Quotes are kept; ResolveLocator removes them.
	Locator string
}

// Render reconstructs the directive.
func (r ImportRule) Render() string {
	return "@import url(" + r.Locator + ");"
}

func (ImportRule) isRule() {}

// OpaqueRule is any other syntactic unit: a selector with its block, an
// @media or @font-face block, or an unrecognized directive. Its text is
// emitted unchanged.
type OpaqueRule struct {
	Text string
}

// Render returns the rule text verbatim.
func (r OpaqueRule) Render() string {
	return r.Text
}

func (OpaqueRule) isRule() {}

// OutputType represents the format in which the result should be written.
// It is determined by the output file extension.
type OutputType string

// Supported output format constants.
const (
	// OutputTypeCSS writes the flattened stylesheet as plain CSS.
	OutputTypeCSS OutputType = "CSS"

	// OutputTypeJSON writes a report document with the source locator,
	// the resolved imports and the flattened content.
	OutputTypeJSON OutputType = "JSON"

	// OutputTypeYAML writes the same report document as YAML.
	OutputTypeYAML OutputType = "YAML"
)

// MixOptions encapsulates all configuration options for flattening a
// stylesheet and writing the result.
type MixOptions struct {
	// OutputPath is where the result will be written. Empty means Stdout.
	// The extension of this path determines the output format.
	OutputPath string

	// Stdout receives the result when OutputPath is empty.
	Stdout io.Writer

	// MaxFileSize is the maximum size in bytes of a single stylesheet,
	// local or remote.
	MaxFileSize int64

	// MaxOutputSize is the maximum size in bytes of the written result.
	MaxOutputSize int64

	// MaxDepth bounds the length of an import chain.
	MaxDepth int

	// ResolveRelative resolves relative import locators against the
	// importing stylesheet instead of the working directory.
	ResolveRelative bool

	// CheckSyntax parses the flattened output with tree-sitter and fails
	// on syntax errors.
	CheckSyntax bool

	// OutputType determines the format of the output.
	OutputType OutputType
}

// Result is the outcome of flattening one stylesheet.
type Result struct {
	// Source is the locator the run started from.
	Source string

	// Imports lists every resolved import locator in resolution order.
	Imports []string

	// Rules is the flattened rule sequence. It contains no ImportRule.
	Rules []Rule

	// CSS is the rendered form of Rules.
	CSS string
}
