// Package cleaner strips comments and insignificant whitespace from
// stylesheets before they are tokenized, and checks rendered stylesheets
// for syntax errors.
package cleaner

import (
	"fmt"
	"io"
	"strings"
)

// Cleaner removes comments and line indentation from stylesheet text
// according to the configured options
type Cleaner struct {
	options *CleanerOptions
}

// NewCleaner creates a new Cleaner instance with the given options
func NewCleaner(options *CleanerOptions) (*Cleaner, error) {
	if options == nil {
		return nil, fmt.Errorf("cleaner options cannot be nil")
	}
	return &Cleaner{options: options}, nil
}

// Clean processes the input in a single left-to-right pass.
//
// Block comments are dropped together with their delimiters; an
// unterminated comment runs to the end of the input. A line break and the
// spaces and tabs after it are dropped, so each line is joined to the one
// before it. This is not a plain concatenation: a single space is kept
// where the join would otherwise merge two words, as in a descendant
// selector split over two lines ("div\n  p" becomes "div p", not "divp").
// Next to punctuation the lines are joined directly.
func (c *Cleaner) Clean(input string) string {
	src := []rune(input)

	var out strings.Builder
	out.Grow(len(input))

	var (
		inComment bool
		lineStart bool // inside the indentation that follows a line break
		joined    bool // a line break was dropped since the last emitted rune
		last      rune // last emitted rune, 0 when nothing was emitted
	)

	for i := 0; i < len(src); i++ {
		cur := src[i]
		var next rune
		if i+1 < len(src) {
			next = src[i+1]
		}

		if inComment {
			if cur == '*' && next == '/' {
				inComment = false
				i++
			}
			continue
		}

		if c.options.RemoveComments && cur == '/' && next == '*' {
			inComment = true
			i++
			continue
		}

		if c.options.OptimizeWhitespace {
			if cur == '\r' && next == '\n' {
				continue
			}
			if cur == '\n' {
				lineStart = true
				joined = true
				continue
			}
			if lineStart && (cur == ' ' || cur == '\t') {
				continue
			}
			lineStart = false

			if joined && isWordRune(last) && isWordRune(cur) {
				out.WriteRune(' ')
			}
			joined = false
		}

		out.WriteRune(cur)
		last = cur
	}

	return out.String()
}

// CleanFile reads everything from r and writes the cleaned text to w
func (c *Cleaner) CleanFile(r io.Reader, w io.Writer) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading error: %w", err)
	}

	_, err = io.WriteString(w, c.Clean(string(input)))
	return err
}

// isWordRune reports whether r may not be glued to a neighbouring word
// without changing its meaning. CSS punctuation and blanks never need a
// separating space.
func isWordRune(r rune) bool {
	if r == 0 {
		return false
	}
	return !strings.ContainsRune("{};:,>+~([=\"' \t\n\r", r)
}
