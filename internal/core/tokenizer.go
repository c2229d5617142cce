package core

import (
	"errors"
	"io"
	"iter"
	"strings"
	"unicode"
)

// Tokenizer splits cleaned stylesheet text into rules. It is a one-shot
// producer: rules are read lazily with Next until io.EOF.
type Tokenizer struct {
	cur     *cursor
	locator string
	err     error

	// afterImport is set once an @import has been read; the blanks that
	// follow it are dropped along with the directive.
	afterImport bool
}

// NewTokenizer creates a Tokenizer over text.
func NewTokenizer(text string) *Tokenizer {
	return &Tokenizer{cur: newCursor(text)}
}

// newSourceTokenizer creates a Tokenizer whose errors name locator.
func newSourceTokenizer(locator, text string) *Tokenizer {
	t := NewTokenizer(text)
	t.locator = locator
	return t
}

// Tokenize collects every rule of text.
func Tokenize(text string) ([]Rule, error) {
	return NewTokenizer(text).collect()
}

// Next returns the next rule, or io.EOF when the input is exhausted.
// After an error every further call returns the same error.
func (t *Tokenizer) Next() (Rule, error) {
	if t.err != nil {
		return nil, t.err
	}

	rule, err := t.next()
	if err != nil {
		t.err = err
		return nil, err
	}
	return rule, nil
}

// All returns the remaining rules as a sequence. Iteration stops after the
// first error, which is yielded with a nil rule.
func (t *Tokenizer) All() iter.Seq2[Rule, error] {
	return func(yield func(Rule, error) bool) {
		for {
			rule, err := t.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(rule, err) || err != nil {
				return
			}
		}
	}
}

func (t *Tokenizer) collect() ([]Rule, error) {
	var rules []Rule
	for rule, err := range t.All() {
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// next reads one rule. Blanks in front of a rule are kept as part of its
// text, except after an @import and at the end of the input.
func (t *Tokenizer) next() (Rule, error) {
	blanks := t.readBlanks()
	if t.afterImport {
		blanks = ""
		t.afterImport = false
	}

	start := t.cur.offset()
	var rule Rule
	var err error
	switch t.cur.read() {
	case eof:
		return nil, io.EOF
	case '@':
		rule, err = t.readDirective(start)
	default:
		t.cur.unread()
		rule, err = t.readDeclarative(start)
	}
	if err != nil {
		return nil, err
	}

	switch r := rule.(type) {
	case ImportRule:
		t.afterImport = true
	case OpaqueRule:
		r.Text = blanks + r.Text
		rule = r
	}
	return rule, nil
}

// readDirective reads everything after an '@'.
func (t *Tokenizer) readDirective(start int) (Rule, error) {
	word := t.readWord()

	switch word {
	case "import":
		return t.readImport(start)

	case "media":
		selector, ok := t.readSelector()
		if !ok {
			return nil, t.malformed(start, "@media", "missing block")
		}
		block, err := t.readBlock(start, "@media")
		if err != nil {
			return nil, err
		}
		return OpaqueRule{Text: "@media" + selector + block}, nil

	case "font-face":
		block, err := t.readBlock(start, "@font-face")
		if err != nil {
			return nil, err
		}
		return OpaqueRule{Text: "@font-face" + block}, nil

	default:
		return t.readUnknownDirective(start, word)
	}
}

// readImport reads the rest of an @import directive up to its ';'.
func (t *Tokenizer) readImport(start int) (Rule, error) {
	property := t.readProperty()

	open := strings.IndexByte(property, '(')
	if open < 0 {
		return nil, t.malformed(start, "@import", "expected url(...)")
	}
	closing := closingParen(property, open+1)
	if closing < 0 {
		return nil, t.malformed(start, "@import", "expected url(...)")
	}

	locator := strings.TrimSpace(property[open+1 : closing])
	if locator == "" {
		return nil, t.malformed(start, "@import", "empty locator")
	}
	return ImportRule{Locator: locator}, nil
}

// closingParen returns the index of the ')' ending the group that starts
// at from, or -1. Parentheses inside a quoted string do not count.
func closingParen(s string, from int) int {
	var quote rune
	for i, r := range s[from:] {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ')':
			return from + i
		}
	}
	return -1
}

// readUnknownDirective passes any other directive through verbatim: its
// prelude followed by either the terminating ';' or a block.
func (t *Tokenizer) readUnknownDirective(start int, word string) (Rule, error) {
	var buf strings.Builder
	buf.WriteString("@" + word)

	for {
		r := t.cur.read()
		switch r {
		case eof:
			return OpaqueRule{Text: buf.String()}, nil
		case ';':
			buf.WriteRune(r)
			return OpaqueRule{Text: buf.String()}, nil
		case '{':
			t.cur.unread()
			block, err := t.readBlock(start, "@"+word)
			if err != nil {
				return nil, err
			}
			buf.WriteString(block)
			return OpaqueRule{Text: buf.String()}, nil
		}
		buf.WriteRune(r)
	}
}

// readDeclarative reads a selector and its block.
func (t *Tokenizer) readDeclarative(start int) (Rule, error) {
	selector, ok := t.readSelector()
	if !ok {
		if strings.TrimSpace(selector) == "" {
			return nil, io.EOF
		}
		return nil, t.malformed(start, "rule", "unterminated rule")
	}

	block, err := t.readBlock(start, "rule")
	if err != nil {
		return nil, err
	}
	return OpaqueRule{Text: selector + block}, nil
}

// readSelector reads up to, not including, the next '{'. It reports false
// if the input ends first.
func (t *Tokenizer) readSelector() (string, bool) {
	var buf strings.Builder
	for {
		r := t.cur.read()
		if r == eof {
			return buf.String(), false
		}
		if r == '{' {
			t.cur.unread()
			return buf.String(), true
		}
		buf.WriteRune(r)
	}
}

// readBlock reads a brace-delimited block, nested blocks included. Text
// before the opening brace is kept. The block ends when the depth returns
// to zero after having been positive.
func (t *Tokenizer) readBlock(start int, directive string) (string, error) {
	var buf strings.Builder
	depth := 0
	opened := false

	for {
		r := t.cur.read()
		if r == eof {
			return "", t.malformed(start, directive, "unbalanced braces")
		}
		if !opened && (r == ';' || r == '}') {
			return "", t.malformed(start, directive, "expected block")
		}

		switch r {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
		}
		buf.WriteRune(r)

		if opened && depth == 0 {
			return buf.String(), nil
		}
	}
}

// readProperty reads up to the next ';', which is consumed but not
// returned, or to the end of input.
func (t *Tokenizer) readProperty() string {
	var buf strings.Builder
	for {
		r := t.cur.read()
		if r == eof || r == ';' {
			return buf.String()
		}
		buf.WriteRune(r)
	}
}

// readWord reads a maximal run of letters, digits and '-'.
func (t *Tokenizer) readWord() string {
	var buf strings.Builder
	for {
		r := t.cur.read()
		if r == eof {
			return buf.String()
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			t.cur.unread()
			return buf.String()
		}
		buf.WriteRune(r)
	}
}

func (t *Tokenizer) readBlanks() string {
	var buf strings.Builder
	for unicode.IsSpace(t.cur.peek()) {
		buf.WriteRune(t.cur.read())
	}
	return buf.String()
}

func (t *Tokenizer) malformed(start int, directive, reason string) error {
	return &MalformedDirectiveError{
		Locator:   t.locator,
		Offset:    start,
		Directive: directive,
		Reason:    reason,
	}
}
