package core

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/drgsn/cssfusion/internal/core/cleaner"
)

// DefaultMaxDepth bounds the length of an import chain when no limit is
// configured.
const DefaultMaxDepth = 32

// Flattener inlines @import directives. Imported stylesheets are fetched,
// cleaned and tokenized, and their rules replace the directive.
type Flattener struct {
	fetcher         Fetcher
	cleaner         *cleaner.Cleaner
	maxDepth        int
	resolveRelative bool

	imports []string
}

// frame is one stylesheet being flattened.
type frame struct {
	locator string
	rules   []Rule
	next    int

	imported []Rule // flattened content of the imports read so far
	own      []Rule // the stylesheet's other rules
}

// NewFlattener creates a Flattener that loads imports through fetcher and
// cleans them with c.
func NewFlattener(fetcher Fetcher, c *cleaner.Cleaner, options *MixOptions) *Flattener {
	f := &Flattener{
		fetcher:         fetcher,
		cleaner:         c,
		maxDepth:        DefaultMaxDepth,
		resolveRelative: true,
	}
	if options != nil {
		if options.MaxDepth > 0 {
			f.maxDepth = options.MaxDepth
		}
		f.resolveRelative = options.ResolveRelative
	}
	return f
}

// Imports returns the locators resolved by the last Flatten call, in the
// order they were resolved.
func (f *Flattener) Imports() []string {
	return slices.Clone(f.imports)
}

// Flatten returns rules with every ImportRule replaced by the flattened
// rules of the stylesheet it names. origin is the locator rules were read
// from; relative imports are resolved against it.
//
// At each level the content of all imports, in the order they appear,
// precedes the level's other rules. A stylesheet that appears twice on
// one import chain yields an *ImportCycleError.
func (f *Flattener) Flatten(ctx context.Context, origin string, rules []Rule) ([]Rule, error) {
	f.imports = nil

	if !slices.ContainsFunc(rules, isImport) {
		return rules, nil
	}

	stack := []*frame{{locator: canonical(origin), rules: rules}}
	for {
		top := stack[len(stack)-1]

		if top.next == len(top.rules) {
			out := append(top.imported, top.own...)
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return out, nil
			}
			parent := stack[len(stack)-1]
			parent.imported = append(parent.imported, out...)
			continue
		}

		rule := top.rules[top.next]
		top.next++

		imp, ok := rule.(ImportRule)
		if !ok {
			top.own = append(top.own, rule)
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		locator := f.resolve(top.locator, imp.Locator)
		if err := f.checkChain(stack, locator); err != nil {
			return nil, err
		}

		log.Debugf("importing %s from %s", locator, top.locator)
		f.imports = append(f.imports, locator)

		child, err := f.load(ctx, locator)
		if err != nil {
			return nil, err
		}
		stack = append(stack, &frame{locator: locator, rules: child})
	}
}

// load fetches, cleans and tokenizes one stylesheet.
func (f *Flattener) load(ctx context.Context, locator string) ([]Rule, error) {
	text, err := f.fetcher.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	return newSourceTokenizer(locator, f.cleaner.Clean(text)).collect()
}

func (f *Flattener) resolve(base, ref string) string {
	if !f.resolveRelative {
		base = ""
	}
	return canonical(ResolveLocator(base, ref))
}

// canonical gives local paths one spelling so that cycles are recognized.
func canonical(locator string) string {
	if locator == "" || IsRemote(locator) {
		return locator
	}
	return filepath.Clean(locator)
}

// checkChain rejects locator if it is already being flattened further up
// the stack, or if importing it would make the chain too long.
func (f *Flattener) checkChain(stack []*frame, locator string) error {
	for i, fr := range stack {
		if fr.locator != locator {
			continue
		}
		chain := make([]string, 0, len(stack)-i+1)
		for _, rest := range stack[i:] {
			chain = append(chain, rest.locator)
		}
		return &ImportCycleError{Chain: append(chain, locator)}
	}

	if len(stack) > f.maxDepth {
		return &ImportDepthError{Locator: locator, Depth: f.maxDepth}
	}
	return nil
}

func isImport(rule Rule) bool {
	_, ok := rule.(ImportRule)
	return ok
}
