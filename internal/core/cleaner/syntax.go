package cleaner

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
)

// SyntaxError reports the first node tree-sitter could not parse.
// Line and Column are 1-based.
type SyntaxError struct {
	Line    int
	Column  int
	Snippet string
}

func (e *SyntaxError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("syntax error at %d:%d", e.Line, e.Column)
	}
	return fmt.Sprintf("syntax error at %d:%d near %q", e.Line, e.Column, e.Snippet)
}

// maxSnippet bounds the source excerpt kept in a SyntaxError.
const maxSnippet = 40

// CheckSyntax parses content with the tree-sitter CSS grammar and returns
// a *SyntaxError for the first error or missing node it finds.
func CheckSyntax(ctx context.Context, content []byte) error {
	// Create a new parser for each call to avoid concurrency issues
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(css.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("parsing error: %w", err)
	}
	if tree == nil {
		return fmt.Errorf("parsing error: failed to create syntax tree")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil || !root.HasError() {
		return nil
	}

	node := firstError(root)
	if node == nil {
		node = root
	}

	start := node.StartPoint()
	end := node.EndByte()
	if end-node.StartByte() > maxSnippet {
		end = node.StartByte() + maxSnippet
	}

	return &SyntaxError{
		Line:    int(start.Row) + 1,
		Column:  int(start.Column) + 1,
		Snippet: string(content[node.StartByte():end]),
	}
}

// firstError returns the leftmost error or missing node below node
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
