package core

import "strings"

// Render concatenates the text of every rule, in order, with no separators.
func Render(rules []Rule) string {
	var buf strings.Builder
	for _, rule := range rules {
		buf.WriteString(rule.Render())
	}
	return buf.String()
}
