package cleaner

// CleanerOptions defines the configuration options for the stylesheet cleaner
type CleanerOptions struct {
	// RemoveComments determines if /* ... */ comments should be removed
	RemoveComments bool

	// OptimizeWhitespace determines if line breaks and the indentation
	// that follows them should be removed
	OptimizeWhitespace bool
}

// DefaultOptions returns a new CleanerOptions with default settings
func DefaultOptions() *CleanerOptions {
	return &CleanerOptions{
		RemoveComments:     true,
		OptimizeWhitespace: true,
	}
}
