package core

// eof is returned by cursor reads past the end of the buffer.
const eof rune = -1

// cursor is a position over a rune buffer with one-character putback.
type cursor struct {
	src []rune
	pos int
}

func newCursor(text string) *cursor {
	return &cursor{src: []rune(text)}
}

// read returns the rune at the current position and advances, or eof.
func (c *cursor) read() rune {
	if c.pos >= len(c.src) {
		return eof
	}
	r := c.src[c.pos]
	c.pos++
	return r
}

// unread puts the last read rune back.
func (c *cursor) unread() {
	if c.pos > 0 {
		c.pos--
	}
}

// peek returns the rune at the current position without consuming it.
func (c *cursor) peek() rune {
	if c.pos >= len(c.src) {
		return eof
	}
	return c.src[c.pos]
}

func (c *cursor) offset() int {
	return c.pos
}
