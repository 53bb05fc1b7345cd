package pal

import (
	"strings"
)

// isEOL is true at the end of the parseable part of a line.
func isEOL(ch byte) bool {
	return ch == ';' || ch == '>' || ch == '\n' || ch == 0
}

// isIdentStart is true for a character that may start a symbol name.
func isIdentStart(ch byte) bool {
	return isAlpha(ch) || ch == '%' || ch == '$' || ch == '_'
}

// isIdent is true for a character that may continue a symbol name.
func isIdent(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '.'
}

func isAlpha(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// isSpace is true for white space other than the newline.
func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\r' || ch == '\v' || ch == '\f'
}

func toUpper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 'a' + 'A'
	}
	return ch
}

// cursor is a read position within a line of source text.
type cursor struct {
	text string
	pos  int
}

// peek returns the current character, or zero at the end of the text.
func (cur *cursor) peek() byte {
	if cur.pos >= len(cur.text) {
		return 0
	}
	return cur.text[cur.pos]
}

// next returns the current character and advances past it.
func (cur *cursor) next() (ch byte) {
	ch = cur.peek()
	if cur.pos < len(cur.text) {
		cur.pos++
	}
	return
}

// skip advances past the current character.
func (cur *cursor) skip() {
	if cur.pos < len(cur.text) {
		cur.pos++
	}
}

// spanWhite skips blanks, stopping at a newline, and returns the next character.
func (cur *cursor) spanWhite() byte {
	for isSpace(cur.peek()) {
		cur.pos++
	}
	return cur.peek()
}

// atEOL skips blanks and reports if the statement has ended.
func (cur *cursor) atEOL() bool {
	return isEOL(cur.spanWhite())
}

// rest returns the unread text.
func (cur *cursor) rest() string {
	if cur.pos >= len(cur.text) {
		return ""
	}
	return cur.text[cur.pos:]
}

// scanName reads an upper cased symbol name. All of the name is consumed,
// but only the first max characters are returned.
func (cur *cursor) scanName(max int) (name string, ok bool) {
	if !isIdentStart(cur.spanWhite()) {
		return
	}

	var sb strings.Builder
	for isIdent(cur.peek()) {
		if sb.Len() < max {
			sb.WriteByte(toUpper(cur.peek()))
		}
		cur.pos++
	}

	return sb.String(), true
}
