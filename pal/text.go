package pal

import (
	"strings"
	"time"
)

// FormatDate formats a date as dd-MMM-yy, with an upper case month.
func FormatDate(t time.Time) string {
	return strings.ToUpper(t.Format("02-Jan-06"))
}

// FormatTime formats a time as hh:mm:ss.
func FormatTime(t time.Time) string {
	return t.Format("15:04:05")
}

// textArgument parses a delimited string argument and expands its escapes.
// The delimiter is the first non-blank character. On any syntax error the
// line is flagged and the text is empty.
func (asm *Assembler) textArgument(cur *cursor) (text string) {
	quote := cur.spanWhite()
	if isEOL(quote) {
		asm.flag(ER_SYNTAX)
		return
	}
	cur.skip()

	var raw strings.Builder
	for ch := cur.peek(); ch != quote; ch = cur.peek() {
		if ch == '\n' || ch == 0 || raw.Len() >= MAX_LINE-1 {
			asm.flag(ER_SYNTAX)
			return
		}
		raw.WriteByte(ch)
		cur.skip()
	}
	cur.skip()

	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
		return
	}

	text, ok := asm.expandEscapes(raw.String())
	if !ok {
		asm.flag(ER_SYNTAX)
		return ""
	}

	return
}

// expandEscapes replaces the \r \n \t \\ \d (date) and \h (time) escapes.
func (asm *Assembler) expandEscapes(raw string) (text string, ok bool) {
	var sb strings.Builder
	for n := 0; n < len(raw); n++ {
		ch := raw[n]
		if ch != '\\' {
			sb.WriteByte(ch)
			continue
		}

		n++
		if n >= len(raw) {
			return
		}
		switch raw[n] {
		case 'r':
			sb.WriteByte('\r')
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '\\':
			sb.WriteByte('\\')
		case 'd':
			sb.WriteString(FormatDate(asm.now()))
		case 'h':
			sb.WriteString(FormatTime(asm.now()))
		default:
			return
		}
	}

	if sb.Len() >= MAX_LINE {
		return
	}

	return sb.String(), true
}

func (asm *Assembler) now() time.Time {
	if asm.Now == nil {
		return time.Now()
	}
	return asm.Now()
}

// dotAsciz handles .ASCIZ /text/, one character per word and a zero word.
func (asm *Assembler) dotAsciz(cur *cursor) {
	text := asm.textArgument(cur)
	asm.listAddress()

	for _, ch := range []byte(text) {
		code := Word(ch)
		if asm.ascii == ASCII_ALWAYS_MARK {
			code |= 0200
		}
		asm.outputCode(code, asm.listOptions.Text, false)
	}
	asm.outputCode(0, asm.listOptions.Text, false)
}

// dotText handles .TEXT /text/, packing three characters into two words.
// The third character is split between the high four bits of each word.
func (asm *Assembler) dotText(cur *cursor) {
	data := []byte(asm.textArgument(cur))
	asm.listAddress()

	if asm.ascii == ASCII_ALWAYS_MARK {
		for n := range data {
			data[n] |= 0200
		}
	}

	list := asm.listOptions.Text
	for n := 0; n < len(data); n += 3 {
		switch len(data) - n {
		case 1:
			asm.outputCode(Word(data[n]), list, false)
		case 2:
			asm.outputCode(Word(data[n]), list, false)
			asm.outputCode(Word(data[n+1]), list, false)
		default:
			third := Word(data[n+2])
			asm.outputCode((third>>4&017)<<8|Word(data[n]), list, false)
			asm.outputCode((third&017)<<8|Word(data[n+1]), list, false)
		}
	}
	asm.outputCode(0, list, false)
}

// sixbitText handles .SIXBIT and .SIXBIZ, packing two six bit characters
// per word. With terminate set, the string ends with a 00 character in
// OS/8 SIXBIT, or a 77 character in DEC SIXBIT.
func (asm *Assembler) sixbitText(cur *cursor, terminate bool) {
	text := asm.textArgument(cur)
	os8 := asm.sixbit == SIXBIT_OS8

	first := true
	output := func(code Word) {
		asm.outputCode(code, asm.listOptions.Text || first, first)
		first = false
	}

	var code Word
	for n := 0; n < len(text); n++ {
		ch := toUpper(text[n])
		if ch < ' ' || ch > '_' {
			asm.flag(ER_TEXT)
		}

		var char Word
		if os8 {
			char = Word(ch) & 077
		} else {
			char = Word(ch-' ') & 077
		}

		if n&1 == 1 {
			output(code | char)
		} else {
			code = char << 6
		}
	}

	if len(text)&1 == 1 {
		if terminate && !os8 {
			code |= 077
		}
		output(code)
	} else if terminate {
		if os8 {
			output(0)
		} else {
			output(07777)
		}
	}

	if first {
		asm.listSource()
	}
}
