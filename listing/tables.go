package listing

import (
	"fmt"
	"strings"

	"github.com/ezrec/palx/pal"
)

// Summary lists the program break and the error count.
func (lw *Writer) Summary(result *pal.Result) {
	lw.lines += 5
	if lw.lines > lw.LinesPerPage {
		lw.page()
	}
	lw.printf("\n\n\n")
	lw.printf("%s\n", BreakMessage(result))
	lw.printf("%s\n", ErrorMessage(result))
}

// BreakMessage describes the program break.
func BreakMessage(result *pal.Result) string {
	return fmt.Sprintf("Program break is %05o", result.Break)
}

// ErrorMessage describes the error count.
func ErrorMessage(result *pal.Result) string {
	if result.Errors == 0 {
		return "No errors detected"
	}
	return fmt.Sprintf("%d error(s) detected", result.Errors)
}

// symbolValue returns the value column of a symbol table line. Built in
// symbols, macros and equates are only listed when referenced.
func symbolValue(sym *pal.Symbol) (text string, ok bool) {
	referenced := len(sym.Refs) > 0

	switch value := sym.Value.(type) {
	case pal.Undefined, nil:
		return "-UDF-", true
	case pal.MultiplyDefined:
		return "-MDF-", true
	case pal.Label:
		return fmt.Sprintf("%05o", int(value.Field&7)<<12|int(value.Address)), true
	case *pal.Macro:
		return "-MAC-", referenced
	case pal.Equate:
		return fmt.Sprintf(" %04o", value.Value), referenced
	case pal.Opdef:
		return fmt.Sprintf(" %04o", value.Value), referenced
	case pal.Opcode:
		return fmt.Sprintf(" %04o", value.Value), referenced
	case pal.Pseudo:
		return "-POP-", referenced
	}

	return
}

// Symbols lists the symbol table with its cross reference. Definitions
// are marked with '*'.
func (lw *Writer) Symbols(symbols []*pal.Symbol) {
	lw.title = "Symbol Table"
	lw.page()
	lw.addContents(lw.title)

	perLine := max((lw.ColumnsPerPage-20)/7, 1)

	for _, sym := range symbols {
		value, ok := symbolValue(sym)
		if !ok {
			continue
		}

		lw.printf("%-10s %s    ", sym.Name, value)
		count := 0
		for _, ref := range sym.Refs {
			count++
			if count > perLine {
				lw.printf("\n")
				count = 1
				lw.line()
				lw.printf("%s", strings.Repeat(" ", 20))
			}
			mark := ' '
			if ref.Definition {
				mark = '*'
			}
			lw.printf("%6d%c", ref.LineNo, mark)
		}
		lw.printf("\n")
		lw.line()
	}
}

// bitmapLine lists the use of 64 words, one digit per word.
func (lw *Writer) bitmapLine(bitmap *pal.Bitmap, start int) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%05o/", start)
	for word := 0; word < 64; word += 8 {
		bits := bitmap.Byte(start + word)
		sb.WriteByte(' ')
		for range 8 {
			sb.WriteByte('0' + bits&1)
			bits >>= 1
		}
	}
	lw.printf("%s\n", sb.String())
}

// Bitmap lists the memory map of every field with at least one word used.
func (lw *Writer) Bitmap(bitmap *pal.Bitmap) {
	lw.title = "Memory Map"
	lw.newPage = true
	lw.addContents(lw.title)

	for field := range pal.Word(pal.FIELD_COUNT) {
		if !bitmap.FieldUsed(field) {
			continue
		}
		for page := range 32 {
			if page == 0 || page == 16 {
				lw.page()
			}
			start := int(field)<<12 | page<<7
			lw.bitmapLine(bitmap, start)
			lw.bitmapLine(bitmap, start|64)
			lw.printf("\n")
		}
	}
}

// TOC lists the table of contents, starting on an odd page.
func (lw *Writer) TOC() {
	if lw.pages&1 != 0 {
		lw.title = ""
		lw.page()
	}
	lw.title = "Table of Contents"
	lw.page()

	for _, entry := range lw.contents {
		text := entry.Title
		if len(text)&1 != 0 {
			text += " "
		}
		for len(text) < 64 {
			text += " ."
		}
		lw.line()
		lw.printf("\t%s%4d\n", text, entry.Page)
	}
}

// Finish lists the summary, and then the memory map, symbol table and
// table of contents as enabled by the final listing options.
func (lw *Writer) Finish(result *pal.Result) error {
	lw.options = result.Options

	lw.Summary(result)
	if result.Options.Map && result.Bitmap != nil {
		lw.Bitmap(result.Bitmap)
	}
	if result.Options.Symbols {
		lw.Symbols(result.Symbols)
	}
	if result.Options.TOC {
		lw.TOC()
	}

	return lw.err
}
