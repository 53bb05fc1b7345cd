package pal

// ListOptions are the .LIST / .NOLIST settings.
type ListOptions struct {
	Expansions bool // MET: source text of macro expansions
	Text       bool // TXB: words generated by text and data directives
	TOC        bool // TOC: table of contents
	Map        bool // MAP: memory bitmap
	Symbols    bool // SYM: symbol table and cross reference
	Paginate   bool // PAG: page headers
}

// DefaultListOptions enables everything.
var DefaultListOptions = ListOptions{
	Expansions: true,
	Text:       true,
	TOC:        true,
	Map:        true,
	Symbols:    true,
	Paginate:   true,
}

// Listing is one line of the assembly listing.
type Listing struct {
	LineNo int    // Source line number.
	Flags  string // Error letters of the line.
	Macro  bool   // Set for lines of a macro expansion.

	HasAddress bool
	Field      Word
	Address    Word

	HasCode bool
	Code    Word

	HasSource bool
	Source    string // Source text, without the newline.
}

// Lister receives the listing of the second pass.
type Lister interface {
	// List adds a line to the listing.
	List(line *Listing)
	// Eject starts a new page before the next line.
	Eject()
	// Title sets the page title and adds a table of contents entry.
	Title(title string)
	// SetOptions updates the listing options.
	SetOptions(options ListOptions)
}

// ObjectWriter receives generated words of the second pass.
type ObjectWriter interface {
	Emit(field, address, value Word) error
}

// list sends a line to the lister and clears the line's error flags.
func (asm *Assembler) list(line Listing) {
	flags := asm.flags
	asm.flags = nil

	if asm.pass != 2 || asm.Lister == nil {
		return
	}

	line.LineNo = asm.lineNo
	line.Flags = flags.String()
	line.Macro = !asm.expansions.Empty()
	if line.Macro && !asm.listOptions.Expansions {
		if !line.HasAddress && !line.HasCode {
			return
		}
		line.HasSource = false
	}
	if line.HasSource {
		line.Source = trimNewline(asm.text)
	}

	asm.Lister.List(&line)
}

// listSource lists the source line alone.
func (asm *Assembler) listSource() {
	asm.list(Listing{HasSource: true})
}

// listAddress lists the source line with the location counter.
func (asm *Assembler) listAddress() {
	asm.list(Listing{
		HasSource:  true,
		HasAddress: true,
		Field:      asm.field,
		Address:    asm.pc,
	})
}

// listValue lists a value in the code column.
func (asm *Assembler) listValue(value Word, source bool) {
	asm.list(Listing{
		HasSource: source,
		HasCode:   true,
		Code:      value,
	})
}

// listCode lists a generated word at its address.
func (asm *Assembler) listCode(address Word, value Word, source bool) {
	asm.list(Listing{
		HasSource:  source,
		HasAddress: true,
		Field:      asm.field,
		Address:    address,
		HasCode:    true,
		Code:       value,
	})
}

func trimNewline(text string) string {
	if len(text) > 0 && text[len(text)-1] == '\n' {
		return text[:len(text)-1]
	}
	return text
}
