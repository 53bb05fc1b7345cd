// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package pal

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ezrec/palx/internal"
)

// SixbitPacking selects the character set of .SIXBIT and .SIXBIZ.
type SixbitPacking int

const (
	SIXBIT_DEC = SixbitPacking(0) // DEC SIXBIT: the character minus 040
	SIXBIT_OS8 = SixbitPacking(1) // OS/8 SIXBIT: the low six bits of the character
)

func (sp SixbitPacking) String() string {
	if sp == SIXBIT_OS8 {
		return "OS8"
	}
	return "DEC"
}

// AsciiMark selects the handling of the high bit of ASCII characters.
type AsciiMark int

const (
	ASCII_NORMAL      = AsciiMark(0) // seven bit ASCII
	ASCII_ALWAYS_MARK = AsciiMark(1) // the 0200 bit is always set, as on the ASR-33
)

func (am AsciiMark) String() string {
	if am == ASCII_ALWAYS_MARK {
		return "ASR"
	}
	return "ASCII"
}

// Options are the assembly settings in effect at the start of each pass.
type Options struct {
	Sixbit SixbitPacking
	Ascii  AsciiMark
	NoWarn ErrorSet // Error codes that are never raised.
}

// Result is the outcome of a successful assembly.
type Result struct {
	Break   int         // Program break: the final field and location counter.
	Errors  int         // Number of errors raised on the second pass.
	Options ListOptions // Listing options in effect at the end of the source.
	Symbols []*Symbol   // Symbol table, ordered by name.
	Bitmap  *Bitmap     // Memory words written.
}

// Assembler is a two pass macro assembler for the PDP-8 family.
type Assembler struct {
	Verbose bool    // If set, logs every source line read.
	Options Options // Assembly settings.

	Lister Lister       // Receives the listing, may be nil.
	Object ObjectWriter // Receives the generated words, may be nil.
	Logger *log.Logger  // Logger, defaults to the default logger.

	// Now provides the time for \d and \h text escapes.
	Now func() time.Time
	// Trace, if set, is called before each source statement is assembled.
	Trace func(pass int, lineNo int, field Word, pc Word)

	Symbols *SymbolTable // Symbol table, kept across passes.
	Bitmap  Bitmap       // Memory words written on the second pass.

	predefine map[string]Word

	pass       int
	lineNo     int
	errorCount int
	generated  int
	cpu        Processor

	pc       Word
	field    Word
	literals LiteralPool

	listOptions ListOptions
	flags       Flags
	ignored     ErrorSet

	expansions Stack[*Expansion]

	push, pop, pushj, popj Word

	sixbit SixbitPacking
	ascii  AsciiMark

	source Source
	text   string
}

// NewAssembler creates an assembler with the base PDP-8 instruction set
// and all directives installed.
func NewAssembler() *Assembler {
	asm := &Assembler{
		Symbols: NewSymbolTable(0),
		Now:     time.Now,
	}

	for name, op := range BaseOpcodes() {
		sym, _ := asm.Symbols.Lookup(name)
		sym.Value = op
	}
	for name, handler := range directives() {
		sym, _ := asm.Symbols.Lookup(name)
		sym.Value = Pseudo{handler: handler}
	}

	asm.Symbols.Capacity = SYMBOL_CAPACITY

	return asm
}

// Predefine defines an equate before the first pass.
func (asm *Assembler) Predefine(name string, value Word) {
	if asm.predefine == nil {
		asm.predefine = map[string]Word{}
	}
	asm.predefine[NormalizeName(name)] = value & WORD_MASK
}

// Assemble runs both passes over the source.
func (asm *Assembler) Assemble(src Source) (result *Result, err error) {
	asm.source = src

	for name, value := range internal.SortedMap(asm.predefine) {
		sym, err := asm.Symbols.Lookup(name)
		if err != nil {
			return nil, ErrFatal{Pass: 0, Err: err}
		}
		sym.Value = Equate{Value: value}
	}

	err = asm.runPass(1)
	if err != nil {
		return
	}

	err = src.Rewind()
	if err != nil {
		err = ErrFatal{Pass: 1, LineNo: asm.lineNo, Err: errors.Join(ErrSourceRewind, err)}
		return
	}

	err = asm.runPass(2)
	if err != nil {
		return
	}

	result = &Result{
		Break:   int(asm.field)<<12 | int(asm.pc),
		Errors:  asm.errorCount,
		Options: asm.listOptions,
		Symbols: asm.Symbols.Sorted(),
		Bitmap:  &asm.Bitmap,
	}

	return
}

// runPass reads and assembles the entire source once.
func (asm *Assembler) runPass(pass int) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		ft, ok := r.(fatal)
		if !ok {
			panic(r)
		}
		err = ErrFatal{Pass: asm.pass, LineNo: asm.lineNo, Err: ft.err}
		asm.log().Error("assembly aborted", "pass", asm.pass, "line", asm.lineNo, "error", ft.err)
	}()

	asm.reset(pass)
	asm.log().Info("assembling", "pass", pass)

	for {
		asm.flags = nil
		if !asm.nextLine() {
			break
		}
		if asm.Trace != nil {
			asm.Trace(asm.pass, asm.lineNo, asm.field, asm.pc)
		}
		asm.assemble(&cursor{text: asm.text})
	}

	if pass == 2 {
		asm.dumpLiterals()
	}

	return
}

// reset initializes the per pass state.
func (asm *Assembler) reset(pass int) {
	asm.pass = pass
	asm.lineNo = 0
	asm.errorCount = 0
	asm.generated = 0
	asm.cpu = PROCESSOR_PDP8
	asm.pc = ORIGIN
	asm.field = 0
	asm.literals.Reset(asm.pc)
	asm.listOptions = DefaultListOptions
	asm.flags = nil
	asm.ignored = asm.Options.NoWarn
	asm.expansions.Reset()
	asm.push, asm.pop, asm.pushj, asm.popj = 0, 0, 0, 0
	asm.sixbit = asm.Options.Sixbit
	asm.ascii = asm.Options.Ascii
	asm.Bitmap.Clear()

	if asm.pass == 2 && asm.Lister != nil {
		asm.Lister.SetOptions(asm.listOptions)
	}
}

func (asm *Assembler) log() *log.Logger {
	if asm.Logger != nil {
		return asm.Logger
	}
	return log.Default()
}

// flag raises an error code on the current line. A code is raised at most
// once per line, and ignored codes are never raised.
func (asm *Assembler) flag(code ErrorCode) {
	if asm.ignored.Has(code) || asm.flags.Has(code) {
		return
	}
	asm.flags = append(asm.flags, code)
	asm.errorCount++
}

// fatal aborts the current pass.
func (asm *Assembler) fatal(err error) {
	panic(fatal{err: err})
}

// lookup finds or creates a symbol. A full symbol table is fatal.
func (asm *Assembler) lookup(name string) *Symbol {
	sym, err := asm.Symbols.Lookup(name)
	if err != nil {
		asm.fatal(err)
	}
	return sym
}

// reference records a cross reference on the second pass.
func (asm *Assembler) reference(sym *Symbol, definition bool) {
	if asm.pass != 2 || sym == nil {
		return
	}
	sym.AddReference(asm.lineNo, definition)
}

// revalidate checks on the second pass that a symbol still has the kind
// given to it by its definition on the first pass.
func (asm *Assembler) revalidate(sym *Symbol, kind SymbolKind) {
	switch sym.Kind() {
	case kind:
	case SYMBOL_MULTIPLE:
		asm.flag(ER_MULTIPLE)
	default:
		asm.flag(ER_SYMBOL)
	}
}

// assemble assembles one statement.
func (asm *Assembler) assemble(cur *cursor) {
	// Labels are not allowed on a symbol definition.
	if asm.checkDefinition(cur) {
		return
	}

	label := asm.checkLabels(cur)

	if cur.atEOL() {
		if label {
			asm.listAddress()
		} else {
			asm.listSource()
		}
		return
	}

	if asm.checkMacroPseudo(cur) {
		return
	}

	if asm.pass != 2 {
		asm.pc++
		return
	}

	code, ok := asm.evalExpr(cur)
	if !ok {
		code = 0
	}
	if cur.spanWhite() == '>' {
		cur.skip()
	}
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}
	asm.outputCode(code, true, true)
}

// checkDefinition handles NAME=expression statements.
func (asm *Assembler) checkDefinition(cur *cursor) bool {
	probe := *cur
	name, ok := probe.scanName(IDENT_LEN)
	if !ok || probe.spanWhite() != '=' {
		return false
	}
	probe.skip()
	*cur = probe

	value, ok := asm.evalExpr(cur)
	if !ok {
		value = 0
	} else if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}

	sym := asm.lookup(name)
	asm.reference(sym, true)
	if asm.pass == 1 {
		if !sym.define(Equate{Value: value}) {
			asm.flag(ER_MULTIPLE)
		}
	} else {
		asm.revalidate(sym, SYMBOL_EQUATE)
	}

	if asm.pass == 2 {
		asm.listValue(value, true)
	}

	return true
}

// checkLabels defines any NAME: labels at the start of the statement.
func (asm *Assembler) checkLabels(cur *cursor) (found bool) {
	for {
		probe := *cur
		name, ok := probe.scanName(IDENT_LEN)
		if !ok || probe.spanWhite() != ':' {
			return
		}
		probe.skip()
		*cur = probe

		sym := asm.lookup(name)
		asm.reference(sym, true)
		if asm.pass == 1 {
			if !sym.define(Label{Field: asm.field, Address: asm.pc}) {
				asm.flag(ER_MULTIPLE)
			}
		} else {
			asm.revalidate(sym, SYMBOL_LABEL)
		}

		found = true
	}
}

// checkMacroPseudo dispatches directives and macro invocations.
func (asm *Assembler) checkMacroPseudo(cur *cursor) bool {
	ch := cur.spanWhite()

	if ch == '.' {
		cur.skip()
		name, ok := cur.scanName(IDENT_LEN - 1)
		if ok {
			sym, found := asm.Symbols.Find("." + name)
			if found {
				asm.reference(sym, false)
				if pseudo, isPseudo := sym.Value.(Pseudo); isPseudo {
					pseudo.handler(asm, cur)
					return true
				}
			}
		}
		asm.flag(ER_PSEUDO)
		asm.listSource()
		return true
	}

	if !isIdentStart(ch) {
		return false
	}

	probe := *cur
	name, _ := probe.scanName(IDENT_LEN)
	sym, found := asm.Symbols.Find(name)
	if !found {
		return false
	}
	macro, isMacro := sym.Value.(*Macro)
	if !isMacro {
		return false
	}

	*cur = probe
	asm.reference(sym, false)
	asm.invoke(macro, cur)

	return true
}
