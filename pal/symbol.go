package pal

import (
	"strings"

	"github.com/ezrec/palx/internal"
)

// SymbolKind is the tag of a symbol's value.
type SymbolKind int

const (
	SYMBOL_UNDEFINED = SymbolKind(0) // undefined
	SYMBOL_LABEL     = SymbolKind(1) // label
	SYMBOL_EQUATE    = SymbolKind(2) // equate
	SYMBOL_OPDEF     = SymbolKind(3) // opdef
	SYMBOL_MACRO     = SymbolKind(4) // macro
	SYMBOL_MULTIPLE  = SymbolKind(5) // multiple
	SYMBOL_OPCODE    = SymbolKind(6) // opcode
	SYMBOL_PSEUDO    = SymbolKind(7) // pseudo
)

var symbolKindName = [...]string{
	"undefined", "label", "equate", "opdef", "macro", "multiple", "opcode", "pseudo",
}

func (sk SymbolKind) String() string {
	if sk < 0 || int(sk) >= len(symbolKindName) {
		return "unknown"
	}
	return symbolKindName[sk]
}

// SymbolValue is the kind specific payload of a symbol.
type SymbolValue interface {
	Kind() SymbolKind
}

// Undefined is the value of a symbol that has been seen but not defined.
type Undefined struct{}

func (Undefined) Kind() SymbolKind { return SYMBOL_UNDEFINED }

// Label is a location in memory.
type Label struct {
	Field   Word
	Address Word
}

func (Label) Kind() SymbolKind { return SYMBOL_LABEL }

// Equate is a symbol defined by NAME=value.
type Equate struct {
	Value Word
}

func (Equate) Kind() SymbolKind { return SYMBOL_EQUATE }

// Opdef is a user defined memory reference instruction.
type Opdef struct {
	Value Word
}

func (Opdef) Kind() SymbolKind { return SYMBOL_OPDEF }

// MultiplyDefined marks a symbol defined more than once.
// The first definition is kept.
type MultiplyDefined struct {
	Original SymbolValue
}

func (MultiplyDefined) Kind() SymbolKind { return SYMBOL_MULTIPLE }

func (*Macro) Kind() SymbolKind { return SYMBOL_MACRO }

// Opcode is a built in machine instruction.
type Opcode struct {
	Class OpcodeClass
	Value Word
}

func (Opcode) Kind() SymbolKind { return SYMBOL_OPCODE }

// Pseudo is a built in directive.
type Pseudo struct {
	handler pseudoHandler
}

func (Pseudo) Kind() SymbolKind { return SYMBOL_PSEUDO }

// Reference is one cross reference entry of a symbol.
type Reference struct {
	LineNo     int  // Source line of the reference.
	Definition bool // Set if the line defines the symbol.
}

// Symbol is a named entry of the symbol table.
type Symbol struct {
	Name  string
	Value SymbolValue
	Refs  []Reference
}

// Kind returns the tag of the symbol value.
func (sym *Symbol) Kind() SymbolKind {
	if sym.Value == nil {
		return SYMBOL_UNDEFINED
	}
	return sym.Value.Kind()
}

// Defined is true for any symbol that is not undefined.
func (sym *Symbol) Defined() bool {
	return sym.Kind() != SYMBOL_UNDEFINED
}

// AddReference appends a cross reference, ignoring a repeat
// reference from the same line.
func (sym *Symbol) AddReference(lineNo int, definition bool) {
	if len(sym.Refs) > 0 && sym.Refs[len(sym.Refs)-1].LineNo == lineNo {
		return
	}
	sym.Refs = append(sym.Refs, Reference{LineNo: lineNo, Definition: definition})
}

// define applies a first pass definition: an undefined symbol takes the
// value, anything else becomes multiply defined while keeping its value.
func (sym *Symbol) define(value SymbolValue) (ok bool) {
	switch sym.Value.(type) {
	case Undefined, nil:
		sym.Value = value
		return true
	case MultiplyDefined:
	default:
		sym.Value = MultiplyDefined{Original: sym.Value}
	}
	return false
}

// NormalizeName returns the table key for a name.
func NormalizeName(name string) string {
	name = strings.ToUpper(name)
	if len(name) > IDENT_LEN {
		name = name[:IDENT_LEN]
	}
	return name
}

// SymbolTable maps names to symbols.
type SymbolTable struct {
	Capacity int // Maximum number of symbols, zero for no limit.

	symbols map[string]*Symbol
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable(capacity int) *SymbolTable {
	return &SymbolTable{
		Capacity: capacity,
		symbols:  map[string]*Symbol{},
	}
}

// Lookup finds a symbol, creating it as undefined if not present.
func (st *SymbolTable) Lookup(name string) (sym *Symbol, err error) {
	key := NormalizeName(name)
	sym, ok := st.symbols[key]
	if ok {
		return
	}

	if st.Capacity > 0 && len(st.symbols) >= st.Capacity {
		err = ErrSymbolTableFull
		return
	}

	sym = &Symbol{Name: key, Value: Undefined{}}
	st.symbols[key] = sym

	return
}

// Find returns a symbol only if it is already in the table.
func (st *SymbolTable) Find(name string) (sym *Symbol, ok bool) {
	sym, ok = st.symbols[NormalizeName(name)]
	return
}

// Len returns the number of symbols in the table.
func (st *SymbolTable) Len() int {
	return len(st.symbols)
}

// Sorted returns all symbols, ordered by name.
func (st *SymbolTable) Sorted() (list []*Symbol) {
	for _, sym := range internal.SortedMap(st.symbols) {
		list = append(list, sym)
	}
	return
}
