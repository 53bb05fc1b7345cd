package pal

import (
	"errors"
	"strings"

	"github.com/ezrec/palx/translate"
)

var f = translate.From

var (
	// Fatal assembly errors
	ErrSymbolTableFull   = errors.New(f("symbol table full"))
	ErrMacroBodyTooLong  = errors.New(f("macro body too long"))
	ErrExpansionTooLong  = errors.New(f("macro expansion too long"))
	ErrBlockUnterminated = errors.New(f("end of file while reading text block"))
	ErrSourceRewind      = errors.New(f("error rewinding source file"))
	ErrSourceRead        = errors.New(f("error reading source file"))
	ErrObjectWrite       = errors.New(f("error writing object file"))
)

// ErrorCode is a single letter, line scoped, assembly error.
type ErrorCode byte

const (
	ER_RANGE     = ErrorCode('A') // value out of range
	ER_MACRO     = ErrorCode('C') // macro argument overflow
	ER_DUPLICATE = ErrorCode('D') // location written twice
	ER_USER      = ErrorCode('E') // .ERROR directive
	ER_FIELD     = ErrorCode('F') // label in another field
	ER_OPTION    = ErrorCode('L') // unknown listing or assembly option
	ER_MULTIPLE  = ErrorCode('M') // multiply defined symbol
	ER_NUMBER    = ErrorCode('N') // illegal number
	ER_MICRO     = ErrorCode('O') // illegal operate microinstruction combination
	ER_PAGE      = ErrorCode('P') // page full
	ER_SYMBOL    = ErrorCode('S') // symbol misused
	ER_TEXT      = ErrorCode('T') // illegal SIXBIT character
	ER_UNDEFINED = ErrorCode('U') // undefined symbol
	ER_OFFPAGE   = ErrorCode('W') // reference off the current page
	ER_SYNTAX    = ErrorCode('X') // syntax error
	ER_PSEUDO    = ErrorCode('Z') // unknown or unusable directive
)

var errorCodeText = map[ErrorCode]string{
	ER_RANGE:     "value out of range",
	ER_MACRO:     "macro argument overflow",
	ER_DUPLICATE: "location written twice",
	ER_USER:      "user error",
	ER_FIELD:     "label in another field",
	ER_OPTION:    "unknown option",
	ER_MULTIPLE:  "multiply defined symbol",
	ER_NUMBER:    "illegal number",
	ER_MICRO:     "illegal microinstruction combination",
	ER_PAGE:      "page full",
	ER_SYMBOL:    "symbol misused",
	ER_TEXT:      "illegal text character",
	ER_UNDEFINED: "undefined symbol",
	ER_OFFPAGE:   "off page reference",
	ER_SYNTAX:    "syntax error",
	ER_PSEUDO:    "bad directive",
}

// Valid is true for a known error code.
func (ec ErrorCode) Valid() bool {
	_, ok := errorCodeText[ec]
	return ok
}

// String returns the error letter.
func (ec ErrorCode) String() string {
	return string(rune(ec))
}

// Description returns a readable explanation of the error code.
func (ec ErrorCode) Description() string {
	text, ok := errorCodeText[ec]
	if !ok {
		return f("unknown error %q", string(rune(ec)))
	}
	return f(text)
}

// Flags is the ordered set of error codes raised on one line.
type Flags []ErrorCode

// Has returns true if the code was already raised.
func (fl Flags) Has(code ErrorCode) bool {
	for _, have := range fl {
		if have == code {
			return true
		}
	}
	return false
}

func (fl Flags) String() string {
	var sb strings.Builder
	for _, code := range fl {
		sb.WriteByte(byte(code))
	}
	return sb.String()
}

// ErrorSet is a set of error codes.
type ErrorSet uint32

// ParseErrorSet parses a string of error letters.
// Spaces and commas are ignored; ok is false if any other
// non-letter is present.
func ParseErrorSet(text string) (set ErrorSet, ok bool) {
	ok = true
	for _, ch := range strings.ToUpper(text) {
		switch {
		case ch == ' ' || ch == '\t' || ch == ',':
		case ch >= 'A' && ch <= 'Z':
			set = set.With(ErrorCode(ch))
		default:
			ok = false
		}
	}
	return
}

// With returns the set including the code.
func (es ErrorSet) With(code ErrorCode) ErrorSet {
	if code < 'A' || code > 'Z' {
		return es
	}
	return es | (1 << (code - 'A'))
}

// Has returns true if the code is in the set.
func (es ErrorSet) Has(code ErrorCode) bool {
	if code < 'A' || code > 'Z' {
		return false
	}
	return es&(1<<(code-'A')) != 0
}

func (es ErrorSet) String() string {
	var sb strings.Builder
	for code := ErrorCode('A'); code <= 'Z'; code++ {
		if es.Has(code) {
			sb.WriteByte(byte(code))
		}
	}
	return sb.String()
}

// ErrFatal is an error that aborted the assembly.
type ErrFatal struct {
	Pass   int
	LineNo int
	Err    error
}

func (err ErrFatal) Error() string {
	return f("pass %d line %d: %v", err.Pass, err.LineNo, err.Err)
}

func (err ErrFatal) Unwrap() error {
	return err.Err
}

// fatal is the panic value used to unwind to the pass boundary.
type fatal struct {
	err error
}
