package pal

import (
	"iter"
)

// LiteralPool holds the literals of the current page. Literals occupy
// the addresses from Base up to the end of the page.
type LiteralPool struct {
	Base Word
	Data [PAGE_SIZE]Word
}

// Reset empties the pool and places it at the top of the page.
func (lp *LiteralPool) Reset(page Word) {
	lp.Base = page.Page() + PAGE_SIZE
}

// Empty is true when no literals are allocated.
func (lp *LiteralPool) Empty() bool {
	return lp.Base.Offset() == 0
}

// All iterates over the allocated literals as address, value pairs.
func (lp *LiteralPool) All() iter.Seq2[Word, Word] {
	return func(yield func(Word, Word) bool) {
		for loc := lp.Base; loc.Offset() != 0; loc++ {
			if !yield(loc, lp.Data[loc.Offset()]) {
				return
			}
		}
	}
}

// Find returns the address of an allocated literal with the value.
func (lp *LiteralPool) Find(value Word) (addr Word, ok bool) {
	for loc, have := range lp.All() {
		if have == value {
			return loc, true
		}
	}
	return
}

// Intern returns the address of a literal holding the value, allocating
// a new one below the existing literals if needed. The pool may not grow
// down to the word following the location counter.
func (lp *LiteralPool) Intern(value Word, pc Word) (addr Word, ok bool) {
	addr, ok = lp.Find(value)
	if ok {
		return
	}

	if lp.Base <= pc+1 {
		return 0, false
	}

	lp.Base--
	lp.Data[lp.Base.Offset()] = value

	return lp.Base, true
}

// Set places a value at a fixed page offset, lowering the base to it.
func (lp *LiteralPool) Set(page Word, offset Word, value Word) {
	lp.Data[offset&OFFSET_MASK] = value
	lp.Base = page.Page() + offset&OFFSET_MASK
}
