package pal

import (
	"errors"
)

// punch marks a word as used and hands it to the object writer.
func (asm *Assembler) punch(address, value Word) {
	if asm.Bitmap.Mark(asm.field, address) {
		asm.flag(ER_DUPLICATE)
	}

	if asm.Object == nil {
		return
	}

	err := asm.Object.Emit(asm.field, address&WORD_MASK, value&WORD_MASK)
	if err != nil {
		asm.fatal(errors.Join(ErrObjectWrite, err))
	}
}

// outputCode generates a word at the location counter and advances it.
// On the first pass only the location counter moves.
//
// Code may not run into the literal pool. A page without literals lets
// code flow onto the following page, moving the empty pool with it.
func (asm *Assembler) outputCode(code Word, list bool, source bool) {
	if !asm.flowLiterals() {
		asm.flag(ER_PAGE)
	}

	if asm.pass == 2 {
		asm.punch(asm.pc, code)
		if list {
			asm.listCode(asm.pc, code, source)
		}
	}

	asm.pc++
}

// flowLiterals moves an empty literal pool to the page of the location
// counter once code has run past the end of its page. It returns false if
// the location counter is in a non-empty pool.
func (asm *Assembler) flowLiterals() bool {
	if asm.pc < asm.literals.Base {
		return true
	}
	if !asm.literals.Empty() {
		return false
	}
	asm.literals.Reset(asm.pc)
	return true
}

// dumpLiterals writes out the literal pool of the current page.
func (asm *Assembler) dumpLiterals() {
	if asm.pass != 2 {
		return
	}

	for loc, value := range asm.literals.All() {
		asm.punch(loc, value)
		asm.listCode(loc, value, false)
	}
}

// setPC moves the location counter, writing out the literal pool first
// when leaving the page.
func (asm *Assembler) setPC(pc Word) {
	// A page filled exactly, with no literals, leaves the location counter
	// on the next page with the pool base still equal to it.
	if pc.Page() != asm.pc.Page() || asm.pc == asm.literals.Base {
		asm.dumpLiterals()
		asm.literals.Reset(pc)
	}

	asm.pc = pc
}

// setField flushes the literal pool and moves to the start of a field.
func (asm *Assembler) setField(field Word) {
	asm.dumpLiterals()
	asm.field = field
	asm.pc = ORIGIN
	asm.literals.Reset(asm.pc)
}
