package pal

// Conditional assembly tests on twelve bit, two's complement, values.

func isZero(value Word) bool { return value == 0 }
func isNonZero(value Word) bool { return value != 0 }
func isPositive(value Word) bool { return value != 0 && !value.Negative() }
func isNotNegative(value Word) bool { return !value.Negative() }
func isNotPositive(value Word) bool { return value == 0 || value.Negative() }

// conditional assembles or skips the <...> block following a conditional
// directive, and then assembles anything after it on the same line.
// When assembled, the closing '>' is read as an end of statement.
func (asm *Assembler) conditional(cur *cursor, success bool) {
	if success {
		for {
			ch := asm.sourceChar(cur)
			for isSpace(ch) || ch == '\n' {
				ch = asm.sourceChar(cur)
			}
			if ch == '<' {
				break
			}
			asm.flag(ER_SYNTAX)
		}
	} else {
		asm.readBlock(cur, false, false)
	}

	asm.assemble(cur)
}

// ifDefined handles .IFDEF and .IFNDEF.
func (asm *Assembler) ifDefined(cur *cursor, want bool) {
	name, ok := cur.scanName(IDENT_LEN)
	if !ok {
		asm.flag(ER_SYNTAX)
		asm.listSource()
		return
	}

	sym, found := asm.Symbols.Find(name)
	defined := found && sym.Defined()
	if found {
		asm.reference(sym, false)
	}

	asm.conditional(cur, defined == want)
}

// ifValue handles the .IFxx expression tests. An expression with a syntax
// error lists the line and assembles nothing.
func (asm *Assembler) ifValue(cur *cursor, test func(Word) bool) {
	value, ok := asm.evalExpr(cur)
	if !ok {
		asm.listSource()
		return
	}

	asm.conditional(cur, test(value))
}
