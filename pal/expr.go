package pal

// Expression evaluation.
//
// Expressions are evaluated strictly left to right, without operator
// precedence. Semantic errors (undefined symbols, bad numbers, range and
// page errors) flag the line and evaluate as zero. A syntax error flags
// the line and returns ok as false, leaving the cursor at the failure.

// evalExpr evaluates `operand (op operand)*`.
func (asm *Assembler) evalExpr(cur *cursor) (value Word, ok bool) {
	value, ok = asm.evalOperand(cur)
	if !ok {
		return 0, false
	}

	for {
		op := cur.spanWhite()
		switch op {
		case '+', '-', '&', '|', '*', '/', '%':
		default:
			return value, true
		}
		cur.skip()

		operand, ok := asm.evalOperand(cur)
		if !ok {
			return 0, false
		}

		switch op {
		case '+':
			value = value + operand
		case '-':
			value = value - operand
		case '&':
			value = value & operand
		case '|':
			value = value | operand
		case '*':
			value = value * operand
		case '/', '%':
			if operand == 0 {
				asm.flag(ER_RANGE)
				value = 0
			} else if op == '/' {
				value = value / operand
			} else {
				value = value % operand
			}
		}
		value &= WORD_MASK
	}
}

// evalOperand evaluates `['+'|'-'|'~'] primary`.
func (asm *Assembler) evalOperand(cur *cursor) (value Word, ok bool) {
	negate := false
	complement := false

	switch cur.spanWhite() {
	case '+':
		cur.skip()
		cur.spanWhite()
	case '-':
		negate = true
		cur.skip()
		cur.spanWhite()
	case '~':
		complement = true
		cur.skip()
		cur.spanWhite()
	}

	ch := cur.peek()
	switch {
	case ch == '(':
		cur.skip()
		value, ok = asm.evalExpr(cur)
		if !ok {
			return 0, false
		}
		if cur.peek() != ')' {
			asm.flag(ER_SYNTAX)
			return 0, false
		}
		cur.skip()
	case ch == '*' || ch == '.':
		cur.skip()
		value = asm.pc & WORD_MASK
	case ch == '[':
		value, ok = asm.evalLiteral(cur)
		if !ok {
			return 0, false
		}
	case ch == '"':
		value, ok = asm.evalChar(cur)
		if !ok {
			return 0, false
		}
	case isDigit(ch):
		value = asm.scanNumber(cur)
	case isIdentStart(ch):
		name, _ := cur.scanName(IDENT_LEN)
		value, ok = asm.evalSymbol(cur, name)
		if !ok {
			return 0, false
		}
	default:
		asm.flag(ER_SYNTAX)
		return 0, false
	}

	if negate {
		value = -value
	}
	if complement {
		value = ^value
	}

	return value & WORD_MASK, true
}

// scanNumber reads an octal or decimal number. Without a suffix, a number
// is octal unless it contains an 8 or 9. A 'B' suffix forces octal, and a
// 'D' or '.' suffix forces decimal.
func (asm *Assembler) scanNumber(cur *cursor) (value Word) {
	var octal, decimal Word
	hasDecimal := false

	for isDigit(cur.peek()) {
		digit := Word(cur.next() - '0')
		octal = octal<<3 | digit
		decimal = decimal*10 + digit
		if digit > 7 {
			hasDecimal = true
		}
	}

	switch suffix := cur.peek(); {
	case toUpper(suffix) == 'B':
		cur.skip()
		if hasDecimal {
			asm.flag(ER_NUMBER)
			return 0
		}
		value = octal
	case toUpper(suffix) == 'D' || suffix == '.':
		cur.skip()
		value = decimal
	case hasDecimal:
		value = decimal
	default:
		value = octal
	}

	return value & WORD_MASK
}

// evalChar evaluates a "c" character constant.
func (asm *Assembler) evalChar(cur *cursor) (value Word, ok bool) {
	cur.skip()
	value = Word(cur.next())
	if asm.ascii == ASCII_ALWAYS_MARK {
		value |= 0200
	}

	if cur.peek() != '"' {
		asm.flag(ER_SYNTAX)
		return 0, false
	}
	cur.skip()

	return value, true
}

// evalLiteral evaluates a [expr] literal to the address of its pool entry.
func (asm *Assembler) evalLiteral(cur *cursor) (addr Word, ok bool) {
	cur.skip()
	value, ok := asm.evalExpr(cur)
	if !ok {
		return 0, false
	}
	if cur.peek() != ']' {
		asm.flag(ER_SYNTAX)
		return 0, false
	}
	cur.skip()

	addr, ok = asm.literals.Intern(value, asm.pc)
	if !ok {
		asm.flag(ER_PAGE)
		return 0, true
	}

	return addr, true
}

// evalSymbol evaluates a symbol. Instructions go on to parse their
// operands from the cursor.
func (asm *Assembler) evalSymbol(cur *cursor, name string) (value Word, ok bool) {
	sym := asm.lookup(name)
	asm.reference(sym, false)

	switch symbol := sym.Value.(type) {
	case Label:
		if symbol.Field != asm.field {
			asm.flag(ER_FIELD)
		}
		return symbol.Address & WORD_MASK, true
	case Equate:
		return symbol.Value, true
	case Opdef:
		return asm.evalMRI(cur, symbol.Value)
	case Opcode:
		return asm.evalOpcode(cur, symbol)
	case Undefined:
		asm.flag(ER_UNDEFINED)
	case MultiplyDefined:
		asm.flag(ER_MULTIPLE)
	default:
		asm.flag(ER_SYMBOL)
	}

	return 0, true
}

// evalOpcode evaluates an instruction and its operands.
func (asm *Assembler) evalOpcode(cur *cursor, op Opcode) (value Word, ok bool) {
	switch op.Class {
	case CLASS_MRI:
		return asm.evalMRI(cur, op.Value)
	case CLASS_OPR:
		return asm.evalOPR(cur, op.Value)
	case CLASS_CXF:
		return asm.evalCXF(cur, op.Value)
	case CLASS_PIE, CLASS_PIO:
		return asm.evalDevice(cur, op)
	}

	return op.Value, true
}

// evalMRI evaluates a memory reference instruction. The operand must be on
// page zero or on the current page, and may be preceded by '@' for
// indirect addressing.
func (asm *Assembler) evalMRI(cur *cursor, op Word) (value Word, ok bool) {
	value = op
	if cur.spanWhite() == '@' {
		value |= 0400
		cur.skip()
	}

	addr, ok := asm.evalExpr(cur)
	if !ok {
		return 0, false
	}

	switch addr.Page() {
	case 0:
		value |= addr
	case asm.pc.Page():
		value |= 0200 | addr.Offset()
	default:
		asm.flag(ER_OFFPAGE)
	}

	return value, true
}

// evalOPR combines consecutive operate microinstructions.
func (asm *Assembler) evalOPR(cur *cursor, op Word) (value Word, ok bool) {
	value = op
	for {
		name, found := cur.scanName(IDENT_LEN)
		if !found {
			return value, true
		}

		sym := asm.lookup(name)
		asm.reference(sym, false)

		next, isOp := sym.Value.(Opcode)
		if !isOp || next.Class != CLASS_OPR {
			asm.flag(ER_MICRO)
			return value, true
		}

		if value != OPR_CLA && next.Value != OPR_CLA && oprGroup(value) != oprGroup(next.Value) {
			asm.flag(ER_MICRO)
		}
		value |= next.Value
	}
}

// evalCXF evaluates a change field instruction. The operand is a field
// number from 0 to 7.
func (asm *Assembler) evalCXF(cur *cursor, op Word) (value Word, ok bool) {
	field, ok := asm.evalExpr(cur)
	if !ok {
		return 0, false
	}
	if field >= FIELD_COUNT {
		asm.flag(ER_RANGE)
		return op, true
	}

	return op | field<<3, true
}

// evalDevice evaluates an IM6101 PIE or IM6103 PIO instruction. The
// operand is the select address of the device.
func (asm *Assembler) evalDevice(cur *cursor, op Opcode) (value Word, ok bool) {
	addr, ok := asm.evalExpr(cur)
	if !ok {
		return 0, false
	}

	limit := Word(31)
	if op.Class == CLASS_PIO {
		limit = 3
	}
	if addr == 0 || addr > limit {
		asm.flag(ER_RANGE)
		return op.Value, true
	}

	return op.Value | addr<<4, true
}
