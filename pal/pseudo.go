package pal

import (
	"iter"
	"maps"

	"github.com/ezrec/palx/internal"
)

// pseudoHandler processes a directive. The cursor is positioned after the
// directive name, and the handler is responsible for listing the line.
type pseudoHandler func(asm *Assembler, cur *cursor)

// Location, code and listing control directives.
var pseudoOps = map[string]pseudoHandler{
	".END":     (*Assembler).dotEnd,
	".ORG":     (*Assembler).dotOrg,
	".PAGE":    (*Assembler).dotPage,
	".FIELD":   (*Assembler).dotField,
	".BLOCK":   (*Assembler).dotBlock,
	".DATA":    (*Assembler).dotData,
	".MRI":     (*Assembler).dotMri,
	".NLOAD":   (*Assembler).dotNload,
	".VECTOR":  (*Assembler).dotVector,
	".STACK":   (*Assembler).dotStack,
	".PUSH":    func(asm *Assembler, cur *cursor) { asm.stackOp(cur, asm.push) },
	".POP":     func(asm *Assembler, cur *cursor) { asm.stackOp(cur, asm.pop) },
	".POPJ":    func(asm *Assembler, cur *cursor) { asm.stackOp(cur, asm.popj) },
	".PUSHJ":   (*Assembler).dotPushj,
	".IM6100":  func(asm *Assembler, cur *cursor) { asm.changeProcessor(cur, PROCESSOR_IM6100, IntersilOpcodes()) },
	".HD6120":  func(asm *Assembler, cur *cursor) { asm.changeProcessor(cur, PROCESSOR_HD6120, HarrisOpcodes()) },
	".HM6120":  func(asm *Assembler, cur *cursor) { asm.changeProcessor(cur, PROCESSOR_HD6120, HarrisOpcodes()) },
	".TITLE":   (*Assembler).dotTitle,
	".EJECT":   (*Assembler).dotEject,
	".ERROR":   (*Assembler).dotError,
	".NOWARN":  (*Assembler).dotNowarn,
	".LIST":    func(asm *Assembler, cur *cursor) { asm.listControl(cur, true) },
	".NOLIST":  func(asm *Assembler, cur *cursor) { asm.listControl(cur, false) },
	".ENABLE":  func(asm *Assembler, cur *cursor) { asm.assemblyControl(cur, true) },
	".DISABLE": func(asm *Assembler, cur *cursor) { asm.assemblyControl(cur, false) },
	".DEFINE":  (*Assembler).dotDefine,
}

// Text directives.
var textOps = map[string]pseudoHandler{
	".ASCIZ":  (*Assembler).dotAsciz,
	".TEXT":   (*Assembler).dotText,
	".SIXBIT": func(asm *Assembler, cur *cursor) { asm.sixbitText(cur, false) },
	".SIXBIZ": func(asm *Assembler, cur *cursor) { asm.sixbitText(cur, true) },
}

// Conditional assembly directives.
var conditionalOps = map[string]pseudoHandler{
	".IFDEF":  func(asm *Assembler, cur *cursor) { asm.ifDefined(cur, true) },
	".IFNDEF": func(asm *Assembler, cur *cursor) { asm.ifDefined(cur, false) },
	".IFEQ":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, isZero) },
	".IFNE":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, isNonZero) },
	".IFGT":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, isPositive) },
	".IFGE":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, isNotNegative) },
	".IFLT":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, Word.Negative) },
	".IFLE":   func(asm *Assembler, cur *cursor) { asm.ifValue(cur, isNotPositive) },
}

// directives iterates over every directive handler.
func directives() iter.Seq2[string, pseudoHandler] {
	return internal.IterSeq2Concat(
		maps.All(pseudoOps),
		maps.All(textOps),
		maps.All(conditionalOps),
	)
}

// dotEnd handles .END, which dumps any pending literals.
func (asm *Assembler) dotEnd(cur *cursor) {
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}
	if !asm.literals.Empty() {
		asm.setPC((asm.pc + 0177) & PAGE_MASK)
	}
	asm.listSource()
}

// dotOrg handles .ORG address. The address wraps to 12 bits like any
// other expression.
func (asm *Assembler) dotOrg(cur *cursor) {
	pc, ok := asm.evalExpr(cur)
	if ok && cur.atEOL() {
		asm.setPC(pc)
	} else {
		asm.flag(ER_SYNTAX)
	}
	asm.listAddress()
}

// dotPage handles .PAGE [page]. Without an operand, it advances to the
// start of the next page unless already at the start of one.
func (asm *Assembler) dotPage(cur *cursor) {
	if cur.atEOL() {
		asm.setPC((asm.pc + 0177) & PAGE_MASK)
	} else {
		page, ok := asm.evalExpr(cur)
		switch {
		case !ok || !cur.atEOL():
			asm.flag(ER_SYNTAX)
		case page > WORD_MASK>>7:
			asm.flag(ER_RANGE)
		default:
			asm.setPC(page << 7)
		}
	}
	asm.listAddress()
}

// dotField handles .FIELD field
func (asm *Assembler) dotField(cur *cursor) {
	field, ok := asm.evalExpr(cur)
	switch {
	case !ok || !cur.atEOL():
		asm.flag(ER_SYNTAX)
	case field >= FIELD_COUNT:
		asm.flag(ER_RANGE)
	default:
		asm.setField(field)
	}
	asm.listAddress()
}

// dotBlock handles .BLOCK count, reserving words without generating code.
func (asm *Assembler) dotBlock(cur *cursor) {
	count, ok := asm.evalExpr(cur)
	if !ok {
		count = 0
	} else if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
		count = 0
	}

	if asm.pc+count > asm.literals.Base {
		asm.flag(ER_PAGE)
		count = 0
		if asm.literals.Base > asm.pc {
			count = asm.literals.Base - asm.pc
		}
	}

	if asm.pass == 2 {
		for n := range count {
			if asm.Bitmap.Mark(asm.field, asm.pc+n) {
				asm.flag(ER_DUPLICATE)
			}
		}
	}
	asm.listAddress()

	asm.pc += count
}

// dataWords counts the comma separated expressions of a .DATA statement.
func dataWords(cur cursor) (count Word) {
	count = 1
	for ch := cur.peek(); !isEOL(ch); ch = cur.peek() {
		cur.skip()
		switch ch {
		case '"':
			for ch = cur.peek(); ch != '"' && ch != '\n' && ch != 0; ch = cur.peek() {
				cur.skip()
			}
			cur.skip()
		case ',':
			count++
		}
	}
	return
}

// dotData handles .DATA expression, expression, ...
func (asm *Assembler) dotData(cur *cursor) {
	count := dataWords(*cur)

	if asm.pass != 2 {
		asm.pc += count
		return
	}

	probe := *cur
	seen := Word(1)
	for {
		asm.evalExpr(&probe)
		if probe.atEOL() {
			break
		}
		if probe.peek() != ',' {
			asm.flag(ER_SYNTAX)
		}
		probe.skip()
		seen++
	}
	if seen != count {
		asm.flag(ER_SYNTAX)
	}
	asm.listSource()

	done := false
	for range count {
		var code Word
		if !done {
			var ok bool
			code, ok = asm.evalExpr(cur)
			if !ok {
				code = 0
			}
			if cur.atEOL() {
				done = true
			} else {
				cur.skip()
			}
		}
		asm.outputCode(code, asm.listOptions.Text, false)
	}
}

// dotMri handles .MRI NAME=value, defining a memory reference instruction.
func (asm *Assembler) dotMri(cur *cursor) {
	var value Word

	name, ok := cur.scanName(IDENT_LEN)
	if ok && cur.spanWhite() == '=' {
		cur.skip()
		value, ok = asm.evalExpr(cur)
		ok = ok && cur.atEOL()
	} else {
		ok = false
	}

	if ok {
		sym := asm.lookup(name)
		asm.reference(sym, true)
		if asm.pass == 1 {
			if !sym.define(Opdef{Value: value}) {
				asm.flag(ER_MULTIPLE)
			}
		} else {
			asm.revalidate(sym, SYMBOL_OPDEF)
		}
	} else {
		asm.flag(ER_SYNTAX)
	}

	asm.listValue(value, true)
}

// dotNload handles .NLOAD value, generating the single operate instruction
// that loads the constant into the accumulator.
func (asm *Assembler) dotNload(cur *cursor) {
	if asm.pass != 2 {
		asm.pc++
		return
	}

	value, ok := asm.evalExpr(cur)
	if ok && !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}

	code, ok := NLoad(asm.cpu, value)
	if !ok {
		asm.flag(ER_RANGE)
	}
	asm.outputCode(code, true, true)
}

// dotVector handles .VECTOR address, placing a jump to the address in the
// last word of the page, which is where the HD6120 starts after reset.
func (asm *Assembler) dotVector(cur *cursor) {
	page := asm.pc.Page()
	if asm.cpu == PROCESSOR_PDP8 {
		asm.flag(ER_PSEUDO)
	}
	if asm.literals.Base != page+PAGE_SIZE {
		asm.flag(ER_PAGE)
	}

	vector, ok := asm.evalExpr(cur)
	if !ok || !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}

	if vector.Page() == page {
		asm.literals.Set(page, 0177, opcodeMRI["JMP"]|0200|vector.Offset())
	} else {
		asm.literals.Set(page, 0177, opcodeMRI["JMP"]|0400|0200|0176)
		asm.literals.Set(page, 0176, vector)
	}

	asm.listValue(vector, true)
}

// dotStack handles .STACK push, pop, pushj, popj, which defines the
// instructions generated by .PUSH, .POP, .PUSHJ and .POPJ.
func (asm *Assembler) dotStack(cur *cursor) {
	if asm.pass != 2 {
		return
	}

	if asm.cpu == PROCESSOR_PDP8 {
		asm.flag(ER_PSEUDO)
	}

	ops := []*Word{&asm.push, &asm.pop, &asm.pushj, &asm.popj}
	for n, op := range ops {
		value, ok := asm.evalExpr(cur)
		*op = value
		switch {
		case !ok:
			asm.flag(ER_SYNTAX)
		case n < len(ops)-1:
			if cur.next() != ',' {
				asm.flag(ER_SYNTAX)
			}
		case !cur.atEOL():
			asm.flag(ER_SYNTAX)
		}
	}

	asm.listSource()
	for _, op := range ops {
		asm.listValue(*op, false)
	}
}

// stackOp generates a stack instruction defined by .STACK.
func (asm *Assembler) stackOp(cur *cursor, op Word) {
	if asm.cpu == PROCESSOR_PDP8 || op == 0 {
		asm.flag(ER_PSEUDO)
	}
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}
	asm.outputCode(op, true, true)
}

// dotPushj handles .PUSHJ address, a subroutine call through the stack.
// The IM6100 takes a full address; the HD6120 takes a JMP operand.
func (asm *Assembler) dotPushj(cur *cursor) {
	if asm.pass != 2 {
		asm.pc += 2
		return
	}

	if asm.cpu == PROCESSOR_PDP8 || asm.pushj == 0 {
		asm.flag(ER_PSEUDO)
	}
	asm.outputCode(asm.pushj, true, true)

	var target Word
	switch asm.cpu {
	case PROCESSOR_IM6100:
		value, ok := asm.evalExpr(cur)
		if !ok || !cur.atEOL() {
			asm.flag(ER_SYNTAX)
		}
		target = value
	case PROCESSOR_HD6120:
		value, ok := asm.evalMRI(cur, opcodeMRI["JMP"])
		if !ok || !cur.atEOL() {
			asm.flag(ER_SYNTAX)
		}
		target = value
	}
	asm.outputCode(target, true, false)
}

// changeProcessor selects a processor and installs its extra instructions.
func (asm *Assembler) changeProcessor(cur *cursor, cpu Processor, ops iter.Seq2[string, Opcode]) {
	if cur.atEOL() {
		for name, op := range ops {
			asm.lookup(name).Value = op
		}
		asm.cpu = cpu
	} else {
		asm.flag(ER_SYNTAX)
	}
	asm.listSource()
}

// dotTitle handles .TITLE text, setting the listing page title.
func (asm *Assembler) dotTitle(cur *cursor) {
	if asm.pass != 2 {
		return
	}

	if cur.atEOL() {
		asm.flag(ER_SYNTAX)
	} else if asm.Lister != nil {
		asm.Lister.Title(trimNewline(cur.rest()))
	}
	asm.listSource()
}

// dotEject handles .EJECT. The new page starts after this line.
func (asm *Assembler) dotEject(cur *cursor) {
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}
	asm.listSource()
	if asm.pass == 2 && asm.Lister != nil {
		asm.Lister.Eject()
	}
}

func (asm *Assembler) dotError(cur *cursor) {
	if asm.pass != 2 {
		return
	}
	asm.flag(ER_USER)
	asm.listSource()
}

// dotNowarn handles .NOWARN letters, replacing the set of ignored errors.
func (asm *Assembler) dotNowarn(cur *cursor) {
	var ignored ErrorSet
	for ch := cur.spanWhite(); !isEOL(ch); ch = cur.spanWhite() {
		if isAlpha(ch) {
			ignored = ignored.With(ErrorCode(toUpper(ch)))
		} else {
			asm.flag(ER_SYNTAX)
		}
		cur.skip()
	}
	asm.ignored = ignored
	asm.listSource()
}

// listControl handles .LIST and .NOLIST.
func (asm *Assembler) listControl(cur *cursor, enable bool) {
	opts := &asm.listOptions
	for {
		name, ok := cur.scanName(IDENT_LEN)
		if !ok {
			asm.flag(ER_SYNTAX)
			break
		}
		switch {
		case name == "MET":
			opts.Expansions = enable
		case name == "TXB":
			opts.Text = enable
		case name == "TOC":
			opts.TOC = enable
		case name == "MAP":
			opts.Map = enable
		case name == "SYM":
			opts.Symbols = enable
		case name == "PAG":
			opts.Paginate = enable
		case name == "ALL" && enable:
			opts.Expansions = true
			opts.Text = true
			opts.TOC = true
			opts.Map = true
			opts.Symbols = true
		default:
			asm.flag(ER_OPTION)
		}
		if cur.spanWhite() != ',' {
			break
		}
		cur.skip()
	}
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}

	if asm.pass == 2 && asm.Lister != nil {
		asm.Lister.SetOptions(asm.listOptions)
	}
	asm.listSource()
}

// assemblyControl handles .ENABLE and .DISABLE.
func (asm *Assembler) assemblyControl(cur *cursor, enable bool) {
	for {
		name, ok := cur.scanName(IDENT_LEN)
		if !ok {
			asm.flag(ER_SYNTAX)
			break
		}
		switch name {
		case "OS8":
			asm.sixbit = SIXBIT_DEC
			if enable {
				asm.sixbit = SIXBIT_OS8
			}
		case "ASR":
			asm.ascii = ASCII_NORMAL
			if enable {
				asm.ascii = ASCII_ALWAYS_MARK
			}
		default:
			asm.flag(ER_OPTION)
		}
		if cur.spanWhite() != ',' {
			break
		}
		cur.skip()
	}
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}
	asm.listSource()
}
