package pal

import (
	"fmt"
	"strings"
)

// Macro is a .DEFINE macro.
type Macro struct {
	Name    string
	Formals []string // A formal starting with '$' is a generated label.
	Body    string   // Body text, one or more newline terminated lines.
}

// Expansion is an active invocation of a macro.
type Expansion struct {
	Macro   *Macro
	Actuals []string

	pos int // Read position in the macro body.
}

// actual returns the actual argument bound to a formal name.
func (exp *Expansion) actual(name string) (arg string, ok bool) {
	for n, formal := range exp.Macro.Formals {
		if strings.TrimPrefix(formal, "$") != name {
			continue
		}
		if n < len(exp.Actuals) {
			arg = exp.Actuals[n]
		}
		return arg, true
	}
	return
}

// nextLine returns the next body line with every $NAME replaced by its
// actual argument, and $$ replaced by $. Unknown names expand to nothing.
func (exp *Expansion) nextLine(flag func(ErrorCode)) (line string, ok bool, err error) {
	body := exp.Macro.Body
	if exp.pos >= len(body) {
		return
	}

	var sb strings.Builder
	for exp.pos < len(body) {
		ch := body[exp.pos]
		exp.pos++

		if ch == '$' {
			if exp.pos < len(body) && body[exp.pos] == '$' {
				sb.WriteByte('$')
				exp.pos++
				continue
			}
			cur := cursor{text: body, pos: exp.pos}
			name, found := cur.scanName(IDENT_LEN)
			exp.pos = cur.pos
			if !found {
				flag(ER_SYNTAX)
				continue
			}
			arg, _ := exp.actual(name)
			if sb.Len()+len(arg) > MAX_LINE-1 {
				err = ErrExpansionTooLong
				return
			}
			sb.WriteString(arg)
			continue
		}

		if sb.Len() >= MAX_LINE-1 {
			err = ErrExpansionTooLong
			return
		}
		sb.WriteByte(ch)
		if ch == '\n' {
			break
		}
	}

	return sb.String(), true, nil
}

// generateLabels fills in omitted generated label actuals with
// unique names.
func (asm *Assembler) generateLabels(exp *Expansion) {
	for n, formal := range exp.Macro.Formals {
		if !strings.HasPrefix(formal, "$") {
			continue
		}
		for len(exp.Actuals) <= n {
			exp.Actuals = append(exp.Actuals, "")
		}
		if exp.Actuals[n] != "" {
			continue
		}
		asm.generated++
		exp.Actuals[n] = fmt.Sprintf("$%05d", asm.generated)
	}
}

// readBlock reads a <...> block, which may span lines, balancing nested
// brackets. A newline directly after the opening bracket is dropped.
// The block text is returned only if keep is set.
func (asm *Assembler) readBlock(cur *cursor, keep bool, addNewline bool) (block string) {
	var ch byte
	for {
		ch = asm.sourceChar(cur)
		for isSpace(ch) || ch == '\n' {
			ch = asm.sourceChar(cur)
		}
		if ch == '<' {
			break
		}
		asm.flag(ER_SYNTAX)
	}

	ch = asm.sourceChar(cur)
	if ch == '\n' {
		ch = asm.sourceChar(cur)
	}

	var sb strings.Builder
	level := 0
	for ch != '>' || level != 0 {
		if sb.Len() >= MAX_BODY-2 {
			asm.fatal(ErrMacroBodyTooLong)
		}
		if keep {
			sb.WriteByte(ch)
		}
		switch {
		case ch == '<':
			level++
		case ch == '>' && level > 0:
			level--
		}
		ch = asm.sourceChar(cur)
	}

	block = sb.String()
	if keep && addNewline && !strings.HasSuffix(block, "\n") {
		block += "\n"
	}

	return
}

// parseFormals parses the optional, parenthesized, formal argument list
// of a macro definition.
func (asm *Assembler) parseFormals(cur *cursor) (formals []string, ok bool) {
	if cur.atEOL() {
		return nil, true
	}

	paren := false
	if cur.peek() == '(' {
		paren = true
		cur.skip()
	}

	for len(formals) < MAX_ARGS {
		name, found := cur.scanName(IDENT_LEN)
		if !found {
			break
		}
		formals = append(formals, name)
		if cur.spanWhite() != ',' {
			break
		}
		cur.skip()
	}

	if paren {
		if cur.peek() != ')' {
			asm.flag(ER_SYNTAX)
			return formals, false
		}
		cur.skip()
	}

	return formals, true
}

// parseActual parses one actual macro argument. Commas inside double quotes
// or parentheses do not end the argument, and a <...> block may hold
// any text at all.
func (asm *Assembler) parseActual(cur *cursor) (arg string, ok bool) {
	ch := cur.spanWhite()
	if ch == '<' {
		arg = asm.readBlock(cur, true, false)
		if len(arg) > MAX_LINE-1 {
			asm.flag(ER_MACRO)
			return "", false
		}
		return arg, true
	}

	var sb strings.Builder
	quoted := false
	depth := 0
	for (ch != ',' || quoted || depth > 0) && !isEOL(ch) {
		if ch == '"' {
			quoted = !quoted
		}
		if ch == '(' {
			depth++
		}
		if ch == ')' && depth == 0 {
			break
		}
		if sb.Len() == MAX_LINE {
			asm.flag(ER_MACRO)
			return "", false
		}
		if ch == ')' {
			depth--
		}
		sb.WriteByte(ch)
		cur.skip()
		ch = cur.peek()
	}

	return strings.TrimRight(sb.String(), " \t\r\n\v\f"), true
}

// dotDefine handles .DEFINE NAME (FORMALS) <BODY>
func (asm *Assembler) dotDefine(cur *cursor) {
	name, ok := cur.scanName(IDENT_LEN)
	if !ok {
		asm.flag(ER_SYNTAX)
		return
	}

	sym := asm.lookup(name)
	var macro *Macro
	switch value := sym.Value.(type) {
	case Undefined:
		macro = &Macro{Name: sym.Name}
		sym.Value = macro
	case *Macro:
		macro = value
	default:
		asm.flag(ER_MULTIPLE)
	}
	asm.reference(sym, true)

	formals, _ := asm.parseFormals(cur)
	body := asm.readBlock(cur, true, true)
	if !cur.atEOL() {
		asm.flag(ER_SYNTAX)
	}

	if macro != nil {
		macro.Formals = formals
		macro.Body = body
	}

	if asm.pass == 2 {
		asm.listSource()
	}
}

// invoke parses the actual arguments of a macro call and makes the
// expansion active.
func (asm *Assembler) invoke(macro *Macro, cur *cursor) {
	exp := &Expansion{Macro: macro}

	args := func() {
		if cur.atEOL() {
			return
		}
		paren := false
		if cur.peek() == '(' {
			paren = true
			cur.skip()
			if cur.spanWhite() == ')' {
				return
			}
		}

		for len(exp.Actuals) < MAX_ARGS {
			arg, ok := asm.parseActual(cur)
			if !ok {
				break
			}
			exp.Actuals = append(exp.Actuals, arg)
			if cur.peek() != ',' {
				break
			}
			cur.skip()
		}

		if paren {
			if cur.peek() != ')' {
				asm.flag(ER_SYNTAX)
			}
			cur.skip()
		}
		if !cur.atEOL() {
			asm.flag(ER_SYNTAX)
		}
	}
	args()

	asm.generateLabels(exp)

	if asm.pass == 2 {
		asm.listSource()
	}

	asm.expansions.Push(exp)
}
