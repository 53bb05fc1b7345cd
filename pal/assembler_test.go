package pal

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

// testLister records the listing.
type testLister struct {
	lines   []Listing
	titles  []string
	ejects  int
	options []ListOptions
}

func (tl *testLister) List(line *Listing) { tl.lines = append(tl.lines, *line) }
func (tl *testLister) Eject() { tl.ejects++ }
func (tl *testLister) Title(title string) { tl.titles = append(tl.titles, title) }
func (tl *testLister) SetOptions(options ListOptions) { tl.options = append(tl.options, options) }

// flags returns the error flags listed for a source line.
func (tl *testLister) flags(lineNo int) (flags string) {
	for _, line := range tl.lines {
		if line.LineNo == lineNo {
			flags += line.Flags
		}
	}
	return
}

// testObject records the generated words by full address.
type testObject struct {
	words map[int]Word
}

func (to *testObject) Emit(field, address, value Word) error {
	to.words[int(field)<<12|int(address)] = value
	return nil
}

type testRun struct {
	asm    *Assembler
	result *Result
	lister *testLister
	object *testObject
}

func newTestAssembler() *Assembler {
	asm := NewAssembler()
	asm.Logger = log.New(io.Discard)
	asm.Now = func() time.Time {
		return time.Date(2024, time.March, 5, 13, 4, 9, 0, time.UTC)
	}
	return asm
}

func assembleWith(asm *Assembler, program ...string) (run testRun, err error) {
	run.asm = asm
	run.lister = &testLister{}
	run.object = &testObject{words: map[int]Word{}}
	asm.Lister = run.lister
	asm.Object = run.object

	run.result, err = asm.Assemble(NewStringSource(strings.Join(program, "\n") + "\n"))
	return
}

func assembleLines(t *testing.T, program ...string) testRun {
	run, err := assembleWith(newTestAssembler(), program...)
	if err != nil {
		t.Fatal(err)
	}
	return run
}

func (run testRun) symbol(name string) SymbolValue {
	sym, ok := run.asm.Symbols.Find(name)
	if !ok {
		return nil
	}
	return sym.Value
}

func TestAssemble_Basic(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"START:	CLA CLL",
		"	TAD	A",
		"	DCA	B",
		"	JMP	START",
		"A:	5",
		"B:	0",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(00206, run.result.Break)
	assert.Equal(map[int]Word{
		00200: 07300,
		00201: 01204,
		00202: 03205,
		00203: 05200,
		00204: 00005,
		00205: 00000,
	}, run.object.words)
	assert.Equal(Label{Field: 0, Address: 00204}, run.symbol("A"))
}

func TestAssemble_PassTrace(t *testing.T) {
	assert := assert.New(t)

	type step struct {
		lineNo int
		field  Word
		pc     Word
	}
	trace := map[int][]step{}

	asm := newTestAssembler()
	asm.Trace = func(pass int, lineNo int, field Word, pc Word) {
		trace[pass] = append(trace[pass], step{lineNo, field, pc})
	}

	run, err := assembleWith(asm,
		"	.DEFINE INC(X) <",
		"	ISZ	$X",
		"	>",
		"START:	TAD	[1]",
		"	INC	COUNT",
		"	JMP	DONE",
		"COUNT:	0",
		"	.DATA	1, 2, \"A\"",
		"	.ASCIZ	/AB/",
		"DONE:	HLT",
	)
	assert.NoError(err)
	assert.Equal(0, run.result.Errors)
	assert.NotEmpty(trace[1])
	assert.Equal(trace[1], trace[2])

	assert.Equal(Word(01377), run.object.words[00200])
	assert.Equal(Word(02203), run.object.words[00201])
	assert.Equal(Word(05212), run.object.words[00202])
	assert.Equal(Word(00101), run.object.words[00206])
	assert.Equal(Word(07402), run.object.words[00212])
	assert.Equal(Word(00001), run.object.words[00377])
}

func TestAssemble_SameSymbol(t *testing.T) {
	assert := assert.New(t)

	asm := NewAssembler()

	first, err := asm.Symbols.Lookup("foo")
	assert.NoError(err)
	second, err := asm.Symbols.Lookup("FOO")
	assert.NoError(err)
	assert.Same(first, second)

	long, err := asm.Symbols.Lookup("ABCDEFGHIJKLM")
	assert.NoError(err)
	same, err := asm.Symbols.Lookup("abcdefghijkXX")
	assert.NoError(err)
	assert.Same(long, same)
	assert.Equal("ABCDEFGHIJK", long.Name)
}

func TestAssemble_LabelRedefined(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"A:	1",
		"A:	2",
		"	TAD	A",
	)

	assert.Equal(MultiplyDefined{Original: Label{Field: 0, Address: 00200}}, run.symbol("A"))
	assert.Equal("M", run.lister.flags(1))
	assert.Equal("M", run.lister.flags(2))
	assert.Equal("M", run.lister.flags(3))
	assert.Equal(3, run.result.Errors)
	assert.Equal(Word(01000), run.object.words[00202])
}

func TestAssemble_DefineOverLabel(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"A:	1",
		"	.DEFINE A <2>",
		"	TAD	A",
	)

	assert.Equal(Label{Field: 0, Address: 00200}, run.symbol("A"))
	assert.Equal("M", run.lister.flags(2))
	assert.Equal(1, run.result.Errors)
	assert.Equal(Word(01200), run.object.words[00201])
	assert.Len(run.object.words, 2)
}

func TestAssemble_LiteralReuse(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	TAD	[5]",
		"	TAD	[5]",
		"	TAD	[6]",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		00200: 01377,
		00201: 01377,
		00202: 01376,
		00376: 00006,
		00377: 00005,
	}, run.object.words)
}

func TestAssemble_MacroSubstitution(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.DEFINE SHOW(V) <",
		"	$V	; value $V costs $$1",
		">",
		"	SHOW 17",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(Word(017), run.object.words[00200])

	var found bool
	for _, line := range run.lister.lines {
		if line.Macro && line.HasCode {
			found = true
			assert.Equal(4, line.LineNo)
			assert.Equal("\t17\t; value 17 costs $1", line.Source)
		}
	}
	assert.True(found)
}

func TestAssemble_GeneratedLabels(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.DEFINE LOOP(N,$L) <",
		"$L:	ISZ	$N",
		"	JMP	$L",
		">",
		"	LOOP	CNT",
		"	LOOP	CNT",
		"CNT:	0",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(Label{Field: 0, Address: 00200}, run.symbol("$00001"))
	assert.Equal(Label{Field: 0, Address: 00202}, run.symbol("$00002"))
	assert.Equal(map[int]Word{
		00200: 02204,
		00201: 05200,
		00202: 02204,
		00203: 05202,
		00204: 00000,
	}, run.object.words)
}

func TestAssemble_Conditional(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"FLAG=0",
		"	.IFEQ FLAG <",
		"	1",
		"	.IFNE FLAG <",
		"	2",
		"	>",
		"	3",
		"	>",
		"	4",
		"	.IFNE FLAG <",
		"	5",
		"	.IFEQ FLAG <",
		"	6",
		"	>",
		"	7",
		"	>",
		"	10",
		"	.IFDEF FLAG <11>",
		"	.IFNDEF FLAG <12>",
		"	.IFLT -1 <13>",
		"	.IFGT -1 <14>",
		"	.IFGE 0 <20>",
		"	.IFLE 0 <21>",
		"	.IFGE -1 <22>",
		"	.IFLE 1 <23>",
		"	.IFGE 1 <24>",
		"	.IFLE -1 <25>",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		00200: 001,
		00201: 003,
		00202: 004,
		00203: 010,
		00204: 011,
		00205: 013,
		00206: 020,
		00207: 021,
		00210: 024,
		00211: 025,
	}, run.object.words)
}

func TestAssemble_DuplicateWrite(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	1",
		"	.ORG	0200",
		"	2",
	)

	assert.Equal("", run.lister.flags(1))
	assert.Equal("D", run.lister.flags(3))
	assert.Equal(1, run.result.Errors)
	assert.Equal(Word(2), run.object.words[00200])
}

func TestAssemble_Scenario1(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"FOO=5",
		"BAR:	1234",
		"	.END",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(Equate{Value: 5}, run.symbol("FOO"))
	assert.Equal(Label{Field: 0, Address: 00200}, run.symbol("BAR"))
	assert.Equal(map[int]Word{00200: 01234}, run.object.words)
}

func TestAssemble_Scenario2(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.MRI LOAD=1000",
		"	.MRI STORE=3000",
		"	.DEFINE ADD(A,B,DST)<LOAD $A",
		"LOAD $B",
		"STORE $DST>",
		"	ADD X,Y,Z",
		"X:	1",
		"Y:	2",
		"Z:	0",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		00200: 01203,
		00201: 01204,
		00202: 03205,
		00203: 00001,
		00204: 00002,
		00205: 00000,
	}, run.object.words)

	x, ok := run.asm.Symbols.Find("X")
	assert.True(ok)
	assert.Equal([]Reference{{LineNo: 6}, {LineNo: 7, Definition: true}}, x.Refs)
	z, ok := run.asm.Symbols.Find("Z")
	assert.True(ok)
	assert.Equal([]Reference{{LineNo: 6}, {LineNo: 9, Definition: true}}, z.Refs)
}

func TestAssemble_Scenario3(t *testing.T) {
	assert := assert.New(t)

	var program []string
	for range 128 {
		program = append(program, "	1234")
	}
	program = append(program, "	TAD	[7]")

	run := assembleLines(t, program...)

	assert.Equal("P", run.lister.flags(129))
	assert.Equal(1, run.result.Errors)
	assert.Equal(Word(01234), run.object.words[00377])
	assert.Equal(Word(01000), run.object.words[00400])
	assert.Len(run.object.words, 129)
	for loc, value := range run.object.words {
		assert.NotEqual(Word(7), value, "location %05o", loc)
	}
}

func TestAssemble_LiteralCollision(t *testing.T) {
	assert := assert.New(t)

	var program []string
	for range 127 {
		program = append(program, "	0")
	}
	program = append(program, "	TAD	[7]")

	run := assembleLines(t, program...)

	assert.Equal("P", run.lister.flags(128))
	assert.Equal(1, run.result.Errors)
	assert.Equal(Word(01000), run.object.words[00377])
}

func TestAssemble_OrgWraps(t *testing.T) {
	table := [](struct {
		name    string
		program []string
		words   map[int]Word
	}){
		{"octal", []string{"	.ORG	10001", "	5"}, map[int]Word{00001: 5}},
		{"sum", []string{"	.ORG	7777+3", "	6"}, map[int]Word{00002: 6}},
		{"in-range", []string{"	.ORG	7770", "	7"}, map[int]Word{07770: 7}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			run := assembleLines(t, entry.program...)
			assert.Equal(0, run.result.Errors)
			assert.Equal("", run.lister.flags(1))
			assert.Equal(entry.words, run.object.words)
		})
	}
}

func TestAssemble_FullPage(t *testing.T) {
	var fill []string
	for range 128 {
		fill = append(fill, "	0")
	}

	table := [](struct {
		name    string
		program []string
		flags   string
		errors  int
		words   map[int]Word
	}){
		{"page", append(append([]string{}, fill...), "	.PAGE", "	TAD	[7]"),
			"", 0, map[int]Word{00400: 01377, 00577: 7}},
		{"org", append(append([]string{}, fill...), "	.ORG	0400", "	TAD	[7]"),
			"", 0, map[int]Word{00400: 01377, 00577: 7}},
		{"flow", append(append([]string{}, fill...), "	TAD	[7]"),
			"P", 1, map[int]Word{00400: 01000}},
		{"flow-code", append(append([]string{}, fill...), "	0", "	TAD	[7]"),
			"", 0, map[int]Word{00400: 0, 00401: 01377, 00577: 7}},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			run := assembleLines(t, entry.program...)
			assert.Equal(entry.errors, run.result.Errors)
			assert.Equal(entry.flags, run.lister.flags(len(entry.program)))
			for loc, value := range entry.words {
				assert.Equal(value, run.object.words[loc], "location %05o", loc)
			}
			assert.Len(run.object.words, 128+len(entry.words))
		})
	}
}

func TestAssemble_FieldFlush(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	TAD	[3]",
		"	.FIELD	1",
		"	TAD	[3]",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		000200: 01377,
		000377: 00003,
		010200: 01377,
		010377: 00003,
	}, run.object.words)
	assert.Equal(010201, run.result.Break)
}

func TestAssemble_SymbolTableFull(t *testing.T) {
	assert := assert.New(t)

	asm := newTestAssembler()
	asm.Symbols.Capacity = asm.Symbols.Len() + 2

	_, err := assembleWith(asm,
		"A:	1",
		"B:	2",
		"C:	3",
	)
	assert.True(errors.Is(err, ErrSymbolTableFull))

	var fe ErrFatal
	assert.True(errors.As(err, &fe))
	assert.Equal(1, fe.Pass)
	assert.Equal(3, fe.LineNo)
}

func TestAssemble_BlockUnterminated(t *testing.T) {
	assert := assert.New(t)

	_, err := assembleWith(newTestAssembler(),
		"	.IFEQ 1 <",
		"	1",
	)
	assert.True(errors.Is(err, ErrBlockUnterminated))
}

func TestAssemble_Expressions(t *testing.T) {
	table := [](struct {
		expr  string
		value Word
		flags string
	}){
		{"1+2*3", 011, ""},
		{"(1+2)*3", 011, ""},
		{"-1", 07777, ""},
		{"~0", 07777, ""},
		{"2-3", 07777, ""},
		{"10.", 012, ""},
		{"12D", 014, ""},
		{"17B", 017, ""},
		{"19", 023, ""},
		{"18B", 0, "N"},
		{"17%5", 0, ""},
		{"7&3|10", 013, ""},
		{"7/0", 0, "A"},
		{"\"A\"", 0101, ""},
		{"4000+4000", 0, ""},
		{"NOPE+1", 1, "U"},
		{"(1+2", 0, "X"},
	}

	for _, entry := range table {
		t.Run(entry.expr, func(t *testing.T) {
			assert := assert.New(t)

			run := assembleLines(t, "V="+entry.expr)
			assert.Equal(Equate{Value: entry.value}, run.symbol("V"))
			assert.Equal(entry.flags, run.lister.flags(1))
		})
	}
}

func TestAssemble_Location(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.ORG	1000",
		"	*+2",
		"	JMP	*-1",
		"	TAD	@20",
		"	TAD	1400",
	)

	assert.Equal(Word(01002), run.object.words[01000])
	assert.Equal(Word(05200), run.object.words[01001])
	assert.Equal(Word(01420), run.object.words[01002])
	assert.Equal(Word(01000), run.object.words[01003])
	assert.Equal("W", run.lister.flags(5))
}

func TestAssemble_Operate(t *testing.T) {
	table := [](struct {
		source string
		code   Word
		flags  string
	}){
		{"CLA CLL", 07300, ""},
		{"CLA SZA", 07640, ""},
		{"CLA MQL", 07621, ""},
		{"SZA CLL", 07540, "O"},
		{"CLA IAC JMP", 07201, "O"},
		{"CDF 3", 06231, ""},
		{"CDF 10", 06201, "A"},
	}

	for _, entry := range table {
		t.Run(entry.source, func(t *testing.T) {
			assert := assert.New(t)

			run := assembleLines(t, "	"+entry.source)
			assert.Equal(entry.code, run.object.words[00200])
			assert.Equal(entry.flags, run.lister.flags(1))
		})
	}
}

func TestAssemble_Devices(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.IM6100",
		"	WRITE1 2",
		"	WPA 3",
		"	WPA 4",
	)

	pie, ok := run.symbol("WRITE1").(Opcode)
	assert.True(ok)
	pio, ok := run.symbol("WPA").(Opcode)
	assert.True(ok)

	assert.Equal(pie.Value|2<<4, run.object.words[00200])
	assert.Equal(pio.Value|3<<4, run.object.words[00201])
	assert.Equal(pio.Value, run.object.words[00202])
	assert.Equal("A", run.lister.flags(4))
}

func TestAssemble_NLoad(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.NLOAD	0",
		"	.NLOAD	7777",
		"	.NLOAD	10",
		"	.NLOAD	5",
		"	.HD6120",
		"	.NLOAD	10",
	)

	assert.Equal(map[int]Word{
		00200: 07200,
		00201: 07240,
		00202: 07000,
		00203: 07000,
		00204: 07315,
	}, run.object.words)
	assert.Equal("A", run.lister.flags(3))
	assert.Equal("A", run.lister.flags(4))
	assert.Equal("", run.lister.flags(6))
}

func TestAssemble_Text(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.SIXBIT	/AB/",
		"	.SIXBIZ	/ABC/",
		"	.SIXBIZ	/AB/",
		"	.TEXT	/ABC/",
		"	.TEXT	'AB'",
		"	.ASCIZ	/Hi/",
		"	.ENABLE	OS8",
		"	.SIXBIZ	/AB/",
		"	.SIXBIT	/a{/",
	)

	assert.Equal(map[int]Word{
		00200: 04142,
		00201: 04142,
		00202: 04377,
		00203: 04142,
		00204: 07777,
		00205: 02101,
		00206: 01502,
		00207: 00000,
		00210: 00101,
		00211: 00102,
		00212: 00000,
		00213: 00110,
		00214: 00151,
		00215: 00000,
		00216: 00102,
		00217: 00000,
		00220: 00173,
	}, run.object.words)
	assert.Equal("T", run.lister.flags(9))
}

func TestAssemble_Escapes(t *testing.T) {
	assert := assert.New(t)

	asm := newTestAssembler()

	text, ok := asm.expandEscapes(`x\d \h\\\t\r\n`)
	assert.True(ok)
	assert.Equal("x05-MAR-24 13:04:09\\\t\r\n", text)

	_, ok = asm.expandEscapes(`\q`)
	assert.False(ok)
}

func TestAssemble_Vector(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.HD6120",
		"	.ORG	7600",
		"START:	JMP	START",
		"	.VECTOR	START",
		"	.ORG	7400",
		"	.VECTOR	200",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		07600: 05200,
		07777: 05200,
		07577: 05776,
		07576: 00200,
	}, run.object.words)
}

func TestAssemble_Stack(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.HD6120",
		"	.STACK	6215, 6235, 6205, 6225",
		"	.PUSH",
		"	.PUSHJ	SUB",
		"	.POPJ",
		"SUB:	.POP",
		"	.IM6100",
		"	.PUSHJ	1234",
	)

	assert.Equal(0, run.result.Errors)
	assert.Equal(map[int]Word{
		00200: 06215,
		00201: 06205,
		00202: 05204,
		00203: 06225,
		00204: 06235,
		00205: 06205,
		00206: 01234,
	}, run.object.words)

	run = assembleLines(t, "	.PUSH")
	assert.Equal("Z", run.lister.flags(1))
}

func TestAssemble_Block(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"A:	.BLOCK	3",
		"B:	1",
		"	.ORG	370",
		"	.BLOCK	20",
	)

	assert.Equal(Label{Field: 0, Address: 00203}, run.symbol("B"))
	assert.Equal(map[int]Word{00203: 1}, run.object.words)
	assert.True(run.result.Bitmap.IsSet(0, 00202))
	assert.True(run.result.Bitmap.IsSet(0, 00377))
	assert.Equal("P", run.lister.flags(4))
}

func TestAssemble_Directives(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.TITLE	My Program",
		"	.FOO",
		"	.ERROR",
		"	.NOWARN	U",
		"	TAD	NOPE",
		"	.NOLIST	MET, BOGUS",
		"\f	.EJECT",
	)

	assert.Equal([]string{"My Program"}, run.lister.titles)
	assert.Equal("Z", run.lister.flags(2))
	assert.Equal("E", run.lister.flags(3))
	assert.Equal("", run.lister.flags(5))
	assert.Equal("L", run.lister.flags(6))
	assert.Equal(2, run.lister.ejects)
	assert.Equal(3, run.result.Errors)
	assert.False(run.result.Options.Expansions)

	_, ok := run.asm.Symbols.Find(".FOO")
	assert.False(ok)
}

func TestAssemble_NoListExpansions(t *testing.T) {
	assert := assert.New(t)

	run := assembleLines(t,
		"	.NOLIST	MET",
		"	.DEFINE TWO <",
		"	1",
		"	; just a comment",
		"	2",
		">",
		"	TWO",
	)

	var macro []Listing
	for _, line := range run.lister.lines {
		if line.Macro {
			macro = append(macro, line)
		}
	}
	assert.Len(macro, 2)
	for _, line := range macro {
		assert.False(line.HasSource)
		assert.True(line.HasCode)
	}
}

func TestAssemble_Predefine(t *testing.T) {
	assert := assert.New(t)

	asm := newTestAssembler()
	asm.Predefine("debug", 1)

	run, err := assembleWith(asm,
		"	.IFDEF DEBUG <DEBUG>",
	)
	assert.NoError(err)
	assert.Equal(Word(1), run.object.words[00200])
}

func ExampleAssembler() {
	asm := NewAssembler()
	asm.Logger = log.New(io.Discard)

	result, err := asm.Assemble(NewStringSource("START:\tCLA IAC\n\tJMP START\n"))
	if err != nil {
		panic(err)
	}

	fmt.Printf("%05o %d\n", result.Break, result.Errors)
	// Output: 00202 0
}
