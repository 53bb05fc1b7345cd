package pal

import (
	"iter"
	"maps"

	"github.com/ezrec/palx/internal"
)

// OpcodeClass is the operand format of a machine instruction.
type OpcodeClass int

const (
	CLASS_MRI = OpcodeClass(0) // mri
	CLASS_OPR = OpcodeClass(1) // opr
	CLASS_IOT = OpcodeClass(2) // iot
	CLASS_PIE = OpcodeClass(3) // pie
	CLASS_PIO = OpcodeClass(4) // pio
	CLASS_CXF = OpcodeClass(5) // cxf
)

var opcodeClassName = [...]string{"mri", "opr", "iot", "pie", "pio", "cxf"}

func (oc OpcodeClass) String() string {
	if oc < 0 || int(oc) >= len(opcodeClassName) {
		return "unknown"
	}
	return opcodeClassName[oc]
}

// Processor is the selected processor variant.
type Processor int

const (
	PROCESSOR_PDP8   = Processor(0)
	PROCESSOR_IM6100 = Processor(6100)
	PROCESSOR_HD6120 = Processor(6120)
)

func (p Processor) String() string {
	switch p {
	case PROCESSOR_IM6100:
		return "IM6100"
	case PROCESSOR_HD6120:
		return "HD6120"
	default:
		return "PDP-8"
	}
}

// Memory reference instructions.
var opcodeMRI = map[string]Word{
	"AND": 00000,
	"TAD": 01000,
	"ISZ": 02000,
	"DCA": 03000,
	"JMS": 04000,
	"JMP": 05000,
}

// Operate microinstructions.
var opcodeOPR = map[string]Word{
	"NOP": 07000, "IAC": 07001, "RAL": 07004, "RTL": 07006,
	"RAR": 07010, "RTR": 07012, "BSW": 07002, "CML": 07020,
	"CMA": 07040, "CIA": 07041, "CLL": 07100, "STL": 07120,
	"CLA": 07200, "GLK": 07204, "STA": 07240, "HLT": 07402,
	"OSR": 07404, "SKP": 07410, "SNL": 07420, "SZL": 07430,
	"SZA": 07440, "SNA": 07450, "SMA": 07500, "SPA": 07510,
	"LAS": 07604, "MQL": 07421, "MQA": 07501, "SWP": 07521,
	"CAM": 07621, "ACL": 07701,
}

// Memory extension and processor IOTs.
var opcodeCXF = map[string]Word{
	"CDF": 06201, "CIF": 06202, "CXF": 06203,
}

var opcodeIOT = map[string]Word{
	"RDF": 06214, "RIF": 06224, "RIB": 06234, "RMF": 06244,
	"SKON": 06000, "ION": 06001, "IOF": 06002, "SRQ": 06003,
	"GTF": 06004, "RTF": 06005, "SGT": 06006, "CAF": 06007,
}

// IM6101 peripheral interface element.
var opcodeIntersilPIE = map[string]Word{
	"READ1": 06000, "READ2": 06010, "WRITE1": 06001, "WRITE2": 06011,
	"SKIP1": 06002, "SKIP2": 06003, "SKIP3": 06012, "SKIP4": 06013,
	"RCRA": 06004, "WCRA": 06005, "WCRB": 06015, "WVR": 06014,
	"SFLAG1": 06006, "SFLAG3": 06016, "CFLAG1": 06007, "CFLAG3": 06017,
}

// IM6103 parallel I/O.
var opcodeIntersilPIO = map[string]Word{
	"SETPA": 06300, "CLRPA": 06301, "WPA": 06302, "RPA": 06303,
	"SETPB": 06304, "CLRPB": 06305, "WPB": 06306, "RPB": 06307,
	"SETPC": 06310, "CLRPC": 06311, "WPC": 06312, "RPC": 06313,
	"SKPOR": 06314, "SKPIR": 06315, "WSR": 06316, "RSR": 06317,
}

// IM6102 memory extension, DMA and clock.
var opcodeIntersilIOT = map[string]Word{
	"LIF": 06254,
	"CLZE": 06130, "CLSK": 06131, "CLOE": 06132, "CLAB": 06133,
	"CLEN": 06134, "CLSA": 06135, "CLBA": 06136, "CLCA": 06137,
	"LCAR": 06205, "RCAR": 06215, "LWCR": 06225, "REAR": 06235,
	"LFSR": 06245, "RFSR": 06255, "WRVR": 06275, "SKOF": 06265,
}

var opcodeIntersilCXF = map[string]Word{
	"LEAR": 06206,
}

var opcodeHarrisOPR = map[string]Word{
	"R3L": 07014,
}

// HD6120 extras and stack instructions.
var opcodeHarrisIOT = map[string]Word{
	"WSR": 06246, "GCF": 06256, "PR0": 06206, "PR1": 06216,
	"PR2": 06226, "PR3": 06236, "PRS": 06000, "PGO": 06003,
	"PEX": 06004, "CPD": 06266, "SPD": 06276,
	"PPC1": 06205, "PPC2": 06245, "PAC1": 06215, "PAC2": 06255,
	"RTN1": 06225, "RTN2": 06265, "POP1": 06235, "POP2": 06275,
	"RSP1": 06207, "RSP2": 06227, "LSP1": 06217, "LSP2": 06237,
}

// opcodes tags every entry of an opcode table with its class.
func opcodes(class OpcodeClass, table map[string]Word) iter.Seq2[string, Opcode] {
	return func(yield func(string, Opcode) bool) {
		for name, value := range maps.All(table) {
			if !yield(name, Opcode{Class: class, Value: value}) {
				return
			}
		}
	}
}

// BaseOpcodes returns the instructions common to every PDP-8.
func BaseOpcodes() iter.Seq2[string, Opcode] {
	return internal.IterSeq2Concat(
		opcodes(CLASS_MRI, opcodeMRI),
		opcodes(CLASS_OPR, opcodeOPR),
		opcodes(CLASS_CXF, opcodeCXF),
		opcodes(CLASS_IOT, opcodeIOT),
	)
}

// IntersilOpcodes returns the IM6100 family mnemonics.
func IntersilOpcodes() iter.Seq2[string, Opcode] {
	return internal.IterSeq2Concat(
		opcodes(CLASS_PIE, opcodeIntersilPIE),
		opcodes(CLASS_PIO, opcodeIntersilPIO),
		opcodes(CLASS_IOT, opcodeIntersilIOT),
		opcodes(CLASS_CXF, opcodeIntersilCXF),
	)
}

// HarrisOpcodes returns the HD6120 mnemonics.
func HarrisOpcodes() iter.Seq2[string, Opcode] {
	return internal.IterSeq2Concat(
		opcodes(CLASS_OPR, opcodeHarrisOPR),
		opcodes(CLASS_IOT, opcodeHarrisIOT),
	)
}

// oprGroup returns the operate group, 1 to 3, of a microinstruction.
func oprGroup(op Word) int {
	switch {
	case op&07400 == 07000:
		return 1
	case op&07401 == 07400:
		return 2
	case op&07401 == 07401:
		return 3
	}
	return 0
}

// CLA is valid in every operate group.
const OPR_CLA = 07200

// nloadTable maps a constant to the operate instruction that loads it.
var nloadTable = map[Word]Word{
	00000: 07200, // CLA
	00001: 07201, // CLA IAC
	00002: 07326, // CLA CLL CML RTL
	02000: 07332, // CLA CLL CML RTR
	03777: 07350, // CLA CLL CMA RAR
	04000: 07330, // CLA CLL CML RAR
	05777: 07352, // CLA CLL CMA RTR
	07775: 07346, // CLA CLL CMA RTL
	07776: 07344, // CLA CLL CMA RAL
	07777: 07240, // CLA CMA
	00003: 07325, // CLA CLL CML IAC RAL
	00004: 07307, // CLA CLL IAC RTL
	00006: 07327, // CLA CLL CML IAC RTL
	06000: 07333, // CLA CLL CML IAC RTR
	00100: 07203, // CLA IAC BSW
}

// NLOAD_R3L loads 0010 on the HD6120 only.
const (
	NLOAD_R3L_VALUE = 00010
	NLOAD_R3L       = 07315 // CLA CLL IAC R3L
	NLOAD_NOP       = 07000
)

// NLoad returns the single operate instruction that loads the constant.
func NLoad(cpu Processor, value Word) (code Word, ok bool) {
	if value == NLOAD_R3L_VALUE {
		if cpu == PROCESSOR_HD6120 {
			return NLOAD_R3L, true
		}
		return NLOAD_NOP, false
	}

	code, ok = nloadTable[value]
	if !ok {
		code = NLOAD_NOP
	}

	return
}
