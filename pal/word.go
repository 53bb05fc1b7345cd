package pal

// Word is a 12-bit machine word.
type Word uint16

const (
	WORD_MASK   = 07777 // Mask of a 12-bit word
	SIGN_BIT    = 04000 // Sign bit of a 12-bit word
	PAGE_SIZE   = 0200  // Words per page
	PAGE_MASK   = 07600 // Page number bits of an address
	OFFSET_MASK = 0177  // Page offset bits of an address
	FIELD_COUNT = 8     // Number of memory fields
	FIELD_SIZE  = 010000
	MEMORY_SIZE = FIELD_COUNT * FIELD_SIZE

	ORIGIN = 0200 // Location counter at the start of each pass
)

const (
	IDENT_LEN       = 11   // Significant characters in a symbol name
	MAX_ARGS        = 10   // Maximum formal or actual macro arguments
	MAX_LINE        = 256  // Maximum length of an expanded source line
	MAX_BODY        = 4096 // Maximum length of a macro body
	SYMBOL_CAPACITY = 3079 // Default symbol table capacity
)

// Page returns the first address of the page holding the address.
func (w Word) Page() Word {
	return w & PAGE_MASK
}

// Offset returns the offset of the address within its page.
func (w Word) Offset() Word {
	return w & OFFSET_MASK
}

// Negative is true if the sign bit is set.
func (w Word) Negative() bool {
	return w&SIGN_BIT != 0
}
