// Package pal implements a two pass cross assembler for the PDP-8 family of
// 12-bit minicomputers, including the Intersil IM6100 and Harris HD6120
// microprocessor variants.
//
// Source text is read twice. The first pass assigns addresses and enters
// labels, equates, user opcodes and macros into the symbol table. The second
// pass evaluates every statement against the complete table and delivers
// generated words to an ObjectWriter and listing lines to a Lister.
//
// Each 128 word page owns a literal pool growing downward from the top of the
// page, while code grows upward from the bottom. The pool is written out
// whenever the location counter moves to another page.
//
// Errors in the source are reported as single letter flags on the offending
// listing line, and assembly continues. Only a handful of conditions, such as
// an unreadable source or a full symbol table, abort the run.
package pal
