package pal

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Source is a rewindable supply of source lines.
type Source interface {
	// ReadLine returns the next line, or io.EOF at the end of the source.
	ReadLine() (line string, err error)
	// Rewind restarts the source from its first line.
	Rewind() error
}

// ReaderSource reads lines from a seekable stream, such as a file.
type ReaderSource struct {
	rs io.ReadSeeker
	r  *bufio.Reader
}

// NewReaderSource creates a Source from a seekable stream.
func NewReaderSource(rs io.ReadSeeker) *ReaderSource {
	return &ReaderSource{rs: rs, r: bufio.NewReader(rs)}
}

func (src *ReaderSource) ReadLine() (line string, err error) {
	line, err = src.r.ReadString('\n')
	if errors.Is(err, io.EOF) && len(line) > 0 {
		err = nil
	}
	return
}

func (src *ReaderSource) Rewind() (err error) {
	_, err = src.rs.Seek(0, io.SeekStart)
	if err != nil {
		return
	}
	src.r.Reset(src.rs)
	return
}

// StringSource supplies lines from an in-memory text.
type StringSource struct {
	lines []string
	index int
}

// NewStringSource creates a Source from text.
func NewStringSource(text string) *StringSource {
	src := &StringSource{}
	for len(text) > 0 {
		n := strings.IndexByte(text, '\n')
		if n < 0 {
			src.lines = append(src.lines, text)
			break
		}
		src.lines = append(src.lines, text[:n+1])
		text = text[n+1:]
	}
	return src
}

func (src *StringSource) ReadLine() (line string, err error) {
	if src.index >= len(src.lines) {
		err = io.EOF
		return
	}
	line = src.lines[src.index]
	src.index++
	return
}

func (src *StringSource) Rewind() error {
	src.index = 0
	return nil
}

// normalizeLine converts a raw source line to end with a single newline,
// and removes any form feeds.
func normalizeLine(raw string) (line string, newPage bool) {
	line = strings.TrimSuffix(raw, "\n")
	line = strings.TrimSuffix(line, "\r")
	if strings.IndexByte(line, '\f') >= 0 {
		line = strings.ReplaceAll(line, "\f", "")
		newPage = true
	}
	return line + "\n", newPage
}

// nextLine loads the next line to assemble, from the innermost active macro
// expansion or from the source. It returns false at the end of the source.
func (asm *Assembler) nextLine() bool {
	for !asm.expansions.Empty() {
		exp, _ := asm.expansions.Peek()
		line, ok, err := exp.nextLine(asm.flag)
		if err != nil {
			asm.fatal(err)
		}
		if ok {
			asm.text = line
			return true
		}
		asm.expansions.Pop()
	}

	raw, err := asm.source.ReadLine()
	if errors.Is(err, io.EOF) {
		return false
	}
	if err != nil {
		asm.fatal(errors.Join(ErrSourceRead, err))
	}

	asm.lineNo++
	line, newPage := normalizeLine(raw)
	asm.text = line
	if newPage && asm.pass == 2 && asm.Lister != nil {
		asm.Lister.Eject()
	}

	if asm.Verbose {
		asm.log().Debug("line", "pass", asm.pass, "line", asm.lineNo, "text", strings.TrimSuffix(line, "\n"))
	}

	return true
}

// sourceChar returns the next character of a block that may span lines.
// At the end of a line, the line is listed and the next one is read.
func (asm *Assembler) sourceChar(cur *cursor) byte {
	for cur.pos >= len(cur.text) {
		if asm.pass == 2 {
			asm.listSource()
		}
		if !asm.nextLine() {
			asm.fatal(ErrBlockUnterminated)
		}
		cur.text = asm.text
		cur.pos = 0
	}
	return cur.next()
}
