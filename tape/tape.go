// Package tape reads and writes PDP-8 BIN loader format paper tapes.
package tape

import (
	"bufio"
	"io"

	"github.com/ezrec/palx/pal"
)

const (
	LEADER_BYTE   = byte(0200) // leader and trailer frame
	LEADER_LENGTH = 32         // frames of leader and trailer
	ORIGIN_BIT    = byte(0100) // set on the first frame of an origin
	FIELD_BITS    = byte(0300) // field frame marker
	FRAME_MASK    = byte(077)  // six data bits per frame
)

// Writer punches assembled words onto a BIN format tape.
type Writer struct {
	output *bufio.Writer

	started  bool
	closed   bool
	field    pal.Word
	last     pal.Word
	checksum uint16
}

// NewWriter creates a tape writer. Nothing is written until the first word
// is emitted or the tape is closed.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		output: bufio.NewWriter(w),
		last:   pal.FIELD_SIZE,
	}
}

// punch writes one frame. Frames with the high bit set are not summed.
func (tw *Writer) punch(frames ...byte) (err error) {
	for _, frame := range frames {
		if frame&LEADER_BYTE == 0 {
			tw.checksum += uint16(frame)
		}
		err = tw.output.WriteByte(frame)
		if err != nil {
			return
		}
	}
	return
}

func (tw *Writer) leader() (err error) {
	for range LEADER_LENGTH {
		err = tw.punch(LEADER_BYTE)
		if err != nil {
			return
		}
	}
	return
}

func (tw *Writer) start() (err error) {
	if tw.started {
		return
	}
	tw.started = true
	return tw.leader()
}

func split(value pal.Word) (hi, lo byte) {
	return byte(value>>6) & FRAME_MASK, byte(value) & FRAME_MASK
}

// Emit punches a word, preceded by field and origin frames as needed.
func (tw *Writer) Emit(field, address, value pal.Word) (err error) {
	if tw.closed {
		return ErrClosed
	}

	err = tw.start()
	if err != nil {
		return
	}

	if field != tw.field {
		err = tw.punch(FIELD_BITS | byte(field&7)<<3)
		if err != nil {
			return
		}
		tw.field = field
	}

	if address != tw.last+1 {
		hi, lo := split(address)
		err = tw.punch(ORIGIN_BIT|hi, lo)
		if err != nil {
			return
		}
	}
	tw.last = address

	hi, lo := split(value)
	return tw.punch(hi, lo)
}

// Checksum returns the running twelve bit checksum.
func (tw *Writer) Checksum() pal.Word {
	return pal.Word(tw.checksum) & pal.WORD_MASK
}

// Close punches the checksum and the trailer, and flushes the tape.
func (tw *Writer) Close() (err error) {
	if tw.closed {
		return ErrClosed
	}

	err = tw.start()
	if err != nil {
		return
	}

	tw.closed = true

	hi, lo := split(tw.Checksum())
	err = tw.punch(hi, lo)
	if err != nil {
		return
	}

	err = tw.leader()
	if err != nil {
		return
	}

	return tw.output.Flush()
}
