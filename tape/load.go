package tape

import (
	"bufio"
	"errors"
	"io"
	"iter"

	"github.com/ezrec/palx/internal"
	"github.com/ezrec/palx/pal"
)

// Image is the memory contents loaded from a tape.
type Image struct {
	Words    map[int]pal.Word // Loaded words, by field<<12 | address.
	Checksum pal.Word         // Checksum punched on the tape.
}

// Get returns the word loaded at a location.
func (im *Image) Get(field, address pal.Word) (value pal.Word, ok bool) {
	value, ok = im.Words[int(field&7)<<12|int(address&pal.WORD_MASK)]
	return
}

// All iterates over the loaded words in location order.
func (im *Image) All() iter.Seq2[int, pal.Word] {
	return internal.SortedMap(im.Words)
}

// Load reads a BIN format tape, as the BIN loader would. The last data
// frame pair before the trailer is the checksum.
func Load(r io.Reader) (image *Image, err error) {
	input := bufio.NewReader(r)
	im := &Image{Words: map[int]pal.Word{}}

	next := func() (frame byte, err error) {
		frame, err = input.ReadByte()
		if errors.Is(err, io.EOF) {
			err = ErrTruncated
		}
		return
	}

	// Leader
	var frame byte
	for {
		frame, err = next()
		if err != nil {
			return
		}
		if frame != LEADER_BYTE {
			break
		}
	}

	var field pal.Word
	address := pal.Word(pal.ORIGIN)
	var sum uint16
	var pending pal.Word
	var hasPending bool

	commit := func() {
		if !hasPending {
			return
		}
		im.Words[int(field)<<12|int(address)] = pending
		address = (address + 1) & pal.WORD_MASK
		sum += uint16(pending>>6) + uint16(pending&077)
		hasPending = false
	}

	for frame != LEADER_BYTE {
		switch {
		case frame&FIELD_BITS == FIELD_BITS:
			commit()
			field = pal.Word(frame>>3) & 7
		case frame&LEADER_BYTE != 0:
			err = ErrFrame
			return
		default:
			var lo byte
			lo, err = next()
			if err != nil {
				return
			}
			if lo&^FRAME_MASK != 0 {
				err = ErrFrame
				return
			}
			value := pal.Word(frame&FRAME_MASK)<<6 | pal.Word(lo)

			commit()

			if frame&ORIGIN_BIT != 0 {
				address = value
				sum += uint16(frame) + uint16(lo)
			} else {
				pending = value
				hasPending = true
			}
		}

		frame, err = next()
		if err != nil {
			return
		}
	}

	if !hasPending {
		err = ErrTruncated
		return
	}

	im.Checksum = pending
	have := pal.Word(sum) & pal.WORD_MASK
	if have != pending {
		err = ErrChecksumMismatch{Want: uint16(pending), Have: uint16(have)}
		return
	}

	image = im
	return
}
