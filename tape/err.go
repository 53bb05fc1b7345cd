package tape

import (
	"errors"

	"github.com/ezrec/palx/translate"
)

var f = translate.From

var (
	ErrChecksum  = errors.New(f("tape checksum mismatch"))
	ErrTruncated = errors.New(f("tape ends without trailer"))
	ErrFrame     = errors.New(f("illegal tape frame"))
	ErrClosed    = errors.New(f("tape already closed"))
)

// ErrChecksumMismatch reports the checksum read from a tape, and the one
// calculated from its contents.
type ErrChecksumMismatch struct {
	Want uint16
	Have uint16
}

func (err ErrChecksumMismatch) Error() string {
	return f("%v: tape %04o, calculated %04o", ErrChecksum, err.Want, err.Have)
}

func (err ErrChecksumMismatch) Unwrap() error {
	return ErrChecksum
}
