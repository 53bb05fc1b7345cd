package pal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorSet(t *testing.T) {
	assert := assert.New(t)

	set, ok := ParseErrorSet("u, w p")
	assert.True(ok)
	assert.True(set.Has(ER_UNDEFINED))
	assert.True(set.Has(ER_OFFPAGE))
	assert.True(set.Has(ER_PAGE))
	assert.False(set.Has(ER_SYNTAX))
	assert.Equal("PUW", set.String())

	_, ok = ParseErrorSet("U1")
	assert.False(ok)
}

func TestErrorCode(t *testing.T) {
	assert := assert.New(t)

	assert.True(ER_SYNTAX.Valid())
	assert.False(ErrorCode('Q').Valid())
	assert.Equal("X", ER_SYNTAX.String())
	assert.Equal("syntax error", ER_SYNTAX.Description())

	flags := Flags{ER_UNDEFINED, ER_OFFPAGE}
	assert.True(flags.Has(ER_OFFPAGE))
	assert.False(flags.Has(ER_PAGE))
	assert.Equal("UW", flags.String())
}

func TestErrFatal(t *testing.T) {
	assert := assert.New(t)

	err := error(ErrFatal{Pass: 2, LineNo: 17, Err: ErrMacroBodyTooLong})
	assert.True(errors.Is(err, ErrMacroBodyTooLong))
	assert.Equal("pass 2 line 17: macro body too long", err.Error())
}
