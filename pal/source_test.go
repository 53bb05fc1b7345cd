package pal

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaderSource(t *testing.T) {
	assert := assert.New(t)

	src := NewReaderSource(strings.NewReader("ONE\r\nTWO"))

	line, err := src.ReadLine()
	assert.NoError(err)
	assert.Equal("ONE\r\n", line)

	line, err = src.ReadLine()
	assert.NoError(err)
	assert.Equal("TWO", line)

	_, err = src.ReadLine()
	assert.ErrorIs(err, io.EOF)

	assert.NoError(src.Rewind())
	line, err = src.ReadLine()
	assert.NoError(err)
	assert.Equal("ONE\r\n", line)
}

func TestStringSource(t *testing.T) {
	assert := assert.New(t)

	src := NewStringSource("A\nB\n")
	var lines []string
	for {
		line, err := src.ReadLine()
		if err != nil {
			assert.ErrorIs(err, io.EOF)
			break
		}
		lines = append(lines, line)
	}
	assert.Equal([]string{"A\n", "B\n"}, lines)
}

func TestNormalizeLine(t *testing.T) {
	assert := assert.New(t)

	line, newPage := normalizeLine("\tTAD X\r\n")
	assert.Equal("\tTAD X\n", line)
	assert.False(newPage)

	line, newPage = normalizeLine("\f\tCLA")
	assert.Equal("\tCLA\n", line)
	assert.True(newPage)
}
