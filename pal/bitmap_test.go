package pal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmap(t *testing.T) {
	assert := assert.New(t)

	bm := &Bitmap{}
	assert.False(bm.FieldUsed(0))
	assert.Equal(MEMORY_SIZE, bm.CountEmpty(0))

	assert.False(bm.Mark(1, 00203))
	assert.True(bm.Mark(1, 00203))
	assert.True(bm.IsSet(1, 00203))
	assert.False(bm.IsSet(0, 00203))

	assert.True(bm.FieldUsed(1))
	assert.False(bm.FieldUsed(0))
	assert.Equal(uint8(1<<3), bm.Byte(010200))
	assert.Equal(00200, bm.CountEmpty(010000))

	bm.Clear()
	assert.False(bm.IsSet(1, 00203))
}
