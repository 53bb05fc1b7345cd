package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	Use("en-US")
	assert.Equal("plain", From("plain"))
	assert.Equal("line 12 value 0017", From("line %d value %04o", 12, 15))
}

func TestUse(t *testing.T) {
	assert := assert.New(t)

	defer Use("en-US")

	Use()
	assert.Equal("pass 2", From("pass %d", 2))
}
