package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_hashU64(t *testing.T) {
	assert.Equal(t, uint64(0xb187b4a8ec7061ab), HashU64(0))
	assert.Equal(t, uint64(0x5b45ef0cdc9dd012), HashU64(1))
	assert.Equal(t, HashU64(42), HashU64(42))

	assert.Equal(t, uint32(4108003504), HashKey(-1))
	assert.Equal(t, uint32(2138485953), HashKey(7))
	//negative keys hash by their 32-bit pattern
	h := HashU64(0xffffffff)
	assert.Equal(t, uint32(h^(h>>32)), HashKey(-1))
}
