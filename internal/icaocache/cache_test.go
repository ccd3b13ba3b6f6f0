package icaocache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndContains(t *testing.T) {
	c := New(time.Minute)
	assert.False(t, c.Contains(0x484412))

	c.Insert(0x484412)
	assert.True(t, c.Contains(0x484412))
	assert.False(t, c.Contains(0x123456))
}

func TestExpiry(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.Insert(0xABCDEF)
	assert.True(t, c.Contains(0xABCDEF))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, c.Contains(0xABCDEF))
}

func TestLen(t *testing.T) {
	c := New(time.Minute)
	c.Insert(1)
	c.Insert(2)
	c.Insert(1) // recency wins, not a new slot
	assert.Equal(t, 2, c.Len())
}

func TestDefaultTTL(t *testing.T) {
	c := New(0)
	assert.NotNil(t, c.c)
}
