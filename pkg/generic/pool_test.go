package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListPoolReturnsEmptySlices(t *testing.T) {
	p := NewListPool[*int](4, 0)
	s := p.Obtain()
	v := 3
	*s = append(*s, &v, &v)
	p.Release(s)

	again := p.Obtain()
	assert.Len(t, *again, 0)
}

func TestListPoolClearsReleasedElements(t *testing.T) {
	p := NewListPool[*int](2, 0)
	s := p.Obtain()
	v := 1
	*s = append(*s, &v)
	backing := (*s)[:1]
	p.Release(s)
	assert.Nil(t, backing[0])
}

func TestListPoolReleaseNil(t *testing.T) {
	p := NewListPool[int](1, 1)
	assert.NotPanics(t, func() { p.Release(nil) })
}

func TestHotPoolGeneratesOnDemand(t *testing.T) {
	made := 0
	p := NewHotPool(func() []byte {
		made++
		return make([]byte, 8)
	}, 3)
	assert.Equal(t, 3, made)

	b := p.Get()
	assert.Len(t, b, 8)
	p.Put(b)
}
