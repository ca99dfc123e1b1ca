package generic

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolCallsFreshWhenEmpty(t *testing.T) {
	calls := 0
	p := NewPool(func() *bytes.Buffer {
		calls++
		return new(bytes.Buffer)
	}, nil)
	b := p.Get()
	require.NotNil(t, b)
	assert.Equal(t, 1, calls)
	p.Put(b)
}

func TestPoolResetsOnPut(t *testing.T) {
	p := NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)
	b := p.Get()
	b.WriteString("stale")
	p.Put(b)
	assert.Zero(t, b.Len())
}

func TestBorrow(t *testing.T) {
	p := NewPool(func() *bytes.Buffer { return new(bytes.Buffer) }, (*bytes.Buffer).Reset)

	out, err := Borrow(p, func(b *bytes.Buffer) (string, error) {
		b.WriteString("stroke")
		return b.String(), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stroke", out)

	boom := errors.New("boom")
	_, err = Borrow(p, func(b *bytes.Buffer) (int, error) {
		assert.Zero(t, b.Len(), "borrowed values start clean")
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
}
