package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamsReproducible(t *testing.T) {
	a := NewStreamManager(42)
	b := NewStreamManager(42)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float(StreamOrderMix), b.Float(StreamOrderMix))
		assert.Equal(t, a.Exp(StreamPatience, 60), b.Exp(StreamPatience, 60))
	}
}

func TestStreamsIndependentAcrossLabels(t *testing.T) {
	a := NewStreamManager(42)
	b := NewStreamManager(42)

	// drain one stream heavily on a only
	for i := 0; i < 1000; i++ {
		a.Float(StreamBalk)
	}

	// every other stream must be untouched
	for _, label := range []string{StreamWalkInArrivals, StreamOrderMix, StreamSvcCounter, StreamSvcPack} {
		require.Equal(t, b.Float(label), a.Float(label), label)
	}
}

func TestStreamsDifferPerSeed(t *testing.T) {
	a := NewStreamManager(1)
	b := NewStreamManager(2)
	assert.NotEqual(t, a.Float(StreamOrderMix), b.Float(StreamOrderMix))
}

func TestUnregisteredStreamPanics(t *testing.T) {
	m := NewStreamManager(1)
	assert.Panics(t, func() { m.Float("no_such_stream") })
}
