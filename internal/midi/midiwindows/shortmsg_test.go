package midiwindows

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortMessageRoundTrip(t *testing.T) {
	cases := [][]byte{
		{0x90, 0x3C, 0x7F}, // note on
		{0xC5, 0x10},       // program change
		{0xD0, 0x40},       // channel pressure
		{0xE0, 0x00, 0x40}, // pitch bend
		{0xF2, 0x01, 0x02}, // song position
		{0xF3, 0x05},       // song select
		{0xF8},             // clock
	}
	for _, want := range cases {
		assert.Equal(t, want, unpackShortMessage(packShortMessage(want)), "% X", want)
	}
}

func TestUnpackRejectsNonStatus(t *testing.T) {
	assert.Nil(t, unpackShortMessage(0x00003C40))
	assert.Nil(t, unpackShortMessage(0x000000F0))
	assert.Nil(t, unpackShortMessage(0x000000F7))
}
