package rxcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRCCCITTKnownVector(t *testing.T) {
	// "123456789" with poly 0x1021, init 0x0000, no refin/refout, no
	// xorout is the well-known CRC-16/XMODEM test vector: 0x31C3.
	got := crcCCITTBytes(0x0000, []byte("123456789"))
	assert.Equal(t, uint16(0x31C3), got)
}

func TestCRCCCITTEmpty(t *testing.T) {
	assert.Equal(t, uint16(0), crcCCITTBytes(0, nil))
}

func TestCRCCCITTDetectsSingleBitFlip(t *testing.T) {
	data := []byte{0xA1, 0x08, 0x00, 0x08, 0x00}
	base := crcCCITTBytes(0, data)
	data[2] ^= 0x01
	assert.NotEqual(t, base, crcCCITTBytes(0, data))
}
