package zfp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCRC16CCITT(t *testing.T) {
	// CRC-16/XMODEM check value.
	assert.Equal(t, uint16(0x31C3), crc16CCITT([]byte("123456789")))
	assert.Equal(t, uint16(0x0000), crc16CCITT(nil))
}

func TestFrameRoundTrip(t *testing.T) {
	payload := []byte("OpenReceipt\tOperNum=01\t")
	frame := makeFrame(payload)

	require.Equal(t, byte(0x02), frame[0])
	require.Equal(t, byte(0x03), frame[len(frame)-1])

	got, err := readFrame(bufio.NewReader(bytes.NewReader(frame)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameSkipsNoiseBeforeSTX(t *testing.T) {
	frame := makeFrame([]byte("PaperFeed\t"))
	stream := append([]byte("garbage\r\n"), frame...)

	got, err := readFrame(bufio.NewReader(bytes.NewReader(stream)))
	require.NoError(t, err)
	assert.Equal(t, []byte("PaperFeed\t"), got)
}

func TestReadFrameCRCMismatch(t *testing.T) {
	frame := makeFrame([]byte("CutPaper\t"))
	frame[2] ^= 0xFF

	_, err := readFrame(bufio.NewReader(bytes.NewReader(frame)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CRC")
}

func TestReadFrameTooShort(t *testing.T) {
	stream := []byte{0x02, '#', '1', '2', 0x03}
	_, err := readFrame(bufio.NewReader(bytes.NewReader(stream)))
	assert.Error(t, err)
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"@", "12", "345"}, splitFields([]byte("@\t12\t345\t")))
	assert.Equal(t, []string{"@"}, splitFields([]byte("@\t")))
	assert.Nil(t, splitFields(nil))
}
