package zfp

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	stx byte = 0x02
	etx byte = 0x03
	tab byte = 0x09

	crcPrefix = '#'
)

// crc16CCITT: poly=0x1021 init=0x0000 refin=false refout=false xorout=0x0000.
func crc16CCITT(data []byte) uint16 {
	var crc uint16 = 0x0000
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// makeFrame wraps a payload as STX payload '#'CRC4hex ETX.
func makeFrame(payload []byte) []byte {
	crc := crc16CCITT(payload)
	crcStr := fmt.Sprintf("%04X", crc)

	out := make([]byte, 0, 1+len(payload)+1+4+1)
	out = append(out, stx)
	out = append(out, payload...)
	out = append(out, crcPrefix)
	out = append(out, []byte(crcStr)...)
	out = append(out, etx)
	return out
}

// readFrame scans the stream for the next STX..ETX frame, verifies the
// trailing CRC and returns the raw payload.
func readFrame(r *bufio.Reader) ([]byte, error) {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == stx {
			break
		}
	}

	var buf []byte
	for {
		ch, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		if ch == etx {
			break
		}
		buf = append(buf, ch)
	}

	if len(buf) < 5 {
		return nil, errors.New("frame too short")
	}
	prefixPos := len(buf) - 5
	if buf[prefixPos] != crcPrefix {
		return nil, errors.New("CRC prefix not found at expected position")
	}

	payload := buf[:prefixPos]
	crcHex := string(buf[prefixPos+1:])

	gotBytes, err := hex.DecodeString(crcHex)
	if err != nil || len(gotBytes) != 2 {
		return nil, errors.New("CRC decode failed")
	}
	got := uint16(gotBytes[0])<<8 | uint16(gotBytes[1])
	want := crc16CCITT(payload)
	if got != want {
		return nil, errors.Errorf("CRC mismatch: got %04X want %04X", got, want)
	}
	return payload, nil
}

// splitFields splits a payload into its TAB-separated fields. A trailing
// TAB terminates the last field and does not produce an empty one.
func splitFields(payload []byte) []string {
	s := string(payload)
	s = strings.TrimSuffix(s, string([]byte{tab}))
	if s == "" {
		return nil
	}
	return strings.Split(s, string([]byte{tab}))
}

func sanitizeFrame(payload []byte) string {
	return strings.ReplaceAll(string(payload), string([]byte{tab}), "\\t")
}
