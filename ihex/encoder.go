package ihex

import (
	"fmt"
	"io"
	"strings"
)

// DefaultRecordLength is the number of data bytes per record used by most toolchains.
const DefaultRecordLength = 16

// Encode writes data as data records starting at base, followed by an
// end-of-file record. recordLen bytes go into each record; values outside
// 1..255 fall back to DefaultRecordLength.
func Encode(w io.Writer, base uint16, data []byte, recordLen int) error {
	if recordLen <= 0 || recordLen > 0xFF {
		recordLen = DefaultRecordLength
	}
	if int(base)+len(data) > AddressSpace {
		return fmt.Errorf("%d bytes at 0x%04X do not fit in a 16-bit address space", len(data), base)
	}

	for off := 0; off < len(data); off += recordLen {
		end := off + recordLen
		if end > len(data) {
			end = len(data)
		}
		if err := encodeRecord(w, RecordData, base+uint16(off), data[off:end]); err != nil {
			return err
		}
	}

	return encodeRecord(w, RecordEOF, 0, nil)
}

// EncodeString is Encode into a string, for building catalog images.
func EncodeString(base uint16, data []byte, recordLen int) (string, error) {
	var sb strings.Builder
	if err := Encode(&sb, base, data, recordLen); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func encodeRecord(w io.Writer, recType RecordType, address uint16, data []byte) error {
	raw := make([]byte, 0, RecordHeaderSize+len(data)+1)
	raw = append(raw, byte(len(data)), byte(address>>8), byte(address), byte(recType))
	raw = append(raw, data...)
	raw = append(raw, Checksum(raw))

	_, err := fmt.Fprintf(w, "%c%X\n", StartCode, raw)
	return err
}
