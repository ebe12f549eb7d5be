package ihex

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

// Constants for record parsing.
const (
	// StartCode marks the beginning of every record
	StartCode = ':'

	// MinimumRecordLength is the length of a record with no data, without the start code
	MinimumRecordLength = 10

	// RecordHeaderSize is the size of the count, address and type fields in bytes
	RecordHeaderSize = 4

	// AddressSpace is the addressable range of a 16-bit record address
	AddressSpace = 1 << 16
)

// Parse parses an Intel HEX image held in memory.
//
// Example:
//
//	img, err := ihex.Parse(profile.Image)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d bytes in %d records\n", img.Size(), len(img.Records))
func Parse(text string) (*Image, error) {
	return ParseReader(strings.NewReader(text))
}

// ParseFile parses an Intel HEX image from the given file path.
func ParseFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open hex image")
	}
	defer func() { _ = f.Close() }()

	return ParseReader(f)
}

// ParseReader parses an Intel HEX image from any io.Reader.
// The whole image is validated before it is returned; a single bad record
// fails the parse, and so does anything but blank lines after the
// end-of-file record.
func ParseReader(r io.Reader) (*Image, error) {
	scanner := bufio.NewScanner(r)

	img := &Image{}
	used := bitset.New(AddressSpace)
	lineNum := 0
	sawEOF := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines
		if line == "" {
			continue
		}

		if sawEOF {
			return nil, &MalformedRecordError{Line: lineNum, Reason: "data after end-of-file record"}
		}

		recType, rec, err := parseRecord(line, lineNum)
		if err != nil {
			return nil, err
		}

		if recType == RecordEOF {
			sawEOF = true
			continue
		}

		for addr := uint(rec.Address); addr < uint(rec.End()); addr++ {
			if used.Test(addr) {
				return nil, &MalformedRecordError{
					Line:   lineNum,
					Reason: fmt.Sprintf("address 0x%04X overlaps an earlier record", addr),
				}
			}
			used.Set(addr)
		}

		img.Records = append(img.Records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read hex image")
	}

	if !sawEOF {
		return nil, &MalformedRecordError{Reason: "missing end-of-file record"}
	}

	return img, nil
}

// parseRecord decodes and validates a single record line.
func parseRecord(line string, lineNum int) (RecordType, Record, error) {
	malformed := func(format string, args ...interface{}) error {
		return &MalformedRecordError{Line: lineNum, Reason: fmt.Sprintf(format, args...)}
	}

	if line[0] != StartCode {
		return 0, Record{}, malformed("missing start code, got %q", line[0])
	}
	body := line[1:]

	if len(body) < MinimumRecordLength {
		return 0, Record{}, malformed("record too short: got %d characters, minimum is %d",
			len(body), MinimumRecordLength)
	}

	if len(body)%2 != 0 {
		return 0, Record{}, malformed("odd number of hex digits (%d)", len(body))
	}

	data, err := hex.DecodeString(body)
	if err != nil {
		return 0, Record{}, malformed("invalid hex data: %v", err)
	}

	count := int(data[0])
	address := uint16(data[1])<<8 | uint16(data[2]) // big-endian
	recType := RecordType(data[3])

	expectedLen := RecordHeaderSize + count + 1
	if len(data) != expectedLen {
		return 0, Record{}, malformed("data length mismatch: byte count says %d, record holds %d",
			count, len(data)-RecordHeaderSize-1)
	}

	checksum := data[len(data)-1]
	calculated := Checksum(data[:len(data)-1])
	if checksum != calculated {
		return 0, Record{}, malformed("checksum mismatch: got 0x%02X, expected 0x%02X",
			checksum, calculated)
	}

	switch recType {
	case RecordData:
		if int(address)+count > AddressSpace {
			return 0, Record{}, malformed("record at 0x%04X runs past the 16-bit address space", address)
		}
	case RecordEOF:
		if count != 0 {
			return 0, Record{}, malformed("end-of-file record carries %d data bytes", count)
		}
		return recType, Record{}, nil
	default:
		return 0, Record{}, malformed("unsupported record %s", recType)
	}

	rec := Record{
		Line:    lineNum,
		Address: address,
		Data:    make([]byte, count),
	}
	copy(rec.Data, data[RecordHeaderSize:RecordHeaderSize+count])

	return recType, rec, nil
}
