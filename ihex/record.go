package ihex

import "fmt"

// RecordType is the TT field of a record.
type RecordType byte

// Supported record types.
const (
	RecordData RecordType = 0x00
	RecordEOF  RecordType = 0x01
)

func (t RecordType) String() string {
	switch t {
	case RecordData:
		return "data"
	case RecordEOF:
		return "end-of-file"
	default:
		return fmt.Sprintf("type 0x%02X", byte(t))
	}
}

// Record is a single data record from an image.
type Record struct {
	// Line is the 1-based line number the record was read from
	Line int

	// Address is the load address of the first data byte
	Address uint16

	// Data holds the record payload
	Data []byte
}

// End returns the address one past the last data byte.
func (r Record) End() uint32 {
	return uint32(r.Address) + uint32(len(r.Data))
}

// Image is a fully validated Intel HEX image.
type Image struct {
	// Records contains the data records in file order
	Records []Record
}

// Size returns the total number of data bytes in the image.
func (img *Image) Size() int {
	n := 0
	for _, rec := range img.Records {
		n += len(rec.Data)
	}
	return n
}

// Bytes returns the image contents as an address-to-byte map.
func (img *Image) Bytes() map[uint32]byte {
	out := make(map[uint32]byte, img.Size())
	for _, rec := range img.Records {
		for i, b := range rec.Data {
			out[uint32(rec.Address)+uint32(i)] = b
		}
	}
	return out
}

// MalformedRecordError reports a record that failed validation.
type MalformedRecordError struct {
	Line   int
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("malformed hex image: %s", e.Reason)
	}
	return fmt.Sprintf("malformed hex record on line %d: %s", e.Line, e.Reason)
}
