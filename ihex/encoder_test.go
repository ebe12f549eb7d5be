package ihex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/marcinbor85/gohex"
)

func TestEncodeString(t *testing.T) {
	got, err := EncodeString(0x0000, []byte{0x01, 0x02, 0x03, 0x04}, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := ":0400000001020304F2\n:00000001FF\n"
	if got != want {
		t.Errorf("EncodeString() = %q, want %q", got, want)
	}
}

func TestEncodeRecordLength(t *testing.T) {
	data := make([]byte, 40)
	for i := range data {
		data[i] = byte(i)
	}

	tests := []struct {
		name        string
		recordLen   int
		wantRecords int
	}{
		{name: "sixteen", recordLen: 16, wantRecords: 3},
		{name: "eight", recordLen: 8, wantRecords: 5},
		{name: "zero falls back to default", recordLen: 0, wantRecords: 3},
		{name: "too large falls back to default", recordLen: 300, wantRecords: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := EncodeString(0x0100, data, tt.recordLen)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			img, err := Parse(text)
			if err != nil {
				t.Fatalf("re-parse failed: %v", err)
			}
			if len(img.Records) != tt.wantRecords {
				t.Errorf("got %d records, want %d", len(img.Records), tt.wantRecords)
			}
			if img.Records[0].Address != 0x0100 {
				t.Errorf("first record address = 0x%04X, want 0x0100", img.Records[0].Address)
			}
		})
	}
}

func TestEncodeOutOfRange(t *testing.T) {
	_, err := EncodeString(0xFFF0, make([]byte, 32), 16)
	if err == nil {
		t.Fatal("expected error for data past 0xFFFF, got nil")
	}
}

// TestRoundTripAgainstGohex checks both directions against an independent decoder.
func TestRoundTripAgainstGohex(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i*7 + 3)
	}

	text, err := EncodeString(0x0200, data, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(strings.NewReader(text)); err != nil {
		t.Fatalf("gohex rejected encoded image: %v", err)
	}

	segments := mem.GetDataSegments()
	if len(segments) != 1 {
		t.Fatalf("gohex found %d segments, want 1", len(segments))
	}
	if segments[0].Address != 0x0200 {
		t.Errorf("segment address = 0x%04X, want 0x0200", segments[0].Address)
	}
	if !bytes.Equal(segments[0].Data, data) {
		t.Error("gohex decoded data differs from input")
	}

	img, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}

	replayed := make([]byte, len(data))
	for _, rec := range img.Records {
		copy(replayed[int(rec.Address)-0x0200:], rec.Data)
	}
	if !bytes.Equal(replayed, data) {
		t.Error("replayed records do not reconstruct the input")
	}
}
