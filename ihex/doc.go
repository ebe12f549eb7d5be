// Package ihex parses and encodes the Intel HEX text images stored in the
// chip catalog.
//
// # Record Format
//
// Each line of an image is one record:
//
//	:LLAAAATT[DD...]CC
//	  LL   = data byte count
//	  AAAA = 16-bit load address (big-endian)
//	  TT   = record type (00 data, 01 end of file)
//	  DD   = data bytes
//	  CC   = 2's complement of the sum of all preceding bytes
//
// Example:
//
//	:0400000001020304F2
//	  04   = 4 data bytes
//	  0000 = address 0x0000
//	  00   = data record
//	  01020304 = data
//	  F2   = checksum
//
// Only data and end-of-file records are accepted. Extended segment and
// linear address records (02, 03, 04, 05) are rejected because every
// supported target has less than 64 KiB of flash.
//
// # Usage
//
//	img, err := ihex.Parse(profile.Image)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, rec := range img.Records {
//	    fmt.Printf("0x%04X: % X\n", rec.Address, rec.Data)
//	}
//
// # Error Handling
//
// Parsing is all-or-nothing: the first malformed record aborts the parse and
// no partial image is returned. Errors are *MalformedRecordError values that
// carry the offending line number.
package ihex
