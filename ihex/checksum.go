package ihex

// Checksum computes the record checksum over the count, address, type and
// data bytes: the 2's complement of their 8-bit sum.
func Checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}
