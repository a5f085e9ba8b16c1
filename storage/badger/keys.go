package badger

// Key prefixes for different data types
const (
	vectorRecordPrefix = "vecrec:"
)

// makeVectorKey generates a key for a vector by text fingerprint.
func makeVectorKey(fingerprint string) []byte {
	buf := make([]byte, len(vectorRecordPrefix)+len(fingerprint))
	offset := copy(buf, vectorRecordPrefix)
	copy(buf[offset:], fingerprint)
	return buf
}
