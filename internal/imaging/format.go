// Package imaging covers the byte-level image work: magic-number MIME
// sniffing and thumbnail resizing.
package imaging

// magicSignatures maps leading byte signatures to MIME types. An empty mask
// means plain prefix match; otherwise each payload byte is AND-ed with the
// mask before comparison (missing mask bytes default to 0xFF).
var magicSignatures = []struct {
	signature []byte
	mask      []byte
	mime      string
}{
	{[]byte("\x89PNG\r\n\x1a\n"), nil, "image/png"},
	{[]byte{0xff, 0xd8, 0xff}, nil, "image/jpeg"},
	{[]byte("GIF89a"), nil, "image/gif"},
	{[]byte("GIF87a"), nil, "image/gif"},
	{[]byte("RIFF\x00\x00\x00\x00WEBP"), []byte{0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0, 0}, "image/webp"},
	{[]byte("MM\x00*"), nil, "image/tiff"},
	{[]byte("II*\x00"), nil, "image/tiff"},
	{[]byte("BM"), nil, "image/bmp"},
	{[]byte{0, 0, 1, 0}, nil, "image/ico"},
	{[]byte("\x00\x00\x00\x00ftypavif"), []byte{0xFF, 0xFF, 0, 0}, "image/avif"},
	{[]byte("qoif"), nil, "image/qoi"},
	{[]byte("P1"), nil, "image/pnm"},
	{[]byte("P2"), nil, "image/pnm"},
	{[]byte("P3"), nil, "image/pnm"},
	{[]byte("P4"), nil, "image/pnm"},
	{[]byte("P5"), nil, "image/pnm"},
	{[]byte("P6"), nil, "image/pnm"},
	{[]byte("P7"), nil, "image/pnm"},
}

// DetectMIME sniffs the MIME type from the leading magic bytes, never from a
// file extension. Unrecognized data reports as a generic binary type.
func DetectMIME(data []byte) string {
	for _, m := range magicSignatures {
		if matchesSignature(data, m.signature, m.mask) {
			return m.mime
		}
	}
	return "application/octet-stream"
}

func matchesSignature(data, signature, mask []byte) bool {
	if len(data) < len(signature) {
		return false
	}
	for i, sig := range signature {
		b := data[i]
		if i < len(mask) {
			b &= mask[i]
		}
		if b != sig {
			return false
		}
	}
	return true
}
