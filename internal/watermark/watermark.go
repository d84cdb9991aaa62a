// Package watermark stamps protected output and recognizes it again, so a
// file is never sent through protection twice.
package watermark

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// Prefix is the literal start of every watermark line.
const Prefix = "// Protected by Shield"

// BOM is the UTF-8 byte-order mark written ahead of protected files.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var pattern = regexp.MustCompile(`^// Protected by Shield \[[0-9a-f]{8}\]`)

// NewID returns 8 random lowercase hex digits.
func NewID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("watermark: read random: %v", err))
	}
	return hex.EncodeToString(b)
}

// Line returns the watermark comment for id, without a line break.
func Line(id string) string {
	return fmt.Sprintf("%s [%s]", Prefix, id)
}

// Apply prefixes code with a fresh watermark line.
func Apply(code string) string {
	return Line(NewID()) + "\n" + code
}

// IsAlreadyProtected reports whether content starts with a watermark.
// A leading byte-order mark is ignored.
func IsAlreadyProtected(content []byte) bool {
	return pattern.Match(bytes.TrimPrefix(content, BOM))
}

// WithBOM returns code encoded for writing: BOM followed by the UTF-8 text.
func WithBOM(code string) []byte {
	out := make([]byte, 0, len(BOM)+len(code))
	out = append(out, BOM...)
	return append(out, code...)
}
