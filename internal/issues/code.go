package issues

import (
	"crypto/rand"
	"fmt"
)

// Verification codes use an unambiguous uppercase alphabet (no O/0 or I/1
// confusion pairs) so a reader can type one off a printed page.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the verification code length. 32^12 values keeps the
// collision probability negligible over any realistic issue volume; an
// insert collision is still treated as fatal, never retried with a
// truncated code.
const CodeLength = 12

// GenerateCode returns a fresh verification code.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
