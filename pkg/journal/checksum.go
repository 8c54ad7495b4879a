package journal

import (
	"crypto/sha256"
	"encoding/base64"
	"strconv"
)

// Checksum returns the h1 digest (SHA-256, base64) of an ordered statement
// sequence. Each statement is length-prefixed before hashing, so the result is
// sensitive to statement order and boundaries as well as content.
//
// Example:
//
//	journal.Checksum([]string{"INSERT INTO t VALUES (1);"})
//	// h1:...
func Checksum(statements []string) string {
	h := sha256.New()
	for _, stmt := range statements {
		h.Write([]byte(strconv.Itoa(len(stmt))))
		h.Write([]byte{':'})
		h.Write([]byte(stmt))
		h.Write([]byte{'\n'})
	}

	return "h1:" + base64.StdEncoding.EncodeToString(h.Sum(nil))
}
