// Package ids generates prefixed random identifiers like "usr_3af1...".
package ids

import (
	"crypto/rand"
	"encoding/hex"
)

const randomBytes = 16

func New(prefix string) (string, error) {
	b := make([]byte, randomBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return prefix + "_" + hex.EncodeToString(b), nil
}
