/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guess

import (
	"crypto/rand"
	"strings"
)

const (
	CodeLength = 5

	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 32
)

// RandomCode returns a CodeLength room code drawn uniformly from [A-Z0-9].
func RandomCode() (string, error) {
	const max = byte(255 - (256 % len(codeAlphabet)))

	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength*2)

	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}

		for _, b := range buf {
			if b <= max {
				out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
				if len(out) == CodeLength {
					return string(out), nil
				}
			}
		}
	}

	return string(out), nil
}

// NormalizeCode trims and upper-cases user-typed codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
