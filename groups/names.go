/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package groups

import (
	"crypto/rand"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/Seednode/secretsanta/pairing"
)

const (
	codeLength    = 6
	codeAlphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	MaxNameLength = 64
)

var namePolicy = bluemonday.StrictPolicy()

// NewCode returns a random 6 character upper-case base36 code.
func NewCode() string {
	// Largest multiple of 36 that fits in a byte; higher values are
	// rejected so every symbol is equally likely.
	const limit = 252

	out := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength*2)

	for len(out) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(out) == codeLength {
				break
			}
		}
	}

	return string(out)
}

// NormalizeCode makes user-typed codes comparable with stored ones.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeName strips markup, collapses whitespace, and enforces the
// length limit.
func NormalizeName(name string) (string, error) {
	clean := html.UnescapeString(namePolicy.Sanitize(name))
	clean = strings.Join(strings.Fields(clean), " ")

	if clean == "" {
		return "", &pairing.ValidationError{Reason: pairing.EmptyName}
	}
	if utf8.RuneCountInString(clean) > MaxNameLength {
		return "", &pairing.ValidationError{Reason: pairing.NameTooLong, Name: clean}
	}

	return clean, nil
}
