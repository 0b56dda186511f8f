package storage

import "crypto/rand"

// Appointment ids are short, URL-safe, and generated client-side of the INSERT
// so they can be embedded in outbox payloads before commit. The alphabet drops
// i/l/o/u to avoid lookalike characters.
const shortIDAlphabet = "0123456789abcdefghjkmnpqrstvwxyz"

const shortIDLength = 10

func NewShortID() string {
	var b [shortIDLength]byte
	_, _ = rand.Read(b[:])
	for i := range b {
		b[i] = shortIDAlphabet[int(b[i])%len(shortIDAlphabet)]
	}
	return string(b[:])
}
