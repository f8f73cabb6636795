package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Alphabet without lookalike characters (0/O, 1/I/L) so a passphrase can
// be read aloud across a table.
const passphraseAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const passphraseLength = 6

// NewSessionToken mints the opaque bearer token handed to a guest device.
func NewSessionToken() string {
	return uuid.NewString()
}

// NewTableSalt mints the public QR identifier of a table. Rotating it
// invalidates every previously printed QR code.
func NewTableSalt() string {
	return uuid.NewString()
}

// NewPassphrase generates the short shared secret guests exchange to join
// an existing seating.
func NewPassphrase() string {
	buf := make([]byte, passphraseLength)
	max := big.NewInt(int64(len(passphraseAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken.
			panic(err)
		}
		buf[i] = passphraseAlphabet[n.Int64()]
	}
	return string(buf)
}
