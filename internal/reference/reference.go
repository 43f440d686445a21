// Package reference generates display identifiers for ledger entries and
// account numbers. Both are lock-free: a coarse time component plus a
// crypto-random suffix, so references can be minted before any account lock
// is taken.
package reference

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// NewRef returns a transaction reference such as "TXNLQ3K9M4A1B2C3D4E5F6".
// The random suffix carries 48 bits of entropy.
func NewRef() string {
	b := make([]byte, 6)
	rand.Read(b)
	ts := strings.ToUpper(strconv.FormatInt(time.Now().Unix(), 36))
	return "TXN" + ts + strings.ToUpper(hex.EncodeToString(b))
}

// NewAccountNumber returns an account number such as "LG84123907A3F1".
func NewAccountNumber() string {
	b := make([]byte, 2)
	rand.Read(b)
	secs := strconv.FormatInt(time.Now().Unix(), 10)
	if len(secs) > 8 {
		secs = secs[len(secs)-8:]
	}
	return "LG" + secs + strings.ToUpper(hex.EncodeToString(b))
}
