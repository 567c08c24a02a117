package circuit

import (
	"encoding/hex"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// Fingerprint returns the SHA3-256 digest of the circuit's JSON encoding as a
// lowercase hex string. encoding/json emits map keys in sorted order, so
// equal circuits always produce equal fingerprints.
func (c Circuit) Fingerprint() (string, error) {
	payload, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(err, "encoding circuit for fingerprinting")
	}
	hash := sha3.New256()
	hash.Write(payload)
	return hex.EncodeToString(hash.Sum(nil)), nil
}
