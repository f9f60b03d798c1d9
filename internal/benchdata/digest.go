package benchdata

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Digest returns the SHA-256 of the document's RFC 8785 canonical JSON form.
// Suite order does not affect the result.
func Digest(doc *Document) (string, error) {
	raw, err := marshalNoEscape(doc)
	if err != nil {
		return "", fmt.Errorf("marshal benchmark data: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize benchmark data: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
