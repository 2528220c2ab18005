package imaging

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"

	"github.com/corona10/goimagehash"
)

// Fingerprint returns a short stable identifier for image content, used to
// key cached reverse-search responses. Perceptually identical uploads map
// to the same fingerprint via a difference hash; when the image cannot be
// decoded or hashed, the raw bytes are hashed instead so the fingerprint
// stays deterministic.
func Fingerprint(raw []byte) string {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err == nil {
		if hash, herr := goimagehash.DifferenceHash(img); herr == nil {
			return fmt.Sprintf("d%016x", hash.GetHash())
		}
	}

	sum := sha256.Sum256(raw)
	return "s" + hex.EncodeToString(sum[:8])
}
