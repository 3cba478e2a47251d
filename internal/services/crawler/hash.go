package crawler

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/ternarybob/quaestor/internal/models"
)

// HashLinks computes the page fingerprint: the SHA3-256 hex digest of the
// JSON-serialized extracted-link list. Only the link set feeds the hash, so
// chrome and incidental content changes do not force reclassification. A
// page with no links hashes the empty JSON array.
func HashLinks(links []models.ExtractedLink) (string, error) {
	if links == nil {
		links = []models.ExtractedLink{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("failed to serialize link list: %w", err)
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
