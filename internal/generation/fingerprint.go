package generation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"sparkAPI/internal/couple"
)

// Fingerprint keys the generation cache. Names are left out so couples in a
// similar situation share generated challenges.
func Fingerprint(c couple.Context, category string) string {
	// struct fields marshal in declaration order, which keeps the key stable
	raw, _ := json.Marshal(struct {
		Category             string `json:"category"`
		RelationshipDuration string `json:"relationship_duration"`
		RelationshipStatus   string `json:"relationship_status"`
	}{
		Category:             category,
		RelationshipDuration: c.RelationshipDuration,
		RelationshipStatus:   c.RelationshipStatus,
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
