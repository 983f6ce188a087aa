package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must ensure key construction prevents cross-entity collisions (prefix by domain/type).
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// BlockUUID derives the identifier for a narration block from its page id, so
// repeated extraction of the same document yields the same block identities.
func BlockUUID(pageID string) uuid.UUID {
	return UUID("go-narration:block:" + strings.ToLower(strings.TrimSpace(pageID)))
}

// MediaUUID derives the storage identifier for a page's media item of a given
// kind. Re-storing media for the same page and kind replaces the prior item.
func MediaUUID(pageID, kind string) uuid.UUID {
	return UUID("go-narration:media:" + strings.ToLower(strings.TrimSpace(pageID)) + ":" + strings.ToLower(strings.TrimSpace(kind)))
}
