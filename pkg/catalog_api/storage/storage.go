package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemoveOutcome tells the caller what happened to one key during a batch
// delete, so best-effort paths can log instead of swallowing errors.
type RemoveOutcome int

const (
	RemoveDeleted RemoveOutcome = iota
	RemoveNotFound
	RemoveFailed
)

type RemoveResult struct {
	Key     string
	Outcome RemoveOutcome
	Err     error
}

// ObjectStore is the single-bucket object storage collaborator. Upload never
// overwrites: keys are generated fresh per upload.
type ObjectStore interface {
	Upload(ctx context.Context, key, mime string, data []byte) error
	Remove(ctx context.Context, keys []string) []RemoveResult
	List(ctx context.Context, prefix string) ([]string, error)
	PublicURL(key string) string
	SignUpload(ctx context.Context, key string, expires time.Duration) (string, error)
}

// ExtForMime maps the accepted image mime types to a file extension; anything
// else lands as .bin, matching what the site historically stored.
func ExtForMime(mime string) string {
	switch mime {
	case "image/webp":
		return "webp"
	case "image/jpeg":
		return "jpg"
	case "image/png":
		return "png"
	}
	return "bin"
}

// NewVehicleImageKey generates a fresh storage key for a vehicle image.
// Keys are never reused, so concurrent edits cannot collide on a path.
func NewVehicleImageKey(vehicleID int, mime string) string {
	return fmt.Sprintf("vehicles/%d/%s.%s", vehicleID, uuid.New(), ExtForMime(mime))
}

// NewLeadAttachmentKey generates a storage key for a consignment attachment.
func NewLeadAttachmentKey(reference, mime string) string {
	return fmt.Sprintf("leads/%s/%s.%s", reference, uuid.New(), ExtForMime(mime))
}

// KeyFromURL derives the storage key from a public URL, the legacy fallback
// for rows whose metadata predates the path field. Returns "" when the URL
// does not belong to this store.
func KeyFromURL(publicBase, url string) string {
	base := strings.TrimSuffix(publicBase, "/") + "/"
	if !strings.HasPrefix(url, base) {
		return ""
	}
	return strings.TrimPrefix(url, base)
}
